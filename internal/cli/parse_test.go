package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/blocktest/internal/block"
)

func executeParse(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewParseCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestParseToYAML(t *testing.T) {
	out, _, err := executeParse(t, &RootOptions{Format: "text"}, filepath.Join("testdata", "CalculatorTest.java"))
	require.NoError(t, err)

	var doc block.Document
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Calculator", doc.Name)
	require.Len(t, doc.Blocks, 1)

	fn := doc.Blocks[0]
	assert.Equal(t, block.KindFunction, fn.Type)
	assert.Equal(t, "addsTwoNumbers", fn.Fields["funcName"])
	assert.Equal(t, "r1", fn.Fields["rubricId"])
	require.Len(t, fn.Children, 2)
	assert.Equal(t, block.KindVariable, fn.Children[0].Type)
	assert.Equal(t, block.KindAssertThat, fn.Children[1].Type)
	require.Len(t, fn.Children[1].Children, 1)
	assert.Equal(t, "IS_EQUAL_TO", fn.Children[1].Children[0].Fields["matcherType"])
}

func TestParseThenGenerateRoundTrip(t *testing.T) {
	docFile := filepath.Join(t.TempDir(), "calculator.json")

	out, _, err := executeParse(t, &RootOptions{Format: "text"}, filepath.Join("testdata", "CalculatorTest.java"), "-o", docFile)
	require.NoError(t, err)
	assert.Contains(t, out, `✓ Parsed 4 block(s) into suite "Calculator"`)

	data, err := os.ReadFile(docFile)
	require.NoError(t, err)
	assert.True(t, json.Valid(data), "output ending in .json should be JSON")

	code, err := executeGenerate(t, "text", docFile)
	require.NoError(t, err)
	original, err := os.ReadFile(filepath.Join("testdata", "CalculatorTest.java"))
	require.NoError(t, err)
	assert.Equal(t, string(original), code)
}

func TestParseJSONFormat(t *testing.T) {
	out, _, err := executeParse(t, &RootOptions{Format: "json"}, filepath.Join("testdata", "CalculatorTest.java"))
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ParseResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.Data.Blocks)
	assert.Equal(t, "Calculator", resp.Data.Document.Name)
}

func TestParseNamesUnmarkedSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "StackTest.java")
	require.NoError(t, os.WriteFile(src, []byte(`class StackTest {
    @Test
    void pushes() {
        assertThat(1).isEqualTo(1);
    }
}
`), 0o644))

	out, _, err := executeParse(t, &RootOptions{Format: "text"}, src)
	require.NoError(t, err)
	var doc block.Document
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Stack", doc.Name)

	out, _, err = executeParse(t, &RootOptions{Format: "text"}, src, "--name", "LIFO stack")
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "LIFO stack", doc.Name)
}

func TestParseVerboseLogsSkippedLines(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "OddTest.java")
	require.NoError(t, os.WriteFile(src, []byte(`class OddTest {
    @Test
    void odd() {
        System.out.println("hi");
    }
}
`), 0o644))

	out, errOut, err := executeParse(t, &RootOptions{Format: "text", Verbose: true}, src)
	require.NoError(t, err)
	assert.Contains(t, out, "funcName: odd")
	assert.Contains(t, errOut, "Parsed 1 block(s)")
}

func TestParseMissingFile(t *testing.T) {
	out, _, err := executeParse(t, &RootOptions{Format: "text"}, filepath.Join(t.TempDir(), "Missing.java"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestSuiteNameFromFile(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"CalculatorTest.java", "Calculator"},
		{"dir/Test.java", "Test"},
		{"Helpers.java", "Helpers"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, suiteNameFromFile(tt.path))
		})
	}
}
