package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blocktest/internal/block"
)

func executeGenerate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	opts := &RootOptions{Format: format}
	cmd := NewGenerateCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestGenerateToStdout(t *testing.T) {
	out, err := executeGenerate(t, "text", filepath.Join("testdata", "calculator.yaml"))
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "calculator", []byte(out))
}

func TestGenerateJSONDocument(t *testing.T) {
	dir := t.TempDir()
	doc := block.Document{
		Name: "string utils",
		Blocks: []block.DocNode{{
			Type:   block.KindFunction,
			Fields: map[string]string{"funcName": "trims"},
			Children: []block.DocNode{{
				Type:   block.KindAssertThat,
				Fields: map[string]string{"target": `" a ".trim()`},
				Children: []block.DocNode{{
					Type:   block.KindMatcher,
					Fields: map[string]string{"matcherType": "IS_EQUAL_TO", "value": `"a"`},
				}},
			}},
		}},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, "utils.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := executeGenerate(t, "json", path)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   GenerateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "StringUtilsTest", resp.Data.ClassName)
	assert.Equal(t, 3, resp.Data.Blocks)
	assert.Equal(t, 1, resp.Data.Functions)
	assert.Contains(t, resp.Data.Code, `assertThat(" a ".trim()).isEqualTo("a");`)
}

func TestGenerateOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "src", "CalculatorTest.java")

	out, err := executeGenerate(t, "text", filepath.Join("testdata", "calculator.yaml"), "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Generated CalculatorTest (1 function(s), 4 block(s))")
	assert.Contains(t, out, "Wrote Java source to "+outputFile)

	written, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	golden, err := os.ReadFile(filepath.Join("testdata", "golden", "calculator.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(golden), string(written))
}

func TestGenerateErrors(t *testing.T) {
	dir := t.TempDir()
	unknownField := filepath.Join(dir, "typo.yaml")
	require.NoError(t, os.WriteFile(unknownField, []byte("name: x\nblokcs: []\n"), 0o644))
	badKind := filepath.Join(dir, "kind.yaml")
	require.NoError(t, os.WriteFile(badKind, []byte("name: x\nblocks:\n  - type: loop\n"), 0o644))

	tests := []struct {
		name     string
		path     string
		wantCode string
	}{
		{"missing file", filepath.Join(dir, "nope.yaml"), ErrCodeNotFound},
		{"unknown field", unknownField, ErrCodeParseFailed},
		{"unknown kind", badKind, ErrCodeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeGenerate(t, "json", tt.path)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestLoadDocumentDefaultsNameToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("blocks:\n  - type: function\n    fields: {funcName: pushes}\n"), 0o644))

	su, err := LoadDocument(path, block.NewSequenceGenerator("d"))
	require.NoError(t, err)
	assert.Equal(t, "stack", su.Name)
	assert.Equal(t, "d-1", su.ID)
	require.Len(t, su.Blocks, 1)
	assert.Equal(t, "d-2", su.Blocks[0].ID)
}
