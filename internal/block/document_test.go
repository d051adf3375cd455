package block

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const calculatorYAML = `
name: Calculator
blocks:
  - type: function
    fields: {funcName: addsTwoNumbers}
    children:
      - type: variable
        fields: {varType: int, varName: sum, value: "1+1"}
      - type: assertThat
        fields: {target: sum}
        children:
          - type: matcher
            fields: {matcherType: IS_EQUAL_TO, value: "2"}
`

func TestDocumentSuite(t *testing.T) {
	var doc Document
	dec := yaml.NewDecoder(strings.NewReader(calculatorYAML))
	dec.KnownFields(true)
	require.NoError(t, dec.Decode(&doc))

	s, err := doc.Suite(NewSequenceGenerator("b"))
	require.NoError(t, err)

	assert.Equal(t, "b-1", s.ID)
	assert.Equal(t, "Calculator", s.Name)
	require.Len(t, s.Blocks, 4)
	assert.Equal(t, Function{FuncName: "addsTwoNumbers"}, s.Blocks[0].Payload)
	assert.Equal(t, s.Blocks[0].ID, s.Blocks[1].ParentID)
	assert.Equal(t, s.Blocks[0].ID, s.Blocks[2].ParentID)
	assert.Equal(t, s.Blocks[2].ID, s.Blocks[3].ParentID)
	assert.NoError(t, s.CheckTree())

	assert.Equal(t, MustFingerprint(sampleSuiteFirstFunction()), MustFingerprint(s))
}

func sampleSuiteFirstFunction() Suite {
	s := sampleSuite()
	s.Blocks = s.Blocks[:4]
	return s
}

func TestDocumentRoundTrip(t *testing.T) {
	s := sampleSuite()
	doc := DocumentOf(s)
	require.Len(t, doc.Blocks, 2)
	assert.Len(t, doc.Blocks[0].Children, 2)
	assert.Nil(t, doc.Blocks[1].Children)

	back, err := doc.Suite(NewSequenceGenerator("x"))
	require.NoError(t, err)
	assert.Equal(t, MustFingerprint(s), MustFingerprint(back))
}

func TestDocumentSuiteReportsPath(t *testing.T) {
	doc := Document{Blocks: []DocNode{{
		Type:     KindFunction,
		Children: []DocNode{{Type: KindVariable, Fields: map[string]string{"bogus": "x"}}},
	}}}
	_, err := doc.Suite(NewSequenceGenerator("b"))
	require.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, err.Error(), "blocks[0].children[0]")
}
