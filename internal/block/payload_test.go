package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayloadEveryKind(t *testing.T) {
	for _, k := range Kinds {
		t.Run(string(k), func(t *testing.T) {
			fields := make(map[string]string)
			for _, name := range FieldNames(k) {
				fields[name] = "v-" + name
			}
			p, err := NewPayload(k, fields)
			require.NoError(t, err)
			assert.Equal(t, k, p.Kind())
			assert.Equal(t, fields, Fields(p))
		})
	}
}

func TestNewPayloadUnknownKind(t *testing.T) {
	_, err := NewPayload("loop", nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNewPayloadUnknownField(t *testing.T) {
	_, err := NewPayload(KindVariable, map[string]string{"target": "x"})
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, err.Error(), "variable")
}

func TestWithDoesNotMutateReceiver(t *testing.T) {
	orig := Variable{VarType: "int", VarName: "sum", Value: "1+1"}
	updated, err := orig.With(FieldValue, "2+2")
	require.NoError(t, err)

	assert.Equal(t, "1+1", orig.Value)
	assert.Equal(t, Variable{VarType: "int", VarName: "sum", Value: "2+2"}, updated)
}

func TestGetUnknownField(t *testing.T) {
	_, ok := Comment{Text: "x"}.Get(FieldFuncName)
	assert.False(t, ok)

	v, ok := Comment{Text: "x"}.Get(FieldText)
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestFieldsOmitsEmpty(t *testing.T) {
	p := Matcher{MatcherType: MatchIsTrue}
	assert.Equal(t, map[string]string{FieldMatcherType: MatchIsTrue}, Fields(p))
}

func TestKindValid(t *testing.T) {
	assert.True(t, KindMatcher.Valid())
	assert.False(t, Kind("loop").Valid())
	assert.True(t, KindAnalyzeFunction.IsFunctionRoot())
	assert.False(t, KindVariable.IsFunctionRoot())
}

func TestMatcherCatalogue(t *testing.T) {
	spec, ok := LookupMatcher(MatchIsEqualTo)
	require.True(t, ok)
	assert.Equal(t, "isEqualTo", spec.Method)
	assert.True(t, spec.TakesValue)

	spec, ok = LookupMatcherMethod("isNull")
	require.True(t, ok)
	assert.Equal(t, MatchIsNull, spec.Type)
	assert.False(t, spec.TakesValue)

	assert.True(t, IsChainable(Matcher{MatcherType: MatchExtracting}))
	assert.False(t, IsChainable(Matcher{MatcherType: MatchIsTrue}))
	assert.False(t, IsChainable(AssertThat{Target: "x"}))

	_, ok = LookupMatcher("IS_PURPLE")
	assert.False(t, ok)
}
