package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/suite"
)

func equalityTemplate() Template {
	return Template{
		Name: "equality",
		Root: Node{
			Kind:   block.KindFunction,
			Fields: map[string]string{block.FieldFuncName: "addsTwoNumbers"},
			Children: []Node{
				{Kind: block.KindVariable, Fields: map[string]string{"varType": "int", "varName": "sum", "value": "1+1"}},
				{
					Kind:   block.KindAssertThat,
					Fields: map[string]string{"target": "sum"},
					Children: []Node{
						{Kind: block.KindMatcher, Fields: map[string]string{"matcherType": block.MatchIsEqualTo, "value": "2"}},
					},
				},
			},
		},
	}
}

func createTestStore(t *testing.T) (*suite.Store, string, *[]suite.Edit) {
	t.Helper()
	var edits []suite.Edit
	s := suite.New(
		suite.WithIDGenerator(block.NewSequenceGenerator("b")),
		suite.WithListener(func(e suite.Edit) { edits = append(edits, e) }),
	)
	id, err := s.CreateSuite("Calculator")
	require.NoError(t, err)
	edits = nil
	return s, id, &edits
}

func TestExpandAtomic(t *testing.T) {
	s, sid, edits := createTestStore(t)
	tmpl := equalityTemplate()

	ids, err := Expand(s, sid, tmpl, "")
	require.NoError(t, err)

	su, err := s.Suite(sid)
	require.NoError(t, err)
	assert.Len(t, su.Blocks, tmpl.Count(), "one block per template node")
	assert.Len(t, su.Children(""), 1, "exactly one new top-level block")
	assert.Equal(t, ids[0], su.Children("")[0].ID)
	assert.NoError(t, su.CheckTree())

	require.Len(t, *edits, 1, "expansion is a single edit")
	assert.Equal(t, suite.OpInsertBatch, (*edits)[0].Op)
	assert.Equal(t, ids, (*edits)[0].BlockIDs)
}

func TestExpandWiresFreshParents(t *testing.T) {
	s, sid, _ := createTestStore(t)
	tmpl := equalityTemplate()

	first, err := Expand(s, sid, tmpl, "")
	require.NoError(t, err)
	second, err := Expand(s, sid, tmpl, first[0])
	require.NoError(t, err)

	su, _ := s.Suite(sid)
	require.Len(t, su.Blocks, 8)
	assert.Equal(t, second[0], su.Blocks[0].ID, "inserted before the first expansion")
	assert.NotEqual(t, first[0], second[0])

	matcher, ok := su.Find(second[3])
	require.True(t, ok)
	assert.Equal(t, second[2], matcher.ParentID, "grandchild points at new assertion id")
	assert.Equal(t, block.Matcher{MatcherType: block.MatchIsEqualTo, Value: "2"}, matcher.Payload)
	assert.Equal(t, block.MustFingerprint(block.Suite{Blocks: su.Blocks[:4]}),
		block.MustFingerprint(block.Suite{Blocks: su.Blocks[4:]}))
}

func TestExpandRejectsInvalidRoot(t *testing.T) {
	s, sid, edits := createTestStore(t)
	_, err := Expand(s, sid, Template{Name: "bad", Root: Node{Kind: block.KindVariable}}, "")
	assert.ErrorIs(t, err, ErrInvalidRoot)
	assert.Empty(t, *edits)
}

func TestExpandRejectsDeepNesting(t *testing.T) {
	s, sid, edits := createTestStore(t)
	deep := Template{Name: "deep", Root: Node{
		Kind: block.KindFunction,
		Children: []Node{{
			Kind: block.KindAssertThat,
			Children: []Node{{
				Kind:     block.KindMatcher,
				Fields:   map[string]string{"matcherType": block.MatchExtracting},
				Children: []Node{{Kind: block.KindMatcher}},
			}},
		}},
	}}
	_, err := Expand(s, sid, deep, "")
	assert.ErrorIs(t, err, ErrTooDeep)
	assert.Contains(t, err.Error(), "root.children[0].children[0].children[0]")
	assert.Empty(t, *edits)

	su, _ := s.Suite(sid)
	assert.Empty(t, su.Blocks, "nothing is truncated or inserted")
}

func TestExpandUnknownSuite(t *testing.T) {
	s, _, _ := createTestStore(t)
	_, err := Expand(s, "ghost", equalityTemplate(), "")
	assert.ErrorIs(t, err, suite.ErrSuiteNotFound)
}

func TestBuiltinCatalog(t *testing.T) {
	all, err := Builtin()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	names := make([]string, len(all))
	for i, tmpl := range all {
		names[i] = tmpl.Name
		assert.NoError(t, tmpl.Validate(), tmpl.Name)
	}
	assert.Equal(t, []string{"equality", "exception", "null-check", "collection-size", "class-shape", "structure"}, names)

	structure, ok := Lookup("structure")
	require.True(t, ok)
	assert.Equal(t, block.KindAnalyzeFunction, structure.Root.Kind)
	assert.Len(t, structure.Root.Children, 2)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestCompileCatalogErrors(t *testing.T) {
	t.Run("syntax error has position", func(t *testing.T) {
		_, err := CompileCatalog([]byte("templates: [ {name: "), "bad.cue")
		require.Error(t, err)
		var ce *CompileError
		require.ErrorAs(t, err, &ce)
		assert.Contains(t, err.Error(), "bad.cue")
	})

	t.Run("missing templates", func(t *testing.T) {
		_, err := CompileCatalog([]byte(`other: 1`), "empty.cue")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "templates is required")
	})

	t.Run("bad root kind", func(t *testing.T) {
		_, err := CompileCatalog([]byte(`
templates: [{
	name: "x"
	root: {kind: "variable"}
}]`), "root.cue")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "function block")
	})

	t.Run("duplicate names", func(t *testing.T) {
		_, err := CompileCatalog([]byte(`
templates: [
	{name: "x", root: {kind: "function"}},
	{name: "x", root: {kind: "function"}},
]`), "dup.cue")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate template name")
	})

	t.Run("non-string field", func(t *testing.T) {
		_, err := CompileCatalog([]byte(`
templates: [{
	name: "x"
	root: {kind: "function", fields: {funcName: 3}}
}]`), "field.cue")
		require.Error(t, err)
	})
}
