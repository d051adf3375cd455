package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/dragdrop"
)

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "equality_assertion.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "equality_assertion", scenario.Name)
	assert.Equal(t, "Calculator", scenario.Suite)
	require.Len(t, scenario.Rubric, 1)
	assert.Equal(t, RubricEntry{ID: "r1", Name: "adds two numbers", Points: 2}, scenario.Rubric[0])

	require.Len(t, scenario.Steps, 7)
	first := scenario.Steps[0]
	assert.Equal(t, OpDrag, first.Op())
	assert.Equal(t, block.KindFunction, first.Drag.Palette)
	assert.Equal(t, map[string]string{"funcName": "addsTwoNumbers"}, first.Drag.Fields)
	assert.Equal(t, dragdrop.ZoneCanvas, first.Drop.Zone)
	assert.Equal(t, "fn", first.As)
	assert.Equal(t, OpLink, scenario.Steps[5].Op())
	assert.Equal(t, OpFlush, scenario.Steps[6].Op())

	last := scenario.Assertions[len(scenario.Assertions)-1]
	require.NotNil(t, last.Cursor)
	assert.Equal(t, 5, *last.Cursor)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseScenario_Setup(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: with_setup
description: "starts from existing blocks"
setup:
  - type: function
    fields: {funcName: existing}
    children:
      - type: comment
        fields: {text: hello}
steps:
  - flush: true
assertions:
  - type: block_count
    count: 2
`))
	require.NoError(t, err)
	require.Len(t, scenario.Setup, 1)
	assert.Equal(t, block.KindFunction, scenario.Setup[0].Type)
	require.Len(t, scenario.Setup[0].Children, 1)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: d\nstep: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			yaml: "description: d\nsteps: [{flush: true}]\nassertions: [{type: round_trip}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: x\nsteps: [{flush: true}]\nassertions: [{type: round_trip}]\n",
			want: "description is required",
		},
		{
			name: "no steps",
			yaml: "name: x\ndescription: d\nassertions: [{type: round_trip}]\n",
			want: "steps list is required",
		},
		{
			name: "no assertions",
			yaml: "name: x\ndescription: d\nsteps: [{flush: true}]\n",
			want: "assertions list is required",
		},
		{
			name: "two operations",
			yaml: "name: x\ndescription: d\nsteps: [{flush: true, undo: true}]\nassertions: [{type: round_trip}]\n",
			want: "exactly one operation",
		},
		{
			name: "drag without drop",
			yaml: "name: x\ndescription: d\nsteps: [{drag: {palette: function}}]\nassertions: [{type: round_trip}]\n",
			want: "drag and drop must be given together",
		},
		{
			name: "two sources",
			yaml: "name: x\ndescription: d\nsteps: [{drag: {palette: function, template: equality}, drop: {zone: canvas}}]\nassertions: [{type: round_trip}]\n",
			want: "exactly one of block, palette, template",
		},
		{
			name: "unknown palette kind",
			yaml: "name: x\ndescription: d\nsteps: [{drag: {palette: widget}, drop: {zone: canvas}}]\nassertions: [{type: round_trip}]\n",
			want: "unknown kind",
		},
		{
			name: "drop without zone",
			yaml: "name: x\ndescription: d\nsteps: [{drag: {palette: function}, drop: {}}]\nassertions: [{type: round_trip}]\n",
			want: "zone is required",
		},
		{
			name: "alias on non-drag",
			yaml: "name: x\ndescription: d\nsteps: [{flush: true, as: f}]\nassertions: [{type: round_trip}]\n",
			want: "only apply to drag steps",
		},
		{
			name: "bad duration",
			yaml: "name: x\ndescription: d\nsteps: [{advance: soon}]\nassertions: [{type: round_trip}]\n",
			want: "steps[0].advance",
		},
		{
			name: "unknown assertion",
			yaml: "name: x\ndescription: d\nsteps: [{flush: true}]\nassertions: [{type: trace_contains}]\n",
			want: "unknown assertion type",
		},
		{
			name: "code_order needs two texts",
			yaml: "name: x\ndescription: d\nsteps: [{flush: true}]\nassertions: [{type: code_order, texts: [a]}]\n",
			want: "at least two texts",
		},
		{
			name: "kind_count needs kind",
			yaml: "name: x\ndescription: d\nsteps: [{flush: true}]\nassertions: [{type: kind_count, count: 1}]\n",
			want: "unknown kind",
		},
		{
			name: "rubric without id",
			yaml: "name: x\ndescription: d\nrubric: [{name: n}]\nsteps: [{flush: true}]\nassertions: [{type: round_trip}]\n",
			want: "rubric[0]: id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	single := filepath.Join(t.TempDir(), "single.yaml")
	require.NoError(t, os.WriteFile(single, []byte("x"), 0o644))

	paths, err := ExpandPaths([]string{dir, single})
	require.NoError(t, err)
	want := []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml"), single}
	assert.ElementsMatch(t, want, paths)

	_, err = ExpandPaths([]string{filepath.Join(dir, "missing")})
	var notFound *ScenarioNotFoundError
	assert.ErrorAs(t, err, &notFound)
}
