package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/history"
)

// createTestStore creates a store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSnapshot creates a snapshot with one suite holding a small test.
func createTestSnapshot(seq int, funcName string) history.Snapshot {
	return history.Snapshot{
		Seq: seq,
		State: block.State{
			Suites: []block.Suite{{
				ID:   "s1",
				Name: "Calculator",
				Blocks: []block.Block{
					{ID: "f1", Payload: block.Function{FuncName: funcName, RubricID: "r1"}},
					{ID: "v1", ParentID: "f1", Payload: block.Variable{VarType: "int", VarName: "sum", Value: "1+1"}},
					{ID: "a1", ParentID: "f1", Payload: block.AssertThat{Target: "sum"}},
					{ID: "m1", ParentID: "a1", Payload: block.Matcher{MatcherType: block.MatchIsEqualTo, Value: "2"}},
				},
			}},
			ActiveSuiteID: "s1",
			RubricItems:   []block.RubricItem{{ID: "r1", Name: "adds", Points: 2}},
			SourceFiles:   []block.SourceFile{{Name: "Calc.java", Content: "class Calc { int add(int a, int b) { return a + b; } }"}},
		},
	}
}
