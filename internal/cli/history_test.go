package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strconv"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/harness"
	"github.com/roach88/blocktest/internal/history"
	"github.com/roach88/blocktest/internal/store"
)

func snapshotFor(seq int, funcName string) history.Snapshot {
	return history.Snapshot{
		Seq: seq,
		State: block.State{
			Suites: []block.Suite{{
				ID:   "s1",
				Name: "Calculator",
				Blocks: []block.Block{
					{ID: "f1", Payload: block.Function{FuncName: funcName}},
					{ID: "a1", ParentID: "f1", Payload: block.AssertThat{Target: "1+1"}},
					{ID: "m1", ParentID: "a1", Payload: block.Matcher{MatcherType: block.MatchIsEqualTo, Value: "2"}},
				},
			}},
			ActiveSuiteID: "s1",
		},
	}
}

// createArchive writes two revisions for session "lab" and one for "other".
func createArchive(t *testing.T) (string, []int64) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	var ids []int64
	for _, w := range []struct {
		session string
		snap    history.Snapshot
	}{
		{"lab", snapshotFor(0, "adds")},
		{"lab", snapshotFor(1, "addsTwoNumbers")},
		{"other", snapshotFor(0, "subtracts")},
	} {
		id, err := st.WriteRevision(ctx, w.session, w.snap)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return path, ids
}

func executeHistory(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestHistoryList(t *testing.T) {
	path, _ := createArchive(t)

	out, err := executeHistory(t, "text", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Session lab:")
	assert.Contains(t, out, "Session other:")
	assert.Contains(t, out, "3 block(s)")
}

func TestHistoryListSessionJSON(t *testing.T) {
	path, ids := createArchive(t)

	out, err := executeHistory(t, "json", "--db", path, "--session", "lab")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   HistoryList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Revisions, 2)
	assert.Equal(t, ids[0], resp.Data.Revisions[0].ID)
	assert.Equal(t, 0, resp.Data.Revisions[0].SnapshotSeq)
	assert.Equal(t, 1, resp.Data.Revisions[1].SnapshotSeq)
	assert.NotEqual(t, resp.Data.Revisions[0].Fingerprint, resp.Data.Revisions[1].Fingerprint)
}

func TestHistoryEmptyArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := executeHistory(t, "text", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No revisions archived.")
}

func TestHistoryShow(t *testing.T) {
	path, ids := createArchive(t)

	out, err := executeHistory(t, "text", "--db", path, "--show", strconv.FormatInt(ids[1], 10))
	require.NoError(t, err)
	assert.Contains(t, out, "// CalculatorTest.java")
	assert.Contains(t, out, "void addsTwoNumbers() {")
	assert.Contains(t, out, "assertThat(1+1).isEqualTo(2);")
}

func TestHistoryShowUnknown(t *testing.T) {
	path, _ := createArchive(t)

	out, err := executeHistory(t, "text", "--db", path, "--show", "999")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "revision 999 not found")
}

func TestHistoryVerify(t *testing.T) {
	path, _ := createArchive(t)

	out, err := executeHistory(t, "text", "--db", path, "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 3 revision(s) verified")
}

func TestHistoryVerifyDetectsTampering(t *testing.T) {
	path, ids := createArchive(t)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE revisions SET block_count = 42 WHERE id = ?`, ids[0])
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := executeHistory(t, "json", "--db", path, "--verify", "--session", "lab")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data VerifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Checked)
	require.Len(t, resp.Data.Mismatches, 1)
	assert.Equal(t, ids[0], resp.Data.Mismatches[0].RevisionID)
	assert.Equal(t, "block_count", resp.Data.Mismatches[0].Field)
	assert.Equal(t, "42", resp.Data.Mismatches[0].Stored)
	assert.Equal(t, "3", resp.Data.Mismatches[0].Derived)
}

func TestHistoryMissingDatabase(t *testing.T) {
	out, err := executeHistory(t, "text", "--db", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "database not found")
}

func TestRunThenHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")

	_, err := executeRun(t, "text",
		filepath.Join("testdata", "scenarios", "equality_assertion.yaml"),
		"--db", dbPath, "--session", "lab-3")
	require.NoError(t, err)

	out, err := executeHistory(t, "json", "--db", dbPath, "--session", "lab-3/equality_assertion")
	require.NoError(t, err)
	var resp struct {
		Data HistoryList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Data.Revisions)
	last := resp.Data.Revisions[len(resp.Data.Revisions)-1]
	assert.Equal(t, 4, last.BlockCount)

	out, err = executeHistory(t, "text", "--db", dbPath, "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "verified")
}

func TestRunDirectoryArchivesEveryScenario(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")

	_, err := executeRun(t, "text", filepath.Join("testdata", "scenarios"), "--db", dbPath, "--session", "lab-4")
	require.Error(t, err, "the failing scenario still fails the run")

	sessions := map[string]int{}
	out, err := executeHistory(t, "json", "--db", dbPath)
	require.NoError(t, err)
	var resp struct {
		Data HistoryList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	for _, r := range resp.Data.Revisions {
		sessions[r.Session]++
	}

	want := map[string]int{}
	for _, name := range []string{"equality_assertion", "failing"} {
		sc, err := harness.LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
		require.NoError(t, err)
		res, err := harness.Run(sc)
		require.NoError(t, err)
		want["lab-4/"+name] = res.HistoryLen
	}
	assert.Equal(t, want, sessions)
}
