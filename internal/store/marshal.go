package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/blocktest/internal/block"
)

type suiteJSON struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Blocks []block.Block `json:"blocks"`
}

type rubricJSON struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

type fileJSON struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type stateJSON struct {
	Suites        []suiteJSON  `json:"suites"`
	ActiveSuiteID string       `json:"active_suite_id"`
	RubricItems   []rubricJSON `json:"rubric_items"`
	SourceFiles   []fileJSON   `json:"source_files"`
}

// marshalState converts a workspace state to JSON TEXT for storage.
// HTML escaping is disabled so source text is stored as written.
func marshalState(st block.State) (string, error) {
	out := stateJSON{
		Suites:        make([]suiteJSON, 0, len(st.Suites)),
		ActiveSuiteID: st.ActiveSuiteID,
		RubricItems:   make([]rubricJSON, 0, len(st.RubricItems)),
		SourceFiles:   make([]fileJSON, 0, len(st.SourceFiles)),
	}
	for _, s := range st.Suites {
		blocks := s.Blocks
		if blocks == nil {
			blocks = []block.Block{}
		}
		out.Suites = append(out.Suites, suiteJSON{ID: s.ID, Name: s.Name, Blocks: blocks})
	}
	for _, r := range st.RubricItems {
		out.RubricItems = append(out.RubricItems, rubricJSON(r))
	}
	for _, f := range st.SourceFiles {
		out.SourceFiles = append(out.SourceFiles, fileJSON(f))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalState parses JSON TEXT written by marshalState. Empty lists
// decode as nil.
func unmarshalState(data string) (block.State, error) {
	var in stateJSON
	if err := json.Unmarshal([]byte(data), &in); err != nil {
		return block.State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	st := block.State{ActiveSuiteID: in.ActiveSuiteID}
	for _, s := range in.Suites {
		su := block.Suite{ID: s.ID, Name: s.Name}
		if len(s.Blocks) > 0 {
			su.Blocks = s.Blocks
		}
		st.Suites = append(st.Suites, su)
	}
	for _, r := range in.RubricItems {
		st.RubricItems = append(st.RubricItems, block.RubricItem(r))
	}
	for _, f := range in.SourceFiles {
		st.SourceFiles = append(st.SourceFiles, block.SourceFile(f))
	}
	return st, nil
}
