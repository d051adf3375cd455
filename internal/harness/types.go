package harness

import "github.com/roach88/blocktest/internal/block"

// StepRecord is the trace entry of one executed step.
type StepRecord struct {
	Index    int      `json:"index"`
	Op       string   `json:"op"`
	Action   string   `json:"action,omitempty"`
	BlockIDs []string `json:"block_ids,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when no step expectation and no assertion failed.
	Pass bool `json:"pass"`

	// Steps traces every executed step in order.
	Steps []StepRecord `json:"steps"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Code is the generated source of the suite after the last step.
	Code string `json:"code"`

	// Suite is the final suite.
	Suite block.Suite `json:"-"`

	// HistoryLen and Cursor describe the history manager after the last step.
	HistoryLen int `json:"history_len"`
	Cursor     int `json:"cursor"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepRecord{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addStep appends a trace entry.
func (r *Result) addStep(rec StepRecord) {
	r.Steps = append(r.Steps, rec)
}
