package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/dragdrop"
)

// Scenario defines an editing session and what must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Suite is the name of the suite being edited. Defaults to Name.
	Suite string `yaml:"suite,omitempty"`

	// Rubric is installed before the first step.
	Rubric []RubricEntry `yaml:"rubric,omitempty"`

	// Files are attached before the first step.
	Files []FileEntry `yaml:"files,omitempty"`

	// Setup holds starting blocks in document form. They are part of the
	// initial history snapshot.
	Setup []block.DocNode `yaml:"setup,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final source and state.
	Assertions []Assertion `yaml:"assertions"`
}

// RubricEntry is a rubric item in a scenario file.
type RubricEntry struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Points int    `yaml:"points"`
}

// FileEntry is an attached source file in a scenario file.
type FileEntry struct {
	Name    string `yaml:"name"`
	Content string `yaml:"content"`
}

// Step is one scripted gesture. Exactly one operation must be set; "as"
// and "expect" qualify a drag.
type Step struct {
	Drag *DragStep `yaml:"drag,omitempty"`
	Drop *DropStep `yaml:"drop,omitempty"`

	// As binds an alias to the first block the drop created or moved.
	As string `yaml:"as,omitempty"`

	// Expect is the required drop action (insert, expand, reparent,
	// reorder, delete, none, rejected, cancelled).
	Expect string `yaml:"expect,omitempty"`

	Update  *UpdateStep `yaml:"update,omitempty"`
	Link    *LinkStep   `yaml:"link,omitempty"`
	Remove  string      `yaml:"remove,omitempty"`
	Undo    bool        `yaml:"undo,omitempty"`
	Redo    bool        `yaml:"redo,omitempty"`
	Flush   bool        `yaml:"flush,omitempty"`
	Advance string      `yaml:"advance,omitempty"`
}

// DragStep names the drag source: an aliased block, a palette kind with
// initial fields, or a template name.
type DragStep struct {
	Block    string            `yaml:"block,omitempty"`
	Palette  block.Kind        `yaml:"palette,omitempty"`
	Fields   map[string]string `yaml:"fields,omitempty"`
	Template string            `yaml:"template,omitempty"`
}

// DropStep names the drop destination. Cancel releases outside every zone.
type DropStep struct {
	Zone   dragdrop.Zone `yaml:"zone,omitempty"`
	Parent string        `yaml:"parent,omitempty"`
	Over   string        `yaml:"over,omitempty"`
	Cancel bool          `yaml:"cancel,omitempty"`
}

// UpdateStep sets one payload field.
type UpdateStep struct {
	Block string `yaml:"block"`
	Field string `yaml:"field"`
	Value string `yaml:"value"`
}

// LinkStep links a function to a rubric item. An empty rubric unlinks.
type LinkStep struct {
	Block  string `yaml:"block"`
	Rubric string `yaml:"rubric"`
}

// Step operation names, as recorded in the trace.
const (
	OpDrag    = "drag"
	OpUpdate  = "update"
	OpLink    = "link"
	OpRemove  = "remove"
	OpUndo    = "undo"
	OpRedo    = "redo"
	OpFlush   = "flush"
	OpAdvance = "advance"
)

// Op returns the operation the step performs, or "" if none or several
// are set.
func (s Step) Op() string {
	var ops []string
	if s.Drag != nil || s.Drop != nil {
		ops = append(ops, OpDrag)
	}
	if s.Update != nil {
		ops = append(ops, OpUpdate)
	}
	if s.Link != nil {
		ops = append(ops, OpLink)
	}
	if s.Remove != "" {
		ops = append(ops, OpRemove)
	}
	if s.Undo {
		ops = append(ops, OpUndo)
	}
	if s.Redo {
		ops = append(ops, OpRedo)
	}
	if s.Flush {
		ops = append(ops, OpFlush)
	}
	if s.Advance != "" {
		ops = append(ops, OpAdvance)
	}
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

// Assertion validates the final source or state.
type Assertion struct {
	// Type specifies the assertion type (see the Assert* constants).
	Type string `yaml:"type"`

	// Text is the expected snippet (code_contains, code_not_contains).
	Text string `yaml:"text,omitempty"`

	// Texts are snippets that must appear in order (code_order).
	Texts []string `yaml:"texts,omitempty"`

	// Kind selects the block kind (kind_count).
	Kind block.Kind `yaml:"kind,omitempty"`

	// Count is the expected number (block_count, kind_count, history_len).
	Count int `yaml:"count,omitempty"`

	// Cursor optionally pins the history cursor (history_len).
	Cursor *int `yaml:"cursor,omitempty"`
}

// Assertion type constants.
const (
	AssertCodeContains    = "code_contains"
	AssertCodeNotContains = "code_not_contains"
	AssertCodeOrder       = "code_order"
	AssertBlockCount      = "block_count"
	AssertKindCount       = "kind_count"
	AssertRoundTrip       = "round_trip"
	AssertHistoryLen      = "history_len"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, r := range s.Rubric {
		if r.ID == "" {
			return fmt.Errorf("rubric[%d]: id is required", i)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, s Step) error {
	op := s.Op()
	if op == "" {
		return fmt.Errorf("steps[%d]: exactly one operation is required", index)
	}
	if op != OpDrag && (s.As != "" || s.Expect != "") {
		return fmt.Errorf("steps[%d]: as and expect only apply to drag steps", index)
	}

	switch op {
	case OpDrag:
		if s.Drag == nil || s.Drop == nil {
			return fmt.Errorf("steps[%d]: drag and drop must be given together", index)
		}
		n := 0
		if s.Drag.Block != "" {
			n++
		}
		if s.Drag.Palette != "" {
			n++
		}
		if s.Drag.Template != "" {
			n++
		}
		if n != 1 {
			return fmt.Errorf("steps[%d].drag: exactly one of block, palette, template is required", index)
		}
		if s.Drag.Palette != "" && !s.Drag.Palette.Valid() {
			return fmt.Errorf("steps[%d].drag: unknown kind %q", index, s.Drag.Palette)
		}
		if !s.Drop.Cancel && s.Drop.Zone == "" {
			return fmt.Errorf("steps[%d].drop: zone is required unless cancel is set", index)
		}
	case OpUpdate:
		if s.Update.Block == "" || s.Update.Field == "" {
			return fmt.Errorf("steps[%d].update: block and field are required", index)
		}
	case OpLink:
		if s.Link.Block == "" {
			return fmt.Errorf("steps[%d].link: block is required", index)
		}
	case OpAdvance:
		if _, err := time.ParseDuration(s.Advance); err != nil {
			return fmt.Errorf("steps[%d].advance: %w", index, err)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCodeContains, AssertCodeNotContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertCodeOrder:
		if len(a.Texts) < 2 {
			return fmt.Errorf("assertions[%d]: at least two texts are required for code_order", index)
		}
	case AssertBlockCount, AssertHistoryLen:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertKindCount:
		if !a.Kind.Valid() {
			return fmt.Errorf("assertions[%d]: unknown kind %q for kind_count", index, a.Kind)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for kind_count", index)
		}
	case AssertRoundTrip:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
