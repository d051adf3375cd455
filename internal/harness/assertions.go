package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/importer"
)

// AssertionError is returned when an assertion fails.
// It includes the generated source to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Code     string // Generated source for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Code != "" {
		fmt.Fprintf(&buf, "\nGenerated source:\n")
		for i, line := range strings.Split(strings.TrimRight(e.Code, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %3d  %s\n", i+1, line)
		}
	}

	return buf.String()
}

// AssertionContext carries what assertions are evaluated against.
type AssertionContext struct {
	Result *Result
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertCodeContains:
		return assertCodeContains(result.Code, a)
	case AssertCodeNotContains:
		return assertCodeNotContains(result.Code, a)
	case AssertCodeOrder:
		return assertCodeOrder(result.Code, a)
	case AssertBlockCount:
		return assertBlockCount(result, a)
	case AssertKindCount:
		return assertKindCount(result, a)
	case AssertRoundTrip:
		return assertRoundTrip(result)
	case AssertHistoryLen:
		return assertHistoryLen(result, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertCodeContains(code string, a Assertion) error {
	if strings.Contains(code, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCodeContains,
		Expected: fmt.Sprintf("source contains %q", a.Text),
		Actual:   "not found",
		Code:     code,
	}
}

func assertCodeNotContains(code string, a Assertion) error {
	if !strings.Contains(code, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCodeNotContains,
		Expected: fmt.Sprintf("source does not contain %q", a.Text),
		Actual:   "found",
		Code:     code,
	}
}

// assertCodeOrder checks that texts appear in order. Texts don't need to be
// adjacent; each is searched for after the end of the previous match.
func assertCodeOrder(code string, a Assertion) error {
	offset := 0
	for i, text := range a.Texts {
		pos := strings.Index(code[offset:], text)
		if pos < 0 {
			actual := "missing"
			if strings.Contains(code, text) {
				actual = "appears before " + fmt.Sprintf("%q", a.Texts[i-1])
			}
			return &AssertionError{
				Type:     AssertCodeOrder,
				Expected: fmt.Sprintf("texts in order: %q", a.Texts),
				Actual:   fmt.Sprintf("%q %s", text, actual),
				Code:     code,
			}
		}
		offset += pos + len(text)
	}
	return nil
}

func assertBlockCount(result *Result, a Assertion) error {
	if n := len(result.Suite.Blocks); n != a.Count {
		return &AssertionError{
			Type:     AssertBlockCount,
			Expected: fmt.Sprintf("%d blocks", a.Count),
			Actual:   fmt.Sprintf("%d blocks", n),
		}
	}
	return nil
}

func assertKindCount(result *Result, a Assertion) error {
	n := 0
	for _, b := range result.Suite.Blocks {
		if b.Kind() == a.Kind {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertKindCount,
			Expected: fmt.Sprintf("%d %s blocks", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d %s blocks", n, a.Kind),
		}
	}
	return nil
}

// assertRoundTrip parses the generated source back and compares shapes.
func assertRoundTrip(result *Result) error {
	want, err := block.Fingerprint(result.Suite)
	if err != nil {
		return err
	}
	parsed := importer.ParseSuite(result.Code, importer.WithIDGenerator(block.NewSequenceGenerator("rt")))
	got, err := block.Fingerprint(parsed)
	if err != nil {
		return err
	}
	if got != want {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: "parsed source has fingerprint " + want,
			Actual:   fmt.Sprintf("fingerprint %s (%d blocks parsed, %d in suite)", got, len(parsed.Blocks), len(result.Suite.Blocks)),
			Code:     result.Code,
		}
	}
	return nil
}

func assertHistoryLen(result *Result, a Assertion) error {
	if result.HistoryLen != a.Count {
		return &AssertionError{
			Type:     AssertHistoryLen,
			Expected: fmt.Sprintf("%d snapshots", a.Count),
			Actual:   fmt.Sprintf("%d snapshots", result.HistoryLen),
		}
	}
	if a.Cursor != nil && result.Cursor != *a.Cursor {
		return &AssertionError{
			Type:     AssertHistoryLen,
			Expected: fmt.Sprintf("cursor at %d", *a.Cursor),
			Actual:   fmt.Sprintf("cursor at %d", result.Cursor),
		}
	}
	return nil
}
