package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/spellbook/internal/session"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type       string   // Assertion type for categorization
	Expected   string   // Human-readable expected outcome
	Actual     string   // Human-readable actual outcome
	Transcript []string // Full transcript for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull transcript:\n")
	for i, line := range e.Transcript {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, line)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertLearned:
		return assertLearned(result, a)
	case AssertNotLearned:
		return assertNotLearned(result, a)
	case AssertLearnedOrder:
		return assertLearnedOrder(result, a)
	case AssertOutputContains:
		return assertOutputContains(result, a)
	case AssertOutputCount:
		return assertOutputCount(result, a)
	case AssertCycleReported:
		return assertCycleReported(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertLearned checks that every listed item ended up in the ledger.
func assertLearned(result *Result, a Assertion) error {
	var missing []string
	for _, item := range a.Items {
		if !slices.Contains(result.Learned, item) {
			missing = append(missing, item)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &AssertionError{
		Type:       AssertLearned,
		Expected:   fmt.Sprintf("learned %v", a.Items),
		Actual:     fmt.Sprintf("missing %v from ledger %v", missing, result.Learned),
		Transcript: result.Transcript,
	}
}

// assertNotLearned checks that no listed item is in the ledger.
func assertNotLearned(result *Result, a Assertion) error {
	var present []string
	for _, item := range a.Items {
		if slices.Contains(result.Learned, item) {
			present = append(present, item)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return &AssertionError{
		Type:       AssertNotLearned,
		Expected:   fmt.Sprintf("none of %v learned", a.Items),
		Actual:     fmt.Sprintf("ledger still holds %v", present),
		Transcript: result.Transcript,
	}
}

// assertLearnedOrder checks the exact ledger contents and order.
func assertLearnedOrder(result *Result, a Assertion) error {
	if slices.Equal(result.Learned, a.Items) || (len(result.Learned) == 0 && len(a.Items) == 0) {
		return nil
	}
	return &AssertionError{
		Type:       AssertLearnedOrder,
		Expected:   fmt.Sprintf("ledger %v", a.Items),
		Actual:     fmt.Sprintf("ledger %v", result.Learned),
		Transcript: result.Transcript,
	}
}

// assertOutputContains checks that some transcript line matches Text.
// Indentation is ignored on both sides.
func assertOutputContains(result *Result, a Assertion) error {
	if countLines(result.Transcript, a.Text) > 0 {
		return nil
	}
	return &AssertionError{
		Type:       AssertOutputContains,
		Expected:   fmt.Sprintf("a line %q", strings.TrimSpace(a.Text)),
		Actual:     "not found in transcript",
		Transcript: result.Transcript,
	}
}

// assertOutputCount checks that exactly Count lines match Text.
func assertOutputCount(result *Result, a Assertion) error {
	n := countLines(result.Transcript, a.Text)
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:       AssertOutputCount,
		Expected:   fmt.Sprintf("%d line(s) %q", a.Count, strings.TrimSpace(a.Text)),
		Actual:     fmt.Sprintf("%d line(s)", n),
		Transcript: result.Transcript,
	}
}

// assertCycleReported checks for the interpreter's cycle report line.
func assertCycleReported(result *Result, a Assertion) error {
	want := a.Reported == nil || *a.Reported
	got := slices.Contains(result.Transcript, session.CycleFoundMessage)
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:       AssertCycleReported,
		Expected:   fmt.Sprintf("cycle reported = %t", want),
		Actual:     fmt.Sprintf("cycle reported = %t", got),
		Transcript: result.Transcript,
	}
}

func countLines(lines []string, text string) int {
	text = strings.TrimSpace(text)
	n := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == text {
			n++
		}
	}
	return n
}
