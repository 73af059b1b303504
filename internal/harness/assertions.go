package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/viewkit/internal/journal"
)

// AssertionError is a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against a finished result and
// returns one message per failure, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertHandlerCount:
		return expectCount(a.Type, fmt.Sprintf("%s.%s", a.View, a.Handler), a.Count, result.CallCount(a.View, a.Handler))
	case AssertRegistrySize:
		summary, err := summaryOf(result, a)
		if err != nil {
			return err
		}
		return expectCount(a.Type, a.View, a.Count, summary.Bindings)
	case AssertSubviewCount:
		summary, err := summaryOf(result, a)
		if err != nil {
			return err
		}
		return expectCount(a.Type, a.View, a.Count, summary.Subviews)
	case AssertViewState:
		summary, err := summaryOf(result, a)
		if err != nil {
			return err
		}
		if summary.State != a.State {
			return &AssertionError{Type: a.Type, Expected: a.View + " " + a.State, Actual: summary.State}
		}
		return nil
	case AssertJournalContains:
		for _, e := range result.Journal {
			if matchEntry(result, e, a) {
				return nil
			}
		}
		return &AssertionError{Type: a.Type, Expected: describeMatch(a), Actual: "no matching entry"}
	case AssertJournalCount:
		n := 0
		for _, e := range result.Journal {
			if matchEntry(result, e, a) {
				n++
			}
		}
		return expectCount(a.Type, describeMatch(a), a.Count, n)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func expectCount(typ, subject string, want, got int) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%s = %d", subject, want),
		Actual:   fmt.Sprintf("%d", got),
	}
}

func summaryOf(result *Result, a Assertion) (ViewSummary, error) {
	summary, ok := result.Views[a.View]
	if !ok {
		return ViewSummary{}, fmt.Errorf("%s: unknown view %q (have %s)", a.Type, a.View, strings.Join(result.viewNames(), ", "))
	}
	return summary, nil
}

// matchEntry reports whether e satisfies every field a sets. Views are
// referred to by scenario name; an unknown name is taken as a view id.
func matchEntry(result *Result, e journal.Entry, a Assertion) bool {
	if string(e.Kind) != a.Kind {
		return false
	}
	if a.View != "" {
		id := a.View
		if summary, ok := result.Views[a.View]; ok {
			id = summary.ID
		}
		if e.View != id {
			return false
		}
	}
	if a.Event != "" && e.Event != a.Event {
		return false
	}
	if a.Selector != "" && e.Selector != a.Selector {
		return false
	}
	return true
}

func describeMatch(a Assertion) string {
	parts := []string{a.Kind}
	if a.View != "" {
		parts = append(parts, "view="+a.View)
	}
	if a.Event != "" {
		parts = append(parts, "event="+a.Event)
	}
	if a.Selector != "" {
		parts = append(parts, fmt.Sprintf("selector=%q", a.Selector))
	}
	return strings.Join(parts, " ")
}
