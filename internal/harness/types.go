package harness

import (
	"github.com/roach88/viewkit/internal/journal"
)

// ViewSummary is the final state of one named view.
type ViewSummary struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	State     string `json:"state"`
	Bindings  int    `json:"bindings"`
	Subviews  int    `json:"subviews"`
	Dismisses int    `json:"dismisses"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates every expectation held.
	Pass bool `json:"pass"`

	// Journal holds every entry the run recorded, in order.
	Journal []journal.Entry `json:"journal"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Calls counts method invocations per view name and method.
	Calls map[string]map[string]int `json:"calls,omitempty"`

	// Views summarizes every named view at the end of the run.
	Views map[string]ViewSummary `json:"views,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Journal: []journal.Entry{},
		Errors:  []string{},
		Calls:   make(map[string]map[string]int),
		Views:   make(map[string]ViewSummary),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// CallCount returns how often method ran on the named view.
func (r *Result) CallCount(view, method string) int {
	return r.Calls[view][method]
}
