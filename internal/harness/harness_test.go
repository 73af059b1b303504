package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/viewkit/internal/engine"
	"github.com/roach88/viewkit/internal/journal"
)

func load(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func parse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRun_Fixtures(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(context.Background(), s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_GuestbookSummary(t *testing.T) {
	result, err := Run(context.Background(), load(t, "guestbook_submit"))
	require.NoError(t, err)

	gb := result.Views["guestbook"]
	assert.Equal(t, "view1", gb.ID)
	assert.Equal(t, "Guestbook", gb.Type)
	assert.Equal(t, "active", gb.State)
	assert.Equal(t, 2, gb.Bindings)
	assert.Equal(t, 2, gb.Subviews)

	assert.Equal(t, "view2", result.Views["entries[0]"].ID)
	assert.Equal(t, "view3", result.Views["entries[1]"].ID)
	assert.Equal(t, "Entry", result.Views["entries[1]"].Type)

	assert.Equal(t, 1, result.CallCount("guestbook", "submitForm"))
	assert.Equal(t, 0, result.CallCount("entries[0]", "submitForm"))
}

func TestRun_JournalIsDeterministic(t *testing.T) {
	s := load(t, "lazy_entries")

	first, err := Run(context.Background(), s)
	require.NoError(t, err)
	second, err := Run(context.Background(), s)
	require.NoError(t, err)

	require.NotEmpty(t, first.Journal)
	assert.Equal(t, first.Journal, second.Journal)
	for i, e := range first.Journal {
		assert.Equal(t, int64(i+1), e.Seq)
		assert.Equal(t, "lazy_entries", e.Run)
	}
}

func TestRun_RecorderAndRunID(t *testing.T) {
	extra := journal.NewMemory()

	result, err := Run(context.Background(), load(t, "golden-click"),
		WithRecorder(extra),
		WithRunID("run-42"),
	)
	require.NoError(t, err)

	assert.Equal(t, result.Journal, extra.Entries())
	assert.Equal(t, "run-42", extra.Entries()[0].Run)
	assert.Equal(t, 1, extra.Count(journal.KindEventDispatched, "view1"))
}

func TestRun_IDGenerator(t *testing.T) {
	result, err := Run(context.Background(), load(t, "golden-click"),
		WithIDGenerator(engine.NewFixedGenerator("list-a")),
	)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, "list-a", result.Views["list"].ID)
	for _, e := range result.Journal {
		assert.Equal(t, "list-a", e.View)
	}
}

func TestRun_ExpectedConstructionError(t *testing.T) {
	s := parse(t, `
name: unknown_handler
description: an event naming a missing method fails construction
html: <div class="box"><a>x</a></div>
views:
  - name: box
    el: .box
    events:
      - spec: click a
        handler: missing
    expect_error: UNKNOWN_HANDLER
assertions:
  - {type: journal_count, kind: binding.added, count: 0}
  - {type: journal_count, kind: view.removed, count: 1}
`)
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.NotContains(t, result.Views, "box")
}

func TestRun_ExpectedErrorMismatch(t *testing.T) {
	s := parse(t, minimal+"    expect_error: PROP_COLLISION\n")

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error PROP_COLLISION, got none")
}

func TestRun_UnexpectedConstructionError(t *testing.T) {
	s := parse(t, minimal+"    events:\n      - spec: click\n        handler: missing\n")

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "views[0] box")
	assert.Contains(t, err.Error(), "UNKNOWN_HANDLER")
}

func TestRun_StepErrors(t *testing.T) {
	tests := []struct {
		name    string
		steps   string
		wantErr string
	}{
		{"missing element", "  - click: .nope\n", `steps[0] click: no element matches ".nope"`},
		{"submit needs a form", "  - submit: .box\n", `".box" is not a form`},
		{"dismiss without behavior", "  - add_dismiss: {view: box, handler: close}\n", "MISSING_BEHAVIOR"},
		{"mapped view not built", "  - remove: box[0]\n", `unknown view "box[0]"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parse(t, minimal+"    methods:\n      close: []\nsteps:\n"+tt.steps)
			_, err := Run(context.Background(), s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_FailingAssertion(t *testing.T) {
	s := parse(t, minimal+`assertions:
  - {type: view_state, view: box, state: removed}
  - {type: registry_size, view: ghost}
`)
	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "assertions[0]: view_state: expected box removed, got active", result.Errors[0])
	assert.Contains(t, result.Errors[1], `unknown view "ghost" (have box)`)
}

func TestRun_MethodActions(t *testing.T) {
	s := parse(t, `
name: actions
description: handler actions stop propagation and remove the view
html: |
  <div class="outer"><div class="inner"><a class="go">go</a></div></div>
views:
  - name: outer
    el: .outer
    events:
      - spec: click a
        handler: seen
    methods:
      seen: []
  - name: inner
    el: .inner
    events:
      - spec: click a
        handler: stop
      - spec: ping
        handler: quit
    methods:
      stop: [stop_propagation]
      quit: [remove]
steps:
  - click: a.go
  - dispatch: {target: .inner, event: ping}
  - dispatch: {target: .inner, event: ping}
assertions:
  - {type: handler_count, view: inner, handler: stop, count: 1}
  - {type: handler_count, view: outer, handler: seen, count: 0}
  - {type: handler_count, view: inner, handler: quit, count: 1}
  - {type: view_state, view: inner, state: removed}
  - {type: registry_size, view: inner, count: 0}
`)
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_DismissRemovesItself(t *testing.T) {
	s := parse(t, `
name: dismiss_once
description: a dismiss handler that removes itself only runs once
html: |
  <div class="menu"></div><a class="away">away</a>
views:
  - name: menu
    el: .menu
    behaviors: [dismissListener]
    methods:
      close: [remove_dismiss]
steps:
  - add_dismiss: {view: menu, handler: close}
  - click: .away
  - click: .away
assertions:
  - {type: handler_count, view: menu, handler: close, count: 1}
  - {type: registry_size, view: menu, count: 0}
  - {type: view_state, view: menu, state: active}
`)
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 0, result.Views["menu"].Dismisses)
}

func TestRun_DocumentAndWindowTargets(t *testing.T) {
	s := parse(t, `
name: globals
description: window and document bindings receive dispatched events
html: <div class="box"></div>
views:
  - name: box
    el: .box
    events:
      - spec: resize window
        handler: resized
      - spec: scroll document
        handler: scrolled
    methods:
      resized: []
      scrolled: []
steps:
  - dispatch: {target: window, event: resize}
  - dispatch: {target: document, event: scroll}
  - dispatch: {target: .box, event: scroll, bubbles: true}
assertions:
  - {type: handler_count, view: box, handler: resized, count: 1}
  - {type: handler_count, view: box, handler: scrolled, count: 2}
  - {type: journal_contains, kind: binding.added, view: box, event: resize}
`)
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
