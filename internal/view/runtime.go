package view

import (
	"log/slog"

	"github.com/roach88/viewkit/internal/dom"
	"github.com/roach88/viewkit/internal/engine"
	"github.com/roach88/viewkit/internal/journal"
	"github.com/roach88/viewkit/internal/props"
)

// Runtime is the shared context views are built in: the document they bind
// to, the dispatch loop lazy mappings resume on, id and sequence sources,
// the prop validator, and the journal.
//
// A Runtime is not safe for concurrent use. Everything except lazy
// provider resolution runs on the goroutine that drives it.
type Runtime struct {
	doc       *dom.Document
	engine    *engine.Engine
	clock     *engine.Clock
	ids       engine.IDGenerator
	validator props.Validator
	journal   journal.Recorder
	logger    *slog.Logger
	run       string

	created int64
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithIDGenerator sets the view id source. Defaults to sequential
// "view1", "view2", ...
func WithIDGenerator(g engine.IDGenerator) Option {
	return func(rt *Runtime) { rt.ids = g }
}

// WithValidator sets the prop validator. Defaults to the CUE validator.
func WithValidator(v props.Validator) Option {
	return func(rt *Runtime) { rt.validator = v }
}

// WithJournal sets the lifecycle journal. Defaults to journal.Discard.
func WithJournal(r journal.Recorder) Option {
	return func(rt *Runtime) { rt.journal = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) { rt.logger = l }
}

// WithEngine sets the dispatch loop lazy mappings resume on.
func WithEngine(e *engine.Engine) Option {
	return func(rt *Runtime) { rt.engine = e }
}

// WithClock sets the journal sequence source.
func WithClock(c *engine.Clock) Option {
	return func(rt *Runtime) { rt.clock = c }
}

// WithRunID tags every journal entry with run.
func WithRunID(run string) Option {
	return func(rt *Runtime) { rt.run = run }
}

// NewRuntime returns a runtime bound to doc. A nil doc gets a blank page.
func NewRuntime(doc *dom.Document, opts ...Option) *Runtime {
	rt := &Runtime{doc: doc}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.doc == nil {
		rt.doc = dom.NewDocument()
	}
	if rt.logger == nil {
		rt.logger = slog.Default()
	}
	if rt.engine == nil {
		rt.engine = engine.New(engine.WithLogger(rt.logger))
	}
	if rt.clock == nil {
		rt.clock = engine.NewClock()
	}
	if rt.ids == nil {
		rt.ids = engine.NewSequentialIDs("view")
	}
	if rt.validator == nil {
		rt.validator = props.NewValidator()
	}
	if rt.journal == nil {
		rt.journal = journal.Discard{}
	}
	return rt
}

// Document returns the document views bind to.
func (rt *Runtime) Document() *dom.Document { return rt.doc }

// Engine returns the dispatch loop.
func (rt *Runtime) Engine() *engine.Engine { return rt.engine }

// Clock returns the journal sequence source.
func (rt *Runtime) Clock() *engine.Clock { return rt.clock }

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.logger }

// RunID returns the run id journal entries are tagged with.
func (rt *Runtime) RunID() string { return rt.run }

// record stamps e and writes it to the journal. A failed write is logged
// and otherwise ignored.
func (rt *Runtime) record(e journal.Entry) {
	e.Seq = rt.clock.Next()
	if e.Run == "" {
		e.Run = rt.run
	}
	if err := rt.journal.Record(e); err != nil {
		rt.logger.Warn("journal write failed",
			"kind", string(e.Kind),
			"view", e.View,
			"error", err,
		)
	}
}
