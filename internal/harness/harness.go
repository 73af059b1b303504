package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/roach88/viewkit/internal/dom"
	"github.com/roach88/viewkit/internal/engine"
	"github.com/roach88/viewkit/internal/journal"
	"github.com/roach88/viewkit/internal/props"
	"github.com/roach88/viewkit/internal/view"
)

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	recorder journal.Recorder
	logger   *slog.Logger
	runID    string
	ids      engine.IDGenerator
}

// WithRecorder also sends every journal entry to r, e.g. a journal.Store.
func WithRecorder(r journal.Recorder) RunOption {
	return func(c *runConfig) { c.recorder = r }
}

// WithLogger sets the runtime logger. The default discards everything.
func WithLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) { c.logger = l }
}

// WithRunID overrides the scenario's run id.
func WithRunID(id string) RunOption {
	return func(c *runConfig) { c.runID = id }
}

// WithIDGenerator replaces the sequential view ids, e.g. with
// engine.UUIDv7Generator when journals from many runs share a store.
func WithIDGenerator(g engine.IDGenerator) RunOption {
	return func(c *runConfig) { c.ids = g }
}

// Run executes a scenario against a fresh document and runtime.
//
// Each run is isolated: its own document, journal and, unless
// WithIDGenerator says otherwise, sequence-based view ids (view1, view2, ...),
// so two runs of the same scenario produce identical journals.
//
// A returned error means the scenario could not be executed (bad HTML, a
// step naming a missing element, an unexpected construction failure).
// Failed expectations are reported in Result.Errors instead.
func Run(ctx context.Context, scenario *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		runID:  scenario.RunID,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.runID == "" {
		cfg.runID = scenario.Name
	}
	if cfg.ids == nil {
		cfg.ids = engine.NewSequentialIDs("view")
	}

	doc, err := dom.ParseString(scenario.HTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	mem := journal.NewMemory()
	var rec journal.Recorder = mem
	if cfg.recorder != nil {
		rec = journal.Tee{mem, cfg.recorder}
	}

	rt := view.NewRuntime(doc,
		view.WithJournal(rec),
		view.WithLogger(cfg.logger),
		view.WithRunID(cfg.runID),
		view.WithIDGenerator(cfg.ids),
		view.WithClock(engine.NewClock()),
	)

	r := &runner{
		ctx:    ctx,
		rt:     rt,
		doc:    doc,
		result: NewResult(),
		views:  make(map[string]*view.View),
		names:  make(map[string]string),
	}

	for i, decl := range scenario.Views {
		if err := r.build(decl); err != nil {
			return nil, fmt.Errorf("views[%d] %s: %w", i, decl.Name, err)
		}
	}

	for i, step := range scenario.Steps {
		if err := r.step(step); err != nil {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Kind(), err)
		}
	}

	r.result.Journal = mem.Entries()
	r.summarize()

	for _, msg := range EvaluateAssertions(r.result, scenario.Assertions) {
		r.result.AddError(msg)
	}
	return r.result, nil
}

type runner struct {
	ctx    context.Context
	rt     *view.Runtime
	doc    *dom.Document
	result *Result

	views map[string]*view.View
	names map[string]string // view id -> scenario name
	order []string
}

func (r *runner) register(name string, v *view.View) {
	r.views[name] = v
	r.names[v.ID()] = name
	r.order = append(r.order, name)
}

func (r *runner) lookup(name string) (*view.View, error) {
	v, ok := r.views[name]
	if !ok {
		return nil, fmt.Errorf("unknown view %q", name)
	}
	return v, nil
}

// build defines decl's type and constructs its view or views.
func (r *runner) build(decl ViewDecl) error {
	typ, err := r.define(decl)
	if err != nil {
		return err
	}

	var parent *view.View
	if decl.Parent != "" {
		if parent, err = r.lookup(decl.Parent); err != nil {
			return err
		}
	}

	if decl.Map != "" {
		if parent == nil {
			return fmt.Errorf("map requires a parent")
		}
		children, err := r.mapChildren(parent, decl, typ)
		if err := r.expect(decl, err); err != nil {
			return err
		}
		for i, child := range children {
			r.register(fmt.Sprintf("%s[%d]", decl.Name, i), child)
		}
		return nil
	}

	var el any
	if decl.El != "" {
		el = decl.El
	}
	v, err := r.rt.New(typ, view.Options{El: el, Props: decl.Props})
	if err := r.expect(decl, err); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if parent != nil {
		parent.AddView(v)
	}
	r.register(decl.Name, v)
	return nil
}

// expect reconciles a construction error with decl.ExpectError. Mismatches
// are recorded as failures; an error nobody expected is returned.
func (r *runner) expect(decl ViewDecl, err error) error {
	switch {
	case decl.ExpectError == "" && err != nil:
		return err
	case decl.ExpectError == "":
		return nil
	case err == nil:
		r.result.AddError(fmt.Sprintf("view %s: expected error %s, got none", decl.Name, decl.ExpectError))
	case !view.HasCode(err, view.ErrorCode(decl.ExpectError)):
		r.result.AddError(fmt.Sprintf("view %s: expected error %s, got %v", decl.Name, decl.ExpectError, err))
	}
	return nil
}

func (r *runner) mapChildren(parent *view.View, decl ViewDecl, typ *view.Type) ([]*view.View, error) {
	params := view.Props(decl.Props)
	if !decl.Lazy {
		return parent.MapViews(decl.Map, typ, params)
	}
	provider := func(context.Context) (view.Export, error) {
		return view.Module{Default: typ}, nil
	}
	return parent.MapViewsLazy(r.ctx, decl.Map, provider, params).Await(r.ctx, r.rt.Engine())
}

// define turns a declaration into a view type. Every method counts its
// calls before applying its actions.
func (r *runner) define(decl ViewDecl) (*view.Type, error) {
	name := decl.Type
	if name == "" {
		name = decl.Name
	}

	def := view.Definition{
		Name:                name,
		RemoveElement:       decl.RemoveElement,
		ParseEventVariables: decl.ParseEventVariables,
		Methods:             make(map[string]view.HandlerFunc, len(decl.Methods)),
	}

	if decl.Schema != "" {
		schema, err := props.ParseSchema(decl.Schema)
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		def.Props = schema
	}

	for _, b := range decl.Behaviors {
		def.Behaviors = append(def.Behaviors, knownBehaviors[b])
	}

	for method, actions := range decl.Methods {
		def.Methods[method] = r.method(method, actions)
	}

	if len(decl.Events) > 0 {
		events := make(view.EventMap, 0, len(decl.Events))
		for _, e := range decl.Events {
			events = append(events, view.On(e.Spec, view.Method(e.Handler)))
		}
		def.Events = events
	}

	return view.Define(def)
}

func (r *runner) method(name string, actions []string) view.HandlerFunc {
	return func(v *view.View, e *view.Event) {
		owner := r.nameOf(v)
		calls := r.result.Calls[owner]
		if calls == nil {
			calls = make(map[string]int)
			r.result.Calls[owner] = calls
		}
		calls[name]++

		for _, action := range actions {
			switch action {
			case ActionPreventDefault:
				e.PreventDefault()
			case ActionStopPropagation:
				e.StopPropagation()
			case ActionStopImmediate:
				e.StopImmediatePropagation()
			case ActionRemove:
				v.Remove()
			case ActionRemoveEvents:
				v.RemoveEvents()
			case ActionRemoveDismiss:
				if err := v.RemoveDismissListener(view.Method(name)); err != nil {
					r.result.AddError(fmt.Sprintf("%s.%s: %v", owner, name, err))
				}
			}
		}
	}
}

func (r *runner) nameOf(v *view.View) string {
	if name, ok := r.names[v.ID()]; ok {
		return name
	}
	return v.ID()
}

func (r *runner) step(s Step) error {
	switch s.Kind() {
	case StepClick:
		el, err := r.element(s.Click)
		if err != nil {
			return err
		}
		el.Click()
	case StepSubmit:
		el, err := r.element(s.Submit)
		if err != nil {
			return err
		}
		if el.TagName() != "form" {
			return fmt.Errorf("%q is not a form", s.Submit)
		}
		el.RequestSubmit()
	case StepKeyUp:
		el, err := r.element(s.KeyUp.Target)
		if err != nil {
			return err
		}
		code := s.KeyUp.Code
		if code == 0 && s.KeyUp.Key == "Escape" {
			code = dom.KeyEscape
		}
		el.KeyUp(s.KeyUp.Key, code)
	case StepDispatch:
		target, err := r.target(s.Dispatch.Target)
		if err != nil {
			return err
		}
		var opts []dom.EventOption
		if s.Dispatch.Bubbles {
			opts = append(opts, dom.Bubbles())
		}
		target.DispatchEvent(dom.NewEvent(s.Dispatch.Event, opts...))
	case StepRemove:
		v, err := r.lookup(s.Remove)
		if err != nil {
			return err
		}
		v.Remove()
	case StepRemoveEvents:
		v, err := r.lookup(s.RemoveEvents)
		if err != nil {
			return err
		}
		v.RemoveEvents()
	case StepRemoveViews:
		v, err := r.lookup(s.RemoveViews)
		if err != nil {
			return err
		}
		v.RemoveViews()
	case StepAddDismiss:
		v, err := r.lookup(s.AddDismiss.View)
		if err != nil {
			return err
		}
		var opts []view.DismissOption
		if s.AddDismiss.Container != "" {
			el, err := r.element(s.AddDismiss.Container)
			if err != nil {
				return err
			}
			opts = append(opts, view.WithContainer(el))
		}
		return v.AddDismissListener(view.Method(s.AddDismiss.Handler), opts...)
	case StepRemoveDismiss:
		v, err := r.lookup(s.RemoveDismiss.View)
		if err != nil {
			return err
		}
		return v.RemoveDismissListener(view.Method(s.RemoveDismiss.Handler))
	default:
		return fmt.Errorf("step must set exactly one action")
	}
	return nil
}

func (r *runner) element(sel string) (*dom.Element, error) {
	el, err := r.doc.QuerySelector(sel)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, fmt.Errorf("no element matches %q", sel)
	}
	return el, nil
}

func (r *runner) target(name string) (dom.EventTarget, error) {
	switch name {
	case "document":
		return r.doc, nil
	case "window":
		return r.doc.Window(), nil
	}
	el, err := r.element(name)
	if err != nil {
		return nil, err
	}
	return el, nil
}

func (r *runner) summarize() {
	for _, name := range r.order {
		v := r.views[name]
		r.result.Views[name] = ViewSummary{
			ID:        v.ID(),
			Type:      v.Type().Name(),
			State:     v.State().String(),
			Bindings:  len(v.Bindings()),
			Subviews:  len(v.Subviews()),
			Dismisses: v.DismissListeners(),
		}
	}
}

// viewNames returns the scenario names of every view, sorted.
func (r *Result) viewNames() []string {
	names := make([]string, 0, len(r.Views))
	for name := range r.Views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
