package view

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/viewkit/internal/dom"
	"github.com/roach88/viewkit/internal/journal"
	"github.com/roach88/viewkit/internal/notify"
)

// State is the lifecycle state of a view.
type State int

const (
	StateConstructing State = iota
	StateActive
	StateRemoved
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConstructing:
		return "constructing"
	case StateActive:
		return "active"
	case StateRemoved:
		return "removed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Notifications every view emits.
const (
	EventBeforeRemove = "beforeRemove"
	EventAfterRemove  = "afterRemove"
)

// Options are the construction parameters of a view.
type Options struct {
	// El is a selector, a *dom.Element, a []*dom.Element (the first is
	// used) or nil. Unresolvable input leaves the view without an element.
	El any

	// Props holds declared props, validated against the type schema, and
	// any other options, passed through unvalidated.
	Props map[string]any
}

// View is an instance of a view type bound to an optional element.
type View struct {
	rt    *Runtime
	typ   *Type
	id    string
	seq   int64
	el    *dom.Element
	state State

	fields  map[string]any
	options map[string]any

	registry registry
	dismiss  *dismissRegistry
	subviews map[string]*View
	notifier *notify.Notifier
}

// New constructs a view of type t.
//
// Construction resolves the element, validates props, runs initialize
// hooks (behaviors first) and sets up events when the type declares any
// and an element was resolved. Any failure tears the partial view down and
// is returned.
func (rt *Runtime) New(t *Type, opts Options) (*View, error) {
	rt.created++
	v := &View{
		rt:       rt,
		typ:      t,
		id:       rt.ids.Next(),
		seq:      rt.created,
		state:    StateConstructing,
		fields:   make(map[string]any),
		options:  make(map[string]any),
		subviews: make(map[string]*View),
		notifier: notify.New(),
	}

	el, err := v.resolveElement(opts.El)
	if err != nil {
		return nil, err
	}
	v.el = el

	if err := v.assignProps(opts.Props); err != nil {
		return nil, err
	}

	rt.record(journal.Entry{
		Kind:   journal.KindViewCreated,
		View:   v.id,
		Type:   t.name,
		Target: dom.Describe(v.target()),
	})
	rt.logger.Info("view created", "view", v.id, "type", t.name)

	for _, init := range t.initialize {
		if err := init(v); err != nil {
			v.abort()
			return nil, fmt.Errorf("initialize %s: %w", v.id, err)
		}
	}

	if !t.skipEvents && t.hasEvents() && v.el != nil {
		if err := v.SetupEvents(); err != nil {
			v.abort()
			return nil, err
		}
	}

	v.state = StateActive
	return v, nil
}

// MustNew is New that panics on error.
func (rt *Runtime) MustNew(t *Type, opts Options) *View {
	v, err := rt.New(t, opts)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *View) resolveElement(el any) (*dom.Element, error) {
	switch x := el.(type) {
	case nil:
		return nil, nil
	case *dom.Element:
		return x, nil
	case []*dom.Element:
		if len(x) == 0 {
			return nil, nil
		}
		return x[0], nil
	case string:
		if x == "" {
			return nil, nil
		}
		found, err := v.rt.doc.QuerySelector(x)
		if err != nil {
			e := configError(ErrCodeInvalidSelector, v.id, "el", "cannot resolve element %q", x)
			e.Err = err
			return nil, e
		}
		return found, nil
	default:
		v.rt.logger.Debug("unresolvable element ignored", "view", v.id, "el", fmt.Sprintf("%T", el))
		return nil, nil
	}
}

// assignProps rejects declared props that shadow members, then validates
// them. Undeclared keys become options and are never checked.
func (v *View) assignProps(raw map[string]any) error {
	var errs []error
	for _, name := range v.typ.props.Names() {
		if v.typ.isMember(name) {
			errs = append(errs, configError(ErrCodePropCollision, v.id, name,
				"prop %q collides with a view member", name))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	res := v.rt.validator.Validate(v.typ.props, raw, v)
	if res.HasErrors {
		for _, fe := range res.Errors {
			errs = append(errs, configError(ErrCodeInvalidProp, v.id, fe.Field, "%s", fe.Message))
		}
		return errors.Join(errs...)
	}
	for k, val := range res.Data {
		v.fields[k] = val
	}
	for k, val := range raw {
		if _, declared := v.typ.props.Field(k); !declared {
			v.options[k] = val
		}
	}
	return nil
}

// abort releases whatever a failed construction attached.
func (v *View) abort() {
	v.clearEvents()
	v.removeSubviews()
	v.notifier.UnsubscribeAll()
	v.state = StateRemoved
	v.rt.record(journal.Entry{
		Kind:   journal.KindViewRemoved,
		View:   v.id,
		Type:   v.typ.name,
		Detail: "construction failed",
	})
}

// ID returns the process-unique view id.
func (v *View) ID() string { return v.id }

// Type returns the view type.
func (v *View) Type() *Type { return v.typ }

// Runtime returns the runtime the view was built in.
func (v *View) Runtime() *Runtime { return v.rt }

// El returns the bound element, or nil.
func (v *View) El() *dom.Element { return v.el }

// State returns the lifecycle state.
func (v *View) State() State { return v.state }

// Get returns an instance field. Validated props are instance fields.
func (v *View) Get(name string) (any, bool) {
	val, ok := v.fields[name]
	return val, ok
}

// GetString returns an instance field as a string, or "" if it is absent
// or not a string.
func (v *View) GetString(name string) string {
	s, _ := v.fields[name].(string)
	return s
}

// GetBool returns an instance field as a bool.
func (v *View) GetBool(name string) bool {
	b, _ := v.fields[name].(bool)
	return b
}

// Set assigns an instance field.
func (v *View) Set(name string, val any) {
	v.fields[name] = val
}

// Fields returns the instance field names in sorted order.
func (v *View) Fields() []string {
	return sortedKeys(v.fields)
}

// Option returns an undeclared construction option.
func (v *View) Option(name string) (any, bool) {
	val, ok := v.options[name]
	return val, ok
}

// Method returns the named method of the view type.
func (v *View) Method(name string) (*Callback, bool) {
	cb, ok := v.typ.methods[name]
	return cb, ok
}

// Call invokes the named method with e, which may be nil.
func (v *View) Call(name string, e *Event) error {
	cb, err := Method(name).resolve(v)
	if err != nil {
		return err
	}
	cb.Call(v, e)
	return nil
}

// Find returns the first match of sel within the view element, or within
// the document when the view has no element.
func (v *View) Find(sel string) (*dom.Element, error) {
	if v.el != nil {
		return v.el.QuerySelector(sel)
	}
	return v.rt.doc.QuerySelector(sel)
}

// FindAll returns every match of sel within the view element, or within
// the document when the view has no element.
func (v *View) FindAll(sel string) ([]*dom.Element, error) {
	if v.el != nil {
		return v.el.QuerySelectorAll(sel)
	}
	return v.rt.doc.QuerySelectorAll(sel)
}

// Subscribe registers fn for the named notification.
func (v *View) Subscribe(name string, fn func()) *notify.Subscription {
	return v.notifier.Subscribe(name, fn)
}

// ListenTo subscribes to other's notification. The subscription is
// released when v is removed.
func (v *View) ListenTo(other *View, name string, fn func()) *notify.Subscription {
	return v.notifier.ListenTo(other.notifier, name, fn)
}

// Emit fires the named notification.
func (v *View) Emit(name string) {
	v.notifier.Emit(name)
}

// UnsubscribeAll drops every subscription to and from v.
func (v *View) UnsubscribeAll() {
	v.notifier.UnsubscribeAll()
}

// Remove tears the view down:
//
//  1. beforeRemove hooks (behaviors first), then the beforeRemove notification
//  2. event bindings are detached and subviews are removed
//  3. the element is detached if the type owns it
//  4. afterRemove hooks, then the afterRemove notification
//  5. every subscription to and from the view is released
//
// Removing a removed view does nothing.
func (v *View) Remove() {
	if v.state == StateRemoved {
		return
	}
	v.state = StateRemoved

	for _, hook := range v.typ.beforeRemove {
		hook(v)
	}
	v.notifier.Emit(EventBeforeRemove)

	v.clearEvents()
	v.removeSubviews()

	if v.typ.removeElement && v.el != nil {
		v.el.Remove()
	}

	for _, hook := range v.typ.afterRemove {
		hook(v)
	}
	v.notifier.Emit(EventAfterRemove)
	v.notifier.UnsubscribeAll()

	v.rt.record(journal.Entry{
		Kind: journal.KindViewRemoved,
		View: v.id,
		Type: v.typ.name,
	})
	v.rt.logger.Info("view removed", "view", v.id, "type", v.typ.name)
}

// target returns the element as an EventTarget, nil when unbound.
func (v *View) target() dom.EventTarget {
	if v.el == nil {
		return nil
	}
	return v.el
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
