package view

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/viewkit/internal/dom"
	"github.com/roach88/viewkit/internal/journal"
)

// Target names where a spec binds.
type Target string

const (
	// TargetElement binds to the view element.
	TargetElement  Target = ""
	TargetWindow   Target = "window"
	TargetDocument Target = "document"
)

// oncePrefix marks a binding that detaches after its first invocation.
const oncePrefix = "one:"

// Spec is a parsed event spec: ["one:"]event[" "selector].
type Spec struct {
	Once     bool
	Event    string
	Selector string
	Target   Target
}

// ParseSpec parses an event spec. A selector of exactly "window" or
// "document" binds directly to that global instead of delegating.
func ParseSpec(s string) (Spec, error) {
	body := strings.TrimSpace(s)
	var sp Spec
	if strings.HasPrefix(body, oncePrefix) {
		sp.Once = true
		body = body[len(oncePrefix):]
	}
	parts := strings.Fields(body)
	if len(parts) == 0 {
		return Spec{}, configError(ErrCodeInvalidEventSpec, "", s, "event spec %q has no event name", s)
	}
	sp.Event = parts[0]
	sp.Selector = NormalizeSelector(strings.Join(parts[1:], " "))
	switch sp.Selector {
	case string(TargetWindow), string(TargetDocument):
		sp.Target = Target(sp.Selector)
		sp.Selector = ""
	}
	return sp, nil
}

// String renders the spec in canonical form.
func (s Spec) String() string {
	var b strings.Builder
	if s.Once {
		b.WriteString(oncePrefix)
	}
	b.WriteString(s.Event)
	switch {
	case s.Target != TargetElement:
		b.WriteString(" " + string(s.Target))
	case s.Selector != "":
		b.WriteString(" " + s.Selector)
	}
	return b.String()
}

// Delegated reports whether the spec delegates to a descendant selector.
func (s Spec) Delegated() bool {
	return s.Target == TargetElement && s.Selector != ""
}

// NormalizeSelector NFC-normalizes sel, trims it and collapses inner
// whitespace, so equivalent spellings compare equal on removal.
func NormalizeSelector(sel string) string {
	return strings.Join(strings.Fields(norm.NFC.String(sel)), " ")
}

var variablePattern = regexp.MustCompile(`\{\{\s*(\S+?)\s*\}\}`)

// expandVariables replaces {{this.path}} with the instance field at path.
func (v *View) expandVariables(spec string) (string, error) {
	var failed error
	out := variablePattern.ReplaceAllStringFunc(spec, func(m string) string {
		path := variablePattern.FindStringSubmatch(m)[1]
		val, ok := v.lookupPath(path)
		if !ok {
			if failed == nil {
				failed = lookupError(ErrCodeUnresolvedVariable, v.id, path,
					"event spec %q references undefined variable", spec)
			}
			return m
		}
		return fmt.Sprint(val)
	})
	if failed != nil {
		return "", failed
	}
	return out, nil
}

func (v *View) lookupPath(path string) (any, bool) {
	rest, ok := strings.CutPrefix(path, "this.")
	if !ok || rest == "" {
		return nil, false
	}
	pieces := strings.Split(rest, ".")

	var cur any
	switch pieces[0] {
	case "id":
		cur = v.id
	default:
		val, found := v.fields[pieces[0]]
		if !found {
			val, found = v.options[pieces[0]]
		}
		if !found {
			return nil, false
		}
		cur = val
	}

	for _, p := range pieces[1:] {
		switch m := cur.(type) {
		case map[string]any:
			cur = m[p]
		case map[string]string:
			s, found := m[p]
			if !found {
				return nil, false
			}
			cur = s
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// SetupEvents binds the event maps of the given providers, or of the view
// type (behaviors first) when none are given. Handler names resolve now,
// not at dispatch. On failure the bindings made by this call are detached.
func (v *View) SetupEvents(providers ...EventsProvider) error {
	if len(providers) == 0 {
		providers = v.typ.events
	}
	start := v.registry.len()
	for _, p := range providers {
		if p == nil {
			continue
		}
		for _, b := range p.Events(v) {
			if err := v.bind(b); err != nil {
				for _, rec := range v.registry.since(start) {
					if v.registry.removeRecord(rec) {
						v.noteRemoved(rec)
					}
				}
				return err
			}
		}
	}
	return nil
}

func (v *View) bind(b EventBinding) error {
	raw := b.Spec
	if v.typ.parseVars {
		expanded, err := v.expandVariables(raw)
		if err != nil {
			return err
		}
		raw = expanded
	}
	sp, err := ParseSpec(raw)
	if err != nil {
		if ve, ok := err.(*Error); ok {
			ve.View = v.id
		}
		return err
	}
	if b.Handler == nil {
		return lookupError(ErrCodeUnknownHandler, v.id, raw, "event spec %q has no handler", raw)
	}
	cb, err := b.Handler.resolve(v)
	if err != nil {
		return err
	}

	var target dom.EventTarget
	switch sp.Target {
	case TargetWindow:
		target = v.rt.doc.Window()
	case TargetDocument:
		target = v.rt.doc
	default:
		target = v.target()
	}
	_, err = v.addEvent(target, sp.Event, sp.Selector, cb, sp.Once)
	return err
}

// AddEvent attaches h to target for event. A non-empty selector delegates:
// h fires when the event originates at or under a descendant of target
// matching selector.
func (v *View) AddEvent(target dom.EventTarget, event, selector string, h Handler) error {
	if h == nil {
		return lookupError(ErrCodeUnknownHandler, v.id, event, "nil handler")
	}
	cb, err := h.resolve(v)
	if err != nil {
		return err
	}
	_, err = v.addEvent(target, event, selector, cb, false)
	return err
}

func (v *View) addEvent(target dom.EventTarget, event, selector string, cb *Callback, once bool) (*record, error) {
	if isNilTarget(target) {
		return nil, configError(ErrCodeInvalidEventSpec, v.id, event, "no element to bind %q to", event)
	}
	if event == "" {
		return nil, configError(ErrCodeInvalidEventSpec, v.id, "", "empty event name")
	}
	selector = NormalizeSelector(selector)
	if selector != "" {
		if err := v.rt.doc.CheckSelector(selector); err != nil {
			e := configError(ErrCodeInvalidSelector, v.id, selector, "invalid selector for %q", event)
			e.Err = err
			return nil, e
		}
	}

	rec := &record{
		target:   target,
		event:    event,
		selector: selector,
		handler:  cb,
		once:     once,
	}
	container, _ := target.(*dom.Element)
	rec.listener = dom.NewListener(func(e *dom.Event) {
		v.dispatch(rec, container, e)
	})
	v.registry.add(rec)

	v.rt.record(journal.Entry{
		Kind:     journal.KindBindingAdded,
		View:     v.id,
		Type:     v.typ.name,
		Event:    event,
		Selector: selector,
		Target:   dom.Describe(target),
		Detail:   cb.Name(),
	})
	v.rt.logger.Debug("binding added",
		"view", v.id,
		"event", event,
		"selector", selector,
		"target", dom.Describe(target),
		"once", once,
	)
	return rec, nil
}

func (v *View) dispatch(rec *record, container *dom.Element, e *dom.Event) {
	var current dom.EventTarget = rec.target
	if rec.selector != "" {
		hit := delegateHit(e.TargetElement(), rec.selector, container)
		if hit == nil {
			return
		}
		current = hit
	}
	if rec.once {
		if !v.registry.removeRecord(rec) {
			return
		}
		v.noteRemoved(rec)
	}

	v.rt.record(journal.Entry{
		Kind:     journal.KindEventDispatched,
		View:     v.id,
		Type:     v.typ.name,
		Event:    rec.event,
		Selector: rec.selector,
		Target:   dom.Describe(current),
		Detail:   rec.handler.Name(),
	})
	v.rt.logger.Debug("event dispatched",
		"view", v.id,
		"event", rec.event,
		"selector", rec.selector,
		"handler", rec.handler.Name(),
	)
	rec.handler.Call(v, newEvent(e, current))
}

// delegateHit tests target, then its ancestors up to but excluding
// container, against selector.
func delegateHit(target *dom.Element, selector string, container *dom.Element) *dom.Element {
	if target == nil {
		return nil
	}
	if ok, _ := target.Matches(selector); ok {
		return target
	}
	for p := target.Parent(); p != nil && p != container; p = p.Parent() {
		if ok, _ := p.Matches(selector); ok {
			return p
		}
	}
	return nil
}

// RemoveEvent detaches the first binding matching target, event, selector
// and handler. An empty selector matches any. Reports whether a binding
// was removed.
func (v *View) RemoveEvent(target dom.EventTarget, event, selector string, h Handler) bool {
	if h == nil {
		return false
	}
	cb, err := h.resolve(v)
	if err != nil {
		return false
	}
	rec := v.registry.remove(target, event, NormalizeSelector(selector), cb)
	if rec == nil {
		return false
	}
	v.noteRemoved(rec)
	return true
}

// RemoveEvents detaches every binding, dismiss listeners included.
func (v *View) RemoveEvents() {
	v.clearEvents()
}

func (v *View) clearEvents() {
	for _, rec := range v.registry.clear() {
		v.noteRemoved(rec)
	}
	if v.dismiss != nil {
		v.dismiss.reset()
	}
}

func (v *View) noteRemoved(rec *record) {
	v.rt.record(journal.Entry{
		Kind:     journal.KindBindingRemoved,
		View:     v.id,
		Type:     v.typ.name,
		Event:    rec.event,
		Selector: rec.selector,
		Target:   dom.Describe(rec.target),
		Detail:   rec.handler.Name(),
	})
	v.rt.logger.Debug("binding removed", "view", v.id, "event", rec.event, "selector", rec.selector)
}

// BindingInfo describes one active binding.
type BindingInfo struct {
	Target   string `json:"target" yaml:"target"`
	Event    string `json:"event" yaml:"event"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
	Handler  string `json:"handler" yaml:"handler"`
	Once     bool   `json:"once,omitempty" yaml:"once,omitempty"`
}

// Bindings lists the active bindings in registration order.
func (v *View) Bindings() []BindingInfo {
	out := make([]BindingInfo, 0, v.registry.len())
	for _, rec := range v.registry.records {
		out = append(out, BindingInfo{
			Target:   dom.Describe(rec.target),
			Event:    rec.event,
			Selector: rec.selector,
			Handler:  rec.handler.Name(),
			Once:     rec.once,
		})
	}
	return out
}

func isNilTarget(t dom.EventTarget) bool {
	switch x := t.(type) {
	case nil:
		return true
	case *dom.Element:
		return x == nil
	case *dom.Document:
		return x == nil
	case *dom.Window:
		return x == nil
	}
	return false
}
