package view

import "github.com/roach88/viewkit/internal/dom"

// Event is the event a handler receives. For delegated bindings
// CurrentTarget is the matching descendant rather than the element the
// listener is attached to; everything else delegates to Original.
type Event struct {
	// Original is the native event.
	Original *dom.Event

	current dom.EventTarget
}

func newEvent(e *dom.Event, current dom.EventTarget) *Event {
	return &Event{Original: e, current: current}
}

// Type returns the event type.
func (e *Event) Type() string { return e.Original.Type() }

// Target returns the node the event was dispatched at.
func (e *Event) Target() dom.EventTarget { return e.Original.Target() }

// TargetElement returns the target if it is an element.
func (e *Event) TargetElement() *dom.Element { return e.Original.TargetElement() }

// CurrentTarget returns the logical current target.
func (e *Event) CurrentTarget() dom.EventTarget { return e.current }

// CurrentElement returns the logical current target if it is an element.
func (e *Event) CurrentElement() *dom.Element {
	el, _ := e.current.(*dom.Element)
	return el
}

// Key returns the key of a keyboard event.
func (e *Event) Key() string { return e.Original.Key() }

// KeyCode returns the key code of a keyboard event.
func (e *Event) KeyCode() int { return e.Original.KeyCode() }

// PreventDefault cancels the default action of the native event.
func (e *Event) PreventDefault() { e.Original.PreventDefault() }

// DefaultPrevented reports whether the default action was cancelled.
func (e *Event) DefaultPrevented() bool { return e.Original.DefaultPrevented() }

// StopPropagation stops the native event after the current target.
func (e *Event) StopPropagation() { e.Original.StopPropagation() }

// StopImmediatePropagation also skips the remaining listeners of the
// current target.
func (e *Event) StopImmediatePropagation() { e.Original.StopImmediatePropagation() }
