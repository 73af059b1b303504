package dom

// KeyEscape is the legacy keyCode reported for the Escape key.
const KeyEscape = 27

// Phase is the dispatch phase an event is currently in.
type Phase int

const (
	// PhaseNone means the event is not being dispatched.
	PhaseNone Phase = iota
	// PhaseAtTarget means listeners on the target itself are running.
	PhaseAtTarget
	// PhaseBubbling means listeners on an ancestor are running.
	PhaseBubbling
)

// Event is a DOM event. Create one with NewEvent, NewMouseEvent or
// NewKeyboardEvent and hand it to an EventTarget's DispatchEvent.
type Event struct {
	typ        string
	bubbles    bool
	cancelable bool
	key        string
	keyCode    int

	target        EventTarget
	currentTarget EventTarget
	phase         Phase

	defaultPrevented bool
	stopped          bool
	stoppedImmediate bool
}

// EventOption configures an Event at construction time.
type EventOption func(*Event)

// Bubbles marks the event as bubbling.
func Bubbles() EventOption {
	return func(e *Event) { e.bubbles = true }
}

// Cancelable allows PreventDefault to take effect.
func Cancelable() EventOption {
	return func(e *Event) { e.cancelable = true }
}

// WithKey sets the key name and legacy keyCode.
func WithKey(key string, code int) EventOption {
	return func(e *Event) {
		e.key = key
		e.keyCode = code
	}
}

// NewEvent creates a plain event. Like `new Event(type)` it neither bubbles
// nor is cancelable unless options say so.
func NewEvent(typ string, opts ...EventOption) *Event {
	e := &Event{typ: typ}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewMouseEvent creates a bubbling, cancelable event such as "click".
func NewMouseEvent(typ string) *Event {
	return NewEvent(typ, Bubbles(), Cancelable())
}

// NewKeyboardEvent creates a bubbling, cancelable keyboard event.
func NewKeyboardEvent(typ, key string, code int) *Event {
	return NewEvent(typ, Bubbles(), Cancelable(), WithKey(key, code))
}

func (e *Event) Type() string               { return e.typ }
func (e *Event) Bubbles() bool              { return e.bubbles }
func (e *Event) Cancelable() bool           { return e.cancelable }
func (e *Event) Key() string                { return e.key }
func (e *Event) KeyCode() int               { return e.keyCode }
func (e *Event) Target() EventTarget        { return e.target }
func (e *Event) CurrentTarget() EventTarget { return e.currentTarget }
func (e *Event) Phase() Phase               { return e.phase }
func (e *Event) DefaultPrevented() bool     { return e.defaultPrevented }
func (e *Event) PropagationStopped() bool   { return e.stopped }

// TargetElement returns the target when it is an element, nil otherwise.
func (e *Event) TargetElement() *Element {
	el, _ := e.target.(*Element)
	return el
}

// PreventDefault cancels the default action of a cancelable event.
func (e *Event) PreventDefault() {
	if e.cancelable {
		e.defaultPrevented = true
	}
}

// StopPropagation stops the event after the current target's listeners run.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// StopImmediatePropagation also skips the remaining listeners of the
// current target.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedImmediate = true
}

// dispatch walks path, which starts at the target and continues with the
// bubbling ancestors. It returns false if the default action was prevented.
func dispatch(e *Event, path []EventTarget) bool {
	e.target = path[0]
	e.defaultPrevented = false
	e.stopped = false
	e.stoppedImmediate = false

	for i, t := range path {
		if i == 0 {
			e.phase = PhaseAtTarget
		} else {
			if !e.bubbles {
				break
			}
			e.phase = PhaseBubbling
		}
		e.currentTarget = t
		t.listeners().fire(e)
		if e.stopped {
			break
		}
	}

	e.currentTarget = nil
	e.phase = PhaseNone
	return !e.defaultPrevented
}
