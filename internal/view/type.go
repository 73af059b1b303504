package view

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/viewkit/internal/props"
)

// HandlerFunc handles an event on behalf of a view.
type HandlerFunc func(v *View, e *Event)

// InitFunc runs during construction. A non-nil error fails construction.
type InitFunc func(v *View) error

// HookFunc runs during removal.
type HookFunc func(v *View)

// Handler is what an event spec maps to: a Method name resolved against
// the view type at setup time, or a *Callback.
type Handler interface {
	resolve(v *View) (*Callback, error)
}

// Method names a method of the view type.
type Method string

func (m Method) resolve(v *View) (*Callback, error) {
	if cb, ok := v.typ.methods[string(m)]; ok {
		return cb, nil
	}
	return nil, lookupError(ErrCodeUnknownHandler, v.id, string(m),
		"view type %s has no method %q", v.typ.name, string(m))
}

// Callback is a handler with identity. The same *Callback added twice is
// the same handler for removal and dismiss re-arming.
type Callback struct {
	name string
	fn   HandlerFunc
}

// Func wraps fn as an anonymous Callback.
func Func(fn HandlerFunc) *Callback {
	return &Callback{name: "func", fn: fn}
}

// Named wraps fn as a Callback with a name used in logs and the journal.
func Named(name string, fn HandlerFunc) *Callback {
	return &Callback{name: name, fn: fn}
}

// Name returns the callback's name.
func (c *Callback) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Call invokes the callback.
func (c *Callback) Call(v *View, e *Event) {
	if c != nil && c.fn != nil {
		c.fn(v, e)
	}
}

func (c *Callback) resolve(v *View) (*Callback, error) {
	if c == nil {
		return nil, lookupError(ErrCodeUnknownHandler, v.id, "", "nil callback")
	}
	return c, nil
}

// EventBinding pairs an event spec with its handler.
type EventBinding struct {
	Spec    string
	Handler Handler
}

// On builds an EventBinding.
func On(spec string, h Handler) EventBinding {
	return EventBinding{Spec: spec, Handler: h}
}

// EventMap is an ordered set of event bindings.
type EventMap []EventBinding

// EventsProvider yields the event bindings of a view.
type EventsProvider interface {
	Events(v *View) EventMap
}

// Events implements EventsProvider.
func (m EventMap) Events(*View) EventMap { return m }

// EventsFunc computes event bindings per view.
type EventsFunc func(v *View) EventMap

// Events implements EventsProvider.
func (f EventsFunc) Events(v *View) EventMap { return f(v) }

// Behavior is a reusable bundle of lifecycle hooks and methods composed
// into a view type by Define.
type Behavior struct {
	Name         string
	Initialize   InitFunc
	Events       EventsProvider
	BeforeRemove HookFunc
	AfterRemove  HookFunc
	Methods      map[string]HandlerFunc
}

// Definition declares a view type.
type Definition struct {
	Name string

	// Props declares validated instance fields.
	Props props.Schema

	// Behaviors run their hooks before the type's own, in order.
	Behaviors []*Behavior

	Initialize   InitFunc
	Events       EventsProvider
	Methods      map[string]HandlerFunc
	BeforeRemove HookFunc
	AfterRemove  HookFunc

	// RemoveElement detaches the view element on Remove.
	RemoveElement bool

	// SkipEvents disables event setup during construction.
	SkipEvents bool

	// ParseEventVariables expands {{this.path}} in event specs.
	ParseEventVariables bool
}

// Type is a defined view type. Build views with Runtime.New.
type Type struct {
	name      string
	props     props.Schema
	behaviors []*Behavior
	methods   map[string]*Callback

	initialize   []InitFunc
	events       []EventsProvider
	beforeRemove []HookFunc
	afterRemove  []HookFunc

	removeElement bool
	skipEvents    bool
	parseVars     bool
}

// reserved are the members every view has. Props and methods may not use
// these names, compared case-insensitively.
var reserved = map[string]bool{
	"id": true, "el": true, "props": true, "options": true, "option": true,
	"get": true, "set": true, "getstring": true, "getbool": true, "fields": true,
	"method": true, "call": true, "state": true, "type": true, "runtime": true,
	"initialize": true, "events": true, "remove": true,
	"beforeremove": true, "afterremove": true,
	"setupevents": true, "addevent": true, "removeevent": true, "removeevents": true,
	"bindings": true, "adddismisslistener": true, "removedismisslistener": true,
	"addview": true, "subviews": true, "mapview": true, "mapviews": true,
	"mapviewlazy": true, "mapviewslazy": true, "removeviews": true,
	"find": true, "findall": true,
	"emit": true, "subscribe": true, "listento": true, "unsubscribeall": true,
}

// Define merges def's behaviors into ordered per-hook lists and returns the
// resulting type. Methods that collide with a view member or with each
// other fail with MEMBER_COLLISION.
func Define(def Definition) (*Type, error) {
	t := &Type{
		name:          def.Name,
		props:         def.Props,
		methods:       make(map[string]*Callback),
		removeElement: def.RemoveElement,
		skipEvents:    def.SkipEvents,
		parseVars:     def.ParseEventVariables,
	}
	if t.name == "" {
		t.name = "View"
	}

	owners := make(map[string]string)
	var errs []error
	addMethods := func(owner string, methods map[string]HandlerFunc) {
		names := make([]string, 0, len(methods))
		for name := range methods {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			key := strings.ToLower(name)
			if reserved[key] {
				errs = append(errs, configError(ErrCodeMemberCollision, "", name,
					"%s: method %q shadows a view member", owner, name))
				continue
			}
			if prev, ok := owners[key]; ok {
				errs = append(errs, configError(ErrCodeMemberCollision, "", name,
					"%s: method %q already defined by %s", owner, name, prev))
				continue
			}
			owners[key] = owner
			t.methods[name] = &Callback{name: name, fn: methods[name]}
		}
	}

	for i, b := range def.Behaviors {
		if b == nil {
			continue
		}
		owner := b.Name
		if owner == "" {
			owner = "behavior " + strconv.Itoa(i)
		}
		addMethods(owner, b.Methods)
		t.behaviors = append(t.behaviors, b)
		if b.Initialize != nil {
			t.initialize = append(t.initialize, b.Initialize)
		}
		if b.Events != nil {
			t.events = append(t.events, b.Events)
		}
		if b.BeforeRemove != nil {
			t.beforeRemove = append(t.beforeRemove, b.BeforeRemove)
		}
		if b.AfterRemove != nil {
			t.afterRemove = append(t.afterRemove, b.AfterRemove)
		}
	}
	addMethods(t.name, def.Methods)

	if def.Initialize != nil {
		t.initialize = append(t.initialize, def.Initialize)
	}
	if def.Events != nil {
		t.events = append(t.events, def.Events)
	}
	if def.BeforeRemove != nil {
		t.beforeRemove = append(t.beforeRemove, def.BeforeRemove)
	}
	if def.AfterRemove != nil {
		t.afterRemove = append(t.afterRemove, def.AfterRemove)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// MustDefine is Define that panics on error. For package-level types.
func MustDefine(def Definition) *Type {
	t, err := Define(def)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the type name.
func (t *Type) Name() string { return t.name }

// Props returns the prop schema.
func (t *Type) Props() props.Schema { return t.props }

// Methods returns the method names in sorted order.
func (t *Type) Methods() []string {
	names := make([]string, 0, len(t.methods))
	for name := range t.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasBehavior reports whether b was composed into t.
func (t *Type) HasBehavior(b *Behavior) bool {
	for _, have := range t.behaviors {
		if have == b {
			return true
		}
	}
	return false
}

// isMember reports whether name is taken by a view member or method.
func (t *Type) isMember(name string) bool {
	key := strings.ToLower(name)
	if reserved[key] {
		return true
	}
	for m := range t.methods {
		if strings.ToLower(m) == key {
			return true
		}
	}
	return false
}

func (t *Type) hasEvents() bool { return len(t.events) > 0 }
