package view

import (
	"github.com/roach88/viewkit/internal/dom"
	"github.com/roach88/viewkit/internal/journal"
)

// DismissListener lets a view react to interaction outside its container:
// a click that lands outside it, or the Escape key. Compose it into a type
// to enable AddDismissListener and RemoveDismissListener.
var DismissListener = &Behavior{
	Name: "dismissListener",
	Initialize: func(v *View) error {
		v.dismiss = &dismissRegistry{}
		return nil
	},
	BeforeRemove: func(v *View) {
		v.removeAllDismiss()
	},
}

type dismissEntry struct {
	handler *Callback
	click   *record
	keyup   *record
}

type dismissRegistry struct {
	entries []*dismissEntry
}

func (d *dismissRegistry) reset() { d.entries = nil }

// DismissOption configures AddDismissListener.
type DismissOption func(*dismissConfig)

type dismissConfig struct {
	container *dom.Element
}

// WithContainer sets the element clicks must land outside of. Defaults to
// the view element.
func WithContainer(el *dom.Element) DismissOption {
	return func(c *dismissConfig) { c.container = el }
}

// AddDismissListener calls h when a click lands outside the container or
// Escape is released. Adding the same handler again replaces the earlier
// registration.
func (v *View) AddDismissListener(h Handler, opts ...DismissOption) error {
	if v.dismiss == nil {
		return configError(ErrCodeMissingBehavior, v.id, DismissListener.Name,
			"view type %s does not compose %s", v.typ.name, DismissListener.Name)
	}
	if h == nil {
		return lookupError(ErrCodeUnknownHandler, v.id, "", "nil dismiss handler")
	}
	cb, err := h.resolve(v)
	if err != nil {
		return err
	}

	cfg := dismissConfig{container: v.el}
	for _, opt := range opts {
		opt(&cfg)
	}
	container := cfg.container
	if container == nil {
		return configError(ErrCodeInvalidEventSpec, v.id, "container", "dismiss listener needs a container")
	}

	v.removeDismiss(cb)

	proxy := Named(cb.Name(), func(v *View, e *Event) {
		if e.Type() == "keyup" {
			if e.KeyCode() == dom.KeyEscape {
				cb.Call(v, e)
			}
			return
		}
		if container.Contains(e.TargetElement()) {
			return
		}
		cb.Call(v, e)
	})

	click, err := v.addEvent(v.rt.doc, "click", "", proxy, false)
	if err != nil {
		return err
	}
	keyup, err := v.addEvent(v.rt.doc, "keyup", "", proxy, false)
	if err != nil {
		if v.registry.removeRecord(click) {
			v.noteRemoved(click)
		}
		return err
	}

	v.dismiss.entries = append(v.dismiss.entries, &dismissEntry{handler: cb, click: click, keyup: keyup})
	v.rt.record(journal.Entry{
		Kind:   journal.KindDismissAdded,
		View:   v.id,
		Type:   v.typ.name,
		Target: dom.Describe(container),
		Detail: cb.Name(),
	})
	return nil
}

// RemoveDismissListener detaches the dismiss bindings of h. Removing a
// handler that is not registered does nothing.
func (v *View) RemoveDismissListener(h Handler) error {
	if v.dismiss == nil {
		return configError(ErrCodeMissingBehavior, v.id, DismissListener.Name,
			"view type %s does not compose %s", v.typ.name, DismissListener.Name)
	}
	if h == nil {
		return nil
	}
	cb, err := h.resolve(v)
	if err != nil {
		return err
	}
	v.removeDismiss(cb)
	return nil
}

// DismissListeners returns the number of registered dismiss handlers.
func (v *View) DismissListeners() int {
	if v.dismiss == nil {
		return 0
	}
	return len(v.dismiss.entries)
}

func (v *View) removeDismiss(cb *Callback) {
	kept := v.dismiss.entries[:0]
	for _, entry := range v.dismiss.entries {
		if entry.handler != cb {
			kept = append(kept, entry)
			continue
		}
		v.detachDismiss(entry)
	}
	v.dismiss.entries = kept
}

func (v *View) removeAllDismiss() {
	if v.dismiss == nil {
		return
	}
	for _, entry := range v.dismiss.entries {
		v.detachDismiss(entry)
	}
	v.dismiss.reset()
}

func (v *View) detachDismiss(entry *dismissEntry) {
	for _, rec := range []*record{entry.click, entry.keyup} {
		if v.registry.removeRecord(rec) {
			v.noteRemoved(rec)
		}
	}
	v.rt.record(journal.Entry{
		Kind:   journal.KindDismissRemoved,
		View:   v.id,
		Type:   v.typ.name,
		Detail: entry.handler.Name(),
	})
}
