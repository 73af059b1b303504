package journal

import "fmt"

// Kind names the lifecycle activity an entry records.
type Kind string

const (
	KindViewCreated     Kind = "view.created"
	KindViewRemoved     Kind = "view.removed"
	KindBindingAdded    Kind = "binding.added"
	KindBindingRemoved  Kind = "binding.removed"
	KindEventDispatched Kind = "event.dispatched"
	KindSubviewAdded    Kind = "subview.added"
	KindSubviewRemoved  Kind = "subview.removed"
	KindDismissAdded    Kind = "dismiss.added"
	KindDismissRemoved  Kind = "dismiss.removed"
)

// Kinds lists every entry kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindViewCreated,
		KindViewRemoved,
		KindBindingAdded,
		KindBindingRemoved,
		KindEventDispatched,
		KindSubviewAdded,
		KindSubviewRemoved,
		KindDismissAdded,
		KindDismissRemoved,
	}
}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown journal kind %q", s)
}

// Entry is a single journal record.
//
// Seq is assigned by the runtime clock and is strictly increasing within a
// run. Empty string fields are omitted from canonical output.
type Entry struct {
	Seq      int64  `json:"seq"`
	Run      string `json:"run,omitempty"`
	Kind     Kind   `json:"kind"`
	View     string `json:"view,omitempty"`
	Type     string `json:"type,omitempty"`
	Event    string `json:"event,omitempty"`
	Selector string `json:"selector,omitempty"`
	Target   string `json:"target,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// String renders the entry as a single trace line.
func (e Entry) String() string {
	s := fmt.Sprintf("%4d %-18s %s", e.Seq, e.Kind, e.View)
	if e.Type != "" {
		s += " type=" + e.Type
	}
	if e.Event != "" {
		s += " event=" + e.Event
	}
	if e.Selector != "" {
		s += fmt.Sprintf(" selector=%q", e.Selector)
	}
	if e.Target != "" {
		s += " target=" + e.Target
	}
	if e.Detail != "" {
		s += " detail=" + e.Detail
	}
	return s
}

// fields returns the populated fields keyed by their JSON names.
func (e Entry) fields() map[string]any {
	m := map[string]any{
		"seq":  e.Seq,
		"kind": string(e.Kind),
	}
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put("run", e.Run)
	put("view", e.View)
	put("type", e.Type)
	put("event", e.Event)
	put("selector", e.Selector)
	put("target", e.Target)
	put("detail", e.Detail)
	return m
}
