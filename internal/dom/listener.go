package dom

// EventTarget is anything listeners can be attached to: *Element,
// *Document and *Window.
type EventTarget interface {
	AddEventListener(typ string, l *Listener)
	RemoveEventListener(typ string, l *Listener)
	DispatchEvent(e *Event) bool
	ListenerCount(typ string) int

	listeners() *listenerList
}

// Listener wraps a callback so it has an identity that can be removed
// again. The same Listener added twice to one target for one type is only
// registered once.
type Listener struct {
	fn func(*Event)
}

// NewListener wraps fn.
func NewListener(fn func(*Event)) *Listener {
	return &Listener{fn: fn}
}

type attachment struct {
	listener *Listener
	removed  bool
}

type listenerList struct {
	byType map[string][]*attachment
}

func (l *listenerList) add(typ string, li *Listener) {
	if li == nil {
		return
	}
	if l.byType == nil {
		l.byType = make(map[string][]*attachment)
	}
	for _, a := range l.byType[typ] {
		if a.listener == li {
			return
		}
	}
	l.byType[typ] = append(l.byType[typ], &attachment{listener: li})
}

func (l *listenerList) remove(typ string, li *Listener) {
	list := l.byType[typ]
	for i, a := range list {
		if a.listener != li {
			continue
		}
		// An in-flight dispatch holds a snapshot; the flag keeps it from
		// calling a listener that is already gone.
		a.removed = true
		l.byType[typ] = append(list[:i:i], list[i+1:]...)
		if len(l.byType[typ]) == 0 {
			delete(l.byType, typ)
		}
		return
	}
}

func (l *listenerList) count(typ string) int {
	if typ == "" {
		n := 0
		for _, list := range l.byType {
			n += len(list)
		}
		return n
	}
	return len(l.byType[typ])
}

func (l *listenerList) fire(e *Event) {
	list := l.byType[e.typ]
	if len(list) == 0 {
		return
	}
	snapshot := make([]*attachment, len(list))
	copy(snapshot, list)

	for _, a := range snapshot {
		if a.removed {
			continue
		}
		a.listener.fn(e)
		if e.stoppedImmediate {
			return
		}
	}
}
