package journal

import "sync"

// Recorder receives journal entries.
type Recorder interface {
	Record(e Entry) error
}

// Discard is a Recorder that drops every entry.
type Discard struct{}

// Record implements Recorder.
func (Discard) Record(Entry) error { return nil }

// Memory is an in-memory Recorder. Safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory returns an empty Memory recorder.
func NewMemory() *Memory {
	return &Memory{}
}

// Record implements Recorder.
func (m *Memory) Record(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of every recorded entry in record order.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Filter returns the recorded entries of the given kind.
func (m *Memory) Filter(kind Kind) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many entries of kind were recorded for view.
// An empty view matches every view.
func (m *Memory) Count(kind Kind, view string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.Kind == kind && (view == "" || e.View == view) {
			n++
		}
	}
	return n
}

// Len returns the number of recorded entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Reset drops all recorded entries.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
}

// Tee fans entries out to several recorders. The first error wins but every
// recorder still receives the entry.
type Tee []Recorder

// Record implements Recorder.
func (t Tee) Record(e Entry) error {
	var first error
	for _, r := range t {
		if err := r.Record(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
