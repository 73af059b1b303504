package engine

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator hands out process-unique view identifiers. Implementations
// must never return the same id twice.
type IDGenerator interface {
	Next() string
}

// Id schemes understood by NewIDGenerator.
const (
	IDsSequential = "sequential"
	IDsUUID       = "uuid"
)

// NewIDGenerator returns the generator for scheme: IDsSequential (also the
// empty string) or IDsUUID.
func NewIDGenerator(scheme string) (IDGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", IDsSequential:
		return NewSequentialIDs("view"), nil
	case IDsUUID:
		return UUIDv7Generator{}, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q: must be %s or %s", scheme, IDsSequential, IDsUUID)
	}
}

// SequentialIDs produces prefix+N ids from its own counter: "view1",
// "view2", and so on.
type SequentialIDs struct {
	prefix string
	clock  *Clock
}

// NewSequentialIDs returns a generator for prefix. An empty prefix yields
// "view".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "view"
	}
	return &SequentialIDs{prefix: prefix, clock: NewClock()}
}

// Next returns the next id.
func (g *SequentialIDs) Next() string {
	return g.prefix + strconv.FormatInt(g.clock.Next(), 10)
}

// UUIDv7Generator produces time-sortable UUIDv7 ids.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Next returns a hyphenated UUIDv7.
//
// Panics if the system random source fails.
func (UUIDv7Generator) Next() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns a predetermined list of ids, for tests and golden
// traces.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Next returns the next id.
//
// Panics when the list is exhausted; a test asking for more ids than it
// declared is misconfigured.
func (g *FixedGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
