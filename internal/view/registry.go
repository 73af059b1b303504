package view

import "github.com/roach88/viewkit/internal/dom"

// record tracks one native listener attached on behalf of a view.
type record struct {
	target   dom.EventTarget
	event    string
	selector string
	handler  *Callback
	listener *dom.Listener
	once     bool
}

// registry owns every native listener of one view. Each record maps to
// exactly one attached listener; dropping a record always detaches it.
type registry struct {
	records []*record
}

func (r *registry) add(rec *record) {
	rec.target.AddEventListener(rec.event, rec.listener)
	r.records = append(r.records, rec)
}

// remove detaches the first record matching all four fields. Selectors
// match when equal, or when either side is empty.
func (r *registry) remove(target dom.EventTarget, event, selector string, handler *Callback) *record {
	for i, rec := range r.records {
		if rec.target != target || rec.event != event || rec.handler != handler {
			continue
		}
		if selector != "" && rec.selector != "" && rec.selector != selector {
			continue
		}
		r.drop(i)
		return rec
	}
	return nil
}

// removeRecord detaches rec if it is still registered.
func (r *registry) removeRecord(rec *record) bool {
	for i, have := range r.records {
		if have == rec {
			r.drop(i)
			return true
		}
	}
	return false
}

// clear detaches every record and returns them in registration order.
func (r *registry) clear() []*record {
	out := r.records
	r.records = nil
	for _, rec := range out {
		rec.target.RemoveEventListener(rec.event, rec.listener)
	}
	return out
}

// since returns the records added after the first n.
func (r *registry) since(n int) []*record {
	if n >= len(r.records) {
		return nil
	}
	out := make([]*record, len(r.records)-n)
	copy(out, r.records[n:])
	return out
}

func (r *registry) len() int { return len(r.records) }

func (r *registry) drop(i int) {
	rec := r.records[i]
	rec.target.RemoveEventListener(rec.event, rec.listener)
	r.records = append(r.records[:i:i], r.records[i+1:]...)
}
