// Package notify is the notification capability every view owns: named,
// payload-free notifications with subscriptions that can be released in
// bulk.
//
// A Notifier tracks two sets of subscriptions:
//   - incoming: handlers other parties registered on this notifier
//   - outgoing: handlers this notifier's owner registered on other notifiers
//     via ListenTo
//
// UnsubscribeAll releases both, which is what a view does as the last step
// of its removal.
package notify

// Notifier dispatches named notifications to subscribers in subscription
// order. It is not safe for concurrent use.
type Notifier struct {
	subs     map[string][]*Subscription
	outgoing []*Subscription
}

// Subscription is a registered handler. Cancel it to stop receiving
// notifications.
type Subscription struct {
	source *Notifier
	owner  *Notifier
	name   string
	fn     func()
	active bool
}

// New returns an empty Notifier.
func New() *Notifier {
	return &Notifier{subs: make(map[string][]*Subscription)}
}

// Subscribe registers fn for name.
func (n *Notifier) Subscribe(name string, fn func()) *Subscription {
	s := &Subscription{source: n, name: name, fn: fn, active: true}
	n.subs[name] = append(n.subs[name], s)
	return s
}

// ListenTo subscribes fn to other's name notifications and records the
// subscription as owned by n, so n.UnsubscribeAll releases it.
func (n *Notifier) ListenTo(other *Notifier, name string, fn func()) *Subscription {
	s := other.Subscribe(name, fn)
	s.owner = n
	n.outgoing = append(n.outgoing, s)
	return s
}

// Emit calls every active subscriber of name. Subscribers cancelled by an
// earlier subscriber during the same Emit are skipped.
func (n *Notifier) Emit(name string) {
	list := n.subs[name]
	if len(list) == 0 {
		return
	}
	snapshot := make([]*Subscription, len(list))
	copy(snapshot, list)
	for _, s := range snapshot {
		if s.active {
			s.fn()
		}
	}
}

// Count returns the number of active subscriptions for name.
func (n *Notifier) Count(name string) int {
	return len(n.subs[name])
}

// Outgoing returns the number of live subscriptions n holds on others.
func (n *Notifier) Outgoing() int {
	return len(n.outgoing)
}

// UnsubscribeAll cancels every subscription on n and every subscription n
// holds on other notifiers.
func (n *Notifier) UnsubscribeAll() {
	for _, list := range n.subs {
		for _, s := range list {
			s.active = false
			if s.owner != nil {
				s.owner.dropOutgoing(s)
			}
		}
	}
	n.subs = make(map[string][]*Subscription)

	outgoing := n.outgoing
	n.outgoing = nil
	for _, s := range outgoing {
		s.owner = nil
		s.Cancel()
	}
}

// Cancel removes the subscription. Cancelling twice is a no-op.
func (s *Subscription) Cancel() {
	if !s.active {
		return
	}
	s.active = false
	list := s.source.subs[s.name]
	for i, have := range list {
		if have == s {
			s.source.subs[s.name] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(s.source.subs[s.name]) == 0 {
		delete(s.source.subs, s.name)
	}
	if s.owner != nil {
		s.owner.dropOutgoing(s)
	}
}

func (n *Notifier) dropOutgoing(s *Subscription) {
	for i, have := range n.outgoing {
		if have == s {
			n.outgoing = append(n.outgoing[:i:i], n.outgoing[i+1:]...)
			return
		}
	}
}
