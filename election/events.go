package election

import "sync"

// LeadershipChange describes a leadership transition observed by one
// service. Exactly one of Gained and Lost is set.
type LeadershipChange struct {
	ElectionName  string
	ParticipantID string
	IsLeader      bool
	Gained        bool
	Lost          bool
	Leader        *LeaderInfo // the held record on gain, nil on loss
}

// LeadershipHandler receives leadership transitions. Handlers run with
// the service's state lock released; a slow handler delays subsequent
// notifications but cannot deadlock the service.
type LeadershipHandler func(LeadershipChange)

// notifier fans leadership changes out to registered handlers. The
// registration list lives under its own mutex; emission serializes on a
// second mutex so events for one service keep strict order (a gain is
// always observed before the loss that follows it), and handlers are
// invoked holding neither the service's state lock nor the registration
// lock.
type notifier struct {
	regMu    sync.Mutex
	emitMu   sync.Mutex
	handlers []LeadershipHandler
}

func newNotifier() *notifier {
	return &notifier{}
}

// subscribe registers h and returns a function that unregisters it. Safe
// for concurrent use; unregistering twice is a no-op.
func (n *notifier) subscribe(h LeadershipHandler) func() {
	if h == nil {
		return func() {}
	}
	n.regMu.Lock()
	idx := len(n.handlers)
	n.handlers = append(n.handlers, h)
	n.regMu.Unlock()

	return func() {
		n.regMu.Lock()
		if idx < len(n.handlers) {
			n.handlers[idx] = nil
		}
		n.regMu.Unlock()
	}
}

// emit delivers change to every registered handler in registration order.
func (n *notifier) emit(change LeadershipChange) {
	n.regMu.Lock()
	handlers := make([]LeadershipHandler, len(n.handlers))
	copy(handlers, n.handlers)
	n.regMu.Unlock()

	n.emitMu.Lock()
	defer n.emitMu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h(change)
		}
	}
}
