package registry

import "sync"

type subCh = chan *Snapshot

// notifier is a per-registry instance of the non-blocking pub/sub used
// to announce snapshot changes, generalized from a package-level
// global to a field owned by each Registry so namespaces never share
// subscriber sets.
type notifier struct {
	mu   sync.Mutex
	subs map[subCh]struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[subCh]struct{})}
}

// subscribe registers a listener and returns its channel and an
// unsubscribe function.
func (n *notifier) subscribe() (subCh, func()) {
	ch := make(subCh, 1)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	unsub := func() {
		n.mu.Lock()
		if _, ok := n.subs[ch]; ok {
			delete(n.subs, ch)
			close(ch)
		}
		n.mu.Unlock()
	}
	return ch, unsub
}

// publish notifies all listeners without blocking; a slow subscriber
// misses an update rather than stalling the writer.
func (n *notifier) publish(snap *Snapshot) {
	n.mu.Lock()
	for ch := range n.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	n.mu.Unlock()
}
