package notify

import (
	"sync"
	"sync/atomic"
	"time"
)

// MemoryNotifier implements Notifier with in-process channel fan-out.
// Useful for testing and single-process deployments.
type MemoryNotifier struct {
	config Config

	mu     sync.RWMutex
	subs   map[string][]*memorySub // contextID ("" = all) -> subscribers
	closed atomic.Bool
}

type memorySub struct {
	contextID string
	ch        chan Update
	closed    atomic.Bool
	notifier  *MemoryNotifier
}

// NewMemoryNotifier creates an in-memory notifier.
func NewMemoryNotifier(cfg Config) *MemoryNotifier {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &MemoryNotifier{
		config: cfg,
		subs:   make(map[string][]*memorySub),
	}
}

// Publish implements Notifier. A subscriber whose buffer is full misses
// the update; it catches up from the event log.
func (n *MemoryNotifier) Publish(update Update) error {
	if update.ContextID == "" {
		return ErrInvalidContext
	}
	if n.closed.Load() {
		return ErrClosed
	}
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now().UTC()
	}

	n.mu.RLock()
	targets := append([]*memorySub(nil), n.subs[update.ContextID]...)
	targets = append(targets, n.subs[""]...)
	n.mu.RUnlock()

	for _, sub := range targets {
		if sub.closed.Load() {
			continue
		}
		select {
		case sub.ch <- update:
		default:
			// Buffer full, drop; the event log remains authoritative.
		}
	}
	return nil
}

// Subscribe implements Notifier.
func (n *MemoryNotifier) Subscribe(contextID string) (Subscription, error) {
	if n.closed.Load() {
		return nil, ErrClosed
	}

	sub := &memorySub{
		contextID: contextID,
		ch:        make(chan Update, n.config.BufferSize),
		notifier:  n,
	}

	n.mu.Lock()
	n.subs[contextID] = append(n.subs[contextID], sub)
	n.mu.Unlock()

	return sub, nil
}

// Close implements Notifier.
func (n *MemoryNotifier) Close() error {
	if n.closed.Swap(true) {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, subs := range n.subs {
		for _, sub := range subs {
			if !sub.closed.Swap(true) {
				close(sub.ch)
			}
		}
	}
	n.subs = nil
	return nil
}

// Updates returns the update channel.
func (s *memorySub) Updates() <-chan Update {
	return s.ch
}

// Unsubscribe cancels the subscription.
func (s *memorySub) Unsubscribe() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.notifier.mu.Lock()
	defer s.notifier.mu.Unlock()

	subs := s.notifier.subs[s.contextID]
	for i, sub := range subs {
		if sub == s {
			s.notifier.subs[s.contextID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	close(s.ch)
	return nil
}
