package notify

import (
	"testing"
	"time"
)

func TestMemoryNotifier_PublishAndSubscribe(t *testing.T) {
	n := NewMemoryNotifier(DefaultConfig())
	defer n.Close()

	sub, err := n.Subscribe("ctx-1")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := n.Publish(Update{ContextID: "ctx-1", SequenceNumber: 1, Operation: "task_created"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case update := <-sub.Updates():
		if update.SequenceNumber != 1 || update.Operation != "task_created" {
			t.Errorf("unexpected update: %+v", update)
		}
		if update.Timestamp.IsZero() {
			t.Error("publish should stamp updates")
		}
	case <-time.After(time.Second):
		t.Fatal("update not delivered")
	}
}

func TestMemoryNotifier_ScopedToContext(t *testing.T) {
	n := NewMemoryNotifier(DefaultConfig())
	defer n.Close()

	sub, _ := n.Subscribe("ctx-1")
	n.Publish(Update{ContextID: "ctx-2", SequenceNumber: 1, Operation: "task_created"})

	select {
	case update := <-sub.Updates():
		t.Fatalf("subscriber for ctx-1 received %+v", update)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryNotifier_WildcardSubscription(t *testing.T) {
	n := NewMemoryNotifier(DefaultConfig())
	defer n.Close()

	all, _ := n.Subscribe("")
	n.Publish(Update{ContextID: "ctx-1", SequenceNumber: 1, Operation: "task_created"})
	n.Publish(Update{ContextID: "ctx-2", SequenceNumber: 1, Operation: "task_created"})

	for i := 0; i < 2; i++ {
		select {
		case <-all.Updates():
		case <-time.After(time.Second):
			t.Fatalf("wildcard subscriber missed update %d", i+1)
		}
	}
}

func TestMemoryNotifier_FullBufferDropsNotBlocks(t *testing.T) {
	n := NewMemoryNotifier(Config{BufferSize: 1})
	defer n.Close()

	sub, _ := n.Subscribe("ctx-1")
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			n.Publish(Update{ContextID: "ctx-1", SequenceNumber: uint64(i + 1), Operation: "op"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish must never block on a slow subscriber")
	}
	_ = sub
}

func TestMemoryNotifier_UnsubscribeAndClose(t *testing.T) {
	n := NewMemoryNotifier(DefaultConfig())

	sub, _ := n.Subscribe("ctx-1")
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if _, open := <-sub.Updates(); open {
		t.Error("channel should be closed after unsubscribe")
	}

	other, _ := n.Subscribe("ctx-1")
	n.Close()
	if _, open := <-other.Updates(); open {
		t.Error("channel should be closed after notifier close")
	}
	if err := n.Publish(Update{ContextID: "ctx-1"}); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestMemoryNotifier_RejectsEmptyContextID(t *testing.T) {
	n := NewMemoryNotifier(DefaultConfig())
	defer n.Close()

	if err := n.Publish(Update{SequenceNumber: 1}); err != ErrInvalidContext {
		t.Errorf("expected ErrInvalidContext, got %v", err)
	}
}
