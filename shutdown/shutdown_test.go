package shutdown

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestShutdown_ReverseOrder(t *testing.T) {
	c := New()

	var order []string
	for _, name := range []string{"store", "notifier", "index"} {
		name := name
		c.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	want := []string{"index", "notifier", "store"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestShutdown_ContinuesPastFailure(t *testing.T) {
	c := New()

	storeClosed := false
	c.Register("store", func(context.Context) error {
		storeClosed = true
		return nil
	})
	c.Register("notifier", func(context.Context) error {
		return fmt.Errorf("connection reset")
	})

	err := c.Shutdown(context.Background())
	if err == nil {
		t.Fatal("expected the notifier failure to surface")
	}
	if !storeClosed {
		t.Error("later hooks must still run after a failure")
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	c := New()

	calls := 0
	c.Register("store", func(context.Context) error {
		calls++
		return nil
	})

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("first Shutdown failed: %v", err)
	}
	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("hooks must run once, ran %d times", calls)
	}

	select {
	case <-c.Done():
	default:
		t.Error("Done must be closed after shutdown")
	}
}

func TestShutdown_TimeoutCancelsContext(t *testing.T) {
	c := New(WithTimeout(20 * time.Millisecond))

	var sawCancel bool
	c.Register("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			sawCancel = true
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	if err := c.Shutdown(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
	if !sawCancel {
		t.Error("hook context should be cancelled at the timeout")
	}
}

func TestCloser(t *testing.T) {
	closed := false
	h := Closer(func() error {
		closed = true
		return nil
	})
	if err := h(context.Background()); err != nil {
		t.Fatalf("Closer hook failed: %v", err)
	}
	if !closed {
		t.Error("Closer must call through")
	}
}
