package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nhle/daybook/internal/remote"
)

// fakeConfirmer answers confirmations from a map, optionally blocking
// until released to simulate slow responses.
type fakeConfirmer struct {
	streaks map[string]int
	err     error
	block   chan struct{}
}

func (f *fakeConfirmer) ConfirmCompletion(
	ctx context.Context,
	habitID, dateKey string,
) (remote.CompletionResult, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return remote.CompletionResult{}, ctx.Err()
		}
	}
	if f.err != nil {
		return remote.CompletionResult{}, f.err
	}
	return remote.CompletionResult{
		Streak:    f.streaks[habitID],
		Completed: true,
	}, nil
}

// nextResult runs the wait command and returns its message, failing the
// test if nothing arrives in time.
func nextResult(t *testing.T, r *Reconciler) ReconcileResultMsg {
	t.Helper()

	ch := make(chan ReconcileResultMsg, 1)
	go func() {
		msg := r.WaitForResult()()
		if m, ok := msg.(ReconcileResultMsg); ok {
			ch <- m
		}
	}()

	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reconcile result")
		return ReconcileResultMsg{}
	}
}

func TestConfirmReturnsServerStreak(t *testing.T) {
	client := &fakeConfirmer{streaks: map[string]int{"a": 9}}
	r := NewReconciler(client)

	r.Confirm("a", "2025-03-15")
	msg := nextResult(t, r)

	if msg.Error != nil {
		t.Fatalf("unexpected error: %v", msg.Error)
	}
	if msg.HabitID != "a" || msg.DateKey != "2025-03-15" {
		t.Errorf("msg identity = %s/%s", msg.HabitID, msg.DateKey)
	}
	if msg.Streak != 9 {
		t.Errorf("streak = %d, want 9", msg.Streak)
	}
	if msg.Stale {
		t.Error("single confirmation marked stale")
	}
}

func TestConfirmReportsError(t *testing.T) {
	client := &fakeConfirmer{err: errors.New("server down")}
	r := NewReconciler(client)

	r.Confirm("a", "2025-03-15")
	msg := nextResult(t, r)

	if msg.Error == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestSupersededConfirmationIsStale(t *testing.T) {
	client := &fakeConfirmer{
		streaks: map[string]int{"a": 3},
		block:   make(chan struct{}),
	}
	r := NewReconciler(client)

	// Two confirmations in flight for the same habit. Releasing the
	// block lets both finish; the first launched must come back stale.
	r.Confirm("a", "2025-03-14")
	r.Confirm("a", "2025-03-15")
	close(client.block)

	first := nextResult(t, r)
	second := nextResult(t, r)

	stale, fresh := first, second
	if !stale.Stale {
		stale, fresh = second, first
	}
	if !stale.Stale {
		t.Error("expected one of the two results to be stale")
	}
	if fresh.Stale {
		t.Error("latest confirmation marked stale")
	}
}

func TestInvalidateMakesInFlightConfirmationStale(t *testing.T) {
	client := &fakeConfirmer{
		streaks: map[string]int{"a": 3},
		block:   make(chan struct{}),
	}
	r := NewReconciler(client)

	// A local undo while the confirmation is still in flight must keep
	// the server's streak from being applied over the undone state.
	r.Confirm("a", "2025-03-15")
	r.Invalidate("a")
	close(client.block)

	msg := nextResult(t, r)
	if !msg.Stale {
		t.Error("confirmation superseded by a local edit not marked stale")
	}
}

func TestConfirmationsForDifferentHabitsNotStale(t *testing.T) {
	client := &fakeConfirmer{streaks: map[string]int{"a": 1, "b": 2}}
	r := NewReconciler(client)

	r.Confirm("a", "2025-03-15")
	r.Confirm("b", "2025-03-15")

	for i := 0; i < 2; i++ {
		msg := nextResult(t, r)
		if msg.Stale {
			t.Errorf("result for habit %s marked stale", msg.HabitID)
		}
	}
}
