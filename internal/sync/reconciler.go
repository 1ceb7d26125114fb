package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/daybook/internal/remote"
)

// confirmTimeout is the maximum time allowed for a single server
// confirmation round trip.
const confirmTimeout = 30 * time.Second

// CompletionConfirmer confirms habit completions with the sync server.
type CompletionConfirmer interface {
	ConfirmCompletion(ctx context.Context, habitID, dateKey string) (remote.CompletionResult, error)
}

// ReconcileResultMsg is a tea.Msg sent when a server confirmation
// completes. Stale results carry the data the server returned but must
// not be applied: a later confirmation for the same habit is already in
// flight or finished.
type ReconcileResultMsg struct {
	HabitID string
	DateKey string
	Streak  int
	Stale   bool
	Error   error

	seq uint64
}

// Reconciler confirms optimistic habit completions with the server in
// the background and reports authoritative streak values back to the
// Bubble Tea runtime.
//
// Each habit carries a monotonically increasing sequence number. A
// confirmation launched at sequence n whose reply arrives after a
// confirmation at sequence n+1 was launched is marked stale and its
// streak value is discarded.
type Reconciler struct {
	client   CompletionConfirmer
	seqs     map[string]uint64
	resultCh chan ReconcileResultMsg
	mu       gosync.Mutex
}

// NewReconciler creates a Reconciler backed by the given client.
func NewReconciler(client CompletionConfirmer) *Reconciler {
	return &Reconciler{
		client:   client,
		seqs:     make(map[string]uint64),
		resultCh: make(chan ReconcileResultMsg, 16),
	}
}

// Confirm launches a background confirmation for the given habit and
// date. The result arrives as a ReconcileResultMsg via WaitForResult.
func (r *Reconciler) Confirm(habitID, dateKey string) tea.Cmd {
	r.mu.Lock()
	r.seqs[habitID]++
	seq := r.seqs[habitID]
	r.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), confirmTimeout)
		defer cancel()

		result, err := r.client.ConfirmCompletion(ctx, habitID, dateKey)

		msg := ReconcileResultMsg{
			HabitID: habitID,
			DateKey: dateKey,
			seq:     seq,
			Error:   err,
		}
		if err == nil {
			msg.Streak = result.Streak
		}

		r.mu.Lock()
		msg.Stale = seq < r.seqs[habitID]
		r.mu.Unlock()

		r.sendResult(msg)
	}()

	return nil
}

// Invalidate advances the habit's sequence number without launching a
// confirmation. Called when a local edit (such as undoing today's
// completion) makes any in-flight confirmation for the habit obsolete.
func (r *Reconciler) Invalidate(habitID string) {
	r.mu.Lock()
	r.seqs[habitID]++
	r.mu.Unlock()
}

// WaitForResult returns a tea.Cmd that waits for the next confirmation
// result. Call it again after processing each ReconcileResultMsg to
// keep listening.
func (r *Reconciler) WaitForResult() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-r.resultCh
		if !ok {
			return nil
		}
		// The sequence may have advanced while the message sat in the
		// channel; re-check before handing it to the UI.
		r.mu.Lock()
		if msg.seq < r.seqs[msg.HabitID] {
			msg.Stale = true
		}
		r.mu.Unlock()
		return msg
	}
}

// sendResult sends a ReconcileResultMsg without blocking.
func (r *Reconciler) sendResult(msg ReconcileResultMsg) {
	select {
	case r.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the worker
	}
}
