package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/daybook/internal/model"
	"github.com/nhle/daybook/internal/store"
)

// SyncState represents the current state of the background push loop.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the state of the most recent push.
type SyncStatus struct {
	State    SyncState
	LastPush time.Time
	Error    error
}

// PushResultMsg is a tea.Msg sent when a background push completes.
type PushResultMsg struct {
	PushedAt time.Time
	Error    error
}

// pushTimeout is the maximum time allowed for a full push cycle.
const pushTimeout = 60 * time.Second

// BulkPusher uploads local data to the sync server.
type BulkPusher interface {
	PushHabits(ctx context.Context, habits []model.Habit) error
	PushJournalEntries(ctx context.Context, entries []model.JournalEntry) error
	PushGratitudeEntries(ctx context.Context, entries []model.GratitudeEntry) error
	PushHighlightEntries(ctx context.Context, entries []model.HighlightEntry) error
}

// Pusher periodically uploads the full local dataset to the sync
// server. The server treats each bulk upload as a replacement, so a
// push that runs after any number of local edits converges to the same
// server state.
type Pusher struct {
	store     store.Store
	client    BulkPusher
	interval  time.Duration
	status    SyncStatus
	resultCh  chan PushResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// NewPusher creates a Pusher that uploads every interval. Intervals of
// zero or less fall back to five minutes.
func NewPusher(s store.Store, client BulkPusher, interval time.Duration) *Pusher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Pusher{
		store:     s,
		client:    client,
		interval:  interval,
		resultCh:  make(chan PushResultMsg, 16),
		triggerCh: make(chan struct{}, 16),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the push loop and returns a tea.Cmd that waits for the
// first push result.
func (p *Pusher) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.WaitForResult()
}

// Stop halts the push loop.
func (p *Pusher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// PushNow triggers an immediate push without waiting for the ticker.
func (p *Pusher) PushNow() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
	return nil
}

// Status returns the state of the most recent push.
func (p *Pusher) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// WaitForResult returns a tea.Cmd that waits for the next push result.
// Call it again after processing each PushResultMsg to keep listening.
func (p *Pusher) WaitForResult() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return msg
	}
}

func (p *Pusher) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.pushAll()
		case <-p.triggerCh:
			p.pushAll()
		}
	}
}

// pushAll uploads habits and all entry kinds, stopping at the first
// failure. Local data is never modified.
func (p *Pusher) pushAll() {
	p.setStatus(SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	err := p.doPush(ctx)
	if err != nil {
		p.setStatus(SyncError, err)
		p.sendResult(PushResultMsg{Error: err})
		return
	}

	now := time.Now()
	p.setStatus(SyncIdle, nil)
	p.sendResult(PushResultMsg{PushedAt: now})
}

func (p *Pusher) doPush(ctx context.Context) error {
	habits, err := p.store.GetHabits(ctx)
	if err != nil {
		return err
	}
	if err := p.client.PushHabits(ctx, habits); err != nil {
		return err
	}

	journal, err := p.store.GetJournalEntries(ctx, store.EntryFilter{})
	if err != nil {
		return err
	}
	if err := p.client.PushJournalEntries(ctx, journal); err != nil {
		return err
	}

	gratitude, err := p.store.GetGratitudeEntries(ctx, store.EntryFilter{})
	if err != nil {
		return err
	}
	if err := p.client.PushGratitudeEntries(ctx, gratitude); err != nil {
		return err
	}

	highlights, err := p.store.GetHighlightEntries(ctx, store.EntryFilter{})
	if err != nil {
		return err
	}
	return p.client.PushHighlightEntries(ctx, highlights)
}

func (p *Pusher) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastPush = time.Now()
	}
}

// sendResult sends a PushResultMsg without blocking.
func (p *Pusher) sendResult(msg PushResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the loop
	}
}
