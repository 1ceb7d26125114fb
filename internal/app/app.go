package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	aiservice "github.com/nhle/daybook/internal/ai"
	"github.com/nhle/daybook/internal/credential"
	"github.com/nhle/daybook/internal/habit"
	"github.com/nhle/daybook/internal/model"
	"github.com/nhle/daybook/internal/notify"
	"github.com/nhle/daybook/internal/remote"
	"github.com/nhle/daybook/internal/store"
	appsync "github.com/nhle/daybook/internal/sync"
	"github.com/nhle/daybook/internal/ui"
	assistantview "github.com/nhle/daybook/internal/ui/assistant"
	"github.com/nhle/daybook/internal/ui/habitlist"
	helpview "github.com/nhle/daybook/internal/ui/help"
	journalview "github.com/nhle/daybook/internal/ui/journal"
	partnerview "github.com/nhle/daybook/internal/ui/partner"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewHabits ViewState = iota
	ViewJournal
	ViewPartner
	ViewAssistant
	ViewHelp
)

var viewLabels = []string{"1 Habits", "2 Journal", "3 Partner", "4 Assistant"}

// Model is the root Bubble Tea model that manages view routing, the
// in-memory habit set, and access to the persistence and sync layers.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        store.Store
	cfg          *model.AppConfig
	keys         *KeyMap
	logger       *slog.Logger

	engine    *habit.Engine
	habits    []model.Habit
	messenger habit.Messenger
	scheduler notify.Scheduler

	habitView     habitlist.Model
	journalView   journalview.Model
	partnerView   partnerview.Model
	assistantView assistantview.Model
	helpView      helpview.Model

	reconciler *appsync.Reconciler
	pusher     *appsync.Pusher

	ready  bool
	status string
}

// New creates a new root application model.
func New(s store.Store, cfg *model.AppConfig, logger *slog.Logger) Model {
	keys := DefaultKeyMap()

	// The assistant is optional: without an API key the view shows a
	// configuration prompt.
	assistant := loadAssistant(s, cfg)

	m := Model{
		currentView:   ViewHabits,
		store:         s,
		cfg:           cfg,
		keys:          keys,
		logger:        logger,
		engine:        habit.NewEngine(),
		habitView:     habitlist.New(keys, 80, 24),
		journalView:   journalview.New(keys, 80, 24),
		partnerView:   partnerview.New(keys, 80, 24),
		assistantView: assistantview.New(assistant, keys, 80, 24),
		helpView:      helpview.New(keys, 80, 24),
	}

	if cfg.Notify.MessageGatewayURL != "" {
		m.messenger = notify.NewWhatsAppMessenger(
			cfg.Notify.MessageGatewayURL, cfg.Notify.SenderName,
		)
	}
	if cfg.Notify.GatewayURL != "" {
		m.scheduler = notify.NewGatewayScheduler(cfg.Notify.GatewayURL)
	}

	if cfg.Remote.Enabled {
		client := remote.NewClient(cfg.Remote.BaseURL, syncToken())
		m.reconciler = appsync.NewReconciler(client)
		m.pusher = appsync.NewPusher(
			s, client, time.Duration(cfg.Remote.PushIntervalSec)*time.Second,
		)
	}

	return m
}

// loadAssistant creates the assistant service if an API key is
// available, checking the environment variable before the OS keyring.
// Returns nil when no key is configured.
func loadAssistant(s store.Store, cfg *model.AppConfig) *aiservice.Assistant {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		var err error
		apiKey, err = credential.Get(credential.KeyAPIKey)
		if err != nil || apiKey == "" {
			return nil
		}
	}

	return aiservice.New(apiKey, s, cfg.AI.Model, cfg.AI.MaxTokens)
}

// Init returns the initial commands to load data and start syncing.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.loadHabits(),
		m.loadPartner(),
		m.journalView.Init(),
	}
	if m.pusher != nil {
		cmds = append(cmds, m.pusher.Start())
	}
	if m.reconciler != nil {
		cmds = append(cmds, m.reconciler.WaitForResult())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight() - 1 // tab row
		m.habitView.SetSize(w, h)
		m.journalView.SetSize(w, h)
		m.partnerView.SetSize(w, h)
		m.assistantView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		return m.updateActiveView(msg)

	case habitsLoadedMsg:
		m.habits = msg.habits
		var cmd tea.Cmd
		m.habitView, cmd = m.habitView.Update(habitlist.HabitsLoadedMsg{Habits: msg.habits})
		return m, cmd

	case habitMutatedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			m.logger.Error("habit mutation failed", "error", msg.err)
			return m, nil
		}
		m.habits = msg.habits
		var cmd tea.Cmd
		m.habitView, cmd = m.habitView.Update(habitlist.HabitsLoadedMsg{Habits: msg.habits})

		cmds := []tea.Cmd{cmd}
		if msg.outcome != nil {
			if msg.outcome.CompletedToday {
				cmds = append(cmds, m.afterCompletion(*msg.outcome))
			} else if m.reconciler != nil {
				// Undoing today makes any confirmation still in flight
				// for this habit obsolete.
				m.reconciler.Invalidate(msg.outcome.Habit.ID)
			}
		}
		return m, tea.Batch(cmds...)

	case appsync.ReconcileResultMsg:
		cmds := []tea.Cmd{m.reconciler.WaitForResult()}
		switch {
		case msg.Error != nil:
			// The optimistic local value stands; the server will catch
			// up on the next bulk push.
			m.logger.Warn("completion confirmation failed",
				"habit", msg.HabitID, "error", msg.Error)
			m.status = "sync: server unreachable, kept local streak"
		case msg.Stale:
			m.logger.Debug("discarding stale confirmation",
				"habit", msg.HabitID, "date", msg.DateKey)
		default:
			m.habits = m.engine.ApplyServerStreak(m.habits, msg.HabitID, msg.Streak)
			var cmd tea.Cmd
			m.habitView, cmd = m.habitView.Update(habitlist.HabitsLoadedMsg{Habits: m.habits})
			cmds = append(cmds, cmd, m.persistHabits())
		}
		return m, tea.Batch(cmds...)

	case appsync.PushResultMsg:
		if msg.Error != nil {
			m.logger.Warn("background push failed", "error", msg.Error)
			m.status = "sync: push failed"
		} else {
			m.status = ""
		}
		return m, m.pusher.WaitForResult()

	case partnerNotifiedMsg:
		if msg.err != nil {
			m.logger.Warn("partner notification failed", "error", msg.err)
		}
		return m, nil

	case habitlist.ToggleRequestMsg:
		return m, m.toggleToday(msg.HabitID)

	case habitlist.CreateRequestMsg:
		return m, m.createHabit(msg.Name)

	case habitlist.EditRequestMsg:
		return m, m.editHabit(msg)

	case habitlist.DeleteRequestMsg:
		return m, m.deleteHabit(msg.HabitID)

	case journalview.ReloadRequestMsg:
		return m, m.loadEntries(msg.Kind, msg.Filter)

	case journalview.SaveJournalMsg:
		return m, m.saveJournalEntry(msg.Entry)

	case journalview.SaveGratitudeMsg:
		return m, m.saveGratitudeEntry(msg.Entry)

	case journalview.SaveHighlightMsg:
		return m, m.saveHighlightEntry(msg.Entry)

	case journalview.DeleteRequestMsg:
		return m, m.deleteEntry(msg.Kind, msg.ID)

	case entriesReloadedMsg:
		var cmd tea.Cmd
		m.journalView, cmd = m.journalView.Update(msg.loaded)
		return m, cmd

	case assistantview.ResponseChunkMsg:
		// Chunks keep flowing to the assistant view even if the user
		// switched tabs mid-stream.
		var cmd tea.Cmd
		m.assistantView, cmd = m.assistantView.Update(msg)
		return m, cmd

	case assistantview.CloseMsg:
		if m.currentView == ViewAssistant {
			m.currentView = m.previousView
		}
		return m, nil

	case partnerview.SaveRequestMsg:
		return m, m.savePartner(msg.Partner)

	case partnerview.ClearRequestMsg:
		return m, m.clearPartner()

	case partnerLoadedMsg:
		var cmd tea.Cmd
		m.partnerView, cmd = m.partnerView.Update(
			partnerview.PartnerLoadedMsg{Partner: msg.partner},
		)
		return m, cmd

	case exportDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("export failed: %v", msg.err)
			m.logger.Error("export failed", "error", msg.err)
		} else {
			m.status = "exported to " + msg.dir
		}
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case tea.KeyMsg:
		if handled, model, cmd := m.handleGlobalKeys(msg); handled {
			return model, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that work regardless of the active
// view. It reports false when the key should fall through to the view.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	// Never steal keys from an open form or search prompt.
	if m.inputActive() {
		if msg.String() == "ctrl+c" {
			return true, m, m.quit()
		}
		return false, m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return true, m, m.quit()

	case "q":
		return true, m, m.quit()

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case "1":
		m.currentView = ViewHabits
		return true, m, nil

	case "2":
		m.currentView = ViewJournal
		return true, m, nil

	case "3":
		m.currentView = ViewPartner
		return true, m, m.loadPartner()

	case "4":
		if m.currentView != ViewAssistant {
			m.previousView = m.currentView
			m.currentView = ViewAssistant
		}
		return true, m, m.assistantView.Init()

	case "r":
		if m.pusher != nil {
			m.status = "syncing..."
			return true, m, m.pusher.PushNow()
		}
		return true, m, func() tea.Msg {
			return statusMsg("sync disabled in config")
		}

	case "x":
		m.status = "exporting..."
		return true, m, m.export()
	}

	return false, m, nil
}

// inputActive reports whether the active view currently owns text
// input (a form or search prompt).
func (m Model) inputActive() bool {
	switch m.currentView {
	case ViewHabits:
		return m.habitView.InputActive()
	case ViewJournal:
		return m.journalView.InputActive()
	case ViewPartner:
		return m.partnerView.InputActive()
	case ViewAssistant:
		return m.assistantView.InputActive()
	}
	return false
}

func (m Model) quit() tea.Cmd {
	if m.pusher != nil {
		m.pusher.Stop()
	}
	return tea.Quit
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewHabits:
		m.habitView, cmd = m.habitView.Update(msg)
	case ViewJournal:
		m.journalView, cmd = m.journalView.Update(msg)
	case ViewPartner:
		m.partnerView, cmd = m.partnerView.Update(msg)
	case ViewAssistant:
		m.assistantView, cmd = m.assistantView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Daybook", m.syncStatus())
	tabs := m.layout.RenderTabs(viewLabels, int(m.activeTab()))
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(
		header,
		tabs+"\n"+content,
		statusBar,
	)
}

// activeTab maps the help overlay back onto the tab it covers.
func (m Model) activeTab() ViewState {
	if m.currentView == ViewHelp {
		return m.previousView
	}
	return m.currentView
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewHabits:
		return m.habitView.View()
	case ViewJournal:
		return m.journalView.View()
	case ViewPartner:
		return m.partnerView.View()
	case ViewAssistant:
		return m.assistantView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the sync state.
func (m Model) syncStatus() string {
	if m.pusher == nil {
		return "local only"
	}
	st := m.pusher.Status()
	switch st.State {
	case appsync.SyncRunning:
		return "syncing"
	case appsync.SyncError:
		return "⚠ sync error"
	default:
		if st.LastPush.IsZero() {
			return "idle"
		}
		return "synced " + st.LastPush.Format("15:04")
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.status != "" {
		return m.status
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help"
	case ViewJournal:
		return "n new | e edit | d delete | / search | tab switch list | ? help"
	case ViewPartner:
		return "n add | e edit | d remove | ? help"
	case ViewAssistant:
		return "enter send | esc back"
	default:
		return "space toggle | n new | e edit | d delete | h/l month | x export | ? help"
	}
}
