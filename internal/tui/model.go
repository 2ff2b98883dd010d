// Package tui реализует терминальный интерфейс шага выбора контейнера.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/mmeshcher/skip-selection/internal/model"
	"github.com/mmeshcher/skip-selection/internal/projection"
)

// Store определяет контракт хранилища выбора, используемого интерфейсом.
type Store interface {
	Location() model.Location
	Snapshot() model.Snapshot
	Subscribe() (<-chan model.Snapshot, func())
	RequestCatalog(ctx context.Context) <-chan struct{}
	Refresh(ctx context.Context) <-chan struct{}
	Select(option model.SkipOption)
	ClearSelection()
	Continue(ctx context.Context) (model.Booking, error)
}

type snapshotMsg model.Snapshot

type continuedMsg struct {
	booking model.Booking
	err     error
}

// Model является bubbletea-моделью шага выбора контейнера.
type Model struct {
	ctx    context.Context
	store  Store
	logger *zap.Logger
	keys   KeyMap

	updates     <-chan model.Snapshot
	unsubscribe func()

	spinner spinner.Model
	cache   projection.Cache

	snap       model.Snapshot
	sortKey    model.SortKey
	roadFilter model.RoadFilter
	cursor     int

	booking *model.Booking
	notice  string

	width  int
	height int
}

// NewModel создаёт модель интерфейса и подписывает её на изменения хранилища.
// Загрузки каталога ограничены временем жизни ctx.
func NewModel(ctx context.Context, store Store, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	updates, unsubscribe := store.Subscribe()

	return &Model{
		ctx:         ctx,
		store:       store,
		logger:      logger,
		keys:        DefaultKeyMap(),
		updates:     updates,
		unsubscribe: unsubscribe,
		spinner:     s,
		snap:        store.Snapshot(),
		sortKey:     model.SortBySize,
		roadFilter:  model.RoadAny,
	}
}

// Close отменяет подписку на изменения хранилища.
func (m *Model) Close() {
	m.unsubscribe()
}

// Init запускает загрузку каталога и ожидание изменений состояния.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.requestCatalog(),
		m.waitForSnapshot(),
	)
}

func (m *Model) requestCatalog() tea.Cmd {
	return func() tea.Msg {
		m.store.RequestCatalog(m.ctx)
		return nil
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m *Model) continueCmd() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		b, err := m.store.Continue(ctx)
		return continuedMsg{booking: b, err: err}
	}
}

// Update обрабатывает сообщения bubbletea.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.snap = model.Snapshot(msg)
		m.clampCursor()
		return m, m.waitForSnapshot()

	case continuedMsg:
		if msg.err != nil {
			m.logger.Warn("continue failed", zap.Error(msg.err))
			m.notice = "Could not continue: " + msg.err.Error()
			return m, nil
		}
		b := msg.booking
		m.booking = &b
		m.notice = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.view())-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Select):
		view := m.view()
		if m.cursor < len(view) {
			m.store.Select(view[m.cursor])
			m.notice = ""
		}

	case key.Matches(msg, m.keys.Clear):
		m.store.ClearSelection()
		m.booking = nil

	case key.Matches(msg, m.keys.Sort):
		if m.sortKey == model.SortBySize {
			m.sortKey = model.SortByPrice
		} else {
			m.sortKey = model.SortBySize
		}
		m.cursor = 0

	case key.Matches(msg, m.keys.Filter):
		m.roadFilter = nextRoadFilter(m.roadFilter)
		m.cursor = 0

	case key.Matches(msg, m.keys.Retry):
		m.store.Refresh(m.ctx)
		m.notice = ""

	case key.Matches(msg, m.keys.Continue):
		if m.snap.Selected == nil {
			m.notice = "Select a skip to continue"
			return m, nil
		}
		return m, m.continueCmd()
	}

	return m, nil
}

func nextRoadFilter(f model.RoadFilter) model.RoadFilter {
	switch f {
	case model.RoadAny:
		return model.RoadAllowed
	case model.RoadAllowed:
		return model.RoadDisallowed
	default:
		return model.RoadAny
	}
}

func (m *Model) view() []model.SkipOption {
	return m.cache.Project(m.snap, m.sortKey, m.roadFilter)
}

func (m *Model) clampCursor() {
	n := len(m.view())
	if m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}
