// Package tui is the interactive front end: it shows the current wallpaper
// and lets the user page through the feed history.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/genricoloni/bingwall/internal/domain"
)

const actionTimeout = time.Minute

// Controller is the subset of the engine the view drives
type Controller interface {
	Refresh(ctx context.Context, force bool) error
	NextImage(ctx context.Context) error
	PreviousImage(ctx context.Context) error
	Subscribe() (<-chan *domain.WallpaperState, func())
}

type stateMsg struct {
	state  *domain.WallpaperState
	closed bool
}

type actionDoneMsg struct {
	action   string
	err      error
	duration time.Duration
}

type Model struct {
	ctrl        Controller
	updates     <-chan *domain.WallpaperState
	unsubscribe func()
	keys        keyMap
	help        help.Model
	styles      Styles
	state       *domain.WallpaperState
	pending     string
	status      string
	err         error
	width       int
}

// NewModel subscribes to ctrl; call Close once the program has exited
func NewModel(ctrl Controller) Model {
	updates, unsubscribe := ctrl.Subscribe()
	m := Model{
		ctrl:        ctrl,
		updates:     updates,
		unsubscribe: unsubscribe,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		styles:      DefaultStyles(),
	}
	m.keys.syncEnabled(false, false)
	return m
}

// Close ends the state subscription
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	return waitForState(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		if msg.closed {
			return m, tea.Quit
		}
		m.state = msg.state
		m.syncKeys()
		return m, waitForState(m.updates)

	case actionDoneMsg:
		m.pending = ""
		m.err = msg.err
		if msg.err == nil {
			m.status = fmt.Sprintf("%s done in %s", msg.action, msg.duration.Round(time.Millisecond))
		} else {
			m.status = ""
		}
		m.syncKeys()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.pending != "" {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Newer):
		return m.start("Newer image", m.ctrl.NextImage)
	case key.Matches(msg, m.keys.Older):
		return m.start("Older image", m.ctrl.PreviousImage)
	case key.Matches(msg, m.keys.Refresh):
		return m.start("Refresh", func(ctx context.Context) error {
			return m.ctrl.Refresh(ctx, true)
		})
	}
	return m, nil
}

// start marks an action in flight; navigation keys stay disabled until it completes
func (m Model) start(action string, fn func(context.Context) error) (tea.Model, tea.Cmd) {
	m.pending = action
	m.err = nil
	m.status = ""
	m.keys.syncEnabled(false, false)
	return m, runAction(action, fn)
}

func (m *Model) syncKeys() {
	if m.pending != "" || m.state == nil {
		m.keys.syncEnabled(false, false)
		return
	}
	m.keys.syncEnabled(m.state.CanGoNewer(), m.state.CanGoOlder())
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("Bing Wallpaper"))
	b.WriteString("\n\n")

	if m.state == nil {
		b.WriteString(m.styles.Credit.Render("No image loaded yet"))
		b.WriteString("\n")
	} else {
		title, credit, ok := m.state.Descriptor.Caption()
		if !ok {
			title = m.state.Descriptor.Copyright
		}
		if m.state.Descriptor.Title != "" {
			b.WriteString(m.styles.Title.Render(m.state.Descriptor.Title))
			b.WriteString("\n")
		}
		b.WriteString(title)
		b.WriteString("\n")
		if credit != "" {
			b.WriteString(m.styles.Credit.Render(credit))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.styles.Position.Render(positionLabel(*m.state)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.pending != "":
		b.WriteString(m.styles.Status.Render(m.pending + "..."))
	case m.err != nil:
		b.WriteString(m.styles.Error.Render("Error: " + m.err.Error()))
	case m.status != "":
		b.WriteString(m.styles.Status.Render(m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return m.styles.Frame.Render(b.String())
}

func positionLabel(s domain.WallpaperState) string {
	when := "today"
	switch s.Index {
	case 0:
	case 1:
		when = "yesterday"
	default:
		when = fmt.Sprintf("%d days ago", s.Index)
	}
	return fmt.Sprintf("Image %d of %d (%s)", s.Index+1, domain.MaxIndex+1, when)
}

// Commands

func waitForState(updates <-chan *domain.WallpaperState) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		return stateMsg{state: s, closed: !ok}
	}
}

func runAction(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		started := time.Now()
		err := fn(ctx)
		return actionDoneMsg{action: action, err: err, duration: time.Since(started)}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, ctrl Controller) error {
	m := NewModel(ctrl)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
