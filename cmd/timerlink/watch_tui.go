package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/raidtimer/timerlink/internal/overlay"
	"github.com/raidtimer/timerlink/internal/timersync"
)

const watchRefresh = 250 * time.Millisecond

// watchSource is the orchestrator surface the watch view reads and drives.
type watchSource interface {
	Timers(now time.Time) []overlay.TimerView
	Status() overlay.Status
	Do(ctx context.Context, id, action string) (bool, error)
	Subscribe() <-chan overlay.Change
	Now() time.Time
}

type watchKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Start  key.Binding
	Pause  key.Binding
	Reset  key.Binding
	Repeat key.Binding
	Quit   key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Start, k.Pause, k.Reset, k.Repeat, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Toggle, k.Start, k.Pause, k.Reset, k.Repeat}, {k.Quit}}
}

var watchKeys = watchKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "toggle")),
	Start:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
	Pause:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Repeat: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "repeat")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

type (
	changeMsg     overlay.Change
	watchTickMsg  time.Time
	actionDoneMsg struct {
		id     string
		action string
		ok     bool
		err    error
	}
)

type watchModel struct {
	ctx     context.Context
	src     watchSource
	changes <-chan overlay.Change
	server  string

	timers   []overlay.TimerView
	status   overlay.Status
	cursor   int
	selected string
	result   string
	width    int

	keys watchKeyMap
	help help.Model
}

func newWatchModel(ctx context.Context, src watchSource, server string) watchModel {
	m := watchModel{
		ctx:     ctx,
		src:     src,
		changes: src.Subscribe(),
		server:  server,
		keys:    watchKeys,
		help:    help.New(),
	}
	m.refresh()
	return m
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(listenForChange(m.changes), watchTick())
}

// listenForChange blocks until the orchestrator publishes a change.
func listenForChange(ch <-chan overlay.Change) tea.Cmd {
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg(change)
	}
}

func watchTick() tea.Cmd {
	return tea.Tick(watchRefresh, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func (m *watchModel) refresh() {
	m.timers = m.src.Timers(m.src.Now())
	m.status = m.src.Status()

	// keep the cursor on the same timer when the order changes
	for i, t := range m.timers {
		if t.ID == m.selected {
			m.cursor = i
			break
		}
	}
	if m.cursor >= len(m.timers) {
		m.cursor = max(len(m.timers)-1, 0)
	}
	if len(m.timers) > 0 {
		m.selected = m.timers[m.cursor].ID
	} else {
		m.selected = ""
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case changeMsg:
		m.refresh()
		return m, listenForChange(m.changes)

	case watchTickMsg:
		m.refresh()
		return m, watchTick()

	case actionDoneMsg:
		switch {
		case msg.err != nil:
			m.result = red.Render(fmt.Sprintf("%s %s: %v", msg.action, msg.id, msg.err))
		case !msg.ok:
			m.result = yellow.Render(fmt.Sprintf("%s %s: not accepted", msg.action, msg.id))
		default:
			m.result = green.Render(fmt.Sprintf("%s %s: ok", msg.action, msg.id))
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	}
	return m, nil
}

func (m watchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.selected = m.timers[m.cursor].ID
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.timers)-1 {
			m.cursor++
			m.selected = m.timers[m.cursor].ID
		}

	case key.Matches(msg, m.keys.Toggle):
		return m, m.sendAction(overlay.ActionToggle)
	case key.Matches(msg, m.keys.Start):
		return m, m.sendAction("start")
	case key.Matches(msg, m.keys.Pause):
		return m, m.sendAction("pause")
	case key.Matches(msg, m.keys.Reset):
		return m, m.sendAction("reset")
	case key.Matches(msg, m.keys.Repeat):
		return m, m.sendAction("repeat")
	}
	return m, nil
}

func (m watchModel) sendAction(action string) tea.Cmd {
	id := m.selected
	if id == "" {
		return nil
	}
	ctx, src := m.ctx, m.src
	return func() tea.Msg {
		ok, err := src.Do(ctx, id, action)
		return actionDoneMsg{id: id, action: action, ok: ok, err: err}
	}
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(cyan.Bold(true).Render("TimerLink"))
	b.WriteString(gray.Render("  " + m.server))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")

	if len(m.timers) == 0 {
		b.WriteString(gray.Render("no timers"))
		b.WriteString("\n")
	}

	nameWidth := 4
	for _, t := range m.timers {
		nameWidth = max(nameWidth, lipgloss.Width(t.Name))
	}
	for i, t := range m.timers {
		cursor := "  "
		if i == m.cursor {
			cursor = cyan.Render("> ")
		}
		line := fmt.Sprintf("%-*s  %8s  %s", nameWidth, t.Name, t.Remaining, statusStyle(t).Render(string(t.Status)))
		if t.RepeatEnabled {
			line += lightGray.Render("  ⟳")
		}
		if t.Hotkey != "" {
			line += gray.Render("  " + t.Hotkey)
		}
		b.WriteString(cursor + line + "\n")
	}

	if m.result != "" {
		b.WriteString("\n" + m.result + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m watchModel) renderStatus() string {
	st := m.status
	var state string
	switch st.Connection {
	case timersync.StateConnected:
		state = green.Render(st.Connection.String())
	case timersync.StateConnecting:
		state = yellow.Render(st.Connection.String())
	default:
		state = red.Render(st.Connection.String())
	}
	line := state
	if st.Message != "" {
		line += gray.Render("  " + st.Message)
	}
	if st.OffsetMs != 0 {
		line += gray.Render(fmt.Sprintf("  offset %+dms", st.OffsetMs))
	}
	return line
}

func statusStyle(t overlay.TimerView) lipgloss.Style {
	switch {
	case t.Running && t.RemainingMs > 0:
		return green
	case t.RemainingMs == 0:
		return red
	default:
		return lightGray
	}
}
