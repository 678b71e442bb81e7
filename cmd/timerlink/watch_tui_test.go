package main

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raidtimer/timerlink/internal/overlay"
	"github.com/raidtimer/timerlink/internal/timerstate"
	"github.com/raidtimer/timerlink/internal/timersync"
)

type fakeSource struct {
	mu      sync.Mutex
	timers  []overlay.TimerView
	actions []string
	changes chan overlay.Change
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		timers: []overlay.TimerView{
			{ID: "boss", Name: "Boss", Remaining: "01:30", RemainingMs: 90000, Running: true, Status: timerstate.StatusRunning, Hotkey: "Ctrl+1"},
			{ID: "adds", Name: "Adds", Remaining: "00:45", RemainingMs: 45000, Status: timerstate.StatusWaiting},
		},
		changes: make(chan overlay.Change, 1),
	}
}

func (f *fakeSource) Timers(time.Time) []overlay.TimerView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]overlay.TimerView(nil), f.timers...)
}

func (f *fakeSource) Status() overlay.Status {
	return overlay.Status{Connection: timersync.StateConnected, Message: timersync.MessageStreamConnected}
}

func (f *fakeSource) Do(_ context.Context, id, action string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, id+":"+action)
	return action != "pause", nil
}

func (f *fakeSource) Subscribe() <-chan overlay.Change { return f.changes }
func (f *fakeSource) Now() time.Time                   { return time.Now() }

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m watchModel, msg tea.Msg) (watchModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	wm, ok := next.(watchModel)
	require.True(t, ok)
	return wm, cmd
}

func TestWatchModel_CursorAndActions(t *testing.T) {
	src := newFakeSource()
	m := newWatchModel(context.Background(), src, "http://localhost:47984")
	assert.Equal(t, "boss", m.selected)

	m, _ = update(t, m, keyMsg("up"))
	assert.Equal(t, 0, m.cursor)

	m, _ = update(t, m, keyMsg("down"))
	assert.Equal(t, "adds", m.selected)
	m, _ = update(t, m, keyMsg("j"))
	assert.Equal(t, 1, m.cursor, "cursor stops at the last timer")

	m, cmd := update(t, m, keyMsg("enter"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.result, "toggle adds: ok")

	m, _ = update(t, m, keyMsg("k"))
	m, cmd = update(t, m, keyMsg("p"))
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.result, "pause boss: not accepted")

	_, cmd = update(t, m, keyMsg("t"))
	cmd()

	assert.Equal(t, []string{"adds:toggle", "boss:pause", "boss:repeat"}, src.actions)
}

func TestWatchModel_SelectionFollowsTimerOnReorder(t *testing.T) {
	src := newFakeSource()
	m := newWatchModel(context.Background(), src, "")
	m, _ = update(t, m, keyMsg("down"))
	require.Equal(t, "adds", m.selected)

	src.mu.Lock()
	src.timers[0], src.timers[1] = src.timers[1], src.timers[0]
	src.mu.Unlock()

	m, cmd := update(t, m, changeMsg(overlay.Change{Kind: overlay.ChangeTimers}))
	assert.NotNil(t, cmd, "keeps listening")
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, "adds", m.selected)

	src.mu.Lock()
	src.timers = nil
	src.mu.Unlock()
	m, _ = update(t, m, watchTickMsg(time.Now()))
	assert.Equal(t, "", m.selected)

	_, cmd = update(t, m, keyMsg("enter"))
	assert.Nil(t, cmd, "nothing to act on")
}

func TestWatchModel_View(t *testing.T) {
	m := newWatchModel(context.Background(), newFakeSource(), "http://localhost:47984")
	view := stripANSI(m.View())

	assert.Contains(t, view, "TimerLink")
	assert.Contains(t, view, "connected")
	assert.Contains(t, view, "> Boss")
	assert.Contains(t, view, "01:30")
	assert.Contains(t, view, "Ctrl+1")
	assert.Contains(t, view, "Adds")
	assert.Contains(t, view, "quit")
}

func TestWatchModel_Quit(t *testing.T) {
	m := newWatchModel(context.Background(), newFakeSource(), "")
	_, cmd := update(t, m, keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
