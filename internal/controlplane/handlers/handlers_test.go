package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raidtimer/timerlink/internal/controlplane/middleware"
	"github.com/raidtimer/timerlink/internal/overlay"
	"github.com/raidtimer/timerlink/internal/timerstate"
	"github.com/raidtimer/timerlink/internal/timersync"
	"github.com/raidtimer/timerlink/internal/version"
)

var testNow = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

type fakeOverlay struct {
	mu      sync.Mutex
	timers  []overlay.TimerView
	hotkeys []overlay.HotkeyBinding
	status  overlay.Status
	accept  bool
	doErr   error
	calls   atomic.Int32
	block   chan struct{}
	subs    map[chan overlay.Change]struct{}
}

func newFakeOverlay() *fakeOverlay {
	return &fakeOverlay{
		timers: []overlay.TimerView{
			{ID: "boss", Name: "Boss", Remaining: "01:30", RemainingMs: 90000, Status: timerstate.StatusRunning, Running: true},
			{ID: "adds", Name: "Adds", Remaining: "00:45", RemainingMs: 45000, Status: timerstate.StatusPaused},
		},
		hotkeys: []overlay.HotkeyBinding{{TimerID: "boss", Hotkey: "<ctrl>+1", Display: "Ctrl+1", Active: true}},
		status:  overlay.Status{Connection: timersync.StateConnected, Timers: 2, HotkeysOn: true, Running: true},
		accept:  true,
		subs:    make(map[chan overlay.Change]struct{}),
	}
}

func (f *fakeOverlay) Timers(time.Time) []overlay.TimerView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]overlay.TimerView(nil), f.timers...)
}

func (f *fakeOverlay) Timer(id string, _ time.Time) (overlay.TimerView, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.timers {
		if v.ID == id {
			return v, true
		}
	}
	return overlay.TimerView{}, false
}

func (f *fakeOverlay) Status() overlay.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeOverlay) Hotkeys() []overlay.HotkeyBinding {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]overlay.HotkeyBinding(nil), f.hotkeys...)
}

func (f *fakeOverlay) Do(_ context.Context, id, action string) (bool, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if id == "" {
		return false, overlay.ErrNoTimerID
	}
	if action == "explode" {
		return false, overlay.ErrUnknownAction
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accept, f.doErr
}

func (f *fakeOverlay) Subscribe() <-chan overlay.Change {
	ch := make(chan overlay.Change, 8)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *fakeOverlay) Unsubscribe(sub <-chan overlay.Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		if ch == sub {
			delete(f.subs, ch)
			close(ch)
		}
	}
}

func (f *fakeOverlay) Now() time.Time { return testNow }

func newRouter(ov Overlay) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	timersH := NewTimersHandler(ov)
	r.GET("/v1/status", NewStatusHandler(ov).Status)
	r.GET("/v1/hotkeys", NewHotkeysHandler(ov).List)
	r.GET("/v1/timers", timersH.List)
	r.GET("/v1/timers/:id", timersH.Get)
	r.POST("/v1/timers/:id/:action", timersH.Action)
	return r
}

func do(r http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestTimersHandler_List(t *testing.T) {
	w := do(newRouter(newFakeOverlay()), http.MethodGet, "/v1/timers", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[TimersResponse](t, w)
	assert.Equal(t, testNow.UnixMilli(), resp.Now)
	require.Len(t, resp.Timers, 2)
	assert.Equal(t, "boss", resp.Timers[0].ID)
	assert.Equal(t, "01:30", resp.Timers[0].Remaining)
}

func TestTimersHandler_ListEmptyIsArray(t *testing.T) {
	ov := newFakeOverlay()
	ov.timers = nil
	w := do(newRouter(ov), http.MethodGet, "/v1/timers", nil)
	assert.JSONEq(t, `{"timers":[],"now":`+jsonInt(testNow.UnixMilli())+`}`, w.Body.String())
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestTimersHandler_Get(t *testing.T) {
	r := newRouter(newFakeOverlay())

	w := do(r, http.MethodGet, "/v1/timers/adds", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Adds", decode[TimerResponse](t, w).Timer.Name)

	w = do(r, http.MethodGet, "/v1/timers/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrCodeTimerNotFound, decode[ControlPlaneError](t, w).ErrorCode)
}

func TestTimersHandler_Action(t *testing.T) {
	tests := []struct {
		name   string
		target string
		accept bool
		doErr  error
		status int
		code   string
	}{
		{"accepted", "/v1/timers/boss/start", true, nil, http.StatusOK, CodeOk},
		{"toggle", "/v1/timers/boss/TOGGLE", true, nil, http.StatusOK, CodeOk},
		{"rejected", "/v1/timers/boss/pause", false, nil, http.StatusBadGateway, ErrCodeRejected},
		{"unknown action", "/v1/timers/boss/explode", true, nil, http.StatusBadRequest, ErrCodeUnknownAction},
		{"blank id", "/v1/timers/%20/start", true, nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"other error", "/v1/timers/boss/reset", false, errors.New("boom"), http.StatusInternalServerError, ErrCodeUnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ov := newFakeOverlay()
			ov.accept = tt.accept
			ov.doErr = tt.doErr

			w := do(newRouter(ov), http.MethodPost, tt.target, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode[ControlPlaneResponse](t, w).Code)
			assert.Empty(t, w.Header().Get(middleware.ReplayHeader))
		})
	}
}

func TestTimersHandler_ActionReplaysRequestID(t *testing.T) {
	ov := newFakeOverlay()
	r := newRouter(ov)
	hdr := http.Header{middleware.RequestIDHeader: {"req-1"}}

	first := do(r, http.MethodPost, "/v1/timers/boss/start", hdr)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "req-1", first.Header().Get(middleware.RequestIDHeader))
	assert.Empty(t, first.Header().Get(middleware.ReplayHeader))

	// outcome is replayed even though the server would now reject it
	ov.mu.Lock()
	ov.accept = false
	ov.mu.Unlock()

	second := do(r, http.MethodPost, "/v1/timers/boss/start", hdr)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get(middleware.ReplayHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.EqualValues(t, 1, ov.calls.Load())

	// a different action under the same id is a new request
	third := do(r, http.MethodPost, "/v1/timers/boss/pause", hdr)
	assert.Equal(t, http.StatusBadGateway, third.Code)
	assert.EqualValues(t, 2, ov.calls.Load())

	// no id, no dedupe
	do(r, http.MethodPost, "/v1/timers/boss/start", nil)
	do(r, http.MethodPost, "/v1/timers/boss/start", nil)
	assert.EqualValues(t, 4, ov.calls.Load())
}

func TestTimersHandler_ConcurrentDuplicatesFireOnce(t *testing.T) {
	ov := newFakeOverlay()
	ov.block = make(chan struct{})
	r := newRouter(ov)
	hdr := http.Header{middleware.RequestIDHeader: {"burst"}}

	var wg sync.WaitGroup
	codes := make([]int, 5)
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = do(r, http.MethodPost, "/v1/timers/adds/start", hdr).Code
		}()
	}

	require.Eventually(t, func() bool { return ov.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(ov.block)
	wg.Wait()

	assert.EqualValues(t, 1, ov.calls.Load())
	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
}

func TestReplayCache_Expires(t *testing.T) {
	cache := newReplayCache(30 * time.Millisecond)
	runs := 0
	fn := func() actionOutcome {
		runs++
		return actionOutcome{Status: http.StatusOK}
	}

	_, replayed := cache.do("k", fn)
	assert.False(t, replayed)
	_, replayed = cache.do("k", fn)
	assert.True(t, replayed)

	time.Sleep(60 * time.Millisecond)
	_, replayed = cache.do("k", fn)
	assert.False(t, replayed)
	assert.Equal(t, 2, runs)
}

func TestStatusHandler_Status(t *testing.T) {
	w := do(newRouter(newFakeOverlay()), http.MethodGet, "/v1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[StatusResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, version.AppName, resp.Build.App)
	assert.NotEmpty(t, resp.Build.Version)
	assert.Equal(t, timersync.StateConnected, resp.Overlay.Connection)
	assert.Equal(t, 2, resp.Overlay.Timers)
	require.NotNil(t, resp.Process)
	assert.EqualValues(t, os.Getpid(), resp.Process.PID)
	assert.Positive(t, resp.Process.Goroutines)
}

func TestStatusHandler_NoOverlay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/status", nil)

	NewStatusHandler(nil).Status(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, ErrCodeNotReady, decode[ControlPlaneError](t, w).ErrorCode)
}

func TestHotkeysHandler_List(t *testing.T) {
	ov := newFakeOverlay()
	ov.status.HotkeysOn = false
	ov.status.HotkeyError = "no keyboard"

	w := do(newRouter(ov), http.MethodGet, "/v1/hotkeys", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[HotkeysResponse](t, w)
	assert.False(t, resp.Active)
	assert.Equal(t, "no keyboard", resp.Error)
	require.Len(t, resp.Hotkeys, 1)
	assert.Equal(t, "Ctrl+1", resp.Hotkeys[0].Display)
}

func TestChangeMessages(t *testing.T) {
	ov := newFakeOverlay()

	types := func(msgs []FeedMessage) []string {
		out := make([]string, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, m.Type)
		}
		return out
	}

	assert.Equal(t, []string{MsgStatus, MsgHotkeys, MsgTimers}, types(snapshotMessages(ov)))
	assert.Equal(t, []string{MsgTimers}, types(changeMessages(ov, overlay.ChangeTimers)))
	assert.Equal(t, []string{MsgStatus}, types(changeMessages(ov, overlay.ChangeConnection)))
	assert.Equal(t, []string{MsgHotkeys, MsgTimers}, types(changeMessages(ov, overlay.ChangeHotkeys)))
	assert.Empty(t, changeMessages(ov, "other"))
}
