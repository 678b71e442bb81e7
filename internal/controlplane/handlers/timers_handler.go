package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raidtimer/timerlink/internal/controlplane/middleware"
	"github.com/raidtimer/timerlink/internal/overlay"
)

type TimersResponse struct {
	Timers []overlay.TimerView `json:"timers"`
	Now    int64               `json:"now"`
}

type TimerResponse struct {
	Timer overlay.TimerView `json:"timer"`
	Now   int64             `json:"now"`
}

type ActionResponse struct {
	Code     string `json:"code"`
	TimerID  string `json:"timerId"`
	Action   string `json:"action"`
	Accepted bool   `json:"accepted"`
}

// TimersHandler serves the timer views and forwards timer actions.
type TimersHandler struct {
	ov     Overlay
	replay *replayCache
}

type TimersHandlerOption func(*TimersHandler)

// WithReplayWindow sets how long an X-Request-Id is remembered.
func WithReplayWindow(window time.Duration) TimersHandlerOption {
	return func(h *TimersHandler) {
		h.replay = newReplayCache(window)
	}
}

func NewTimersHandler(ov Overlay, opts ...TimersHandlerOption) *TimersHandler {
	h := &TimersHandler{
		ov:     ov,
		replay: newReplayCache(DefaultReplayWindow),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// List answers GET /v1/timers.
func (h *TimersHandler) List(c *gin.Context) {
	now := h.ov.Now()
	timers := h.ov.Timers(now)
	if timers == nil {
		timers = []overlay.TimerView{}
	}
	c.PureJSON(http.StatusOK, &TimersResponse{
		Timers: timers,
		Now:    now.UnixMilli(),
	})
}

// Get answers GET /v1/timers/:id.
func (h *TimersHandler) Get(c *gin.Context) {
	id := c.Param("id")
	now := h.ov.Now()
	view, ok := h.ov.Timer(id, now)
	if !ok {
		AbortWithError(c, http.StatusNotFound, ErrCodeTimerNotFound, fmt.Errorf("timer %q not found", id))
		return
	}
	c.PureJSON(http.StatusOK, &TimerResponse{
		Timer: view,
		Now:   now.UnixMilli(),
	})
}

// Action answers POST /v1/timers/:id/:action. A request repeating an
// X-Request-Id seen within the replay window gets the first answer and is
// not forwarded again.
func (h *TimersHandler) Action(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	action := strings.ToLower(strings.TrimSpace(c.Param("action")))
	middleware.AnnotateAction(c, id, action)

	requestID := strings.TrimSpace(c.GetHeader(middleware.RequestIDHeader))
	out, replayed := h.dispatch(c.Request.Context(), requestID, id, action)

	if requestID != "" {
		c.Header(middleware.RequestIDHeader, requestID)
	}
	if replayed {
		c.Header(middleware.ReplayHeader, "true")
	}
	if out.Status >= http.StatusBadRequest {
		if e, ok := out.Body.(ControlPlaneError); ok {
			c.Error(errors.New(e.Error))
		}
	}
	c.PureJSON(out.Status, out.Body)
}

// dispatch runs one action, answering from the replay cache when requestID
// was seen within the window.
func (h *TimersHandler) dispatch(ctx context.Context, requestID, id, action string) (actionOutcome, bool) {
	key := ""
	if requestID != "" {
		key = requestID + "|" + id + "|" + action
	}
	return h.replay.do(key, func() actionOutcome {
		return h.runAction(ctx, id, action)
	})
}

func (h *TimersHandler) runAction(ctx context.Context, id, action string) actionOutcome {
	accepted, err := h.ov.Do(ctx, id, action)
	switch {
	case errors.Is(err, overlay.ErrNoTimerID):
		return failure(http.StatusBadRequest, ErrCodeBadRequest, err)
	case errors.Is(err, overlay.ErrUnknownAction):
		return failure(http.StatusBadRequest, ErrCodeUnknownAction, err)
	case err != nil:
		return failure(http.StatusInternalServerError, ErrCodeUnknownError, err)
	case !accepted:
		return failure(http.StatusBadGateway, ErrCodeRejected, fmt.Errorf("server did not accept %s for timer %q", action, id))
	}
	return actionOutcome{
		Status: http.StatusOK,
		Body: ActionResponse{
			Code:     CodeOk,
			TimerID:  id,
			Action:   action,
			Accepted: true,
		},
	}
}

func failure(status int, code string, err error) actionOutcome {
	return actionOutcome{
		Status: status,
		Body: ControlPlaneError{
			ErrorCode: code,
			Error:     err.Error(),
		},
	}
}
