package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raidtimer/timerlink/internal/overlay"
)

const (
	CodeOk               string = "OK"
	ErrCodeBadRequest    string = "ERR_BAD_REQUEST"
	ErrCodeUnknownError  string = "ERR_UNKNOWN_ERROR"
	ErrCodeTimerNotFound string = "ERR_TIMER_NOT_FOUND"
	ErrCodeUnknownAction string = "ERR_UNKNOWN_ACTION"
	ErrCodeRejected      string = "ERR_ACTION_REJECTED"
	ErrCodeNotReady      string = "ERR_NOT_READY"
)

// Overlay is the orchestrator surface the control plane serves.
type Overlay interface {
	Timers(now time.Time) []overlay.TimerView
	Timer(id string, now time.Time) (overlay.TimerView, bool)
	Status() overlay.Status
	Hotkeys() []overlay.HotkeyBinding
	Do(ctx context.Context, id, action string) (bool, error)
	Subscribe() <-chan overlay.Change
	Unsubscribe(sub <-chan overlay.Change)
	Now() time.Time
}

type ControlPlaneResponse struct {
	Code string `json:"code"`
}

type ControlPlaneError struct {
	ErrorCode string `json:"code"`
	Error     string `json:"error"`
}

func AbortWithError(c *gin.Context, status int, code string, err error) {
	c.Abort()
	c.Error(err)
	c.PureJSON(status, ControlPlaneError{
		ErrorCode: code,
		Error:     err.Error(),
	})
}
