package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raidtimer/timerlink/internal/overlay"
	"github.com/raidtimer/timerlink/internal/version"
)

// StatusResponse is the body of GET /v1/status.
type StatusResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"ts"`
	Build     version.Build  `json:"build"`
	Overlay   overlay.Status `json:"overlay"`
	Process   *ProcessInfo   `json:"process,omitempty"`
}

// StatusHandler reports the companion and connection state.
type StatusHandler struct {
	ov Overlay
}

func NewStatusHandler(ov Overlay) *StatusHandler {
	return &StatusHandler{ov: ov}
}

// Status answers GET /v1/status.
func (h *StatusHandler) Status(c *gin.Context) {
	if h.ov == nil {
		AbortWithError(c, http.StatusServiceUnavailable, ErrCodeNotReady, errors.New("overlay not initialized"))
		return
	}

	now := time.Now()
	c.PureJSON(http.StatusOK, &StatusResponse{
		Status:    "ok",
		Timestamp: now.UTC().Format(time.RFC3339),
		Build:     version.Current(),
		Overlay:   h.ov.Status(),
		Process:   selfProcess(now),
	})
}
