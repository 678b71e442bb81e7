package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raidtimer/timerlink/internal/overlay"
)

type HotkeysResponse struct {
	Active  bool                    `json:"active"`
	Error   string                  `json:"error,omitempty"`
	Hotkeys []overlay.HotkeyBinding `json:"hotkeys"`
}

type HotkeysHandler struct {
	ov Overlay
}

func NewHotkeysHandler(ov Overlay) *HotkeysHandler {
	return &HotkeysHandler{ov: ov}
}

// List answers GET /v1/hotkeys with every configured binding and whether
// the key hook is attached.
func (h *HotkeysHandler) List(c *gin.Context) {
	c.PureJSON(http.StatusOK, hotkeysPayload(h.ov))
}

func hotkeysPayload(ov Overlay) *HotkeysResponse {
	st := ov.Status()
	bindings := ov.Hotkeys()
	if bindings == nil {
		bindings = []overlay.HotkeyBinding{}
	}
	return &HotkeysResponse{
		Active:  st.HotkeysOn,
		Error:   st.HotkeyError,
		Hotkeys: bindings,
	}
}
