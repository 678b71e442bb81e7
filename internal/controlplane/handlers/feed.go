package handlers

import "github.com/raidtimer/timerlink/internal/overlay"

// Feed message types, shared by the SSE and WebSocket feeds.
const (
	MsgTimers  = "timers"
	MsgStatus  = "status"
	MsgHotkeys = "hotkeys"
	MsgResult  = "result"
	MsgError   = "error"
	MsgPing    = "ping"
	MsgPong    = "pong"

	MsgSubscribe = "subscribe"
	MsgAction    = "action"
)

// FeedMessage is one server to client feed message. Data is a
// TimersResponse, overlay.Status, HotkeysResponse or ActionResponse
// depending on Type.
type FeedMessage struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
	Replayed bool   `json:"replayed,omitempty"`
}

// ClientMessage is one WebSocket client message.
type ClientMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	TimerID string `json:"timerId,omitempty"`
	Action  string `json:"action,omitempty"`
}

func timersMessage(ov Overlay) FeedMessage {
	now := ov.Now()
	timers := ov.Timers(now)
	if timers == nil {
		timers = []overlay.TimerView{}
	}
	return FeedMessage{
		Type: MsgTimers,
		Data: &TimersResponse{Timers: timers, Now: now.UnixMilli()},
	}
}

func statusMessage(ov Overlay) FeedMessage {
	st := ov.Status()
	return FeedMessage{Type: MsgStatus, Data: &st}
}

func hotkeysMessage(ov Overlay) FeedMessage {
	return FeedMessage{Type: MsgHotkeys, Data: hotkeysPayload(ov)}
}

// snapshotMessages is the full state sent when a feed opens.
func snapshotMessages(ov Overlay) []FeedMessage {
	return []FeedMessage{statusMessage(ov), hotkeysMessage(ov), timersMessage(ov)}
}

// changeMessages maps one change notification to the messages it refreshes.
// Hotkey changes refresh timers too since views carry the hotkey display.
func changeMessages(ov Overlay, kind overlay.ChangeKind) []FeedMessage {
	switch kind {
	case overlay.ChangeTimers:
		return []FeedMessage{timersMessage(ov)}
	case overlay.ChangeConnection:
		return []FeedMessage{statusMessage(ov)}
	case overlay.ChangeHotkeys:
		return []FeedMessage{hotkeysMessage(ov), timersMessage(ov)}
	}
	return nil
}
