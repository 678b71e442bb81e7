package timersdk

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// TimerEntry is one timer as the server describes it.
type TimerEntry struct {
	ID            string
	Name          string
	Duration      time.Duration
	Remaining     time.Duration
	IsRunning     bool
	RepeatEnabled bool
	DisplayOrder  int       // numeric id when absent
	UpdatedAt     time.Time // zero when absent
	EndTime       time.Time // zero when absent
}

// TimerList is a decoded full-state payload. Skipped counts the entries
// that were malformed and dropped.
type TimerList struct {
	Timers  []TimerEntry
	Skipped int
}

type rawEntries []rawJSON

// rawJSON defers decoding so one bad entry does not fail the whole list.
type rawJSON []byte

func (r *rawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

type wireEntry struct {
	ID            flexString `json:"id"`
	Name          flexString `json:"name"`
	DurationMs    *flexInt   `json:"durationMs"`
	Duration      *flexInt   `json:"duration"`
	RemainingMs   *flexInt   `json:"remainingMs"`
	Remaining     *flexInt   `json:"remaining"`
	IsRunning     bool       `json:"isRunning"`
	RepeatEnabled bool       `json:"repeatEnabled"`
	DisplayOrder  flexInt    `json:"displayOrder"`
	UpdatedAt     flexTime   `json:"updatedAt"`
	EndTime       flexTime   `json:"endTime"`
}

// flexInt accepts a JSON number (integral or not) or a numeric string.
type flexInt struct {
	Value int64
	Set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		data = []byte(s)
		if len(data) == 0 {
			return nil
		}
	}
	if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		f.Value, f.Set = n, true
		return nil
	}
	x, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", data)
	}
	f.Value, f.Set = int64(x), true
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	case len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')):
		*f = flexString(data)
		return nil
	default:
		return fmt.Errorf("not a string or number: %s", data)
	}
}

// flexTime accepts epoch milliseconds (number or string) or an RFC 3339 string.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	var n flexInt
	if err := n.UnmarshalJSON(data); err == nil {
		if n.Set {
			f.Time = time.UnixMilli(n.Value)
		}
		return nil
	}
	s, err := strconv.Unquote(string(bytes.TrimSpace(data)))
	if err != nil {
		return fmt.Errorf("not a timestamp: %s", data)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}

func (w *wireEntry) toEntry() (TimerEntry, error) {
	id := string(w.ID)
	if id == "" {
		return TimerEntry{}, ErrNoTimerID
	}

	duration := pickMillis(w.DurationMs, w.Duration)
	remaining := pickMillis(w.RemainingMs, w.Remaining)
	if duration < 0 || remaining < 0 {
		return TimerEntry{}, fmt.Errorf("timer %s: negative duration", id)
	}

	return TimerEntry{
		ID:            id,
		Name:          string(w.Name),
		Duration:      time.Duration(duration) * time.Millisecond,
		Remaining:     time.Duration(remaining) * time.Millisecond,
		IsRunning:     w.IsRunning,
		RepeatEnabled: w.RepeatEnabled,
		DisplayOrder:  displayOrder(w.DisplayOrder, id),
		UpdatedAt:     w.UpdatedAt.Time,
		EndTime:       w.EndTime.Time,
	}, nil
}

func displayOrder(order flexInt, id string) int {
	if order.Set {
		return int(order.Value)
	}
	n, _ := strconv.Atoi(id)
	return n
}

// pickMillis prefers the explicit millisecond field.
func pickMillis(ms, plain *flexInt) int64 {
	if ms != nil && ms.Set {
		return ms.Value
	}
	if plain != nil && plain.Set {
		return plain.Value
	}
	return 0
}
