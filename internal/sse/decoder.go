// Package sse decodes the comment/data line framed push stream served by the
// timer server.
//
// Events are delimited by blank lines. Lines starting with "data:" carry the
// payload, lines starting with ":" are comments, anything else is ignored.
// A payload made of several data lines is joined with newlines. A UTF-8 byte
// order mark at the very start of the stream is dropped. Lines may end in LF
// or CRLF.
//
// The decoder is incremental and does not care where the transport splits
// the byte stream: feeding a stream in one call or one byte at a time yields
// the same frames.
package sse

import (
	"bytes"
	"errors"
)

const (
	// DefaultMaxFrameSize bounds a single line and a single accumulated payload.
	DefaultMaxFrameSize = 4 * 1024 * 1024
)

var (
	ErrFrameTooLarge = errors.New("sse: frame too large")

	bom        = []byte{0xEF, 0xBB, 0xBF}
	dataMarker = []byte("data:")
)

// Decoder turns chunks of stream bytes into complete event payloads.
// It is not safe for concurrent use.
type Decoder struct {
	maxSize    int
	pending    []byte
	data       bytes.Buffer
	hasData    bool
	bomChecked bool

	// skipLine drops bytes up to the next newline of a line already known
	// to be too long; discarding drops data lines up to the next blank line.
	skipLine   bool
	discarding bool
	dropped    int
}

// NewDecoder creates a decoder. maxSize <= 0 selects DefaultMaxFrameSize.
// A line longer than maxSize (terminator excluded), or a payload that grows
// past maxSize, drops the whole event it belongs to.
func NewDecoder(maxSize int) *Decoder {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	return &Decoder{maxSize: maxSize}
}

// Feed consumes p and returns the payloads completed by it, in order. When an
// event was dropped for size during this call the returned error is
// ErrFrameTooLarge; the frames that did complete are still returned and the
// decoder stays usable.
func (d *Decoder) Feed(p []byte) ([]string, error) {
	d.pending = append(d.pending, p...)

	if !d.bomChecked {
		if len(d.pending) < len(bom) && bytes.HasPrefix(bom, d.pending) {
			return nil, nil
		}
		d.pending = bytes.TrimPrefix(d.pending, bom)
		d.bomChecked = true
	}

	droppedBefore := d.dropped
	var frames []string
	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			break
		}
		line := d.pending[:i]
		d.pending = d.pending[i+1:]

		if d.skipLine {
			d.skipLine = false
			continue
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(line) > d.maxSize {
			d.drop()
			continue
		}
		if frame, ok := d.processLine(line); ok {
			frames = append(frames, frame)
		}
	}

	if d.skipLine {
		d.pending = d.pending[:0]
	} else if d.partialTooLong() {
		d.pending = d.pending[:0]
		d.skipLine = true
		d.drop()
	}

	// drop the consumed prefix so the backing array does not grow forever
	if len(d.pending) == 0 {
		d.pending = d.pending[:0]
	} else {
		d.pending = append([]byte(nil), d.pending...)
	}

	if d.dropped > droppedBefore {
		return frames, ErrFrameTooLarge
	}
	return frames, nil
}

// partialTooLong reports whether the unterminated line is already past the
// limit. A trailing CR may still belong to a CRLF terminator.
func (d *Decoder) partialTooLong() bool {
	n := len(d.pending)
	if n > 0 && d.pending[n-1] == '\r' {
		n--
	}
	return n > d.maxSize
}

// drop discards the event in progress. The rest of it is skipped up to the
// next blank line.
func (d *Decoder) drop() {
	if !d.discarding {
		d.dropped++
	}
	d.discarding = true
	d.data.Reset()
	d.hasData = false
}

// Dropped reports how many events were discarded for size so far.
func (d *Decoder) Dropped() int {
	return d.dropped
}

// Reset discards any partial line and payload. The byte order mark check is
// not repeated.
func (d *Decoder) Reset() {
	d.pending = d.pending[:0]
	d.data.Reset()
	d.hasData = false
	d.skipLine = false
	d.discarding = false
}

// Buffered reports whether a partial line or payload is pending.
func (d *Decoder) Buffered() bool {
	return len(d.pending) > 0 || d.hasData
}

func (d *Decoder) processLine(line []byte) (string, bool) {
	switch {
	case len(line) == 0:
		if d.discarding {
			d.discarding = false
			return "", false
		}
		if !d.hasData {
			return "", false
		}
		frame := d.data.String()
		d.data.Reset()
		d.hasData = false
		return frame, true

	case line[0] == ':':
		return "", false

	case bytes.HasPrefix(line, dataMarker):
		if d.discarding {
			return "", false
		}
		value := line[len(dataMarker):]
		value = bytes.TrimPrefix(value, []byte{' '})
		size := d.data.Len() + len(value)
		if d.hasData {
			size++
		}
		if size > d.maxSize {
			d.drop()
			return "", false
		}
		if d.hasData {
			d.data.WriteByte('\n')
		}
		d.data.Write(value)
		d.hasData = true
		return "", false

	default:
		return "", false
	}
}
