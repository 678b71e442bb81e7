package sse

import (
	"io"
)

const readChunkSize = 32 * 1024

// Reader pulls frames out of a byte stream.
//
//	reader := sse.NewReader(body, 0)
//	for {
//		frame, err := reader.Next()
//		if errors.Is(err, sse.ErrFrameTooLarge) {
//			continue // frame dropped, stream still usable
//		}
//		if err != nil {
//			break
//		}
//		handle(frame)
//	}
type Reader struct {
	r     io.Reader
	dec   *Decoder
	buf   []byte
	queue []string

	frameErr error
	err      error
}

// NewReader wraps r. maxSize bounds a single frame, see NewDecoder.
func NewReader(r io.Reader, maxSize int) *Reader {
	return &Reader{
		r:   r,
		dec: NewDecoder(maxSize),
		buf: make([]byte, readChunkSize),
	}
}

// Next blocks until a complete frame is available. It returns io.EOF when the
// stream ends cleanly; a partial frame at EOF is discarded. ErrFrameTooLarge is
// not terminal: the oversized frame is dropped and reading may continue.
func (r *Reader) Next() (string, error) {
	for {
		if len(r.queue) > 0 {
			frame := r.queue[0]
			r.queue = r.queue[1:]
			return frame, nil
		}
		if r.frameErr != nil {
			err := r.frameErr
			r.frameErr = nil
			return "", err
		}
		if r.err != nil {
			return "", r.err
		}

		n, err := r.r.Read(r.buf)
		if n > 0 {
			frames, ferr := r.dec.Feed(r.buf[:n])
			r.queue = append(r.queue, frames...)
			r.frameErr = ferr
		}
		if err != nil {
			r.err = err
		}
	}
}
