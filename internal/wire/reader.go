package wire

import (
	"errors"
	"io"
)

// DefaultMaxFrame bounds how large a single accumulated frame is allowed to
// grow before it is considered oversize and dropped. It comfortably fits
// every schema in this repo with headroom for future fields.
const DefaultMaxFrame = 4096

// Reader pulls length-delimited, COBS-stuffed frames off a byte stream. It
// keeps a rolling accumulator across calls so a frame split across two
// reads (or two TCP segments) is reassembled correctly: bytes accumulate
// until a delimiter is found, the token between two delimiters is handed
// back, and anything left over stays buffered for the next call.
type Reader struct {
	src      io.Reader
	buf      []byte
	maxFrame int
	readBuf  []byte
}

// NewReader wraps src. maxFrame <= 0 selects DefaultMaxFrame.
func NewReader(src io.Reader, maxFrame int) *Reader {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}
	return &Reader{
		src:      src,
		maxFrame: maxFrame,
		readBuf:  make([]byte, 4096),
	}
}

// Next returns the next decoded object into v. It returns io.EOF once src
// is exhausted with no further complete frame pending. Oversize or
// undecodable frames are skipped silently and are not logged or counted;
// callers that want to log them have to use NextFrame and Decode directly.
// Every RPM's sensor read loop calls Next.
func (r *Reader) Next(v interface{}) error {
	for {
		frame, err := r.NextFrame()
		if err != nil {
			return err
		}
		if decErr := Decode(frame, v); decErr == nil {
			return nil
		}
		// Parse error: drop this frame, resume scanning at the next delimiter.
	}
}

// NextFrame returns the next raw (still COBS-stuffed, delimiter-stripped)
// frame, or io.EOF when the stream is done. It never returns an oversize
// frame: frames larger than maxFrame are dropped and scanning resumes at
// the next delimiter, matching the "overfull accumulator" policy in §7.
func (r *Reader) NextFrame() ([]byte, error) {
	for {
		if idx := indexByte(r.buf, delimiter); idx >= 0 {
			frame := r.buf[:idx]
			r.buf = r.buf[idx+1:]
			if len(frame) == 0 {
				continue
			}
			if len(frame) > r.maxFrame {
				continue
			}
			out := make([]byte, len(frame))
			copy(out, frame)
			return out, nil
		}

		if len(r.buf) > r.maxFrame {
			// No delimiter within maxFrame bytes: drop everything accumulated
			// so far and keep listening for the next one.
			r.buf = r.buf[:0]
		}

		n, err := r.src.Read(r.readBuf)
		if n > 0 {
			r.buf = append(r.buf, r.readBuf[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(r.buf) > 0 {
				if idx := indexByte(r.buf, delimiter); idx >= 0 {
					continue
				}
				r.buf = r.buf[:0]
			}
			return nil, err
		}
	}
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
