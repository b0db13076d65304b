package wire

import "errors"

// ErrCorruptFrame is returned by unstuff when a frame's length bytes don't
// add up, which happens when a reader joins mid-stream or a frame is torn.
var ErrCorruptFrame = errors.New("wire: corrupt cobs frame")

// delimiter is the single reserved byte value that terminates every frame.
// stuff guarantees its output never contains this value, which is what
// makes the scheme self-synchronizing: a reader can always scan forward to
// the next 0x00 and know it has landed on a frame boundary.
const delimiter = 0x00

const maxBlock = 0xFF

// stuff implements classic Consistent Overhead Byte Stuffing: it rewrites
// every occurrence of the delimiter byte inside payload into a length-
// prefixed run, then returns the stuffed bytes (without a trailing
// delimiter -- callers append one when writing frames back-to-back on a
// stream).
func stuff(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+len(payload)/maxBlock+2)
	codeIdx := 0
	out = append(out, 0) // placeholder, patched below
	code := byte(1)

	for _, b := range payload {
		if b == delimiter {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
			continue
		}
		out = append(out, b)
		code++
		if code == maxBlock {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
		}
	}
	out[codeIdx] = code
	return out
}

// unstuff reverses stuff. frame must not contain the delimiter byte (the
// Reader strips it before calling unstuff).
func unstuff(frame []byte) ([]byte, error) {
	out := make([]byte, 0, len(frame))
	i := 0
	for i < len(frame) {
		code := frame[i]
		if code == 0 {
			return nil, ErrCorruptFrame
		}
		i++
		end := i + int(code) - 1
		if end > len(frame) {
			return nil, ErrCorruptFrame
		}
		out = append(out, frame[i:end]...)
		i = end
		if code < maxBlock && i < len(frame) {
			out = append(out, delimiter)
		}
	}
	return out, nil
}
