// Package wire implements the inter-process object framing used by every
// TCP boundary in the benchmark: a msgpack-encoded payload, COBS byte-stuffed
// so that a reader joining mid-stream resynchronizes at the next frame
// delimiter.
package wire

import "github.com/vmihailenco/msgpack/v4"

// Encode serializes v and byte-stuffs it into a single frame body. The
// trailing delimiter is not included; WriteFrame appends it.
func Encode(v interface{}) ([]byte, error) {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}
	return stuff(payload), nil
}

// Decode deserializes a single COBS-stuffed frame (delimiter already
// stripped by the Reader) into v.
func Decode(frame []byte, v interface{}) error {
	payload, err := unstuff(frame)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(payload, v)
}
