package wire

import "io"

// WriteFrame encodes v and writes it to w as a single delimited frame.
func WriteFrame(w io.Writer, v interface{}) error {
	frame, err := Encode(v)
	if err != nil {
		return err
	}
	frame = append(frame, delimiter)
	_, err = w.Write(frame)
	return err
}
