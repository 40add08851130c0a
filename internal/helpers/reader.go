package helpers

import (
	"errors"
	"io"
)

// ErrTooLarge indicates the reader held more than the allowed byte count.
var ErrTooLarge = errors.New("payload too large")

// ReadAllAndClose drains r up to limit bytes and closes it. A limit of zero
// means unbounded.
func ReadAllAndClose(r io.ReadCloser, limit int64) ([]byte, error) {
	defer r.Close()
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
