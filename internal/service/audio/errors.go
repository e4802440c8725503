package audio

import (
	"errors"
	"fmt"

	"github.com/iamvkosarev/songmeta/internal/binutil"
)

// ErrUnsupportedCodec is returned for codecs that have no reader.
var ErrUnsupportedCodec = errors.New("unsupported codec")

// IOError is returned when the file cannot be opened or read.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: failed to %s: %v", e.Path, e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// FormatError is returned when the file structure does not match the codec.
type FormatError struct {
	Path   string
	Offset int64
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: invalid format at offset %d: %s", e.Path, e.Offset, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when the Opus container cannot be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to decode stream: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// readError classifies a failed read: running past the end of the data is a
// structural problem, anything else comes from the file system.
func readError(path string, err error) error {
	var oob *binutil.OutOfBoundsError
	if errors.As(err, &oob) {
		return &FormatError{Path: path, Offset: oob.Offset, Reason: "truncated " + oob.What, Err: err}
	}
	return &IOError{Path: path, Op: "read", Err: err}
}
