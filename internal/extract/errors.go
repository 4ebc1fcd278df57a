package extract

import (
	"errors"
	"fmt"
)

// ErrDecode matches every *DecodeError through errors.Is.
var ErrDecode = errors.New("decode error")

// DecodeError reports bytes that cannot be interpreted under their declared media type.
type DecodeError struct {
	FileName  string
	MediaType MediaType
	Err       error
}

func (e *DecodeError) Error() string {
	if e.FileName == "" {
		return fmt.Sprintf("decode %s: %v", e.MediaType, e.Err)
	}
	return fmt.Sprintf("decode %s %q: %v", e.MediaType, e.FileName, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
