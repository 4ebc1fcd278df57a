package analyses

import "errors"

var (
	ErrNotFound        = errors.New("analysis not found")
	ErrNoFiles         = errors.New("no resume files uploaded")
	ErrTooManyFiles    = errors.New("too many resume files")
	ErrUnsupportedType = errors.New("unsupported resume type: only PDF and Word documents are accepted")
	ErrPayloadTooLarge = errors.New("upload exceeds the size limit")

	errBadUpload = errors.New("unable to read upload")
)
