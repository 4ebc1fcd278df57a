package sessions

import "errors"

var (
	ErrNotFound            = errors.New("session not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNoJobDescription    = errors.New("no job description for session")
	ErrEmptyJobDescription = errors.New("job description is empty")
)
