package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrUpstream    = errors.New("upstream storage error")
	ErrPhotoUpload = errors.New("photo upload failed")
)

// ValidationError carries every message collected while checking a form.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}
