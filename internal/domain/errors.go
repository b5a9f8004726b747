package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrRecordNotFound is returned by a backend that holds no value for a record.
	ErrRecordNotFound = errors.New("record not found")
	// ErrValidation marks request input that cannot be accepted.
	ErrValidation = errors.New("validation failed")
	// ErrUnsupportedMedia indicates an upload whose MIME type does not match its kind.
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrUploadFailed indicates the uploaded bytes could not be stored.
	ErrUploadFailed = errors.New("upload failed")
)

// ValidationError lists the offending fields keyed by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
