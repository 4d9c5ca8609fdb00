package model

import (
	"fmt"
	"strings"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// ValidationErrors collects every field that failed validation
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// Fields returns field -> message, for API responses
func (e ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(e))
	for _, v := range e {
		out[v.Field] = v.Message
	}
	return out
}

// RenderError represents a failure while emitting a rendered document
type RenderError struct {
	Op    string
	Path  string
	Cause error
}

func (e *RenderError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("render failed [%s] %s: %v", e.Op, e.Path, e.Cause)
	}
	return fmt.Sprintf("render failed [%s]: %v", e.Op, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError creates a new render error
func NewRenderError(op, path string, cause error) *RenderError {
	return &RenderError{
		Op:    op,
		Path:  path,
		Cause: cause,
	}
}
