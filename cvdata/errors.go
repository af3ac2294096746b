package cvdata

import (
	"fmt"
	"strings"
)

// SourceError reports a source that could not be fetched, validated or decoded.
type SourceError struct {
	Name  string
	Path  string
	Cause error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s (%s): %v", e.Name, e.Path, e.Cause)
}

func (e *SourceError) Unwrap() error { return e.Cause }

// ValidationError collects schema or struct rule failures for one source.
type ValidationError struct {
	Source string
	Errors []FieldError
}

// FieldError is a single validation failure at a field path.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s validation failed:", ve.Source)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, err.Field, err.Message)
	}
	return sb.String()
}
