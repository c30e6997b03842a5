package reconcile

import "fmt"

// ParseError reports import text that is not valid JSON even after repair.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("import is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ShapeError reports a parsed payload whose top level is not an object.
type ShapeError struct {
	Got string // "array", "string", "number", "boolean" or "null"
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("import must be a JSON object, got %s", e.Got)
}

// ValidationError reports an entry that cannot be normalized or defaulted.
type ValidationError struct {
	Key    string // payload key of the offending entry, if any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("invalid import: %s", e.Reason)
	}
	return fmt.Sprintf("invalid import entry %q: %s", e.Key, e.Reason)
}
