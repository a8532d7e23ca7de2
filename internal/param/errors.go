package param

import (
	"errors"
	"fmt"
)

// Domain errors for the param package.
//
// Every decode failure wraps ErrParse, so callers that only care whether a
// document loaded can check a single sentinel:
//
//	if errors.Is(err, param.ErrParse) {
//	    // skip this parameter
//	}
var (
	// ErrParse is returned when a document cannot be turned into a value.
	ErrParse = errors.New("param: parse failure")

	// ErrMissingField is returned when a required document field is absent.
	ErrMissingField = errors.New("param: missing field")

	// ErrInvalidField is returned when a document field has the wrong shape or
	// a value outside its domain (unknown enum key, unknown colour mode, basis
	// vector without exactly three components).
	ErrInvalidField = errors.New("param: invalid field")

	// ErrUnsupportedKind is returned when the "type" tag names no known kind.
	ErrUnsupportedKind = errors.New("param: unsupported kind")

	// ErrNilValue is returned when encoding an absent value.
	ErrNilValue = errors.New("param: nil value")
)

func missingField(name string) error {
	return fmt.Errorf("%w: %w %q", ErrParse, ErrMissingField, name)
}

func invalidField(name string, cause error) error {
	return fmt.Errorf("%w: %w %q: %w", ErrParse, ErrInvalidField, name, cause)
}
