package param

import (
	"encoding/json"
	"fmt"
)

// Logger is the logging interface used by the param package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// fields is a parameter document split into its raw members.
type fields map[string]json.RawMessage

// require decodes a mandatory member into dst.
func (f fields) require(name string, dst any) error {
	raw, ok := f[name]
	if !ok {
		return missingField(name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return invalidField(name, err)
	}
	return nil
}

// optional decodes a member into dst if present.
func (f fields) optional(name string, dst any) (bool, error) {
	raw, ok := f[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, invalidField(name, err)
	}
	return true, nil
}

// Decode builds a value from a single parameter document.
//
// This is the only decode path: device documents and standalone parameter
// documents both go through it. Every error wraps ErrParse.
func Decode(data []byte) (Value, error) {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: document is not an object", ErrParse)
	}

	var tag string
	if err := f.require("type", &tag); err != nil {
		return nil, err
	}
	kind, ok := ParseKind(tag)
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", ErrParse, ErrUnsupportedKind, tag)
	}

	switch kind {
	case KindScalar:
		return nilIfErr(decodeScalar(f))
	case KindEnum:
		return nilIfErr(decodeEnum(f))
	case KindColor:
		return nilIfErr(decodeColor(f))
	default:
		return nil, fmt.Errorf("%w: %w %q", ErrParse, ErrUnsupportedKind, tag)
	}
}

// nilIfErr keeps a typed nil pointer out of the returned interface.
func nilIfErr[T Value](v T, err error) (Value, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

// LoadFromJSON decodes a standalone parameter document. On failure the reason
// is logged as a warning and the error is returned. A nil logger discards
// output.
func LoadFromJSON(data []byte, logger Logger) (Value, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	v, err := Decode(data)
	if err != nil {
		logger.Warn("parameter document rejected", "error", err)
		return nil, err
	}
	return v, nil
}

// Encode returns the parameter document for v.
func Encode(v Value) ([]byte, error) {
	if isNil(v) {
		return nil, ErrNilValue
	}
	return v.MarshalJSON()
}
