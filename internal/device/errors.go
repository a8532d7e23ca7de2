package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when adding a device with an ID that already exists.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrInvalidDevice is returned when a device cannot be stored (nil, empty ID).
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidDocument is returned when a device document is not a JSON object
	// of the expected shape. Problems inside a well-formed document are logged
	// and skipped instead.
	ErrInvalidDocument = errors.New("device: invalid document")
)
