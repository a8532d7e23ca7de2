package device

import (
	"context"
	"encoding/json"
	"time"
)

// History source values.
const (
	HistorySourceParams   = "params"
	HistorySourceMetadata = "metadata"
	HistorySourceImport   = "import"
)

// HistoryEntry is one recorded device snapshot.
//
// Each entry stores the full device document body at the time the change was
// committed. This provides a local audit trail even when the time-series
// database is unavailable.
type HistoryEntry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// DeviceID is the identity of the device.
	DeviceID string `json:"device_id"`

	// Document is the device document body.
	Document json.RawMessage `json:"document"`

	// Source identifies what kind of change produced the entry.
	Source string `json:"source"`

	// CreatedAt is the timestamp of the change (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// HistoryRepository stores and retrieves device snapshots.
//
// Implementations must be thread-safe and use UTC timestamps.
type HistoryRepository interface {
	// Record stores a snapshot of a device.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - deviceID: Device identity
	//   - document: Device document body
	//   - source: Origin of the change (params, metadata, import)
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	Record(ctx context.Context, deviceID string, document []byte, source string) error

	// History returns recent snapshots for the device.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - deviceID: Device identity
	//   - limit: Maximum entries to return (implementation may clamp bounds)
	//
	// Returns:
	//   - []HistoryEntry: Ordered newest-first entries (may be empty)
	//   - error: nil on success, otherwise the underlying query error
	History(ctx context.Context, deviceID string, limit int) ([]HistoryEntry, error)
}
