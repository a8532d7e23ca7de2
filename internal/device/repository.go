package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// Get retrieves a device by its identity.
	// Returns ErrDeviceNotFound if the device does not exist.
	Get(ctx context.Context, id string) (*Device, error)

	// List retrieves all devices ordered by identity.
	List(ctx context.Context) ([]*Device, error)

	// Save inserts the device or replaces the stored copy with the same identity.
	Save(ctx context.Context, d *Device) error

	// Delete removes a device by identity.
	// Returns ErrDeviceNotFound if the device does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
//
// Each row keeps the device document body as JSON alongside the channel and
// type columns, which exist for querying only. The document is authoritative.
type SQLiteRepository struct {
	db     *sql.DB
	logger Logger
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, logger: noopLogger{}}
}

// SetLogger sets the logger used for document decode warnings.
func (r *SQLiteRepository) SetLogger(logger Logger) {
	r.logger = logger
}

// Get retrieves a device by its identity.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Device, error) {
	var document string
	err := r.db.QueryRowContext(ctx,
		"SELECT document FROM devices WHERE id = ?",
		id,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}

	d, err := NewFromJSON(id, []byte(document), r.logger)
	if err != nil {
		return nil, fmt.Errorf("decoding device %s: %w", id, err)
	}
	return d, nil
}

// List retrieves all devices ordered by identity.
func (r *SQLiteRepository) List(ctx context.Context) ([]*Device, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, document FROM devices ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []*Device
	for rows.Next() {
		var id, document string
		if err := rows.Scan(&id, &document); err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}

		d, err := NewFromJSON(id, []byte(document), r.logger)
		if err != nil {
			r.logger.Warn("stored device skipped", "device", id, "error", err)
			continue
		}
		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// Save inserts the device or replaces the stored copy with the same identity.
// created_at is kept from the first insert.
func (r *SQLiteRepository) Save(ctx context.Context, d *Device) error {
	if d == nil || d.ID() == "" {
		return ErrInvalidDevice
	}

	document, err := d.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshalling device %s: %w", d.ID(), err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO devices (id, channel, type, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			channel = excluded.channel,
			type = excluded.type,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		d.ID(),
		d.Channel(),
		d.Type(),
		string(document),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("saving device %s: %w", d.ID(), err)
	}
	return nil
}

// Delete removes a device by identity.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}
