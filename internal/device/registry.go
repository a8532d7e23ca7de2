package device

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// persistTimeout bounds the repository write made after each committed change.
const persistTimeout = 5 * time.Second

// Logger defines the logging interface used by the device package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// entry is a registered device and the handles of the persistence
// subscriptions attached to it.
type entry struct {
	device      *Device
	paramHandle Handle
	metaHandle  Handle
}

// Registry is the catalogue of live devices, keyed by identity.
// It wraps a Repository and writes each device back after every committed
// parameter or metadata change.
//
// The registry does not assign channels or group devices.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	devices map[string]*entry
	mu      sync.RWMutex
	logger  Logger

	// lifecycle orders Load, Add, Remove and Import against Watch so each
	// watcher sees every device added exactly once.
	lifecycle sync.Mutex
	watchers  watchers
}

// NewRegistry creates a new device registry.
// The repository is used for persistence; the registry holds the live devices.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:    repo,
		devices: make(map[string]*entry),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Load replaces the registry's devices with those in the repository.
// This should be called on application startup.
func (r *Registry) Load(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	dropped := make([]*Device, 0, len(r.devices))
	for _, e := range r.devices {
		r.detach(e)
		dropped = append(dropped, e.device)
	}
	r.devices = make(map[string]*entry, len(devices))
	for _, d := range devices {
		r.devices[d.ID()] = r.attach(d)
	}
	r.mu.Unlock()

	for _, d := range dropped {
		r.watchers.emit(d, EventRemoved)
	}
	for _, d := range devices {
		r.watchers.emit(d, EventAdded)
	}

	r.logger.Info("devices loaded", "count", len(devices))
	return nil
}

// Add persists a new device and starts tracking it.
// Returns ErrDeviceExists if a device with the same identity is registered.
func (r *Registry) Add(ctx context.Context, d *Device) error {
	if d == nil || d.ID() == "" {
		return ErrInvalidDevice
	}

	if _, err := r.put(ctx, d, false); err != nil {
		if errors.Is(err, ErrDeviceExists) {
			return fmt.Errorf("%w: %s", ErrDeviceExists, d.ID())
		}
		return err
	}
	return nil
}

// Remove stops tracking a device and deletes it from the repository.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	e, ok := r.devices[id]
	if !ok {
		r.mu.Unlock()
		return ErrDeviceNotFound
	}
	if err := r.repo.Delete(ctx, id); err != nil {
		r.mu.Unlock()
		return err
	}
	r.detach(e)
	delete(r.devices, id)
	r.mu.Unlock()

	r.watchers.emit(e.device, EventRemoved)
	r.logger.Info("device removed", "id", id)
	return nil
}

// ImportResult counts what Import did.
type ImportResult struct {
	Added    int
	Replaced int
	Skipped  int
}

// Import registers devices decoded from a fixture document. A device whose
// identity is already registered is replaced when overwrite is set and
// skipped otherwise. Import stops at the first repository error; a device
// that fails to save leaves any registered device of the same identity in
// place.
func (r *Registry) Import(ctx context.Context, devices []*Device, overwrite bool) (ImportResult, error) {
	var res ImportResult
	for _, d := range devices {
		if d == nil || d.ID() == "" {
			res.Skipped++
			continue
		}
		replaced, err := r.put(ctx, d, overwrite)
		switch {
		case errors.Is(err, ErrDeviceExists):
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("importing %s: %w", d.ID(), err)
		case replaced:
			res.Replaced++
		default:
			res.Added++
		}
	}
	return res, nil
}

// put saves d and registers it, replacing a registered device of the same
// identity when overwrite is set. The repository write comes first, so a
// failed save changes nothing.
func (r *Registry) put(ctx context.Context, d *Device, overwrite bool) (bool, error) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	old, exists := r.devices[d.ID()]
	if exists && (!overwrite || old.device == d) {
		r.mu.Unlock()
		return false, ErrDeviceExists
	}
	if err := r.repo.Save(ctx, d); err != nil {
		r.mu.Unlock()
		return false, err
	}
	if exists {
		r.detach(old)
	}
	r.devices[d.ID()] = r.attach(d)
	r.mu.Unlock()

	if exists {
		r.watchers.emit(old.device, EventRemoved)
		r.logger.Info("device replaced", "id", d.ID(), "type", d.Type(), "channel", d.Channel())
	} else {
		r.logger.Info("device added", "id", d.ID(), "type", d.Type(), "channel", d.Channel())
	}
	r.watchers.emit(d, EventAdded)
	return exists, nil
}

// attach subscribes the persistence callback to both of d's registries.
// Watchers see a change only after it has been saved.
func (r *Registry) attach(d *Device) *entry {
	return &entry{
		device: d,
		paramHandle: d.OnParamsChanged(func(d *Device) {
			r.save(d)
			r.watchers.emit(d, EventParamsChanged)
		}),
		metaHandle: d.OnMetadataChanged(func(d *Device) {
			r.save(d)
			r.watchers.emit(d, EventMetadataChanged)
		}),
	}
}

func (r *Registry) detach(e *entry) {
	e.device.RemoveParamsHandler(e.paramHandle)
	e.device.RemoveMetadataHandler(e.metaHandle)
}

// save runs inside a device's notification delivery.
func (r *Registry) save(d *Device) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := r.repo.Save(ctx, d); err != nil {
		r.logger.Error("persisting device failed", "id", d.ID(), "error", err)
		return
	}
	r.logger.Debug("device persisted", "id", d.ID())
}
