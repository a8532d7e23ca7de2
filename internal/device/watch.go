package device

import (
	"slices"
	"sync"
)

// Event says what happened to a registered device.
type Event uint8

const (
	// EventAdded fires after Add and for every device brought in by Load.
	EventAdded Event = iota + 1

	// EventParamsChanged fires after a committed parameter change.
	EventParamsChanged

	// EventMetadataChanged fires after a committed metadata change.
	EventMetadataChanged

	// EventRemoved fires after Remove, and for devices dropped by Load.
	EventRemoved
)

func (e Event) String() string {
	switch e {
	case EventAdded:
		return "added"
	case EventParamsChanged:
		return "params"
	case EventMetadataChanged:
		return "metadata"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// WatchFunc observes every registered device.
//
// Change events run inside the device's notification delivery, so the same
// rule as ChangeFunc applies: read, never mutate. Added and removed events
// run after the registry lock is released.
type WatchFunc func(d *Device, ev Event)

type watcher struct {
	handle Handle
	fn     WatchFunc
}

type watchers struct {
	mu      sync.Mutex
	next    Handle
	entries []watcher
}

func (w *watchers) add(fn WatchFunc) Handle {
	w.mu.Lock()
	defer w.mu.Unlock()

	h := w.next
	w.next++
	w.entries = append(w.entries, watcher{handle: h, fn: fn})
	return h
}

func (w *watchers) remove(h Handle) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entries = slices.DeleteFunc(w.entries, func(e watcher) bool {
		return e.handle == h
	})
}

func (w *watchers) emit(d *Device, ev Event) {
	w.mu.Lock()
	snapshot := slices.Clone(w.entries)
	w.mu.Unlock()

	for _, e := range snapshot {
		e.fn(d, ev)
	}
}

// Watch registers fn for events on every device the registry holds, now
// and later. Devices already registered are reported to fn as EventAdded
// before Watch returns, and each device is reported as added once.
//
// fn must not call Watch, Load, Add, Remove or Import.
func (r *Registry) Watch(fn WatchFunc) Handle {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	h := r.watchers.add(fn)
	for _, d := range r.List() {
		fn(d, EventAdded)
	}
	return h
}

// Unwatch removes a watcher. Unknown handles are ignored.
func (r *Registry) Unwatch(h Handle) {
	r.watchers.remove(h)
}
