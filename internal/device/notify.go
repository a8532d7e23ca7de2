package device

import (
	"slices"
	"sync"
)

// Handle identifies a registered change subscriber.
//
// Handles come from a per-registry counter that only moves forward, so a
// handle is never reissued after removal.
type Handle uint64

// ChangeFunc is called after a committed change to a device.
//
// It runs on the goroutine that made the change. It may read the device but
// must not call any of the device's mutating methods: doing so deadlocks.
type ChangeFunc func(d *Device)

type subscriber struct {
	handle Handle
	fn     ChangeFunc
}

// subscribers is an ordered list of change callbacks.
type subscribers struct {
	mu      sync.Mutex
	next    Handle
	entries []subscriber
}

func (s *subscribers) add(fn ChangeFunc) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.next
	s.next++
	s.entries = append(s.entries, subscriber{handle: h, fn: fn})
	return h
}

func (s *subscribers) remove(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = slices.DeleteFunc(s.entries, func(e subscriber) bool {
		return e.handle == h
	})
}

func (s *subscribers) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// notify calls every subscriber in ascending handle order. The list is
// snapshotted first, so callbacks may add or remove subscribers.
func (s *subscribers) notify(d *Device) {
	s.mu.Lock()
	snapshot := slices.Clone(s.entries)
	s.mu.Unlock()

	for _, e := range snapshot {
		e.fn(d)
	}
}

// OnParamsChanged registers fn to run after every committed parameter change.
func (d *Device) OnParamsChanged(fn ChangeFunc) Handle {
	return d.paramSubs.add(fn)
}

// RemoveParamsHandler unregisters a parameter subscriber. Unknown handles
// are ignored.
func (d *Device) RemoveParamsHandler(h Handle) {
	d.paramSubs.remove(h)
}

// OnMetadataChanged registers fn to run after every committed metadata change.
func (d *Device) OnMetadataChanged(fn ChangeFunc) Handle {
	return d.metaSubs.add(fn)
}

// RemoveMetadataHandler unregisters a metadata subscriber. Unknown handles
// are ignored.
func (d *Device) RemoveMetadataHandler(h Handle) {
	d.metaSubs.remove(h)
}
