package sinks

import (
	"sync"

	"github.com/nerrad567/lumicore/internal/device"
)

// Logger is the logging surface used by sinks. *logging.Logger satisfies it.
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

// Sink consumes device events.
//
// DeviceChanged runs on the goroutine that changed the device, inside its
// notification delivery. It may read d but must not mutate it, and should
// hand slow work (network I/O) to its own goroutine.
type Sink interface {
	Name() string
	DeviceChanged(d *device.Device, ev device.Event)
}

// handles are the subscriptions a Dispatcher holds on one device.
type handles struct {
	device *device.Device
	params device.Handle
	meta   device.Handle
}

// Dispatcher fans device notifications out to a fixed set of sinks.
//
// It subscribes once to each attached device's parameter and metadata
// registries and unsubscribes by handle on Detach. A panicking sink is
// logged and does not stop delivery to the others.
//
//	Device ──OnParamsChanged──▶ Dispatcher ──▶ StatePublisher
//	       ──OnMetadataChanged─▶           ──▶ TelemetryRecorder
//	                                       ──▶ HistoryRecorder
//	                                       ──▶ Metrics
type Dispatcher struct {
	sinks  []Sink
	logger Logger

	mu       sync.Mutex
	attached map[string]handles
}

// NewDispatcher creates a dispatcher delivering to sinks in order.
func NewDispatcher(logger Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		sinks:    sinks,
		logger:   logger,
		attached: make(map[string]handles),
	}
}

// Attach subscribes to d and reports it to every sink as added. Attaching
// the same device twice is a no-op.
func (x *Dispatcher) Attach(d *device.Device) {
	x.mu.Lock()
	if _, ok := x.attached[d.ID()]; ok {
		x.mu.Unlock()
		return
	}
	x.attached[d.ID()] = handles{
		device: d,
		params: d.OnParamsChanged(func(d *device.Device) { x.dispatch(d, device.EventParamsChanged) }),
		meta:   d.OnMetadataChanged(func(d *device.Device) { x.dispatch(d, device.EventMetadataChanged) }),
	}
	x.mu.Unlock()

	x.dispatch(d, device.EventAdded)
}

// Detach unsubscribes from the device with the given identity and reports
// it to every sink as removed. Unknown identities are ignored.
func (x *Dispatcher) Detach(id string) {
	x.mu.Lock()
	h, ok := x.attached[id]
	delete(x.attached, id)
	x.mu.Unlock()
	if !ok {
		return
	}

	h.device.RemoveParamsHandler(h.params)
	h.device.RemoveMetadataHandler(h.meta)
	x.dispatch(h.device, device.EventRemoved)
}

// Attached returns the number of devices currently attached.
func (x *Dispatcher) Attached() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.attached)
}

// Follow keeps the dispatcher attached to exactly the registry's devices.
// The returned handle stops following when passed to reg.Unwatch.
func (x *Dispatcher) Follow(reg *device.Registry) device.Handle {
	return reg.Watch(func(d *device.Device, ev device.Event) {
		switch ev {
		case device.EventAdded:
			x.Attach(d)
		case device.EventRemoved:
			x.Detach(d.ID())
		}
	})
}

func (x *Dispatcher) dispatch(d *device.Device, ev device.Event) {
	for _, s := range x.sinks {
		x.deliver(s, d, ev)
	}
}

func (x *Dispatcher) deliver(s Sink, d *device.Device, ev device.Event) {
	defer func() {
		if r := recover(); r != nil {
			x.logger.Error("sink panic recovered", "sink", s.Name(), "device", d.ID(), "event", ev.String(), "panic", r)
		}
	}()
	s.DeviceChanged(d, ev)
}
