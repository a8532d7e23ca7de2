package device

import (
	"maps"
	"slices"
	"sync"

	"github.com/nerrad567/lumicore/internal/param"
)

// change records which registries a mutation must notify.
type change uint8

const (
	changeParams change = 1 << iota
	changeMetadata
)

// Device is a controllable fixture: a named set of typed parameter values plus
// free-form text metadata.
//
// Every parameter cell owns its value exclusively. Values passed in are
// copied on the way in and values handed out are copies, so no two cells and
// no caller ever share a value.
//
// Reads run concurrently. Mutations are serialised, and each one commits
// before its subscribers run.
type Device struct {
	// writeMu serialises a mutation together with its notification delivery.
	writeMu sync.Mutex
	// mu guards the fields below and is released before delivery so
	// subscribers can read.
	mu sync.RWMutex

	id       string
	channel  uint
	typ      string
	params   map[string]param.Value
	metadata map[string]string

	paramSubs subscribers
	metaSubs  subscribers
}

// New creates an empty device. The id cannot be changed afterwards.
func New(id string, channel uint, typ string) *Device {
	return &Device{
		id:       id,
		channel:  channel,
		typ:      typ,
		params:   make(map[string]param.Value),
		metadata: make(map[string]string),
	}
}

// update applies fn under the write lock and then notifies the registries fn
// reports as changed.
func (d *Device) update(fn func() change) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	d.mu.Lock()
	c := fn()
	d.mu.Unlock()

	if c&changeParams != 0 {
		d.paramSubs.notify(d)
	}
	if c&changeMetadata != 0 {
		d.metaSubs.notify(d)
	}
}

// ID returns the device identity.
func (d *Device) ID() string { return d.id }

// Channel returns the transport channel.
func (d *Device) Channel() uint {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.channel
}

// SetChannel changes the transport channel. No notification is sent.
func (d *Device) SetChannel(channel uint) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channel = channel
}

// Type returns the fixture type tag.
func (d *Device) Type() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.typ
}

// SetType changes the fixture type tag. No notification is sent.
func (d *Device) SetType(typ string) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.typ = typ
}

// GetParam returns a copy of the named parameter, or nil if absent.
func (d *Device) GetParam(name string) param.Value {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return param.Copy(d.params[name])
}

// GetScalar returns the current value of a Scalar parameter. The flag is
// false if the parameter is absent or not a Scalar.
func (d *Device) GetScalar(name string) (float64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.params[name].(*param.Scalar)
	if !ok || s == nil {
		return 0, false
	}
	return s.Val(), true
}

// SetParam stores a copy of v under name, replacing any previous value of
// any kind. It returns true if name already existed.
//
// A nil v is rejected: nothing is stored, no notification is sent, and the
// result only reports whether name exists.
func (d *Device) SetParam(name string, v param.Value) bool {
	cpy := param.Copy(v)

	var existed bool
	d.update(func() change {
		_, existed = d.params[name]
		if cpy == nil {
			return 0
		}
		d.params[name] = cpy
		return changeParams
	})
	return existed
}

// SetScalar sets a Scalar's current value, leaving its default and bounds
// alone. An absent name gets a new Scalar with default 0 and range [0, 1].
// It returns true if name already existed.
//
// If name holds a non-Scalar value nothing changes and no notification is
// sent.
func (d *Device) SetScalar(name string, v float64) bool {
	var existed bool
	d.update(func() change {
		cur, ok := d.params[name]
		existed = ok
		if !ok {
			d.params[name] = param.NewScalar(v, 0)
			return changeParams
		}
		s, isScalar := cur.(*param.Scalar)
		if !isScalar {
			return 0
		}
		s.SetVal(v)
		return changeParams
	})
	return existed
}

// SetEnum activates key on an existing Enum parameter and, if given, sets the
// tweak. Without a tweak the enum's mode decides where the tweak lands.
//
// It never creates a parameter. It returns false without changing anything
// if name is absent, is not an Enum, or key is not one of its keys.
func (d *Device) SetEnum(name, key string, tweak ...float64) bool {
	var ok bool
	d.update(func() change {
		e, isEnum := d.params[name].(*param.Enum)
		if !isEnum || e == nil {
			return 0
		}
		if !e.SetVal(key) {
			return 0
		}
		if len(tweak) > 0 {
			e.SetTweak(tweak[0])
		}
		ok = true
		return changeParams
	})
	return ok
}

// ParamExists reports whether name is present.
func (d *Device) ParamExists(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.params[name]
	return ok
}

// NumParams returns the number of parameters.
func (d *Device) NumParams() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.params)
}

// ParamNames returns the parameter names in sorted order.
func (d *Device) ParamNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Sorted(maps.Keys(d.params))
}

// Params returns a copy of every parameter, keyed by name.
func (d *Device) Params() map[string]param.Value {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]param.Value, len(d.params))
	for name, v := range d.params {
		out[name] = param.Copy(v)
	}
	return out
}

// Reset returns every parameter to its default. Subscribers see one
// parameter notification and one metadata notification, however many
// parameters there are.
func (d *Device) Reset() {
	d.update(func() change {
		for _, v := range d.params {
			v.Reset()
		}
		return changeParams | changeMetadata
	})
}
