package sinks

import (
	"sync"
	"time"

	"github.com/nerrad567/lumicore/internal/device"
	"github.com/nerrad567/lumicore/internal/param"
)

// ParamWriter stores numeric parameter samples. *influxdb.Client
// satisfies it.
type ParamWriter interface {
	WriteParam(deviceID, param, kind string, fields map[string]any, ts time.Time)
	WriteDeviceStats(deviceID string, params, metadataKeys int, ts time.Time)
}

// Project maps a value onto numeric time-series fields:
//
//	float  value, percent
//	enum   range_value, tweak, active
//	color  hue, weight, r, g, b
func Project(v param.Value) (kind string, fields map[string]any) {
	switch v := v.(type) {
	case *param.Scalar:
		return v.Kind().String(), map[string]any{
			"value":   v.Val(),
			"percent": v.Percent(),
		}
	case *param.Enum:
		return v.Kind().String(), map[string]any{
			"range_value": v.RangeValue(),
			"tweak":       v.Tweak(),
			"active":      v.Val(),
		}
	case *param.Color:
		r, g, b := v.RGB()
		return v.Kind().String(), map[string]any{
			"hue":    v.Hue(),
			"weight": v.Weight(),
			"r":      r,
			"g":      g,
			"b":      b,
		}
	default:
		return "", nil
	}
}

// TelemetryRecorder writes a sample for every parameter whose value moved.
//
// A device notification does not say which parameter changed, so the
// recorder keeps the last value it wrote per parameter and compares with
// param.Equals.
type TelemetryRecorder struct {
	w   ParamWriter
	now func() time.Time

	mu   sync.Mutex
	last map[string]map[string]param.Value
}

// NewTelemetryRecorder creates a recorder writing to w.
func NewTelemetryRecorder(w ParamWriter) *TelemetryRecorder {
	return &TelemetryRecorder{
		w:    w,
		now:  time.Now,
		last: make(map[string]map[string]param.Value),
	}
}

// Name implements Sink.
func (t *TelemetryRecorder) Name() string { return "influxdb" }

// DeviceChanged implements Sink.
func (t *TelemetryRecorder) DeviceChanged(d *device.Device, ev device.Event) {
	ts := t.now()
	switch ev {
	case device.EventAdded, device.EventParamsChanged:
		t.writeChanged(d, ts)
		if ev == device.EventAdded {
			t.w.WriteDeviceStats(d.ID(), d.NumParams(), d.NumMetadataKeys(), ts)
		}
	case device.EventMetadataChanged:
		t.w.WriteDeviceStats(d.ID(), d.NumParams(), d.NumMetadataKeys(), ts)
	case device.EventRemoved:
		t.mu.Lock()
		delete(t.last, d.ID())
		t.mu.Unlock()
	}
}

func (t *TelemetryRecorder) writeChanged(d *device.Device, ts time.Time) {
	current := d.Params()

	t.mu.Lock()
	prev := t.last[d.ID()]
	t.last[d.ID()] = current
	t.mu.Unlock()

	for name, v := range current {
		if old, ok := prev[name]; ok && param.Equals(old, v) {
			continue
		}
		if kind, fields := Project(v); fields != nil {
			t.w.WriteParam(d.ID(), name, kind, fields, ts)
		}
	}
}
