package sinks

import (
	"testing"
	"time"

	"github.com/nerrad567/lumicore/internal/device"
	"github.com/nerrad567/lumicore/internal/param"
)

type paramSample struct {
	device, param, kind string
	fields              map[string]any
}

type fakeWriter struct {
	samples []paramSample
	stats   int
}

func (f *fakeWriter) WriteParam(deviceID, name, kind string, fields map[string]any, _ time.Time) {
	f.samples = append(f.samples, paramSample{deviceID, name, kind, fields})
}

func (f *fakeWriter) WriteDeviceStats(string, int, int, time.Time) { f.stats++ }

func TestProject(t *testing.T) {
	gobo, err := param.NewEnum(map[string]int{"open": 0, "gobo1": 10}, param.ModeCenter, param.InterpSnap, 20, "open")
	if err != nil {
		t.Fatalf("NewEnum() error = %v", err)
	}

	tests := []struct {
		name     string
		value    param.Value
		wantKind string
		wantKeys []string
	}{
		{"scalar", param.NewScalarRange(50, 0, 100, 0), "float", []string{"value", "percent"}},
		{"enum", gobo, "enum", []string{"range_value", "tweak", "active"}},
		{"color", param.NewRGBColor(), "color", []string{"hue", "weight", "r", "g", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, fields := Project(tt.value)
			if kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", kind, tt.wantKind)
			}
			for _, k := range tt.wantKeys {
				if _, ok := fields[k]; !ok {
					t.Errorf("field %q missing from %v", k, fields)
				}
			}
		})
	}

	if _, fields := Project(nil); fields != nil {
		t.Errorf("Project(nil) fields = %v, want nil", fields)
	}

	_, fields := Project(param.NewScalarRange(50, 0, 100, 0))
	if fields["percent"] != 0.5 {
		t.Errorf("percent = %v, want 0.5", fields["percent"])
	}
}

func TestTelemetryRecorder_WritesOnlyChangedParams(t *testing.T) {
	w := &fakeWriter{}
	rec := NewTelemetryRecorder(w)
	d := device.New("spot-1", 1, "spot")
	d.SetScalar("dimmer", 0.1)
	d.SetScalar("zoom", 0.5)

	rec.DeviceChanged(d, device.EventAdded)
	if len(w.samples) != 2 || w.stats != 1 {
		t.Fatalf("after add: samples=%d stats=%d, want 2/1", len(w.samples), w.stats)
	}

	d.SetScalar("dimmer", 0.9)
	rec.DeviceChanged(d, device.EventParamsChanged)

	if len(w.samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(w.samples))
	}
	last := w.samples[2]
	if last.param != "dimmer" || last.fields["value"] != 0.9 {
		t.Errorf("last sample = %+v", last)
	}

	rec.DeviceChanged(d, device.EventMetadataChanged)
	if w.stats != 2 {
		t.Errorf("stats = %d, want 2", w.stats)
	}

	rec.DeviceChanged(d, device.EventRemoved)
	rec.DeviceChanged(d, device.EventParamsChanged)
	if len(w.samples) != 5 {
		t.Errorf("samples after re-baseline = %d, want 5", len(w.samples))
	}
}
