package sinks

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/lumicore/internal/device"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	devices := 2
	m, err := NewMetrics(reg, func() int { return devices })
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	d := device.New("spot-1", 1, "spot")
	d.SetScalar("dimmer", 1)
	d.SetScalar("zoom", 0)

	m.DeviceChanged(d, device.EventAdded)
	m.DeviceChanged(d, device.EventParamsChanged)
	m.DeviceChanged(d, device.EventParamsChanged)

	if got := testutil.ToFloat64(m.events.WithLabelValues("params")); got != 2 {
		t.Errorf("params events = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.params.WithLabelValues("spot-1")); got != 2 {
		t.Errorf("params gauge = %v, want 2", got)
	}

	expected := `
# HELP lumicore_devices Number of registered devices
# TYPE lumicore_devices gauge
lumicore_devices 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "lumicore_devices"); err != nil {
		t.Errorf("devices gauge: %v", err)
	}

	m.DeviceChanged(d, device.EventRemoved)
	if n := testutil.CollectAndCount(m.params); n != 0 {
		t.Errorf("params series after removal = %d, want 0", n)
	}
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewMetrics(reg, func() int { return 0 }); err != nil {
		t.Fatalf("first NewMetrics() error = %v", err)
	}
	if _, err := NewMetrics(reg, func() int { return 0 }); err == nil {
		t.Error("second NewMetrics() on same registry = nil error")
	}
}

func TestMetrics_WatchPublisher(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg, func() int { return 0 })
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	p := NewStatePublisher(&fakePublisher{}, testTopics, 1, 0)
	if err := m.WatchPublisher(reg, p); err != nil {
		t.Fatalf("WatchPublisher() error = %v", err)
	}

	p.DeviceChanged(device.New("spot-1", 1, "spot"), device.EventParamsChanged)
	drain(p)

	expected := `
# HELP lumicore_mqtt_published_total State messages published
# TYPE lumicore_mqtt_published_total counter
lumicore_mqtt_published_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "lumicore_mqtt_published_total"); err != nil {
		t.Error(err)
	}
}
