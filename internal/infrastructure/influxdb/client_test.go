package influxdb_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/lumicore/internal/infrastructure/config"
	"github.com/nerrad567/lumicore/internal/infrastructure/influxdb"
)

// testConfig matches a local development InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "lumicore-dev-token",
		Org:           "lumicore",
		Bucket:        "telemetry",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func connectOrSkip(t *testing.T) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(testConfig(), "test-rig")
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // Test cleanup
	return client
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	if _, err := influxdb.Connect(cfg, "rig"); !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:1"

	if _, err := influxdb.Connect(cfg, "rig"); !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestParamPoint(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	p := influxdb.ParamPoint("rig-001", "spot-1", "dimmer", "float", map[string]any{"value": 0.75}, ts)

	line := strings.TrimSpace(write.PointToLineProtocol(p, time.Second))
	want := "param_values,device_id=spot-1,kind=float,param=dimmer,site=rig-001 value=0.75 1700000000"
	if line != want {
		t.Errorf("line protocol = %q, want %q", line, want)
	}
}

func TestParamPoint_ColorFields(t *testing.T) {
	p := influxdb.ParamPoint("rig", "wash-1", "color", "color",
		map[string]any{"hue": 120.0, "weight": 1.0}, time.Unix(0, 0))

	line := write.PointToLineProtocol(p, time.Second)
	for _, want := range []string{"hue=120", "weight=1", "kind=color"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestClient_WriteAndFlush(t *testing.T) {
	client := connectOrSkip(t)

	writeErrs := make(chan error, 1)
	client.SetOnError(func(err error) {
		select {
		case writeErrs <- err:
		default:
		}
	})

	client.WriteParam("spot-1", "dimmer", "float", map[string]any{"value": 0.5}, time.Now())
	client.WriteDeviceStats("spot-1", 3, 1, time.Now())
	client.Flush()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	select {
	case err := <-writeErrs:
		t.Errorf("async write error = %v", err)
	default:
	}
}

func TestClient_AfterClose(t *testing.T) {
	client := connectOrSkip(t)

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	// Both are no-ops once closed.
	client.WriteParam("spot-1", "dimmer", "float", map[string]any{"value": 1.0}, time.Now())
	client.Flush()
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
