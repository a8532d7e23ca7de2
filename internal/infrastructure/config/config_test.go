package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
site:
  id: "test-rig"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
fixtures:
  path: "/etc/lumicore/rig.json"
  overwrite: true
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-rig" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-rig")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.Fixtures.Path != "/etc/lumicore/rig.json" || !cfg.Fixtures.Overwrite {
		t.Errorf("Fixtures = %+v", cfg.Fixtures)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Broker.ClientID != "test-client" {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "site:\n  name: stage\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "rig-001" {
		t.Errorf("Site.ID = %q, want default", cfg.Site.ID)
	}
	if cfg.Site.Name != "stage" {
		t.Errorf("Site.Name = %q, want stage", cfg.Site.Name)
	}
	if cfg.Database.Path != "./data/lumicore.db" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
	if cfg.GetHistoryRetention() != 7*24*time.Hour {
		t.Errorf("GetHistoryRetention() = %v, want one week", cfg.GetHistoryRetention())
	}
	if cfg.WebSocket.Path != "/ws" {
		t.Errorf("WebSocket.Path = %q, want /ws", cfg.WebSocket.Path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "invalid: [yaml: content")); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: ""
api:
  port: 8080
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LUMICORE_DATABASE_PATH", "/var/lib/lumicore/env.db")
	t.Setenv("LUMICORE_FIXTURES_PATH", "/env/rig.json")
	t.Setenv("LUMICORE_MQTT_HOST", "broker.local")
	t.Setenv("LUMICORE_API_PORT", "9090")
	t.Setenv("LUMICORE_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("LUMICORE_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "database:\n  path: /tmp/file.db\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/var/lib/lumicore/env.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Fixtures.Path != "/env/rig.json" {
		t.Errorf("Fixtures.Path = %q", cfg.Fixtures.Path)
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q", cfg.MQTT.Broker.Host)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q", cfg.InfluxDB.Token)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_InvalidPortEnvIgnored(t *testing.T) {
	t.Setenv("LUMICORE_API_PORT", "not-a-port")

	cfg, err := Load(writeConfig(t, "api:\n  port: 8181\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Port != 8181 {
		t.Errorf("API.Port = %d, want 8181", cfg.API.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid config", func(*Config) {}, ""},
		{"missing site id", func(c *Config) { c.Site.ID = "" }, "site.id"},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"port too low", func(c *Config) { c.API.Port = 0 }, "api.port"},
		{"port too high", func(c *Config) { c.API.Port = 70000 }, "api.port"},
		{"tls without cert", func(c *Config) { c.API.TLS.Enabled = true }, "api.tls"},
		{"history without retention", func(c *Config) { c.History.Retention = 0 }, "history.retention"},
		{"history disabled ignores retention", func(c *Config) {
			c.History.Enabled = false
			c.History.Retention = 0
		}, ""},
		{"influx without url", func(c *Config) {
			c.InfluxDB.Enabled = true
			c.InfluxDB.Bucket = "rig"
		}, "influxdb.url"},
		{"influx without bucket", func(c *Config) {
			c.InfluxDB.Enabled = true
			c.InfluxDB.URL = "http://localhost:8086"
		}, "influxdb.bucket"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad log output", func(c *Config) { c.Logging.Output = "syslog" }, "logging.output"},
		{"discarded logs", func(c *Config) { c.Logging.Output = "discard" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateReportsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Site.ID = ""
	cfg.API.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil")
	}
	for _, want := range []string{"site.id", "api.port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestConfig_Timeouts(t *testing.T) {
	cfg := &Config{API: APIConfig{Timeouts: APITimeoutConfig{Read: 10, Write: 20, Idle: 30}}}

	if cfg.GetReadTimeout() != 10*time.Second {
		t.Errorf("GetReadTimeout() = %v", cfg.GetReadTimeout())
	}
	if cfg.GetWriteTimeout() != 20*time.Second {
		t.Errorf("GetWriteTimeout() = %v", cfg.GetWriteTimeout())
	}
	if cfg.GetIdleTimeout() != 30*time.Second {
		t.Errorf("GetIdleTimeout() = %v", cfg.GetIdleTimeout())
	}
}
