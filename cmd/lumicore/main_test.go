package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/lumicore/internal/device"
	"github.com/nerrad567/lumicore/internal/infrastructure/config"
	"github.com/nerrad567/lumicore/internal/infrastructure/database"
	"github.com/nerrad567/lumicore/internal/infrastructure/logging"
	"github.com/nerrad567/lumicore/internal/sinks"
)

const fixturesDoc = `{
  "spot1": {
    "channel": 1,
    "type": "Spot",
    "parameters": {
      "intensity": {"type": "float", "val": 0.5, "default": 0, "max": 1, "min": 0}
    },
    "metadata": {"label": "SR1"}
  },
  "wash1": {
    "channel": 20,
    "type": "Wash",
    "parameters": {
      "intensity": {"type": "float", "val": 1, "default": 0, "max": 1, "min": 0}
    },
    "metadata": {}
  }
}`

// freePort returns a TCP port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("LUMICORE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("error = %v, want loading config failure", err)
	}
}

// TestRun_MissingDatabasePath verifies run fails validation when the
// database path is empty.
func TestRun_MissingDatabasePath(t *testing.T) {
	configPath := writeFile(t, t.TempDir(), "config.yaml", `
site:
  id: test-site
database:
  path: ""
mqtt:
  enabled: false
influxdb:
  enabled: false
`)
	t.Setenv("LUMICORE_CONFIG", configPath)
	t.Setenv("LUMICORE_DATABASE_PATH", "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with empty database path")
	}
	if !strings.Contains(err.Error(), "database.path is required") {
		t.Errorf("error = %v, want database.path validation failure", err)
	}
}

// TestRun_BadFixtures verifies a fixtures file that is not a device
// document aborts startup.
func TestRun_BadFixtures(t *testing.T) {
	dir := t.TempDir()
	fixtures := writeFile(t, dir, "fixtures.json", `["not", "a", "document"]`)
	configPath := writeFile(t, dir, "config.yaml", fmt.Sprintf(`
site:
  id: test-site
database:
  path: %q
fixtures:
  path: %q
mqtt:
  enabled: false
api:
  host: 127.0.0.1
  port: %d
logging:
  level: error
  format: text
`, filepath.Join(dir, "lumicore.db"), fixtures, freePort(t)))
	t.Setenv("LUMICORE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with a bad fixtures document")
	}
	if !strings.Contains(err.Error(), "importing fixtures") {
		t.Errorf("error = %v, want fixtures failure", err)
	}
}

// TestRun_ServesImportedFixtures starts the service without MQTT or
// InfluxDB, reads the imported devices back over HTTP and shuts down.
func TestRun_ServesImportedFixtures(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "lumicore.db")
	fixtures := writeFile(t, dir, "fixtures.json", fixturesDoc)
	port := freePort(t)
	configPath := writeFile(t, dir, "config.yaml", fmt.Sprintf(`
site:
  id: test-site
database:
  path: %q
  wal_mode: true
fixtures:
  path: %q
history:
  enabled: true
  retention: 24
mqtt:
  enabled: false
influxdb:
  enabled: false
api:
  host: 127.0.0.1
  port: %d
logging:
  level: error
  format: text
`, dbPath, fixtures, port))
	t.Setenv("LUMICORE_CONFIG", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/v1/devices", port)
	var count int
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		count = fetchCount(url)
		if count == 2 {
			break
		}
		select {
		case err := <-errCh:
			t.Fatalf("run() exited early: %v", err)
		case <-time.After(50 * time.Millisecond):
		}
	}
	if count != 2 {
		t.Fatalf("device count = %d, want 2", count)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}

	// The import must have been persisted with a history snapshot each.
	db, err := database.Open(database.Config{Path: dbPath})
	if err != nil {
		t.Fatalf("reopen database: %v", err)
	}
	defer db.Close()

	devices, err := device.NewSQLiteRepository(db.DB).List(context.Background())
	if err != nil || len(devices) != 2 {
		t.Fatalf("persisted devices = %d, err = %v; want 2", len(devices), err)
	}
	entries, err := device.NewSQLiteHistoryRepository(db.DB).History(context.Background(), "spot1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Source != device.HistorySourceImport {
		t.Errorf("spot1 history = %+v, want one import snapshot", entries)
	}
}

func fetchCount(url string) int {
	resp, err := http.Get(url) //nolint:gosec,noctx // Test-local URL
	if err != nil {
		return -1
	}
	defer resp.Body.Close()
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return -1
	}
	return body.Count
}

// TestImportFixtures covers the skip and overwrite policies.
func TestImportFixtures(t *testing.T) {
	dir := t.TempDir()
	fixtures := writeFile(t, dir, "fixtures.json", fixturesDoc)

	db, err := database.Open(database.Config{Path: filepath.Join(dir, "import.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	registry := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	if err := registry.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	existing := device.New("spot1", 99, "Old")
	if err := registry.Add(ctx, existing); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	historyRepo := device.NewSQLiteHistoryRepository(db.DB)
	recorder := sinks.NewHistoryRecorder(historyRepo, nil)
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")

	// Without overwrite the registered spot1 is kept.
	if err := importFixtures(ctx, config.FixturesConfig{Path: fixtures}, registry, recorder, log); err != nil {
		t.Fatalf("importFixtures() error = %v", err)
	}
	got, err := registry.Get("spot1")
	if err != nil {
		t.Fatal(err)
	}
	if got != existing {
		t.Error("spot1 should not be replaced without overwrite")
	}
	if registry.Count() != 2 {
		t.Errorf("Count() = %d, want 2", registry.Count())
	}
	if entries, _ := historyRepo.History(ctx, "spot1", 10); len(entries) != 0 {
		t.Errorf("skipped device got %d history entries, want 0", len(entries))
	}

	// With overwrite it is replaced and snapshotted.
	if err := importFixtures(ctx, config.FixturesConfig{Path: fixtures, Overwrite: true}, registry, recorder, log); err != nil {
		t.Fatalf("importFixtures(overwrite) error = %v", err)
	}
	got, err = registry.Get("spot1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Type() != "Spot" || got.Channel() != 1 {
		t.Errorf("spot1 = (%q, %d), want (Spot, 1)", got.Type(), got.Channel())
	}
	if entries, _ := historyRepo.History(ctx, "spot1", 10); len(entries) != 1 {
		t.Errorf("replaced device got %d history entries, want 1", len(entries))
	}

	if err := importFixtures(ctx, config.FixturesConfig{Path: filepath.Join(dir, "missing.json")}, registry, nil, log); err == nil {
		t.Error("importFixtures() with a missing file should fail")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("LUMICORE_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}
	t.Setenv("LUMICORE_CONFIG", "/etc/lumicore/config.yaml")
	if got := getConfigPath(); got != "/etc/lumicore/config.yaml" {
		t.Errorf("getConfigPath() = %q, want override", got)
	}
}
