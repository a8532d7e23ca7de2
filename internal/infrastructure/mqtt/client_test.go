package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/lumicore/internal/infrastructure/config"
)

// testConfig points at a local broker. Tests that need one skip when it is
// not running.
func testConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: clientID,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func connectOrSkip(t *testing.T, clientID string) *Client {
	t.Helper()
	client, err := Connect(testConfig(clientID), "test-rig")
	if err != nil {
		t.Skipf("no MQTT broker at 127.0.0.1:1883: %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // Test cleanup
	return client
}

func TestStatusPayload(t *testing.T) {
	var msg StatusMessage
	if err := json.Unmarshal(statusPayload(StatusOffline, "lumicore", "graceful_shutdown"), &msg); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if msg.Status != StatusOffline || msg.ClientID != "lumicore" || msg.Reason != "graceful_shutdown" {
		t.Errorf("message = %+v", msg)
	}
	if _, err := time.Parse(time.RFC3339, msg.Timestamp); err != nil {
		t.Errorf("timestamp %q: %v", msg.Timestamp, err)
	}

	var online map[string]any
	if err := json.Unmarshal(statusPayload(StatusOnline, "lumicore", ""), &online); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if _, ok := online["reason"]; ok {
		t.Error("online status carries a reason")
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig("opts-test")
	cfg.Broker.TLS = true
	cfg.Auth.Username = "desk"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg, Topics{Site: "rig"})

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != "opts-test" || opts.Username != "desk" || opts.Password != "secret" {
		t.Errorf("identity = %q/%q/%q", opts.ClientID, opts.Username, opts.Password)
	}
	if !opts.WillEnabled || opts.WillTopic != "lumicore/rig/system/status" || !opts.WillRetained {
		t.Errorf("will = %v %q retained=%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig not set")
	}
	if opts.MaxReconnectInterval != 5*time.Second {
		t.Errorf("MaxReconnectInterval = %v", opts.MaxReconnectInterval)
	}
}

func TestDisconnectedClient(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription), logger: noopLogger{}}

	if c.IsConnected() {
		t.Fatal("zero client reports connected")
	}
	if err := c.Publish("lumicore/x", []byte("{}"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("lumicore/x", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestPublishValidation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription), logger: noopLogger{}}

	tests := []struct {
		name    string
		topic   string
		qos     byte
		payload []byte
		want    error
	}{
		{"empty topic", "", 0, nil, ErrInvalidTopic},
		{"qos 3", "lumicore/x", 3, nil, ErrInvalidQoS},
		{"oversized", "lumicore/x", 0, make([]byte, maxPayloadSize+1), ErrPublishFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}

	if err := c.Subscribe("lumicore/x", 0, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
}

type panicLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *panicLogger) Info(string, ...any) {}
func (l *panicLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}
func (l *panicLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

type fakeMessage struct{ topic string }

func (fakeMessage) Duplicate() bool   { return false }
func (fakeMessage) Qos() byte         { return 0 }
func (fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string   { return m.topic }
func (fakeMessage) MessageID() uint16 { return 0 }
func (fakeMessage) Payload() []byte   { return []byte("{}") }
func (fakeMessage) Ack()              {}

func TestWrapRecoversAndLogs(t *testing.T) {
	logger := &panicLogger{}
	c := &Client{logger: logger}

	c.wrap(func(string, []byte) error { panic("bad fixture") })(nil, fakeMessage{topic: "a"})
	c.wrap(func(string, []byte) error { return fmt.Errorf("rejected") })(nil, fakeMessage{topic: "b"})

	if len(logger.errors) != 1 || len(logger.warns) != 1 {
		t.Errorf("errors=%v warns=%v", logger.errors, logger.warns)
	}
}

func TestBroker_PublishSubscribe(t *testing.T) {
	client := connectOrSkip(t, "lumicore-test-pubsub")
	topic := client.Topics().DeviceSet("spot-1")

	received := make(chan []byte, 1)
	err := client.Subscribe(client.Topics().AllDeviceSets(), 1, func(got string, payload []byte) error {
		if got == topic {
			received <- payload
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if client.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", client.SubscriptionCount())
	}

	if err := client.Publish(topic, []byte(`{"dimmer":0.5}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case payload := <-received:
		if string(payload) != `{"dimmer":0.5}` {
			t.Errorf("payload = %s", payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}

	if err := client.Unsubscribe(client.Topics().AllDeviceSets()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Unsubscribe", client.SubscriptionCount())
	}
}

func TestBroker_HealthCheck(t *testing.T) {
	client := connectOrSkip(t, "lumicore-test-health")

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	client.Close() //nolint:errcheck // Checked below
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close = %v, want ErrNotConnected", err)
	}
}
