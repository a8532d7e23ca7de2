package sinks

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/lumicore/internal/device"
	"github.com/nerrad567/lumicore/internal/infrastructure/mqtt"
)

const defaultPublishBuffer = 256

// Publisher sends one MQTT message. *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// StateMessage is the payload published on a device's state and metadata
// topics. Document carries the device document body; Metadata carries the
// metadata map. A removed device gets an empty retained message instead.
type StateMessage struct {
	MessageID string            `json:"message_id"`
	DeviceID  string            `json:"device_id"`
	Event     string            `json:"event"`
	Timestamp time.Time         `json:"timestamp"`
	Document  json.RawMessage   `json:"document,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type outbound struct {
	topic   string
	payload []byte
}

// StatePublisher mirrors device state to retained MQTT topics.
//
// Messages are encoded on the notifying goroutine, so each one reflects
// the committed state, and are published by Run. When the buffer is full
// the message is dropped and counted rather than blocking the device.
type StatePublisher struct {
	pub    Publisher
	topics mqtt.Topics
	qos    byte
	queue  chan outbound
	logger Logger

	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewStatePublisher creates a publisher. A bufferSize <= 0 uses the default.
func NewStatePublisher(pub Publisher, topics mqtt.Topics, qos byte, bufferSize int) *StatePublisher {
	if bufferSize <= 0 {
		bufferSize = defaultPublishBuffer
	}
	return &StatePublisher{
		pub:    pub,
		topics: topics,
		qos:    qos,
		queue:  make(chan outbound, bufferSize),
		logger: noopLogger{},
	}
}

// SetLogger replaces the publisher's logger. Call before Run.
func (p *StatePublisher) SetLogger(logger Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Name implements Sink.
func (p *StatePublisher) Name() string { return "mqtt" }

// DeviceChanged implements Sink.
func (p *StatePublisher) DeviceChanged(d *device.Device, ev device.Event) {
	switch ev {
	case device.EventAdded, device.EventParamsChanged:
		body, err := d.MarshalJSON()
		if err != nil {
			p.logger.Error("encoding device state failed", "device", d.ID(), "error", err)
			return
		}
		p.enqueue(p.topics.DeviceState(d.ID()), p.message(d, ev, func(m *StateMessage) { m.Document = body }))
		if ev == device.EventAdded {
			p.enqueue(p.topics.DeviceMetadata(d.ID()), p.message(d, ev, func(m *StateMessage) { m.Metadata = d.Metadata() }))
		}
	case device.EventMetadataChanged:
		p.enqueue(p.topics.DeviceMetadata(d.ID()), p.message(d, ev, func(m *StateMessage) { m.Metadata = d.Metadata() }))
	case device.EventRemoved:
		// An empty retained payload clears the broker's copy.
		p.enqueue(p.topics.DeviceState(d.ID()), []byte{})
		p.enqueue(p.topics.DeviceMetadata(d.ID()), []byte{})
	}
}

func (p *StatePublisher) message(d *device.Device, ev device.Event, fill func(*StateMessage)) []byte {
	m := StateMessage{
		MessageID: uuid.NewString(),
		DeviceID:  d.ID(),
		Event:     ev.String(),
		Timestamp: time.Now().UTC(),
	}
	fill(&m)
	b, err := json.Marshal(m)
	if err != nil {
		p.logger.Error("encoding state message failed", "device", d.ID(), "error", err)
		return nil
	}
	return b
}

func (p *StatePublisher) enqueue(topic string, payload []byte) {
	if payload == nil {
		return
	}
	select {
	case p.queue <- outbound{topic: topic, payload: payload}:
	default:
		p.dropped.Add(1)
		p.logger.Warn("state publish queue full, message dropped", "topic", topic)
	}
}

// Run publishes queued messages until ctx is cancelled, then drains what
// is already queued.
func (p *StatePublisher) Run(ctx context.Context) {
	for {
		select {
		case msg := <-p.queue:
			p.send(msg)
		case <-ctx.Done():
			for {
				select {
				case msg := <-p.queue:
					p.send(msg)
				default:
					return
				}
			}
		}
	}
}

func (p *StatePublisher) send(msg outbound) {
	if err := p.pub.Publish(msg.topic, msg.payload, p.qos, true); err != nil {
		p.failed.Add(1)
		p.logger.Warn("state publish failed", "topic", msg.topic, "error", err)
		return
	}
	p.published.Add(1)
}

// Published, Failed and Dropped count messages since creation.
func (p *StatePublisher) Published() uint64 { return p.published.Load() }
func (p *StatePublisher) Failed() uint64    { return p.failed.Load() }
func (p *StatePublisher) Dropped() uint64   { return p.dropped.Load() }
