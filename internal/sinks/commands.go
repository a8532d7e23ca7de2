package sinks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/lumicore/internal/device"
	"github.com/nerrad567/lumicore/internal/infrastructure/mqtt"
	"github.com/nerrad567/lumicore/internal/param"
)

// ErrBadCommand is returned for set messages that cannot be applied.
var ErrBadCommand = errors.New("sinks: bad command")

// DeviceLookup finds a live device. *device.Registry satisfies it.
type DeviceLookup interface {
	Get(id string) (*device.Device, error)
}

// CommandHandler applies parameter updates received on
// lumicore/{site}/devices/{id}/set.
//
// The payload is a JSON object keyed by parameter name. Each value is one of:
//
//	0.75                             SetScalar
//	"gobo2"                          SetEnum with the mode's default tweak
//	{"key": "gobo2", "tweak": 0.3}   SetEnum with an explicit tweak
//	{"type": "color", ...}           full parameter document, stored with SetParam
//
// Entries that cannot be applied are logged and skipped; the rest are applied.
type CommandHandler struct {
	devices DeviceLookup
	topics  mqtt.Topics
	logger  Logger
}

// NewCommandHandler creates a handler for the site's set topics.
func NewCommandHandler(devices DeviceLookup, topics mqtt.Topics, logger Logger) *CommandHandler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &CommandHandler{devices: devices, topics: topics, logger: logger}
}

// Handle is an mqtt.MessageHandler.
func (h *CommandHandler) Handle(topic string, payload []byte) error {
	id, leaf, ok := h.topics.ParseDeviceTopic(topic)
	if !ok || leaf != mqtt.LeafSet {
		return fmt.Errorf("%w: unexpected topic %q", ErrBadCommand, topic)
	}
	d, err := h.devices.Get(id)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(payload, &entries); err != nil {
		return fmt.Errorf("%w: %w", ErrBadCommand, err)
	}

	applied := 0
	for name, raw := range entries {
		if err := apply(d, name, raw); err != nil {
			h.logger.Warn("parameter update skipped", "device", id, "param", name, "error", err)
			continue
		}
		applied++
	}
	h.logger.Debug("set command applied", "device", id, "applied", applied, "total", len(entries))
	return nil
}

type enumUpdate struct {
	Key   string   `json:"key"`
	Tweak *float64 `json:"tweak"`
}

func apply(d *device.Device, name string, raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ErrBadCommand
	}

	switch raw[0] {
	case '"':
		var key string
		if err := json.Unmarshal(raw, &key); err != nil {
			return err
		}
		if !d.SetEnum(name, key) {
			return fmt.Errorf("%w: no enum %q with key %q", ErrBadCommand, name, key)
		}
		return nil

	case '{':
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return err
		}
		if head.Type != "" {
			v, err := param.Decode(raw)
			if err != nil {
				return err
			}
			d.SetParam(name, v)
			return nil
		}

		var u enumUpdate
		if err := json.Unmarshal(raw, &u); err != nil {
			return err
		}
		var ok bool
		if u.Tweak != nil {
			ok = d.SetEnum(name, u.Key, *u.Tweak)
		} else {
			ok = d.SetEnum(name, u.Key)
		}
		if !ok {
			return fmt.Errorf("%w: no enum %q with key %q", ErrBadCommand, name, u.Key)
		}
		return nil

	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%w: %w", ErrBadCommand, err)
		}
		if existing := d.GetParam(name); existing != nil && existing.Kind() != param.KindScalar {
			return fmt.Errorf("%w: %q is %s, not float", ErrBadCommand, name, existing.Kind())
		}
		d.SetScalar(name, v)
		return nil

	default:
		// null, booleans and arrays carry no value.
		return fmt.Errorf("%w: unsupported value %s", ErrBadCommand, raw)
	}
}
