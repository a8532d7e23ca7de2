package device

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/nerrad567/lumicore/internal/param"
)

// Device document field names.
const (
	fieldChannel    = "channel"
	fieldType       = "type"
	fieldParameters = "parameters"
	fieldMetadata   = "metadata"
)

type documentBody struct {
	Channel    uint                   `json:"channel"`
	Type       string                 `json:"type"`
	Parameters map[string]param.Value `json:"parameters"`
	Metadata   map[string]string      `json:"metadata"`
}

// MarshalJSON encodes the device body (everything except the identity).
func (d *Device) MarshalJSON() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return json.Marshal(documentBody{
		Channel:    d.channel,
		Type:       d.typ,
		Parameters: d.params,
		Metadata:   d.metadata,
	})
}

// ToJSON returns the indented device document, keyed by identity:
//
//	{"dev1": {"channel": 5, "type": "ERS", "parameters": {...}, "metadata": {...}}}
func (d *Device) ToJSON() ([]byte, error) {
	return json.MarshalIndent(map[string]*Device{d.id: d}, "", "  ")
}

// String returns the indented device document.
func (d *Device) String() string {
	data, err := d.ToJSON()
	if err != nil {
		return fmt.Sprintf("device %s: %v", d.id, err)
	}
	return string(data)
}

// NewFromJSON builds a device from a document body.
//
// Only a body that is not a JSON object is an error. Unknown fields, bad
// field values and parameters that fail to decode are logged as warnings and
// skipped. A nil logger discards the warnings.
func NewFromJSON(id string, body []byte, logger Logger) (*Device, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: device %s: %w", ErrInvalidDocument, id, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: device %s: body is not an object", ErrInvalidDocument, id)
	}

	d := New(id, 0, "")
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		raw := fields[name]
		switch name {
		case fieldChannel:
			if err := json.Unmarshal(raw, &d.channel); err != nil {
				logger.Warn("invalid device channel", "device", id, "error", err)
			}
		case fieldType:
			if err := json.Unmarshal(raw, &d.typ); err != nil {
				logger.Warn("invalid device type", "device", id, "error", err)
			}
		case fieldParameters:
			d.loadParams(raw, logger)
		case fieldMetadata:
			d.loadMetadata(raw, logger)
		default:
			logger.Warn("unknown device field skipped", "device", id, "field", name)
		}
	}

	logger.Debug("device loaded",
		"device", id,
		"type", d.typ,
		"channel", d.channel,
		"params", len(d.params),
	)
	return d, nil
}

func (d *Device) loadParams(raw json.RawMessage, logger Logger) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.Warn("invalid parameters section", "device", d.id, "error", err)
		return
	}

	for name, doc := range entries {
		v, err := param.Decode(doc)
		if err != nil {
			logger.Warn("parameter skipped", "device", d.id, "param", name, "error", err)
			continue
		}
		d.params[name] = v
	}
}

func (d *Device) loadMetadata(raw json.RawMessage, logger Logger) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.Warn("invalid metadata section", "device", d.id, "error", err)
		return
	}

	for key, doc := range entries {
		var val string
		if err := json.Unmarshal(doc, &val); err != nil {
			logger.Warn("metadata value skipped", "device", d.id, "key", key, "error", err)
			continue
		}
		d.metadata[key] = val
	}
}

// FromJSON decodes a document holding exactly one device.
func FromJSON(data []byte, logger Logger) (*Device, error) {
	devices, err := LoadDocument(data, logger)
	if err != nil {
		return nil, err
	}
	if len(devices) != 1 {
		return nil, fmt.Errorf("%w: want 1 device, got %d", ErrInvalidDocument, len(devices))
	}
	return devices[0], nil
}

// LoadDocument decodes a document of devices keyed by identity, returning them
// sorted by identity. A device whose body is not an object is logged and
// skipped.
func LoadDocument(data []byte, logger Logger) ([]*Device, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	var bodies map[string]json.RawMessage
	if err := json.Unmarshal(data, &bodies); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if bodies == nil {
		return nil, fmt.Errorf("%w: document is not an object", ErrInvalidDocument)
	}

	devices := make([]*Device, 0, len(bodies))
	for _, id := range slices.Sorted(maps.Keys(bodies)) {
		d, err := NewFromJSON(id, bodies[id], logger)
		if err != nil {
			logger.Warn("device skipped", "device", id, "error", err)
			continue
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// EncodeDocument encodes devices into one indented document keyed by
// identity. Later devices win on duplicate identities.
func EncodeDocument(devices []*Device) ([]byte, error) {
	doc := make(map[string]*Device, len(devices))
	for _, d := range devices {
		if d == nil {
			continue
		}
		doc[d.id] = d
	}
	return json.MarshalIndent(doc, "", "  ")
}
