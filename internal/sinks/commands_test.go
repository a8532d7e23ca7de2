package sinks

import (
	"errors"
	"testing"

	"github.com/nerrad567/lumicore/internal/device"
	"github.com/nerrad567/lumicore/internal/param"
)

type mapLookup map[string]*device.Device

func (m mapLookup) Get(id string) (*device.Device, error) {
	d, ok := m[id]
	if !ok {
		return nil, device.ErrDeviceNotFound
	}
	return d, nil
}

func newCommandFixture(t *testing.T) (*CommandHandler, *device.Device, *countingLogger) {
	t.Helper()
	d := device.New("spot-1", 1, "spot")
	d.SetScalar("dimmer", 0)
	gobo, err := param.NewEnum(map[string]int{"open": 0, "gobo1": 10, "gobo2": 20}, param.ModeFirst, param.InterpSnap, 30, "open")
	if err != nil {
		t.Fatalf("NewEnum() error = %v", err)
	}
	d.SetParam("gobo", gobo)

	logger := &countingLogger{}
	return NewCommandHandler(mapLookup{"spot-1": d}, testTopics, logger), d, logger
}

func TestCommandHandler_Apply(t *testing.T) {
	h, d, logger := newCommandFixture(t)

	payload := `{
		"dimmer": 0.8,
		"gobo": {"key": "gobo2", "tweak": 0.25},
		"color": {"type": "color", "mode": "BASIC_RGB", "weight": 1,
		          "channels": {"Red": 1, "Green": 0, "Blue": 0}, "basis": {}}
	}`
	if err := h.Handle(testTopics.DeviceSet("spot-1"), []byte(payload)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if v, _ := d.GetScalar("dimmer"); v != 0.8 {
		t.Errorf("dimmer = %v, want 0.8", v)
	}
	gobo, _ := d.GetParam("gobo").(*param.Enum)
	if gobo == nil || gobo.Val() != "gobo2" || gobo.Tweak() != 0.25 {
		t.Errorf("gobo = %v", d.GetParam("gobo"))
	}
	if c, ok := d.GetParam("color").(*param.Color); !ok || c.Mode() != param.ColorBasicRGB {
		t.Errorf("color = %v", d.GetParam("color"))
	}
	if logger.warns != 0 {
		t.Errorf("warnings = %d, want 0", logger.warns)
	}
}

func TestCommandHandler_EnumByKey(t *testing.T) {
	h, d, _ := newCommandFixture(t)

	if err := h.Handle(testTopics.DeviceSet("spot-1"), []byte(`{"gobo": "gobo1"}`)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if gobo := d.GetParam("gobo").(*param.Enum); gobo.Val() != "gobo1" || gobo.Tweak() != 0 {
		t.Errorf("gobo = %s/%v, want gobo1/0", gobo.Val(), gobo.Tweak())
	}
}

func TestCommandHandler_SkipsBadEntries(t *testing.T) {
	h, d, logger := newCommandFixture(t)

	payload := `{"dimmer": 0.4, "gobo": "nope", "zoom": [1], "gobo2": 0.5}`
	if err := h.Handle(testTopics.DeviceSet("spot-1"), []byte(payload)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if v, _ := d.GetScalar("dimmer"); v != 0.4 {
		t.Errorf("dimmer = %v, want 0.4", v)
	}
	if logger.warns != 2 {
		t.Errorf("warnings = %d, want 2 (unknown key, array)", logger.warns)
	}
	if !d.ParamExists("gobo2") {
		t.Error("numeric update for an absent parameter did not create a scalar")
	}
}

func TestCommandHandler_NullAndBooleanIgnored(t *testing.T) {
	h, d, logger := newCommandFixture(t)
	d.SetScalar("dimmer", 0.8)

	payload := `{"dimmer": null, "ghost": null, "gobo": null, "zoom": true}`
	if err := h.Handle(testTopics.DeviceSet("spot-1"), []byte(payload)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if v, _ := d.GetScalar("dimmer"); v != 0.8 {
		t.Errorf("dimmer = %v, want 0.8 kept", v)
	}
	for _, name := range []string{"ghost", "zoom"} {
		if d.ParamExists(name) {
			t.Errorf("%s was created from a non-numeric value", name)
		}
	}
	if gobo := d.GetParam("gobo").(*param.Enum); gobo.Val() != "open" {
		t.Errorf("gobo = %q, want open", gobo.Val())
	}
	if logger.warns != 4 {
		t.Errorf("warnings = %d, want 4", logger.warns)
	}
}

func TestCommandHandler_ScalarOntoEnumRejected(t *testing.T) {
	h, d, logger := newCommandFixture(t)

	if err := h.Handle(testTopics.DeviceSet("spot-1"), []byte(`{"gobo": 0.5}`)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if d.GetParam("gobo").Kind() != param.KindEnum {
		t.Error("gobo replaced by a scalar")
	}
	if logger.warns != 1 {
		t.Errorf("warnings = %d, want 1", logger.warns)
	}
}

func TestCommandHandler_Errors(t *testing.T) {
	h, _, _ := newCommandFixture(t)

	tests := []struct {
		name    string
		topic   string
		payload string
		want    error
	}{
		{"state topic", testTopics.DeviceState("spot-1"), `{}`, ErrBadCommand},
		{"foreign topic", "other/topic", `{}`, ErrBadCommand},
		{"unknown device", testTopics.DeviceSet("ghost"), `{}`, device.ErrDeviceNotFound},
		{"not an object", testTopics.DeviceSet("spot-1"), `[1,2]`, ErrBadCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.Handle(tt.topic, []byte(tt.payload)); !errors.Is(err, tt.want) {
				t.Errorf("Handle() error = %v, want %v", err, tt.want)
			}
		})
	}
}
