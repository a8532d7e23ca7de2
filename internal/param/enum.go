package param

import (
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// EnumMode determines where the tweak lands when a key becomes active.
type EnumMode int

// EnumMode constants.
const (
	ModeFirst EnumMode = iota + 1
	ModeCenter
	ModeLast
)

var enumModeNames = map[EnumMode]string{
	ModeFirst:  "FIRST",
	ModeCenter: "CENTER",
	ModeLast:   "LAST",
}

// String returns the document name of the mode.
func (m EnumMode) String() string {
	if name, ok := enumModeNames[m]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseEnumMode resolves a document mode name.
func ParseEnumMode(name string) (EnumMode, error) {
	for m, n := range enumModeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown enum mode %q", name)
}

// defaultTweak is the tweak a freshly selected key starts at.
func (m EnumMode) defaultTweak() float64 {
	switch m {
	case ModeCenter:
		return 0.5
	case ModeLast:
		return 1
	default:
		return 0
	}
}

// InterpMode selects how two enum values are interpolated.
type InterpMode int

// InterpMode constants.
const (
	// InterpSnap jumps from the first key to the second at t = 0.5.
	InterpSnap InterpMode = iota + 1
	// InterpSmoothWithinOption blends the tweak when both sides share a key
	// and snaps otherwise.
	InterpSmoothWithinOption
	// InterpSmooth blends the position across the whole key range.
	InterpSmooth
)

var interpModeNames = map[InterpMode]string{
	InterpSnap:               "SNAP",
	InterpSmoothWithinOption: "SMOOTH_WITHIN_OPTION",
	InterpSmooth:             "SMOOTH",
}

// String returns the document name of the interpolation mode.
func (m InterpMode) String() string {
	if name, ok := interpModeNames[m]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseInterpMode resolves a document interpolation mode name.
func ParseInterpMode(name string) (InterpMode, error) {
	for m, n := range interpModeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown interpolation mode %q", name)
}

// Enum is a discrete mode selector with a continuous tweak inside the active
// key.
//
// Each key owns the range [start, nextStart) of the numeric space
// [firstStart, rangeMax], ordered by start code. The tweak in [0, 1] is the
// relative position inside the active key's range.
type Enum struct {
	active   string
	tweak    float64
	mode     EnumMode
	interp   InterpMode
	keys     map[string]int
	def      string
	rangeMax int
}

// NewEnum creates an Enum whose active key is the default.
// The keys map is copied. The default must name one of the keys.
func NewEnum(keys map[string]int, mode EnumMode, interp InterpMode, rangeMax int, def string) (*Enum, error) {
	if _, ok := keys[def]; !ok {
		return nil, fmt.Errorf("default key %q not in key table", def)
	}
	if _, ok := enumModeNames[mode]; !ok {
		return nil, fmt.Errorf("unknown enum mode %d", mode)
	}
	if _, ok := interpModeNames[interp]; !ok {
		return nil, fmt.Errorf("unknown interpolation mode %d", interp)
	}

	e := &Enum{
		mode:     mode,
		interp:   interp,
		keys:     maps.Clone(keys),
		def:      def,
		rangeMax: rangeMax,
	}
	e.Reset()
	return e, nil
}

// Kind implements Value.
func (e *Enum) Kind() Kind { return KindEnum }

func (e *Enum) sealed() {}

// Val returns the active key.
func (e *Enum) Val() string { return e.active }

// SetVal activates key and moves the tweak to the mode's starting position.
// It returns false and changes nothing if key is not in the key table.
func (e *Enum) SetVal(key string) bool {
	if _, ok := e.keys[key]; !ok {
		return false
	}
	e.active = key
	e.tweak = e.mode.defaultTweak()
	return true
}

// Tweak returns the position inside the active key.
func (e *Enum) Tweak() float64 { return e.tweak }

// SetTweak sets the position inside the active key, clamped to [0, 1].
func (e *Enum) SetTweak(t float64) { e.tweak = clampUnit(t) }

// Mode returns the enum mode.
func (e *Enum) Mode() EnumMode { return e.mode }

// InterpMode returns the interpolation mode.
func (e *Enum) InterpMode() InterpMode { return e.interp }

// Default returns the default key.
func (e *Enum) Default() string { return e.def }

// RangeMax returns the upper bound of the numeric key space.
func (e *Enum) RangeMax() int { return e.rangeMax }

// Keys returns the key names ordered by start code, ties broken by name.
func (e *Enum) Keys() []string {
	names := slices.Collect(maps.Keys(e.keys))
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(cmp.Compare(e.keys[a], e.keys[b]), cmp.Compare(a, b))
	})
	return names
}

// StartCode returns the start code of key.
func (e *Enum) StartCode(key string) (int, bool) {
	code, ok := e.keys[key]
	return code, ok
}

// Reset implements Value.
func (e *Enum) Reset() {
	e.active = e.def
	e.tweak = e.mode.defaultTweak()
}

// keyRange returns the [start, end] numeric span of key.
func (e *Enum) keyRange(key string) (float64, float64) {
	start := e.keys[key]
	end := e.rangeMax
	for _, code := range e.keys {
		if code > start && code < end {
			end = code
		}
	}
	return float64(start), float64(end)
}

// RangeValue returns the numeric position of the active key and tweak.
func (e *Enum) RangeValue() float64 {
	start, end := e.keyRange(e.active)
	return start + e.tweak*(end-start)
}

// SetRangeValue selects the key whose range contains x and sets the tweak to
// x's relative position inside it. Values outside the key space are clamped.
func (e *Enum) SetRangeValue(x float64) {
	ordered := e.Keys()
	if len(ordered) == 0 {
		return
	}

	key := ordered[0]
	for _, k := range ordered {
		if float64(e.keys[k]) <= x {
			key = k
		}
	}

	start, end := e.keyRange(key)
	e.active = key
	if end <= start {
		e.tweak = 0
		return
	}
	e.tweak = clampUnit((x - start) / (end - start))
}

func (e *Enum) clone() *Enum {
	cpy := *e
	cpy.keys = maps.Clone(e.keys)
	return &cpy
}

func (e *Enum) equal(o *Enum) bool {
	return e.active == o.active && compareFloat(e.tweak, o.tweak) == Equal
}

// cmp orders by active key start code, then key name, then tweak.
// Equal keys skip the code comparison so that equal values always compare
// Equal even when their key tables disagree.
func (e *Enum) cmp(o *Enum) Ordering {
	if e.active != o.active {
		if c := cmp.Compare(e.keys[e.active], o.keys[o.active]); c != 0 {
			return Ordering(c)
		}
		return Ordering(cmp.Compare(e.active, o.active))
	}
	return compareFloat(e.tweak, o.tweak)
}

// lerp interpolates according to the receiver's interpolation mode.
// Callers handle t <= 0 and t >= 1.
func (e *Enum) lerp(o *Enum, t float64) *Enum {
	switch e.interp {
	case InterpSmooth:
		out := e.clone()
		out.SetRangeValue(lerpFloat(e.RangeValue(), o.RangeValue(), t))
		return out
	case InterpSmoothWithinOption:
		if e.active == o.active {
			out := e.clone()
			out.tweak = lerpFloat(e.tweak, o.tweak, t)
			return out
		}
	}

	if t < 0.5 {
		return e.clone()
	}
	return o.clone()
}

type enumDoc struct {
	Type       string         `json:"type"`
	Mode       string         `json:"mode"`
	InterpMode string         `json:"interpMode"`
	RangeMax   int            `json:"rangeMax"`
	Default    string         `json:"default"`
	Keys       map[string]int `json:"keys"`
	Active     string         `json:"active"`
	Tweak      float64        `json:"tweak"`
}

// MarshalJSON implements Value.
func (e *Enum) MarshalJSON() ([]byte, error) {
	return json.Marshal(enumDoc{
		Type:       tagEnum,
		Mode:       e.mode.String(),
		InterpMode: e.interp.String(),
		RangeMax:   e.rangeMax,
		Default:    e.def,
		Keys:       e.keys,
		Active:     e.active,
		Tweak:      e.tweak,
	})
}

func decodeEnum(f fields) (*Enum, error) {
	var (
		modeName, interpName, def string
		rangeMax                  int
		keys                      map[string]int
	)
	if err := f.require("mode", &modeName); err != nil {
		return nil, err
	}
	if err := f.require("interpMode", &interpName); err != nil {
		return nil, err
	}
	if err := f.require("rangeMax", &rangeMax); err != nil {
		return nil, err
	}
	if err := f.require("default", &def); err != nil {
		return nil, err
	}
	if err := f.require("keys", &keys); err != nil {
		return nil, err
	}

	mode, err := ParseEnumMode(modeName)
	if err != nil {
		return nil, invalidField("mode", err)
	}
	interp, err := ParseInterpMode(interpName)
	if err != nil {
		return nil, invalidField("interpMode", err)
	}
	e, err := NewEnum(keys, mode, interp, rangeMax, def)
	if err != nil {
		return nil, invalidField("default", err)
	}

	var active string
	ok, err := f.optional("active", &active)
	if err != nil {
		return nil, err
	}
	if ok && !e.SetVal(active) {
		return nil, invalidField("active", fmt.Errorf("key %q not in key table", active))
	}

	var tweak float64
	ok, err = f.optional("tweak", &tweak)
	if err != nil {
		return nil, err
	}
	if ok {
		e.SetTweak(tweak)
	}
	return e, nil
}
