package param

import "encoding/json"

// Default bounds for a Scalar created without explicit limits.
const (
	DefaultScalarMax = 1.0
	DefaultScalarMin = 0.0
)

// Scalar is a bounded continuous value such as intensity or pan.
//
// By convention the current value lies in [Min, Max], but SetVal does not
// clamp: a loaded document is reproduced exactly.
type Scalar struct {
	val float64
	def float64
	max float64
	min float64
}

// NewScalar creates a Scalar with the default [0, 1] range.
func NewScalar(val, def float64) *Scalar {
	return NewScalarRange(val, def, DefaultScalarMax, DefaultScalarMin)
}

// NewScalarRange creates a Scalar with explicit bounds.
// The argument order (val, def, max, min) matches the document field order.
func NewScalarRange(val, def, maxVal, minVal float64) *Scalar {
	return &Scalar{val: val, def: def, max: maxVal, min: minVal}
}

// Kind implements Value.
func (s *Scalar) Kind() Kind { return KindScalar }

func (s *Scalar) sealed() {}

// Val returns the current value.
func (s *Scalar) Val() float64 { return s.val }

// SetVal replaces the current value. Default and bounds are untouched.
func (s *Scalar) SetVal(v float64) { s.val = v }

// Default returns the recorded default.
func (s *Scalar) Default() float64 { return s.def }

// Max returns the upper bound.
func (s *Scalar) Max() float64 { return s.max }

// Min returns the lower bound.
func (s *Scalar) Min() float64 { return s.min }

// Reset implements Value.
func (s *Scalar) Reset() { s.val = s.def }

// Percent maps the current value into [0, 1] relative to [Min, Max].
// A degenerate range yields 0.
func (s *Scalar) Percent() float64 {
	span := s.max - s.min
	if span == 0 {
		return 0
	}
	return clampUnit((s.val - s.min) / span)
}

func (s *Scalar) clone() *Scalar {
	cpy := *s
	return &cpy
}

func (s *Scalar) equal(o *Scalar) bool {
	return compareFloat(s.val, o.val) == Equal
}

func (s *Scalar) cmp(o *Scalar) Ordering {
	return compareFloat(s.val, o.val)
}

// lerp takes default and bounds from the receiver.
func (s *Scalar) lerp(o *Scalar, t float64) *Scalar {
	out := s.clone()
	out.val = lerpFloat(s.val, o.val, t)
	return out
}

type scalarDoc struct {
	Type    string  `json:"type"`
	Val     float64 `json:"val"`
	Default float64 `json:"default"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
}

// MarshalJSON implements Value.
func (s *Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(scalarDoc{
		Type:    tagScalar,
		Val:     s.val,
		Default: s.def,
		Max:     s.max,
		Min:     s.min,
	})
}

func decodeScalar(f fields) (*Scalar, error) {
	var val, def float64
	if err := f.require("val", &val); err != nil {
		return nil, err
	}
	if err := f.require("default", &def); err != nil {
		return nil, err
	}

	// Bounds are taken only as a pair.
	s := NewScalar(val, def)
	var maxVal, minVal float64
	hasMax, err := f.optional("max", &maxVal)
	if err != nil {
		return nil, err
	}
	hasMin, err := f.optional("min", &minVal)
	if err != nil {
		return nil, err
	}
	if hasMax && hasMin {
		s.max, s.min = maxVal, minVal
	}
	return s, nil
}
