package param

import "cmp"

// Kind identifies which member of the closed value set a Value is.
type Kind int

// Kind constants.
const (
	KindScalar Kind = iota + 1
	KindEnum
	KindColor
)

// Kind tags as they appear in the "type" field of a parameter document.
const (
	tagScalar = "float"
	tagEnum   = "enum"
	tagColor  = "color"
)

// String returns the document tag for the kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return tagScalar
	case KindEnum:
		return tagEnum
	case KindColor:
		return tagColor
	default:
		return "unknown"
	}
}

// ParseKind resolves a document "type" tag.
func ParseKind(tag string) (Kind, bool) {
	switch tag {
	case tagScalar:
		return KindScalar, true
	case tagEnum:
		return KindEnum, true
	case tagColor:
		return KindColor, true
	default:
		return 0, false
	}
}

// Value is a typed, interpolable parameter value.
//
// The interface is sealed: *Scalar, *Enum and *Color are the only
// implementations.
type Value interface {
	// Kind reports which kind the value is. It never changes.
	Kind() Kind

	// Reset restores the value's current state to its recorded default.
	Reset()

	// MarshalJSON encodes the value as a parameter document.
	MarshalJSON() ([]byte, error)

	sealed()
}

// Ordering is the result of Cmp.
type Ordering int

// Ordering constants.
const (
	Incomparable Ordering = -2
	Less         Ordering = -1
	Equal        Ordering = 0
	Greater      Ordering = 1
)

// String returns a readable name for the ordering.
func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	default:
		return "incomparable"
	}
}

// compareFloat is a total order: NaN sorts before every number and equals
// itself.
func compareFloat(a, b float64) Ordering {
	return Ordering(cmp.Compare(a, b))
}

// lerpFloat returns a exactly when a == b.
func lerpFloat(a, b, t float64) float64 {
	return a + t*(b-a)
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
