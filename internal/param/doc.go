// Package param provides the typed parameter values held by a lumicore device.
//
// A parameter value is one of a closed set of kinds:
//
//   - Scalar: a bounded continuous number (intensity, pan, tilt)
//   - Enum: a discrete mode selector with a continuous "tweak" inside the active key
//     (gobo wheel, colour wheel, shutter strobe modes)
//   - Color: a multi-channel colour with a named basis vector per channel
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────────┐
//	│                          param package                             │
//	│                                                                    │
//	│  ┌──────────────┐   ┌──────────────────┐   ┌───────────────────┐  │
//	│  │    Kinds     │   │    Operations    │   │       Codec       │  │
//	│  │ scalar.go    │◀──│     (ops.go)     │   │    (codec.go)     │  │
//	│  │ enum.go      │   │                  │   │                   │  │
//	│  │ color.go     │   │ • Copy/CopyByVal │   │ • Decode          │  │
//	│  │              │   │ • Equals/Cmp     │   │ • LoadFromJSON    │  │
//	│  │              │   │ • Lerp           │   │ • MarshalJSON     │  │
//	│  └──────────────┘   └──────────────────┘   └───────────────────┘  │
//	└───────────────────────────────────────────────────────────────────┘
//
// Value is a sealed interface: only *Scalar, *Enum and *Color implement it, so
// every dispatch in this package is an exhaustive type switch. A value's kind
// never changes after construction.
//
// # Cross-kind operations
//
// Operations on two values first check that both are present and of the same
// kind. A mismatch is never coerced and never panics:
//
//	Equals(scalar, enum)      // false
//	Cmp(scalar, enum)         // Incomparable
//	Lerp(scalar, enum, 0.5)   // nil
//	CopyByVal(scalar, enum)   // false, enum untouched
//
// # Ordering
//
// Scalars order numerically and enums order by (key start code, key name, tweak).
// Colors order only along hue, so two colors that differ off-hue can compare
// Equal under Cmp while Equals reports them different.
//
// # Thread Safety
//
// Values are not safe for concurrent mutation. The device store serialises
// access to the values it owns.
package param
