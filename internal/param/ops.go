package param

// isNil reports whether v is absent, including a typed nil pointer stored in
// the interface.
func isNil(v Value) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *Scalar:
		return x == nil
	case *Enum:
		return x == nil
	case *Color:
		return x == nil
	default:
		return true
	}
}

// sameKind reports whether both values are present and of the same kind.
func sameKind(a, b Value) bool {
	if isNil(a) || isNil(b) {
		return false
	}
	return a.Kind() == b.Kind()
}

// Copy returns an independent copy of v, or nil if v is nil.
func Copy(v Value) Value {
	switch x := v.(type) {
	case *Scalar:
		if x != nil {
			return x.clone()
		}
	case *Enum:
		if x != nil {
			return x.clone()
		}
	case *Color:
		if x != nil {
			return x.clone()
		}
	}
	return nil
}

// CopyByVal overwrites dst's state with src's. It returns false and leaves
// dst untouched if either is nil or the kinds differ.
func CopyByVal(src, dst Value) bool {
	if !sameKind(src, dst) {
		return false
	}
	switch d := dst.(type) {
	case *Scalar:
		*d = *src.(*Scalar).clone()
	case *Enum:
		*d = *src.(*Enum).clone()
	case *Color:
		*d = *src.(*Color).clone()
	default:
		return false
	}
	return true
}

// Equals reports whether a and b are the same kind with equal state.
//
// Scalars compare their current value, enums their active key and tweak,
// colours their complete channel, basis, weight and mode state.
func Equals(a, b Value) bool {
	if !sameKind(a, b) {
		return false
	}
	switch x := a.(type) {
	case *Scalar:
		return x.equal(b.(*Scalar))
	case *Enum:
		return x.equal(b.(*Enum))
	case *Color:
		return x.equal(b.(*Color))
	default:
		return false
	}
}

// Cmp orders two values of the same kind. It returns Incomparable when either
// is nil or the kinds differ.
func Cmp(a, b Value) Ordering {
	if !sameKind(a, b) {
		return Incomparable
	}
	switch x := a.(type) {
	case *Scalar:
		return x.cmp(b.(*Scalar))
	case *Enum:
		return x.cmp(b.(*Enum))
	case *Color:
		return x.cmp(b.(*Color))
	default:
		return Incomparable
	}
}

// LessThan reports whether a orders before b. A nil a orders before any
// present b.
func LessThan(a, b Value) bool {
	if isNil(a) {
		return !isNil(b)
	}
	return Cmp(a, b) == Less
}

// Lerp interpolates from a (t = 0) to b (t = 1). Neither input is modified.
// It returns nil when either is nil or the kinds differ. Equal inputs yield a
// copy of a for every t.
func Lerp(a, b Value, t float64) Value {
	if !sameKind(a, b) {
		return nil
	}
	switch {
	case t <= 0 || Equals(a, b):
		return Copy(a)
	case t >= 1:
		return Copy(b)
	}

	switch x := a.(type) {
	case *Scalar:
		return x.lerp(b.(*Scalar), t)
	case *Enum:
		return x.lerp(b.(*Enum), t)
	case *Color:
		return x.lerp(b.(*Color), t)
	default:
		return nil
	}
}
