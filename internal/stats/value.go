package stats

import "fmt"

// Value is a sealed sum type over the three stat variants: integer,
// floating-point and text. Only Int, Float and Text implement it.
//
// A stat's variant tag is fixed at first insertion; arithmetic never
// coerces across variants.
type Value interface {
	statValue()
}

// Int is an integer-valued stat.
type Int int64

func (Int) statValue() {}

// Float is a floating-point stat.
type Float float64

func (Float) statValue() {}

// Text is a string-valued stat.
type Text string

func (Text) statValue() {}

// add returns a + b when both share a numeric variant. Any other
// combination degrades to a copy of a, silently discarding b.
func add(a, b Value) Value {
	switch x := a.(type) {
	case Int:
		if y, ok := b.(Int); ok {
			return x + y
		}
	case Float:
		if y, ok := b.(Float); ok {
			return x + y
		}
	}
	return a
}

// less compares two values of the same numeric variant. Mixed-variant
// comparison is undefined; callers guarantee matching tags via the
// well-known schema.
func less(a, b Value) bool {
	switch x := a.(type) {
	case Int:
		if y, ok := b.(Int); ok {
			return x < y
		}
	case Float:
		if y, ok := b.(Float); ok {
			return x < y
		}
	}
	return false
}

// zero returns the zero of v's variant: 0, 0.0 or the empty string.
func zero(v Value) Value {
	switch v.(type) {
	case Int:
		return Int(0)
	case Float:
		return Float(0)
	default:
		return Text("")
	}
}

// scalar converts a Value to the native Go scalar carried on the wire.
func scalar(v Value) any {
	switch x := v.(type) {
	case Int:
		return int64(x)
	case Float:
		return float64(x)
	case Text:
		return string(x)
	default:
		return nil
	}
}

// fromScalar chooses the stat variant from a decoded scalar's runtime
// type. The ok result is false for non-scalar payloads.
func fromScalar(raw any) (Value, bool) {
	switch x := raw.(type) {
	case int64:
		return Int(x), true
	case float64:
		return Float(x), true
	case string:
		return Text(x), true
	default:
		return nil, false
	}
}

// String formats the value for traces and CLI output.
func String(v Value) string {
	switch x := v.(type) {
	case Int:
		return fmt.Sprintf("%d", int64(x))
	case Float:
		return fmt.Sprintf("%g", float64(x))
	case Text:
		return string(x)
	default:
		return "<nil>"
	}
}
