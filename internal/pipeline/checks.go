package pipeline

import "fmt"

// CheckFieldExists reports whether present is true, naming field in the
// failure message. Mirrors the shared field-checker the spec calls for so
// stage validators don't each hand-roll the same "field missing" message.
func CheckFieldExists(name string, present bool) CheckDetail {
	if present {
		return CheckDetail{Name: name, Passed: true, Message: fmt.Sprintf("%s present", name)}
	}
	return CheckDetail{Name: name, Passed: false, Message: fmt.Sprintf("%s missing", name)}
}

// CheckFieldType reports whether the field named name is of the expected
// Go type, given its dynamic value.
func CheckFieldType[T any](name string, value any) CheckDetail {
	_, ok := value.(T)
	if ok {
		return CheckDetail{Name: name, Passed: true, Message: fmt.Sprintf("%s has expected type", name)}
	}
	return CheckDetail{Name: name, Passed: false, Message: fmt.Sprintf("%s has unexpected type %T", name, value)}
}

// CheckFieldRange reports whether value falls within [lo, hi] inclusive.
func CheckFieldRange(name string, value, lo, hi float64) CheckDetail {
	if value >= lo && value <= hi {
		return CheckDetail{Name: name, Passed: true, Message: fmt.Sprintf("%s=%.4f within [%.4f, %.4f]", name, value, lo, hi)}
	}
	return CheckDetail{Name: name, Passed: false, Message: fmt.Sprintf("%s=%.4f outside [%.4f, %.4f]", name, value, lo, hi)}
}

// CheckCondition wraps an arbitrary boolean condition with a name/message,
// for checks that don't fit the field-exists/type/range shapes.
func CheckCondition(name string, ok bool, onFail string) CheckDetail {
	if ok {
		return CheckDetail{Name: name, Passed: true, Message: name + " ok"}
	}
	return CheckDetail{Name: name, Passed: false, Message: onFail}
}
