package props

import "fmt"

// TypeError reports a caller value of the wrong shape: a wrong argument
// count, a positional argument or option property of the wrong kind, or a
// property whose value is not acceptable.
type TypeError struct {
	// Property is the option name, empty for positional arguments.
	Property string
	// Argument is the 1-based argument position, 0 for option properties.
	Argument int
	Expected string
	Actual   Kind

	msg string
}

func (e *TypeError) Error() string {
	return e.msg
}

// ArgumentError reports that positional argument pos (0-based) is not of
// the expected kind.
func ArgumentError(pos int, expected Kind, v any) *TypeError {
	actual := KindOf(v)
	return &TypeError{
		Argument: pos + 1,
		Expected: string(expected),
		Actual:   actual,
		msg:      fmt.Sprintf("Argument %d must be %s, not %s", pos+1, expected, actual),
	}
}

// PropertyError reports that property name holds a value of the wrong kind.
func PropertyError(name, expected string, v any) *TypeError {
	actual := KindOf(v)
	return &TypeError{
		Property: name,
		Expected: expected,
		Actual:   actual,
		msg:      fmt.Sprintf("Property `%s` must be %s, not %s", name, expected, actual),
	}
}

// InvalidValueError reports that property name holds a string outside the
// set of accepted values.
func InvalidValueError(name, value string) *TypeError {
	return &TypeError{
		Property: name,
		Expected: "one of the accepted names",
		Actual:   KindString,
		msg:      fmt.Sprintf("Property `%s` has invalid value %q", name, value),
	}
}

// InvalidLengthError reports a length string that does not parse.
func InvalidLengthError(name, value string) *TypeError {
	return &TypeError{
		Property: name,
		Expected: "a valid length",
		Actual:   KindString,
		msg:      fmt.Sprintf("Property `%s` must be a valid length, not %q", name, value),
	}
}

// CheckArgs validates an argument count against the number of required and
// optional arguments a function accepts.
func CheckArgs(n, required, optional int) error {
	expected := required + optional
	switch {
	case expected == 0 && n > 0:
		return &TypeError{msg: "No arguments expected"}
	case n < required:
		return &TypeError{msg: fmt.Sprintf("Expected at least %d %s, got %d", required, plural(required), n)}
	case n > expected:
		return &TypeError{msg: fmt.Sprintf("Expected at most %d %s, got %d", expected, plural(expected), n)}
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return "argument"
	}
	return "arguments"
}
