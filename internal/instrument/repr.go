package instrument

import (
	"fmt"
	"strconv"
	"strings"
)

// Args carries the positional arguments of a multi-argument operation.
type Args []any

// Repr renders v as a Go-literal-like string for call logs: strings are
// quoted, byte slices are written as []byte("..."), Args are comma-joined and
// anything else uses its default format.
func Repr(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(x)
	case []byte:
		return "[]byte(" + strconv.Quote(string(x)) + ")"
	case struct{}:
		return ""
	case Args:
		parts := make([]string, len(x))
		for i, a := range x {
			parts[i] = Repr(a)
		}
		return strings.Join(parts, ", ")
	case error:
		return ErrorEntry(x)
	default:
		return fmt.Sprint(x)
	}
}

// ErrorEntry is the output log entry recorded for a failed call.
func ErrorEntry(err error) string {
	if err == nil {
		return ""
	}
	return "error(" + strconv.Quote(err.Error()) + ")"
}
