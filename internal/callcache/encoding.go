package callcache

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Encode converts a scalar to its stored form: text and bytes as-is, integers
// in base 10 and floats in their shortest round-tripping form.
func Encode(value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return append([]byte{}, v...), nil
	case int:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int8:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int16:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int32:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int64:
		return strconv.AppendInt(nil, v, 10), nil
	case uint:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint8:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint16:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint32:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint64:
		return strconv.AppendUint(nil, v, 10), nil
	case float32:
		return strconv.AppendFloat(nil, float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}

var errInvalidUTF8 = errors.New("invalid UTF-8")

// DecodeText interprets raw as UTF-8 text.
func DecodeText(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", errInvalidUTF8
	}
	return string(raw), nil
}

// DecodeInt parses raw as a base-10 integer.
func DecodeInt(raw []byte) (int64, error) {
	return strconv.ParseInt(string(raw), 10, 64)
}

// DecodeFloat parses raw as a floating-point number.
func DecodeFloat(raw []byte) (float64, error) {
	return strconv.ParseFloat(string(raw), 64)
}
