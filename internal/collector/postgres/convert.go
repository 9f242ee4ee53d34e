package postgres

import (
	"fmt"
	"strconv"
	"strings"
)

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return int64(f), nil
	case []byte:
		return toInt64(string(n))
	case nil:
		return 0, fmt.Errorf("unexpected NULL value")
	default:
		return 0, fmt.Errorf("unexpected value type %T", v)
	}
}

// toFloatPtr returns nil for NULL.
func toFloatPtr(v any) (*float64, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", n)
		}
		f = parsed
	case []byte:
		return toFloatPtr(string(n))
	default:
		return nil, fmt.Errorf("unexpected value type %T", v)
	}
	return &f, nil
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}
