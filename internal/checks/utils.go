package checks

import (
	"fmt"
	"strconv"
	"time"
)

func stringParam(params map[string]any, key, fallback string) string {
	if params == nil {
		return fallback
	}

	if value, ok := params[key]; ok {
		switch v := value.(type) {
		case string:
			if v == "" {
				return fallback
			}
			return v
		case fmt.Stringer:
			return v.String()
		default:
			str := fmt.Sprintf("%v", value)
			if str == "" {
				return fallback
			}
			return str
		}
	}

	return fallback
}

func intParam(params map[string]any, key string, fallback int) int {
	if params == nil {
		return fallback
	}

	if value, ok := params[key]; ok {
		switch v := value.(type) {
		case int:
			return v
		case int32:
			return int(v)
		case int64:
			return int(v)
		case float32:
			return int(v)
		case float64:
			return int(v)
		case string:
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}

	return fallback
}

func durationParam(params map[string]any, key string, fallback time.Duration) time.Duration {
	if params == nil {
		return fallback
	}

	if value, ok := params[key]; ok {
		switch v := value.(type) {
		case time.Duration:
			return v
		case string:
			if parsed, err := time.ParseDuration(v); err == nil {
				return parsed
			}
		default:
			if ms := intParam(params, key, -1); ms >= 0 {
				return time.Duration(ms) * time.Millisecond
			}
		}
	}

	return fallback
}
