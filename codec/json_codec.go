package codec

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stringify renders a decoded value as JSON, the transport-neutral form handed to callers.
func Stringify(v any) (string, error) {
	data, err := json.Marshal(normalize(v))
	if err != nil {
		return "", fmt.Errorf("codec: render result: %w", err)
	}
	return string(data), nil
}

// normalize rewrites hessian containers into shapes encoding/json accepts.
func normalize(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.Format(time.RFC3339Nano)
	}
	return v
}
