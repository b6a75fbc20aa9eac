package message

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Arg is one call argument together with its declared Java type.
// Type is either a primitive name ("int", "long", ...) or a fully qualified
// class name ("java.lang.String"). An empty Type is inferred from Value.
type Arg struct {
	Type  string
	Value any
}

// primitiveCodes maps Java primitive names to their descriptor letters.
var primitiveCodes = map[string]string{
	"boolean": "Z",
	"int":     "I",
	"short":   "S",
	"long":    "J",
	"double":  "D",
	"float":   "F",
}

// javaClassNamer is satisfied by hessian POJOs.
type javaClassNamer interface {
	JavaClassName() string
}

// Bool, Int, Short, Long, Double, Float and String are shorthands for common argument types.
func Bool(v bool) Arg { return Arg{Type: "boolean", Value: v} }
func Int(v int32) Arg { return Arg{Type: "int", Value: v} }
func Short(v int16) Arg { return Arg{Type: "short", Value: v} }
func Long(v int64) Arg { return Arg{Type: "long", Value: v} }
func Double(v float64) Arg { return Arg{Type: "double", Value: v} }
func Float(v float32) Arg { return Arg{Type: "float", Value: v} }
func String(v string) Arg { return Arg{Type: "java.lang.String", Value: v} }
func Object(class string, v any) Arg { return Arg{Type: class, Value: v} }

// TypeDescriptor returns the descriptor fragment for one declared type.
func TypeDescriptor(typ string) string {
	if code, ok := primitiveCodes[typ]; ok {
		return code
	}
	return "L" + strings.ReplaceAll(typ, ".", "/") + ";"
}

// BuildArguments returns the parameter-type descriptor and the value sequence for args.
// An empty list yields an empty descriptor.
func BuildArguments(args []Arg) (string, []any, error) {
	var sb strings.Builder
	values := make([]any, 0, len(args))
	for i, arg := range args {
		typ := arg.Type
		if typ == "" {
			inferred, err := InferType(arg.Value)
			if err != nil {
				return "", nil, fmt.Errorf("message: argument %d: %w", i, err)
			}
			typ = inferred
		}
		value, err := coerce(typ, arg.Value)
		if err != nil {
			return "", nil, fmt.Errorf("message: argument %d: %w", i, err)
		}
		sb.WriteString(TypeDescriptor(typ))
		values = append(values, value)
	}
	return sb.String(), values, nil
}

// InferType guesses the Java type of a Go value.
func InferType(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", fmt.Errorf("cannot infer type of nil value")
	case bool:
		return "boolean", nil
	case int32:
		return "int", nil
	case int16:
		return "short", nil
	case int, int64:
		return "long", nil
	case float64:
		return "double", nil
	case float32:
		return "float", nil
	case string:
		return "java.lang.String", nil
	case javaClassNamer:
		return val.JavaClassName(), nil
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Map:
		return "java.util.Map", nil
	case reflect.Slice, reflect.Array:
		return "java.util.List", nil
	}
	return "", fmt.Errorf("cannot infer type of %T", v)
}

// coerce converts numeric values to the width implied by a primitive type.
func coerce(typ string, v any) (any, error) {
	if _, ok := primitiveCodes[typ]; !ok {
		return v, nil
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("nil value for primitive type %s", typ)
	}

	switch typ {
	case "boolean":
		if rv.Kind() != reflect.Bool {
			return nil, fmt.Errorf("type boolean requires a bool, got %T", v)
		}
		return rv.Bool(), nil
	case "double", "float":
		switch {
		case rv.CanFloat():
			if typ == "float" {
				return float32(rv.Float()), nil
			}
			return rv.Float(), nil
		case rv.CanInt():
			if typ == "float" {
				return float32(rv.Int()), nil
			}
			return float64(rv.Int()), nil
		}
		return nil, fmt.Errorf("type %s requires a number, got %T", typ, v)
	}

	var n int64
	switch {
	case rv.CanInt():
		n = rv.Int()
	case rv.CanUint():
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows %s", u, typ)
		}
		n = int64(u)
	default:
		return nil, fmt.Errorf("type %s requires an integer, got %T", typ, v)
	}
	switch typ {
	case "int":
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("value %d overflows %s", n, typ)
		}
		return int32(n), nil
	case "short":
		if n < math.MinInt16 || n > math.MaxInt16 {
			return nil, fmt.Errorf("value %d overflows %s", n, typ)
		}
		return int16(n), nil
	default:
		return n, nil
	}
}

// SplitParameterTypes parses a descriptor back into declared type names,
// e.g. "ILcom/example/Foo;" yields ["int", "com.example.Foo"].
func SplitParameterTypes(desc string) ([]string, error) {
	var types []string
	for i := 0; i < len(desc); {
		c := desc[i]
		switch c {
		case 'L':
			end := strings.IndexByte(desc[i:], ';')
			if end < 0 {
				return nil, fmt.Errorf("message: unterminated class descriptor at %d in %q", i, desc)
			}
			types = append(types, strings.ReplaceAll(desc[i+1:i+end], "/", "."))
			i += end + 1
		case '[':
			// Arrays keep their raw descriptor form.
			j := i
			for j < len(desc) && desc[j] == '[' {
				j++
			}
			if j < len(desc) && desc[j] == 'L' {
				end := strings.IndexByte(desc[j:], ';')
				if end < 0 {
					return nil, fmt.Errorf("message: unterminated class descriptor at %d in %q", j, desc)
				}
				j += end
			}
			if j >= len(desc) {
				return nil, fmt.Errorf("message: truncated array descriptor in %q", desc)
			}
			types = append(types, desc[i:j+1])
			i = j + 1
		default:
			name, ok := primitiveName(c)
			if !ok {
				return nil, fmt.Errorf("message: unknown descriptor code %q in %q", c, desc)
			}
			types = append(types, name)
			i++
		}
	}
	return types, nil
}

func primitiveName(code byte) (string, bool) {
	for name, c := range primitiveCodes {
		if c[0] == code {
			return name, true
		}
	}
	switch code {
	case 'B':
		return "byte", true
	case 'C':
		return "char", true
	}
	return "", false
}
