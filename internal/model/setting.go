package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// SettingType is the declared type of a configuration value.
type SettingType string

const (
	// SettingTypeString stores the value verbatim.
	SettingTypeString SettingType = "string"
	// SettingTypeNumber stores a finite number.
	SettingTypeNumber SettingType = "number"
	// SettingTypeBoolean stores true or false.
	SettingTypeBoolean SettingType = "boolean"
	// SettingTypeJSON stores any structurally serializable value.
	SettingTypeJSON SettingType = "json"
	// SettingTypeArray stores an ordered sequence.
	SettingTypeArray SettingType = "array"
)

// Valid reports whether t is a known setting type.
func (t SettingType) Valid() bool {
	switch t {
	case SettingTypeString, SettingTypeNumber, SettingTypeBoolean, SettingTypeJSON, SettingTypeArray:
		return true
	}
	return false
}

// Setting is a stored configuration entry. Value holds the serialized form;
// Type governs how it is decoded on read.
type Setting struct {
	Key         string      `json:"key"`
	Value       string      `json:"value"`
	Type        SettingType `json:"type"`
	Description string      `json:"description,omitempty"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// SettingValue is the tagged representation of a decoded setting value: one
// concrete type per declared SettingType, so a value can never disagree with
// its tag.
type SettingValue interface {
	// SettingType returns the declared type tag.
	SettingType() SettingType
	// Encode serializes the value to its stored string form.
	Encode() (string, error)
	// Native returns the plain Go value for rendering and export.
	Native() any
}

// StringValue is a SettingValue of type string.
type StringValue string

// SettingType returns SettingTypeString.
func (v StringValue) SettingType() SettingType { return SettingTypeString }

// Encode returns the string verbatim.
func (v StringValue) Encode() (string, error) { return string(v), nil }

// Native returns the underlying string.
func (v StringValue) Native() any { return string(v) }

// NumberValue is a SettingValue of type number. Always finite.
type NumberValue float64

// SettingType returns SettingTypeNumber.
func (v NumberValue) SettingType() SettingType { return SettingTypeNumber }

// Encode formats the number in its shortest exact form.
func (v NumberValue) Encode() (string, error) {
	return strconv.FormatFloat(float64(v), 'g', -1, 64), nil
}

// Native returns the underlying float64.
func (v NumberValue) Native() any { return float64(v) }

// BoolValue is a SettingValue of type boolean.
type BoolValue bool

// SettingType returns SettingTypeBoolean.
func (v BoolValue) SettingType() SettingType { return SettingTypeBoolean }

// Encode returns "true" or "false".
func (v BoolValue) Encode() (string, error) { return strconv.FormatBool(bool(v)), nil }

// Native returns the underlying bool.
func (v BoolValue) Native() any { return bool(v) }

// JSONValue is a SettingValue of type json, holding any structurally
// serializable value.
type JSONValue struct {
	V any
}

// SettingType returns SettingTypeJSON.
func (v JSONValue) SettingType() SettingType { return SettingTypeJSON }

// Encode serializes the value as a JSON string.
func (v JSONValue) Encode() (string, error) {
	b, err := json.Marshal(v.V)
	if err != nil {
		return "", fmt.Errorf("value is not serializable: %w", err)
	}
	return string(b), nil
}

// Native returns the wrapped value.
func (v JSONValue) Native() any { return v.V }

// ArrayValue is a SettingValue of type array.
type ArrayValue []any

// SettingType returns SettingTypeArray.
func (v ArrayValue) SettingType() SettingType { return SettingTypeArray }

// Encode serializes the sequence as a JSON array.
func (v ArrayValue) Encode() (string, error) {
	if v == nil {
		v = ArrayValue{}
	}
	b, err := json.Marshal([]any(v))
	if err != nil {
		return "", fmt.Errorf("array is not serializable: %w", err)
	}
	return string(b), nil
}

// Native returns the underlying slice.
func (v ArrayValue) Native() any { return []any(v) }

// ParseSettingValue coerces a native Go value into the tagged representation
// for the declared type. Values that cannot represent the type are rejected.
func ParseSettingValue(value any, t SettingType) (SettingValue, error) {
	switch t {
	case SettingTypeString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return StringValue(s), nil

	case SettingTypeNumber:
		var f float64
		switch n := value.(type) {
		case float64:
			f = n
		case float32:
			f = float64(n)
		case int:
			f = float64(n)
		case int64:
			f = float64(n)
		case json.Number:
			parsed, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("invalid number %q: %w", n.String(), err)
			}
			f = parsed
		case string:
			parsed, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q: %w", n, err)
			}
			f = parsed
		default:
			return nil, fmt.Errorf("expected number, got %T", value)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("number must be finite")
		}
		return NumberValue(f), nil

	case SettingTypeBoolean:
		switch b := value.(type) {
		case bool:
			return BoolValue(b), nil
		case string:
			if strings.EqualFold(b, "true") {
				return BoolValue(true), nil
			}
			if strings.EqualFold(b, "false") {
				return BoolValue(false), nil
			}
			return nil, fmt.Errorf("invalid boolean %q", b)
		default:
			return nil, fmt.Errorf("expected boolean, got %T", value)
		}

	case SettingTypeJSON:
		if _, err := json.Marshal(value); err != nil {
			return nil, fmt.Errorf("value is not serializable: %w", err)
		}
		return JSONValue{V: value}, nil

	case SettingTypeArray:
		switch a := value.(type) {
		case []any:
			return ArrayValue(a), nil
		case []string:
			out := make(ArrayValue, len(a))
			for i, s := range a {
				out[i] = s
			}
			return out, nil
		default:
			return nil, fmt.Errorf("expected array, got %T", value)
		}

	default:
		return nil, fmt.Errorf("unknown setting type %q", t)
	}
}

// DecodeSettingValue parses a stored string back into its tagged value.
//
// A boolean decodes to true only for the literal "true" (case-insensitive).
// An array whose stored form is not a JSON array degrades to an empty
// sequence instead of failing.
func DecodeSettingValue(raw string, t SettingType) (SettingValue, error) {
	switch t {
	case SettingTypeString:
		return StringValue(raw), nil

	case SettingTypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("stored value %q is not a number: %w", raw, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("stored number %q is not finite", raw)
		}
		return NumberValue(f), nil

	case SettingTypeBoolean:
		return BoolValue(strings.EqualFold(raw, "true")), nil

	case SettingTypeJSON:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("stored value is not valid JSON: %w", err)
		}
		return JSONValue{V: v}, nil

	case SettingTypeArray:
		var v []any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return ArrayValue{}, nil
		}
		if v == nil {
			v = []any{}
		}
		return ArrayValue(v), nil

	default:
		return nil, fmt.Errorf("unknown setting type %q", t)
	}
}
