// Package decoder converts raw on-chain field encodings into application types.
// Every function is total: malformed input yields a zero value or a false flag, never a panic.
package decoder

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ScaleFactor is the fixed-point scale of SUI and token amounts (9 decimals).
const ScaleFactor = 1_000_000_000

// BytesToString decodes a text field. A string is returned as is; a byte sequence (as []byte or as
// a JSON array of numbers 0..255) is decoded as UTF-8 with invalid sequences replaced by U+FFFD.
// Any other shape yields "".
func BytesToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return toValidUTF8(t)
	case []any:
		buf := make([]byte, 0, len(t))
		for _, item := range t {
			b, ok := byteValue(item)
			if !ok {
				return ""
			}
			buf = append(buf, b)
		}
		return toValidUTF8(buf)
	case []float64:
		buf := make([]byte, 0, len(t))
		for _, item := range t {
			b, ok := byteValue(item)
			if !ok {
				return ""
			}
			buf = append(buf, b)
		}
		return toValidUTF8(buf)
	case []int:
		buf := make([]byte, 0, len(t))
		for _, item := range t {
			b, ok := byteValue(item)
			if !ok {
				return ""
			}
			buf = append(buf, b)
		}
		return toValidUTF8(buf)
	default:
		return ""
	}
}

func byteValue(v any) (byte, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 || n > 255 || n != math.Trunc(n) {
			return 0, false
		}
		return byte(n), true
	case int:
		if n < 0 || n > 255 {
			return 0, false
		}
		return byte(n), true
	case json.Number:
		i, err := strconv.Atoi(string(n))
		if err != nil || i < 0 || i > 255 {
			return 0, false
		}
		return byte(i), true
	default:
		return 0, false
	}
}

func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}

// ToDisplay converts a raw amount in the smallest unit to display units.
func ToDisplay(raw uint64) float64 {
	return float64(raw) / ScaleFactor
}

// ToDisplayBig converts a raw big amount to display units. Nil yields 0.
func ToDisplayBig(raw *big.Int) float64 {
	if raw == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), big.NewFloat(ScaleFactor)).Float64()
	return f
}

// ToRaw converts a display amount to the smallest unit, rounding to the nearest integer.
//
// Parameters:
// - display: the amount in display units.
//
// Returns:
// - uint64: round(display * ScaleFactor).
// - error: ErrInvalidAmount for negative, NaN, infinite or overflowing values.
func ToRaw(display float64) (uint64, error) {
	if math.IsNaN(display) || math.IsInf(display, 0) || display < 0 {
		return 0, invalidAmount(display)
	}
	raw := math.Round(display * ScaleFactor)
	if raw >= math.MaxUint64 {
		return 0, invalidAmount(display)
	}
	return uint64(raw), nil
}

// Uint64 reads a u64 rendered as a JSON string or number.
func Uint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case string:
		u, err := strconv.ParseUint(strings.TrimSpace(n), 10, 64)
		return u, err == nil
	case float64:
		if n < 0 || n != math.Trunc(n) || n >= math.MaxUint64 {
			return 0, false
		}
		return uint64(n), true
	case json.Number:
		u, err := strconv.ParseUint(string(n), 10, 64)
		return u, err == nil
	case int:
		return uint64(n), n >= 0
	case uint64:
		return n, true
	default:
		return 0, false
	}
}

// Bool reads a JSON boolean; anything else is false.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Address reads a plain address field.
func Address(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}

// OptionAddress reads an Option<address>. The node renders it as {"fields":{"vec":[addr]}},
// {"vec":[addr]}, a bare string or null. None yields ("", true); malformed input ("", false).
func OptionAddress(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case map[string]any:
		if inner, ok := t["fields"]; ok {
			return OptionAddress(inner)
		}
		vec, ok := t["vec"].([]any)
		if !ok {
			return "", false
		}
		if len(vec) == 0 {
			return "", true
		}
		s, ok := vec[0].(string)
		return s, ok
	default:
		return "", false
	}
}

// ID reads a UID or ID field, rendered as a string or as {"id": "..."}.
func ID(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case map[string]any:
		return ID(t["id"])
	default:
		return "", false
	}
}
