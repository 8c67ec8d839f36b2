// Package id canonicalises the lesson, unit and topic identifiers that the
// lessons API returns as numbers or strings interchangeably.
package id

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type LessonID string

type UnitID string

type TopicID string

// Key is satisfied by every identifier newtype in this package.
type Key interface {
	~string
}

// Parse converts a raw identifier into its canonical form. Integer-like
// values (12, "12", " 12 ", "12.0", 12.0) become the decimal string "12";
// other non-empty strings are kept trimmed. nil and blank input report false.
func Parse[T Key](raw any) (T, bool) {
	s, ok := canonical(raw)
	return T(s), ok
}

// Lesson is Parse for lesson ids.
func Lesson(raw any) LessonID {
	v, _ := Parse[LessonID](raw)
	return v
}

// Unit is Parse for unit ids.
func Unit(raw any) UnitID {
	v, _ := Parse[UnitID](raw)
	return v
}

// Topic is Parse for topic ids.
func Topic(raw any) TopicID {
	v, _ := Parse[TopicID](raw)
	return v
}

func canonical(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case LessonID:
		return canonicalString(string(v))
	case UnitID:
		return canonicalString(string(v))
	case TopicID:
		return canonicalString(string(v))
	case string:
		return canonicalString(v)
	case json.Number:
		return canonicalString(v.String())
	case int:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return canonicalFloat(float64(v))
	case float64:
		return canonicalFloat(v)
	case fmt.Stringer:
		return canonicalString(v.String())
	default:
		return canonicalString(fmt.Sprint(v))
	}
}

func canonicalString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if out, ok := canonicalFloat(f); ok {
			return out, true
		}
	}
	return s, true
}

func canonicalFloat(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return strconv.FormatInt(int64(f), 10), true
}

func intValue(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (l LessonID) String() string { return string(l) }

func (l LessonID) IsZero() bool { return l == "" }

// Int reports the numeric value of an integer-like id.
func (l LessonID) Int() (int64, bool) { return intValue(string(l)) }

// MarshalJSON writes integer-like ids as JSON numbers and everything else as strings.
func (l LessonID) MarshalJSON() ([]byte, error) { return marshalKey(string(l)) }

func (l *LessonID) UnmarshalJSON(b []byte) error { return unmarshalKey(b, l) }

func (u UnitID) String() string { return string(u) }

func (u UnitID) IsZero() bool { return u == "" }

func (u UnitID) Int() (int64, bool) { return intValue(string(u)) }

func (u UnitID) MarshalJSON() ([]byte, error) { return marshalKey(string(u)) }

func (u *UnitID) UnmarshalJSON(b []byte) error { return unmarshalKey(b, u) }

func (t TopicID) String() string { return string(t) }

func (t TopicID) IsZero() bool { return t == "" }

func (t TopicID) Int() (int64, bool) { return intValue(string(t)) }

func (t TopicID) MarshalJSON() ([]byte, error) { return marshalKey(string(t)) }

func (t *TopicID) UnmarshalJSON(b []byte) error { return unmarshalKey(b, t) }

func marshalKey(s string) ([]byte, error) {
	if n, ok := intValue(s); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(s)
}

func unmarshalKey[T Key](b []byte, dst *T) error {
	var raw any
	decoder := json.NewDecoder(strings.NewReader(string(b)))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*dst, _ = Parse[T](raw)
	return nil
}
