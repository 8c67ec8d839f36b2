package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"mathbot/internal/platform/clock"
	"mathbot/internal/platform/id"
)

const (
	CurrentVersion    = 2
	MaxHistory        = 400
	MaxSessions       = 120
	MaxSessionMinutes = 180

	// TimestampLayout is the UTC millisecond form used for every stored timestamp.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

type EventType string

const (
	EventOpened      EventType = "opened"
	EventCompleted   EventType = "completed"
	EventUncompleted EventType = "uncompleted"
	EventStudy       EventType = "study"
)

type Event struct {
	Type     EventType   `json:"type"`
	LessonID id.LessonID `json:"lessonId"`
	TS       string      `json:"ts"`
	Minutes  int         `json:"minutes,omitempty"`
}

type SessionRecord struct {
	LessonID  id.LessonID `json:"lessonId"`
	StartedAt string      `json:"startedAt"`
	EndedAt   string      `json:"endedAt"`
	Minutes   int         `json:"minutes"`
}

type ActiveSession struct {
	StartedAt string `json:"startedAt"`
}

type Study struct {
	TotalMinutes int             `json:"totalMinutes"`
	MinutesByDay map[string]int  `json:"minutesByDay"`
	Sessions     []SessionRecord `json:"sessions"`
	LastSession  *SessionRecord  `json:"lastSession"`
}

type State struct {
	Version   int                           `json:"version"`
	Completed map[id.LessonID]string        `json:"completed"`
	Opened    map[id.LessonID]string        `json:"opened"`
	Active    map[id.LessonID]ActiveSession `json:"active"`
	History   []Event                       `json:"history"`
	Study     Study                         `json:"study"`
}

func NewState() State {
	return State{
		Version:   CurrentVersion,
		Completed: map[id.LessonID]string{},
		Opened:    map[id.LessonID]string{},
		Active:    map[id.LessonID]ActiveSession{},
		History:   []Event{},
		Study:     newStudy(),
	}
}

func newStudy() Study {
	return Study{MinutesByDay: map[string]int{}, Sessions: []SessionRecord{}}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts RFC 3339 timestamps with or without fractional
// seconds, and bare dates, which are read as UTC midnight.
func ParseTimestamp(ts string) (time.Time, bool) {
	return ParseTimestampIn(ts, time.UTC)
}

// ParseTimestampIn is ParseTimestamp with bare dates read as midnight in loc.
func ParseTimestampIn(ts string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t, true
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(time.DateOnly, ts, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// DayKey buckets ts into a YYYY-MM-DD key in loc. A bare date is already its
// own key; unparsable timestamps fall back to their first ten characters.
func DayKey(ts string, loc *time.Location) string {
	if isDateOnly(ts) {
		return ts
	}
	if t, ok := ParseTimestamp(ts); ok {
		return clock.DayKey(t, loc)
	}
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}

func isDateOnly(ts string) bool {
	if len(ts) != len(time.DateOnly) {
		return false
	}
	_, err := time.Parse(time.DateOnly, ts)
	return err == nil
}

// SessionMinutes returns the rounded length of [start, end] clamped to
// [1, MaxSessionMinutes], or zero when either end is unparsable or end <= start.
func SessionMinutes(start, end string) int {
	from, ok := ParseTimestamp(start)
	if !ok {
		return 0
	}
	to, ok := ParseTimestamp(end)
	if !ok || !to.After(from) {
		return 0
	}
	minutes := int(math.Round(float64(to.Sub(from).Milliseconds()) / 60000))
	return min(MaxSessionMinutes, max(1, minutes))
}

// DecodeState reads a persisted blob leniently: fields that are missing or
// malformed fall back to their empty form, and older versions are stamped
// with CurrentVersion. Only a blob that is not a JSON object is an error.
func DecodeState(raw []byte) (State, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return NewState(), fmt.Errorf("decode progress state: %w", err)
	}
	if fields == nil {
		return NewState(), errors.New("decode progress state: not an object")
	}
	state := NewState()
	state.Completed = decodeTimestamps(fields["completed"])
	state.Opened = decodeTimestamps(fields["opened"])
	state.Active = decodeActive(fields["active"])
	for lessonID := range state.Active {
		if _, done := state.Completed[lessonID]; done {
			delete(state.Active, lessonID)
		}
	}
	state.History = decodeHistory(fields["history"])
	state.Study = decodeStudy(fields["study"])
	state.Version = CurrentVersion
	if v, ok := number(fields["version"]); ok && int(v) > CurrentVersion {
		state.Version = int(v)
	}
	return state, nil
}

func decodeTimestamps(raw json.RawMessage) map[id.LessonID]string {
	out := map[id.LessonID]string{}
	entries := map[string]json.RawMessage{}
	if json.Unmarshal(raw, &entries) != nil {
		return out
	}
	for key, value := range entries {
		lessonID := id.Lesson(key)
		var ts string
		if lessonID.IsZero() || json.Unmarshal(value, &ts) != nil || ts == "" {
			continue
		}
		out[lessonID] = ts
	}
	return out
}

func decodeActive(raw json.RawMessage) map[id.LessonID]ActiveSession {
	out := map[id.LessonID]ActiveSession{}
	entries := map[string]json.RawMessage{}
	if json.Unmarshal(raw, &entries) != nil {
		return out
	}
	for key, value := range entries {
		lessonID := id.Lesson(key)
		var active ActiveSession
		if lessonID.IsZero() || json.Unmarshal(value, &active) != nil {
			continue
		}
		out[lessonID] = active
	}
	return out
}

func decodeHistory(raw json.RawMessage) []Event {
	out := []Event{}
	items := []json.RawMessage{}
	if json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		var event Event
		if json.Unmarshal(item, &event) != nil || event.Type == "" {
			continue
		}
		out = append(out, event)
	}
	return trimTail(out, MaxHistory)
}

func decodeStudy(raw json.RawMessage) Study {
	study := newStudy()
	fields := map[string]json.RawMessage{}
	if json.Unmarshal(raw, &fields) != nil {
		return study
	}
	if v, ok := number(fields["totalMinutes"]); ok {
		study.TotalMinutes = int(math.Round(v))
	}
	byDay := map[string]json.RawMessage{}
	if json.Unmarshal(fields["minutesByDay"], &byDay) == nil {
		for day, value := range byDay {
			if v, ok := number(value); ok {
				study.MinutesByDay[day] = int(math.Round(v))
			}
		}
	}
	sessions := []json.RawMessage{}
	if json.Unmarshal(fields["sessions"], &sessions) == nil {
		for _, item := range sessions {
			var record SessionRecord
			if json.Unmarshal(item, &record) == nil {
				study.Sessions = append(study.Sessions, record)
			}
		}
	}
	study.Sessions = trimTail(study.Sessions, MaxSessions)
	var last SessionRecord
	if raw := fields["lastSession"]; len(raw) > 0 && string(raw) != "null" && json.Unmarshal(raw, &last) == nil {
		study.LastSession = &last
	}
	return study
}

// number reads a finite JSON number, also accepting numeric strings.
func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, false
		}
		n = json.Number(s)
	}
	v, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func trimTail[T any](items []T, limit int) []T {
	if len(items) <= limit {
		return items
	}
	return append([]T(nil), items[len(items)-limit:]...)
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Completed = cloneMap(s.Completed)
	out.Opened = cloneMap(s.Opened)
	out.Active = cloneMap(s.Active)
	out.History = append([]Event{}, s.History...)
	out.Study.MinutesByDay = cloneMap(s.Study.MinutesByDay)
	out.Study.Sessions = append([]SessionRecord{}, s.Study.Sessions...)
	if s.Study.LastSession != nil {
		last := *s.Study.LastSession
		out.Study.LastSession = &last
	}
	return out
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
