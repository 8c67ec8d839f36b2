package domain

import (
	"sort"
	"time"

	"mathbot/internal/platform/id"
)

const (
	ReasonLessonCompleted   = "lesson-completed"
	ReasonLessonUncompleted = "lesson-uncompleted"
	ReasonLessonOpened      = "lesson-opened"

	DefaultActivityDays = 7
	RecentSessions      = 10
)

// LessonRef is the catalog metadata progress aggregates over.
type LessonRef struct {
	ID         id.LessonID
	Nombre     string
	AreaKey    string
	AreaLabel  string
	UnitID     id.UnitID
	UnitNumero string
	UnitTitulo string
}

type Change struct {
	Reason    string
	LessonID  id.LessonID
	Timestamp string
}

type Totals struct {
	Lessons          int `json:"lessons"`
	LessonsCompleted int `json:"lessonsCompleted"`
	UnitsCompleted   int `json:"unitsCompleted"`
	AreasCompleted   int `json:"areasCompleted"`
}

type AreaProgress struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

type UnitProgress struct {
	ID        id.UnitID `json:"id"`
	Titulo    string    `json:"titulo"`
	Numero    string    `json:"numero"`
	AreaKey   string    `json:"areaKey"`
	AreaLabel string    `json:"areaLabel"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
}

type Streak struct {
	Count    int     `json:"count"`
	LastDate *string `json:"lastDate"`
}

type DayMinutes struct {
	Day     string `json:"day"`
	Minutes int    `json:"minutes"`
}

type DayValue struct {
	Day   string `json:"day"`
	Value int    `json:"value"`
}

type StudySnapshot struct {
	TotalMinutes    int             `json:"totalMinutes"`
	MinutesByDay    map[string]int  `json:"minutesByDay"`
	LastSevenDays   []DayMinutes    `json:"lastSevenDays"`
	ThisWeekMinutes int             `json:"thisWeekMinutes"`
	Sessions        []SessionRecord `json:"sessions"`
	LastSession     *SessionRecord  `json:"lastSession"`
}

type Snapshot struct {
	CompletedIDs []id.LessonID  `json:"completedIds"`
	Totals       Totals         `json:"totals"`
	Areas        []AreaProgress `json:"areas"`
	Units        []UnitProgress `json:"units"`
	Streak       Streak         `json:"streak"`
	History      []Event        `json:"history"`
	Study        StudySnapshot  `json:"study"`
}

// ComputeSnapshot recomputes every aggregate from state and the current
// lesson list in one pass over lessons. now fixes "today" and its zone.
func ComputeSnapshot(state State, lessons []LessonRef, now time.Time) Snapshot {
	areas := []AreaProgress{}
	areaPos := map[string]int{}
	units := []UnitProgress{}
	unitPos := map[id.UnitID]int{}

	for _, lesson := range lessons {
		done := state.IsCompleted(lesson.ID)

		a, ok := areaPos[lesson.AreaKey]
		if !ok {
			a = len(areas)
			areaPos[lesson.AreaKey] = a
			areas = append(areas, AreaProgress{Key: lesson.AreaKey, Label: lesson.AreaLabel})
		}
		areas[a].Total++

		u, ok := unitPos[lesson.UnitID]
		if !ok {
			u = len(units)
			unitPos[lesson.UnitID] = u
			units = append(units, UnitProgress{
				ID:        lesson.UnitID,
				Titulo:    lesson.UnitTitulo,
				Numero:    lesson.UnitNumero,
				AreaKey:   lesson.AreaKey,
				AreaLabel: lesson.AreaLabel,
			})
		}
		units[u].Total++

		if done {
			areas[a].Completed++
			units[u].Completed++
		}
	}

	totals := Totals{Lessons: len(lessons), LessonsCompleted: len(state.Completed)}
	for _, unit := range units {
		if unit.Total > 0 && unit.Completed >= unit.Total {
			totals.UnitsCompleted++
		}
	}
	for _, area := range areas {
		if area.Total > 0 && area.Completed >= area.Total {
			totals.AreasCompleted++
		}
	}

	return Snapshot{
		CompletedIDs: completedIDs(state.Completed),
		Totals:       totals,
		Areas:        areas,
		Units:        units,
		Streak:       ComputeStreak(state.History, now),
		History:      append([]Event{}, state.History...),
		Study:        computeStudy(state.Study, now),
	}
}

func completedIDs(completed map[id.LessonID]string) []id.LessonID {
	out := make([]id.LessonID, 0, len(completed))
	for lessonID := range completed {
		out = append(out, lessonID)
	}
	sort.Slice(out, func(i, j int) bool {
		a, aok := out[i].Int()
		b, bok := out[j].Int()
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// trailingDays returns n day keys ending today, oldest first.
func trailingDays(now time.Time, n int) []string {
	y, m, d := now.Date()
	keys := make([]string, 0, n)
	for offset := n - 1; offset >= 0; offset-- {
		keys = append(keys, time.Date(y, m, d-offset, 12, 0, 0, 0, now.Location()).Format(time.DateOnly))
	}
	return keys
}

func computeStudy(study Study, now time.Time) StudySnapshot {
	out := StudySnapshot{
		TotalMinutes:  study.TotalMinutes,
		MinutesByDay:  cloneMap(study.MinutesByDay),
		LastSevenDays: make([]DayMinutes, 0, 7),
		Sessions:      append([]SessionRecord{}, study.Sessions[max(0, len(study.Sessions)-RecentSessions):]...),
	}
	for _, day := range trailingDays(now, 7) {
		minutes := study.MinutesByDay[day]
		out.LastSevenDays = append(out.LastSevenDays, DayMinutes{Day: day, Minutes: minutes})
		out.ThisWeekMinutes += minutes
	}
	if study.LastSession != nil {
		last := *study.LastSession
		out.LastSession = &last
	}
	return out
}

// ComputeStreak counts consecutive completion days ending today. A day
// without a completion today means no live streak.
func ComputeStreak(history []Event, now time.Time) Streak {
	days := completionsByDay(history, now.Location())
	if len(days) == 0 {
		return Streak{}
	}
	count := 0
	y, m, d := now.Date()
	for offset := 0; ; offset++ {
		key := time.Date(y, m, d-offset, 12, 0, 0, 0, now.Location()).Format(time.DateOnly)
		if days[key] == 0 {
			break
		}
		count++
	}
	last := ""
	for day := range days {
		if day > last {
			last = day
		}
	}
	return Streak{Count: count, LastDate: &last}
}

// RecentActivity counts completion events per day over the trailing days,
// oldest first. Non-positive days fall back to DefaultActivityDays.
func RecentActivity(history []Event, days int, now time.Time) []DayValue {
	if days <= 0 {
		days = DefaultActivityDays
	}
	counts := completionsByDay(history, now.Location())
	out := make([]DayValue, 0, days)
	for _, day := range trailingDays(now, days) {
		out = append(out, DayValue{Day: day, Value: counts[day]})
	}
	return out
}

func completionsByDay(history []Event, loc *time.Location) map[string]int {
	counts := map[string]int{}
	for _, event := range history {
		if event.Type == EventCompleted && event.TS != "" {
			counts[DayKey(event.TS, loc)]++
		}
	}
	return counts
}
