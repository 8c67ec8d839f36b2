package dto

import "mathbot/internal/platform/id"

const (
	SignalCompleted = "lessons:completed"
	SignalOpened    = "lessons:opened"
)

type MarkInput struct {
	LessonID  string
	Completed *bool
	Timestamp string
	Force     bool
}

// SignalInput mirrors the lessons:completed and lessons:opened events the
// frontend dispatches.
type SignalInput struct {
	Type      string      `json:"type"`
	LessonID  id.LessonID `json:"lessonId"`
	Completed *bool       `json:"completed,omitempty"`
}

type ChangeOutput struct {
	LessonID  id.LessonID `json:"lessonId"`
	Changed   bool        `json:"changed"`
	Completed bool        `json:"completed"`
}

type Change struct {
	Reason    string      `json:"reason"`
	LessonID  id.LessonID `json:"lessonId"`
	Timestamp string      `json:"timestamp"`
}

type ReportOutput struct {
	Path string `json:"path"`
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

type Event struct {
	Type     string      `json:"type"`
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
