package domain

import (
	"time"

	"mathbot/internal/platform/id"
)

func (s *State) IsCompleted(lessonID id.LessonID) bool {
	_, ok := s.Completed[lessonID]
	return ok
}

// AppendHistory adds event and drops the oldest entries beyond MaxHistory.
func (s *State) AppendHistory(event Event) {
	s.History = append(s.History, event)
	if over := len(s.History) - MaxHistory; over > 0 {
		s.History = append([]Event(nil), s.History[over:]...)
	}
}

// RecordStudySession turns [startedAt, endedAt] into a session record. Sessions
// that round to zero minutes are dropped.
func (s *State) RecordStudySession(lessonID id.LessonID, startedAt, endedAt string, loc *time.Location) (SessionRecord, bool) {
	minutes := SessionMinutes(startedAt, endedAt)
	if minutes == 0 {
		return SessionRecord{}, false
	}
	record := SessionRecord{LessonID: lessonID, StartedAt: startedAt, EndedAt: endedAt, Minutes: minutes}
	s.Study.TotalMinutes += minutes
	s.Study.MinutesByDay[DayKey(endedAt, loc)] += minutes
	s.Study.Sessions = append(s.Study.Sessions, record)
	if over := len(s.Study.Sessions) - MaxSessions; over > 0 {
		s.Study.Sessions = append([]SessionRecord(nil), s.Study.Sessions[over:]...)
	}
	last := record
	s.Study.LastSession = &last
	s.AppendHistory(Event{Type: EventStudy, LessonID: lessonID, TS: endedAt, Minutes: minutes})
	return record, true
}

// finalizeActive closes the lesson's study interval, anchored at the active
// session or else the last open, and clears the active marker.
func (s *State) finalizeActive(lessonID id.LessonID, endedAt string, loc *time.Location) (SessionRecord, bool) {
	startedAt := s.Opened[lessonID]
	if active, ok := s.Active[lessonID]; ok && active.StartedAt != "" {
		startedAt = active.StartedAt
	}
	delete(s.Active, lessonID)
	if startedAt == "" {
		return SessionRecord{}, false
	}
	return s.RecordStudySession(lessonID, startedAt, endedAt, loc)
}

// Complete marks lessonID done at ts. It is a no-op for an already completed
// lesson unless force is set.
func (s *State) Complete(lessonID id.LessonID, ts string, force bool, loc *time.Location) (changed bool, session *SessionRecord) {
	if s.IsCompleted(lessonID) && !force {
		return false, nil
	}
	s.Completed[lessonID] = ts
	s.AppendHistory(Event{Type: EventCompleted, LessonID: lessonID, TS: ts})
	if record, ok := s.finalizeActive(lessonID, ts, loc); ok {
		return true, &record
	}
	return true, nil
}

// Uncomplete clears a completion. Any active session is discarded without
// being recorded.
func (s *State) Uncomplete(lessonID id.LessonID, ts string) bool {
	if !s.IsCompleted(lessonID) {
		return false
	}
	delete(s.Completed, lessonID)
	s.AppendHistory(Event{Type: EventUncompleted, LessonID: lessonID, TS: ts})
	delete(s.Active, lessonID)
	return true
}

// Open records that lessonID was opened at ts and (re)anchors its active
// session. Completed lessons never get an active session.
func (s *State) Open(lessonID id.LessonID, ts string) {
	s.Opened[lessonID] = ts
	if !s.IsCompleted(lessonID) {
		s.Active[lessonID] = ActiveSession{StartedAt: ts}
	}
	s.AppendHistory(Event{Type: EventOpened, LessonID: lessonID, TS: ts})
}
