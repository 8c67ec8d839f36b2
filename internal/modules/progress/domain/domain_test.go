package domain_test

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"mathbot/internal/modules/progress/domain"
	"mathbot/internal/platform/id"
)

var bogota = time.FixedZone("COT", -5*3600)

func ts(t time.Time) string { return domain.FormatTimestamp(t) }

func TestSessionMinutesBoundaries(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name       string
		start, end string
		want       int
	}{
		{name: "ten minutes", start: ts(start), end: ts(start.Add(10 * time.Minute)), want: 10},
		{name: "rounds half up", start: ts(start), end: ts(start.Add(90 * time.Second)), want: 2},
		{name: "short session floors at one", start: ts(start), end: ts(start.Add(10 * time.Second)), want: 1},
		{name: "clamped", start: ts(start), end: ts(start.Add(500 * time.Minute)), want: domain.MaxSessionMinutes},
		{name: "end equals start", start: ts(start), end: ts(start), want: 0},
		{name: "end before start", start: ts(start), end: ts(start.Add(-time.Minute)), want: 0},
		{name: "unparsable", start: "yesterday", end: ts(start), want: 0},
		{name: "without millis", start: "2026-03-02T10:00:00Z", end: "2026-03-02T10:05:00Z", want: 5},
	}
	for _, tc := range cases {
		if got := domain.SessionMinutes(tc.start, tc.end); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestDayKeyUsesLocationAndFallsBack(t *testing.T) {
	t.Parallel()
	if got := domain.DayKey("2026-03-02T03:00:00.000Z", bogota); got != "2026-03-01" {
		t.Fatalf("expected local day, got %s", got)
	}
	if got := domain.DayKey("2026-03-02 garbage", bogota); got != "2026-03-02" {
		t.Fatalf("expected prefix fallback, got %s", got)
	}
	if got := domain.DayKey("2026-03-10", bogota); got != "2026-03-10" {
		t.Fatalf("bare date must keep its own day, got %s", got)
	}
}

func TestParseTimestampInReadsBareDatesAsLocalMidnight(t *testing.T) {
	t.Parallel()
	local, ok := domain.ParseTimestampIn("2026-03-10", bogota)
	if !ok || domain.FormatTimestamp(local) != "2026-03-10T05:00:00.000Z" {
		t.Fatalf("expected local midnight, got %s/%t", domain.FormatTimestamp(local), ok)
	}
	utc, ok := domain.ParseTimestamp("2026-03-10")
	if !ok || domain.FormatTimestamp(utc) != "2026-03-10T00:00:00.000Z" {
		t.Fatalf("expected utc midnight, got %s/%t", domain.FormatTimestamp(utc), ok)
	}
	full, ok := domain.ParseTimestampIn("2026-03-10T12:00:00.000Z", bogota)
	if !ok || domain.FormatTimestamp(full) != "2026-03-10T12:00:00.000Z" {
		t.Fatalf("offset timestamps ignore loc, got %s", domain.FormatTimestamp(full))
	}
	if _, ok := domain.ParseTimestampIn("10/03/2026", bogota); ok {
		t.Fatalf("expected rejection of unknown layout")
	}
}

func TestHistoryIsASlidingWindow(t *testing.T) {
	t.Parallel()
	state := domain.NewState()
	for i := 0; i < domain.MaxHistory+1; i++ {
		state.AppendHistory(domain.Event{Type: domain.EventOpened, LessonID: id.Lesson(i + 1), TS: "2026-01-01T00:00:00.000Z"})
	}
	if len(state.History) != domain.MaxHistory {
		t.Fatalf("expected %d entries, got %d", domain.MaxHistory, len(state.History))
	}
	if state.History[0].LessonID != "2" || state.History[len(state.History)-1].LessonID != "401" {
		t.Fatalf("expected oldest entry dropped, got first=%s last=%s", state.History[0].LessonID, state.History[len(state.History)-1].LessonID)
	}
}

func TestSessionsAreCapped(t *testing.T) {
	t.Parallel()
	state := domain.NewState()
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	for i := 0; i < domain.MaxSessions+5; i++ {
		from := start.Add(time.Duration(i) * time.Hour)
		state.RecordStudySession(id.Lesson(i+1), ts(from), ts(from.Add(2*time.Minute)), time.UTC)
	}
	if len(state.Study.Sessions) != domain.MaxSessions {
		t.Fatalf("expected %d sessions, got %d", domain.MaxSessions, len(state.Study.Sessions))
	}
	if state.Study.Sessions[0].LessonID != "6" {
		t.Fatalf("expected oldest sessions trimmed, got %s", state.Study.Sessions[0].LessonID)
	}
	if state.Study.TotalMinutes != 2*(domain.MaxSessions+5) {
		t.Fatalf("total minutes must keep trimmed sessions, got %d", state.Study.TotalMinutes)
	}
}

func TestCompleteIsIdempotentWithoutForce(t *testing.T) {
	t.Parallel()
	state := domain.NewState()
	changed, _ := state.Complete("12", "2026-03-02T10:00:00.000Z", false, time.UTC)
	if !changed {
		t.Fatalf("first completion must change state")
	}
	before := state.Clone()
	changed, _ = state.Complete("12", "2026-03-02T11:00:00.000Z", false, time.UTC)
	if changed {
		t.Fatalf("second completion without force must be a no-op")
	}
	if state.Completed["12"] != before.Completed["12"] || len(state.History) != len(before.History) {
		t.Fatalf("state mutated by idempotent completion")
	}
	changed, _ = state.Complete("12", "2026-03-02T11:00:00.000Z", true, time.UTC)
	if !changed || state.Completed["12"] != "2026-03-02T11:00:00.000Z" {
		t.Fatalf("forced completion must overwrite the timestamp")
	}
}

func TestUncompleteDiscardsActiveSession(t *testing.T) {
	t.Parallel()
	state := domain.NewState()
	if state.Uncomplete("3", "2026-03-02T10:00:00.000Z") {
		t.Fatalf("uncompleting an open lesson must be a no-op")
	}
	state.Complete("3", "2026-03-02T10:00:00.000Z", false, time.UTC)
	state.Active["3"] = domain.ActiveSession{StartedAt: "2026-03-02T09:00:00.000Z"}
	if !state.Uncomplete("3", "2026-03-02T10:30:00.000Z") {
		t.Fatalf("expected uncomplete to change state")
	}
	if _, ok := state.Active["3"]; ok {
		t.Fatalf("active session must be cleared")
	}
	if len(state.Study.Sessions) != 0 {
		t.Fatalf("uncomplete must not record a session")
	}
	if last := state.History[len(state.History)-1]; last.Type != domain.EventUncompleted {
		t.Fatalf("unexpected last event: %+v", last)
	}
}

func TestCompletedAndActiveNeverOverlap(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(7))
	state := domain.NewState()
	clock := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	for step := 0; step < 2000; step++ {
		clock = clock.Add(time.Duration(rng.Intn(300)) * time.Second)
		lessonID := id.Lesson(rng.Intn(6) + 1)
		switch rng.Intn(4) {
		case 0:
			state.Open(lessonID, ts(clock))
		case 1:
			state.Complete(lessonID, ts(clock), false, time.UTC)
		case 2:
			state.Complete(lessonID, ts(clock), true, time.UTC)
		case 3:
			state.Uncomplete(lessonID, ts(clock))
		}
		for completed := range state.Completed {
			if _, ok := state.Active[completed]; ok {
				t.Fatalf("step %d: lesson %s is both completed and active", step, completed)
			}
		}
		if len(state.History) > domain.MaxHistory || len(state.Study.Sessions) > domain.MaxSessions {
			t.Fatalf("step %d: caps exceeded", step)
		}
	}
}

func TestStreakScenarios(t *testing.T) {
	t.Parallel()
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, bogota)
	at := func(daysAgo int) domain.Event {
		return domain.Event{Type: domain.EventCompleted, LessonID: "1", TS: ts(today.AddDate(0, 0, -daysAgo))}
	}

	streak := domain.ComputeStreak([]domain.Event{at(0), at(1), at(2)}, today)
	if streak.Count != 3 || streak.LastDate == nil || *streak.LastDate != "2026-03-10" {
		t.Fatalf("unexpected live streak: %+v", streak)
	}

	streak = domain.ComputeStreak([]domain.Event{at(1), at(2)}, today)
	if streak.Count != 0 || *streak.LastDate != "2026-03-09" {
		t.Fatalf("streak without today must be zero: %+v", streak)
	}

	streak = domain.ComputeStreak([]domain.Event{at(0), at(2), at(3)}, today)
	if streak.Count != 1 {
		t.Fatalf("gap yesterday must stop the walk: %+v", streak)
	}

	streak = domain.ComputeStreak([]domain.Event{{Type: domain.EventOpened, TS: ts(today)}}, today)
	if streak.Count != 0 || streak.LastDate != nil {
		t.Fatalf("no completions means no streak: %+v", streak)
	}
}

func TestStreakCountsLocalDays(t *testing.T) {
	t.Parallel()
	// 02:00Z on the 11th is still the 10th in Bogota.
	now := time.Date(2026, 3, 10, 22, 0, 0, 0, bogota)
	history := []domain.Event{{Type: domain.EventCompleted, TS: "2026-03-11T02:00:00.000Z"}}
	if got := domain.ComputeStreak(history, now); got.Count != 1 {
		t.Fatalf("expected completion to land on local today, got %+v", got)
	}
}

func TestRecentActivityZeroFills(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	history := []domain.Event{
		{Type: domain.EventCompleted, TS: "2026-03-10T08:00:00.000Z"},
		{Type: domain.EventCompleted, TS: "2026-03-10T08:30:00.000Z"},
		{Type: domain.EventCompleted, TS: "2026-03-08T08:00:00.000Z"},
		{Type: domain.EventOpened, TS: "2026-03-09T08:00:00.000Z"},
		{Type: domain.EventCompleted, TS: "2026-02-01T08:00:00.000Z"},
	}
	got := domain.RecentActivity(history, 0, now)
	if len(got) != domain.DefaultActivityDays {
		t.Fatalf("expected default range, got %d", len(got))
	}
	if got[0].Day != "2026-03-04" || got[6].Day != "2026-03-10" {
		t.Fatalf("unexpected range: %s..%s", got[0].Day, got[6].Day)
	}
	if got[6].Value != 2 || got[5].Value != 0 || got[4].Value != 1 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if got := domain.RecentActivity(history, 3, now); len(got) != 3 {
		t.Fatalf("expected 3 days, got %d", len(got))
	}
}

func TestComputeSnapshotAggregates(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	lessons := []domain.LessonRef{
		{ID: "1", AreaKey: "algebra", AreaLabel: "Algebra", UnitID: "10", UnitTitulo: "Ecuaciones"},
		{ID: "2", AreaKey: "algebra", AreaLabel: "Algebra", UnitID: "10", UnitTitulo: "Ecuaciones"},
		{ID: "3", AreaKey: "algebra", AreaLabel: "Algebra", UnitID: "11", UnitTitulo: "Polinomios"},
		{ID: "4", AreaKey: "calculo", AreaLabel: "Calculo", UnitID: "20", UnitTitulo: "Limites"},
	}
	state := domain.NewState()
	state.Complete("1", "2026-03-10T08:00:00.000Z", false, time.UTC)
	state.Complete("2", "2026-03-10T08:10:00.000Z", false, time.UTC)
	state.Complete("4", "2026-03-09T08:00:00.000Z", false, time.UTC)
	state.Complete("orphan", "2026-03-09T08:00:00.000Z", false, time.UTC)
	state.RecordStudySession("1", "2026-03-10T07:00:00.000Z", "2026-03-10T07:25:00.000Z", time.UTC)
	state.RecordStudySession("4", "2026-03-01T07:00:00.000Z", "2026-03-01T07:40:00.000Z", time.UTC)

	snap := domain.ComputeSnapshot(state, lessons, now)
	want := domain.Totals{Lessons: 4, LessonsCompleted: 4, UnitsCompleted: 2, AreasCompleted: 1}
	if snap.Totals != want {
		t.Fatalf("expected totals %+v, got %+v", want, snap.Totals)
	}
	if len(snap.Areas) != 2 || snap.Areas[0].Total != 3 || snap.Areas[0].Completed != 2 {
		t.Fatalf("unexpected areas: %+v", snap.Areas)
	}
	if len(snap.Units) != 3 || snap.Units[1].ID != "11" || snap.Units[1].Completed != 0 {
		t.Fatalf("unexpected units: %+v", snap.Units)
	}
	if fmt.Sprint(snap.CompletedIDs) != "[1 2 4 orphan]" {
		t.Fatalf("unexpected completed ids: %v", snap.CompletedIDs)
	}
	if snap.Streak.Count != 2 {
		t.Fatalf("expected two-day streak, got %+v", snap.Streak)
	}
	if len(snap.Study.LastSevenDays) != 7 || snap.Study.LastSevenDays[6].Minutes != 25 {
		t.Fatalf("unexpected last seven days: %+v", snap.Study.LastSevenDays)
	}
	if snap.Study.ThisWeekMinutes != 25 || snap.Study.TotalMinutes != 65 {
		t.Fatalf("unexpected study totals: week=%d total=%d", snap.Study.ThisWeekMinutes, snap.Study.TotalMinutes)
	}

	snap.History[0].LessonID = "mutated"
	if state.History[0].LessonID == "mutated" {
		t.Fatalf("snapshot history aliases state")
	}
}

func TestStateRoundTrip(t *testing.T) {
	t.Parallel()
	state := domain.NewState()
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 450; i++ {
		lessonID := id.Lesson(i%9 + 1)
		at := start.Add(time.Duration(i) * 7 * time.Minute)
		if i%3 == 0 {
			state.Open(lessonID, ts(at))
		} else {
			state.Complete(lessonID, ts(at), true, time.UTC)
		}
	}
	raw, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded, err := domain.DecodeState(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fmt.Sprint(loaded.Completed) != fmt.Sprint(state.Completed) || fmt.Sprint(loaded.Opened) != fmt.Sprint(state.Opened) {
		t.Fatalf("completed/opened changed across round trip")
	}
	if loaded.Study.TotalMinutes != state.Study.TotalMinutes {
		t.Fatalf("total minutes changed: %d vs %d", loaded.Study.TotalMinutes, state.Study.TotalMinutes)
	}
	if len(loaded.History) != len(state.History) {
		t.Fatalf("history length changed: %d vs %d", len(loaded.History), len(state.History))
	}
	for i := range state.History {
		if loaded.History[i] != state.History[i] {
			t.Fatalf("history entry %d differs: %+v vs %+v", i, loaded.History[i], state.History[i])
		}
	}
}

func TestDecodeStateUpgradesAndRepairs(t *testing.T) {
	t.Parallel()
	raw := []byte(`{
		"completed": {"12": "2026-03-01T10:00:00.000Z", "12.0": "2026-03-01T11:00:00.000Z", "": "x"},
		"opened": null,
		"active": "broken",
		"history": [{"type": "completed", "lessonId": 12, "ts": "2026-03-01T10:00:00.000Z"}, 5, {"lessonId": 3}],
		"study": {"totalMinutes": "NaN", "minutesByDay": {"2026-03-01": 12.6}, "sessions": {}}
	}`)
	state, err := domain.DecodeState(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Version != domain.CurrentVersion {
		t.Fatalf("expected version stamp, got %d", state.Version)
	}
	if len(state.Completed) != 1 || !state.IsCompleted("12") {
		t.Fatalf("expected canonical completed map, got %v", state.Completed)
	}
	if state.Opened == nil || state.Active == nil || state.Study.Sessions == nil {
		t.Fatalf("missing collections must be filled")
	}
	if len(state.History) != 1 || state.History[0].LessonID != "12" {
		t.Fatalf("unexpected history: %+v", state.History)
	}
	if state.Study.TotalMinutes != 0 || state.Study.MinutesByDay["2026-03-01"] != 13 {
		t.Fatalf("unexpected study: %+v", state.Study)
	}

	for _, bad := range []string{`not json`, `null`, `[1,2]`} {
		if _, err := domain.DecodeState([]byte(bad)); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
}

func TestDecodeStateDropsActiveSessionsOfCompletedLessons(t *testing.T) {
	t.Parallel()
	raw := []byte(`{
		"version": 2,
		"completed": {"12": "2026-03-01T10:00:00.000Z"},
		"active": {"12": {"startedAt": "2026-03-01T11:00:00.000Z"}, "13": {"startedAt": "2026-03-01T11:30:00.000Z"}}
	}`)
	state, err := domain.DecodeState(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := state.Active["12"]; ok {
		t.Fatalf("completed lesson kept an active session: %+v", state.Active)
	}
	if state.Active["13"].StartedAt != "2026-03-01T11:30:00.000Z" {
		t.Fatalf("pending lesson lost its active session: %+v", state.Active)
	}
}
