package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mathbot/internal/modules/progress/domain"
	progressout "mathbot/internal/modules/progress/port/out"
	"mathbot/internal/platform/markdown"
	"mathbot/internal/platform/slug"
)

const (
	journalSchemaVersion = 1
	maxNoteSuffix        = 999
)

type VaultSessionJournal struct {
	dataDir string
	loc     *time.Location
}

// NewVaultSessionJournal writes notes under <dataDir>/sessions, dated in loc.
func NewVaultSessionJournal(dataDir string, loc *time.Location) progressout.SessionJournal {
	if loc == nil {
		loc = time.Local
	}
	return &VaultSessionJournal{dataDir: dataDir, loc: loc}
}

func (j *VaultSessionJournal) Record(_ context.Context, session domain.SessionRecord, lesson domain.LessonRef) (string, error) {
	started, ok := domain.ParseTimestamp(session.StartedAt)
	if !ok {
		return "", fmt.Errorf("session start %q is not a timestamp", session.StartedAt)
	}
	started = started.In(j.loc)
	dir := filepath.Join(j.dataDir, "sessions", started.Format("2006"), started.Format("01"), started.Format("02"))

	title := lesson.Nombre
	if title == "" {
		title = "lesson " + lesson.ID.String()
	}
	path, err := claimNotePath(dir, started.Format("150405")+"-"+slug.Make(title))
	if err != nil {
		return "", err
	}

	meta := map[string]any{
		"schema_version":   journalSchemaVersion,
		"lesson_id":        session.LessonID.String(),
		"lesson":           title,
		"started_at":       session.StartedAt,
		"ended_at":         session.EndedAt,
		"duration_minutes": session.Minutes,
	}
	if lesson.AreaKey != "" {
		meta["area"] = lesson.AreaKey
	}
	if !lesson.UnitID.IsZero() {
		meta["unit_id"] = lesson.UnitID.String()
		meta["unit"] = lesson.UnitTitulo
	}
	body := fmt.Sprintf("# Study session\n\n- Lesson: [[%s]]\n- Area: %s\n- Duration: %d minutes\n", title, areaOrNone(lesson), session.Minutes)
	note := markdown.Note{Meta: meta, Body: body}
	if err := note.Save(path); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write session note: %w", err)
	}
	return path, nil
}

// claimNotePath reserves base.md in dir, or base-2.md, base-3.md and so on
// when an earlier session already owns the name. Sessions restarted from the
// same opened timestamp share a start second.
func claimNotePath(dir, base string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	for n := 1; n <= maxNoteSuffix; n++ {
		name := base + ".md"
		if n > 1 {
			name = fmt.Sprintf("%s-%d.md", base, n)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_ = f.Close()
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("claim session note: %w", err)
		}
	}
	return "", fmt.Errorf("claim session note: %d notes already named %s", maxNoteSuffix, base)
}

func areaOrNone(lesson domain.LessonRef) string {
	if lesson.AreaLabel == "" {
		return "-"
	}
	return lesson.AreaLabel
}
