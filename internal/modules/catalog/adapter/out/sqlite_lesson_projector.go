package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mathbot/internal/modules/catalog/domain"
	"mathbot/internal/platform/id"

	_ "modernc.org/sqlite"
)

type SQLiteLessonProjector struct {
	db *sql.DB
}

func NewSQLiteLessonProjector(dbPath string) (*SQLiteLessonProjector, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	projector := &SQLiteLessonProjector{db: db}
	if err := projector.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return projector, nil
}

func (s *SQLiteLessonProjector) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS lessons (
  id TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  nombre TEXT NOT NULL,
  preview TEXT NOT NULL,
  area_key TEXT NOT NULL,
  unit_id TEXT NOT NULL,
  unit_titulo TEXT NOT NULL,
  topic_titulo TEXT NOT NULL,
  haystack TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS lessons_area_idx ON lessons(area_key);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create lessons table: %w", err)
	}
	return nil
}

// Replace swaps the whole projection in one transaction.
func (s *SQLiteLessonProjector) Replace(ctx context.Context, lessons []domain.Lesson) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lessons projection: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons`); err != nil {
		return fmt.Errorf("reset lessons: %w", err)
	}
	const stmt = `
INSERT INTO lessons (id, position, nombre, preview, area_key, unit_id, unit_titulo, topic_titulo, haystack)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  position=excluded.position,
  nombre=excluded.nombre,
  preview=excluded.preview,
  area_key=excluded.area_key,
  unit_id=excluded.unit_id,
  unit_titulo=excluded.unit_titulo,
  topic_titulo=excluded.topic_titulo,
  haystack=excluded.haystack;
`
	insert, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("prepare lesson insert: %w", err)
	}
	defer insert.Close()

	for position, lesson := range lessons {
		if lesson.ID.IsZero() {
			continue
		}
		haystack := strings.ToLower(strings.Join([]string{lesson.Nombre, lesson.Preview, lesson.TopicTitulo, lesson.UnitTitulo}, "\n"))
		if _, err := insert.ExecContext(ctx,
			lesson.ID.String(),
			position,
			lesson.Nombre,
			lesson.Preview,
			lesson.AreaKey,
			lesson.UnitID.String(),
			lesson.UnitTitulo,
			lesson.TopicTitulo,
			haystack,
		); err != nil {
			return fmt.Errorf("insert lesson %s: %w", lesson.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lessons projection: %w", err)
	}
	return nil
}

func (s *SQLiteLessonProjector) Search(ctx context.Context, query string, limit int) ([]id.LessonID, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []id.LessonID{}, nil
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id FROM lessons
WHERE haystack LIKE ? ESCAPE '\'
ORDER BY position
LIMIT ?`, "%"+escapeLike(needle)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search lessons: %w", err)
	}
	defer rows.Close()

	out := []id.LessonID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan lesson id: %w", err)
		}
		out = append(out, id.Lesson(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}
	return out, nil
}

func (s *SQLiteLessonProjector) Close() error {
	return s.db.Close()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
