package markdown_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mathbot/internal/platform/markdown"
)

func TestParseSplitsFrontmatter(t *testing.T) {
	t.Parallel()
	note, err := markdown.Parse("---\nlesson_id: \"12\"\nduration_minutes: 15\n---\n# Study session\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if note.Meta["lesson_id"] != "12" || note.Meta["duration_minutes"] != 15 {
		t.Fatalf("unexpected meta: %#v", note.Meta)
	}
	if note.Body != "# Study session\n" {
		t.Fatalf("unexpected body %q", note.Body)
	}

	plain, err := markdown.Parse("just text")
	if err != nil || plain.Body != "just text" || len(plain.Meta) != 0 {
		t.Fatalf("plain note: %#v %v", plain, err)
	}

	if _, err := markdown.Parse("---\nbroken: true\n"); err == nil {
		t.Fatalf("expected missing separator error")
	}
}

func TestSetBlockReplacesOnlyManagedText(t *testing.T) {
	t.Parallel()
	note := markdown.Note{Body: "# Progreso\n\nMis notas."}
	note.SetBlock("mathbot:progress", "| a | 1 |\n")
	if !strings.HasPrefix(note.Body, "# Progreso\n\nMis notas.\n\n<!-- mathbot:progress:start -->\n| a | 1 |\n<!-- mathbot:progress:end -->") {
		t.Fatalf("unexpected appended body %q", note.Body)
	}

	note.Body += "\nDespues.\n"
	note.SetBlock("mathbot:progress", "| b | 2 |")
	block, ok := note.Block("mathbot:progress")
	if !ok || block != "| b | 2 |" {
		t.Fatalf("unexpected block %q/%t", block, ok)
	}
	if !strings.Contains(note.Body, "Mis notas.") || !strings.Contains(note.Body, "Despues.") {
		t.Fatalf("user text lost: %q", note.Body)
	}
	if strings.Count(note.Body, "mathbot:progress:start") != 1 {
		t.Fatalf("block duplicated: %q", note.Body)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "progress.md")

	missing, err := markdown.Load(path, "# Progreso\n")
	if err != nil || missing.Body != "# Progreso\n" {
		t.Fatalf("load missing: %#v %v", missing, err)
	}

	missing.Meta["streak"] = 3
	missing.SetBlock("mathbot:progress", "ok")
	if err := missing.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := markdown.Load(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Meta["streak"] != 3 {
		t.Fatalf("unexpected meta %#v", loaded.Meta)
	}
	if block, _ := loaded.Block("mathbot:progress"); block != "ok" {
		t.Fatalf("unexpected block %q", block)
	}
}

func TestLoadKeepsUnparsableNotesAsBody(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "progress.md")
	raw := "---\n: : :\n---\nMis notas.\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	note, err := markdown.Load(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if note.Body != raw {
		t.Fatalf("expected verbatim body, got %q", note.Body)
	}
}
