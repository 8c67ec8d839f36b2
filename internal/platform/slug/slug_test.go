package slug_test

import (
	"strings"
	"testing"

	"mathbot/internal/platform/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"Ecuaciones lineales", "ecuaciones-lineales"},
		{"  Ecuación de la recta  ", "ecuacion-de-la-recta"},
		{"Álgebra / Geometría (1.2)", "algebra-geometria-1-2"},
		{"Niño y pingüino", "nino-y-pinguino"},
		{"mb_lessons_progress_v1", "mb-lessons-progress-v1"},
		{"¿?", "untitled"},
		{"", "untitled"},
	}
	for _, tc := range cases {
		if got := slug.Make(tc.in); got != tc.want {
			t.Fatalf("Make(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMakeTruncatesAtWordBoundary(t *testing.T) {
	t.Parallel()
	got := slug.Make(strings.Repeat("derivada ", 20))
	if len(got) > 64 || strings.HasSuffix(got, "-") || !strings.HasPrefix(got, "derivada-derivada") {
		t.Fatalf("unexpected truncated slug %q", got)
	}
	if strings.Count(got, "derivad") != strings.Count(got, "derivada") {
		t.Fatalf("slug cut inside a word: %q", got)
	}
}
