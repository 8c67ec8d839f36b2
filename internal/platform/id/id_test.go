package id_test

import (
	"encoding/json"
	"testing"

	"mathbot/internal/platform/id"
)

func TestParseCanonicalisesIntegerLikeValues(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw  any
		want id.LessonID
	}{
		{raw: 12, want: "12"},
		{raw: "12", want: "12"},
		{raw: " 12 ", want: "12"},
		{raw: "12.0", want: "12"},
		{raw: 12.0, want: "12"},
		{raw: json.Number("12"), want: "12"},
		{raw: "007", want: "7"},
		{raw: "intro-a", want: "intro-a"},
		{raw: 1.5, want: "1.5"},
	}
	for _, tc := range cases {
		got, ok := id.Parse[id.LessonID](tc.raw)
		if !ok {
			t.Fatalf("parse %#v: expected ok", tc.raw)
		}
		if got != tc.want {
			t.Fatalf("parse %#v: expected %q, got %q", tc.raw, tc.want, got)
		}
	}
}

func TestParseRejectsEmptyValues(t *testing.T) {
	t.Parallel()
	for _, raw := range []any{nil, "", "   "} {
		if _, ok := id.Parse[id.UnitID](raw); ok {
			t.Fatalf("expected %#v to be rejected", raw)
		}
	}
	if !id.Lesson(nil).IsZero() {
		t.Fatalf("nil lesson id should be zero")
	}
}

func TestLessonIDJSONRoundTrip(t *testing.T) {
	t.Parallel()
	payload, err := json.Marshal([]id.LessonID{"12", "intro"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `[12,"intro"]` {
		t.Fatalf("unexpected json: %s", payload)
	}
	var decoded []id.LessonID
	if err := json.Unmarshal([]byte(`[12,"13"," intro "]`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded[0] != "12" || decoded[1] != "13" || decoded[2] != "intro" {
		t.Fatalf("unexpected decoded ids: %#v", decoded)
	}
	if n, ok := decoded[1].Int(); !ok || n != 13 {
		t.Fatalf("expected integer 13, got %d/%t", n, ok)
	}
}
