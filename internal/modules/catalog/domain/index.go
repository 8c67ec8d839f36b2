package domain

import (
	"strings"

	"mathbot/internal/platform/id"
)

// Index is the published, normalized catalog. Lookup maps store positions
// into Units and Lessons so clones can share them.
type Index struct {
	Units   []Unit
	Lessons []Lesson
	Totals  Totals
	Areas   []AreaSummary

	lessonsByID map[id.LessonID]int
	unitsByID   map[id.UnitID]int
	areaByKey   map[string]int
	areaUnits   [][]int
}

func newIndex() Index {
	return Index{
		Units:       []Unit{},
		Lessons:     []Lesson{},
		Areas:       []AreaSummary{},
		lessonsByID: map[id.LessonID]int{},
		unitsByID:   map[id.UnitID]int{},
		areaByKey:   map[string]int{},
	}
}

// Clone returns a deep copy of the entity slices.
func (x Index) Clone() Index {
	out := x
	out.Units = x.UnitList()
	out.Lessons = x.LessonList()
	out.Areas = x.AreaList()
	return out
}

func (x Index) LessonList() []Lesson {
	return append([]Lesson{}, x.Lessons...)
}

func (x Index) UnitList() []Unit {
	out := make([]Unit, len(x.Units))
	for i, unit := range x.Units {
		out[i] = unit.clone()
	}
	return out
}

func (x Index) AreaList() []AreaSummary {
	return append([]AreaSummary{}, x.Areas...)
}

// Lesson resolves raw (number or string) to a lesson.
func (x Index) Lesson(raw any) (Lesson, bool) {
	key, ok := id.Parse[id.LessonID](raw)
	if !ok {
		return Lesson{}, false
	}
	pos, ok := x.lessonsByID[key]
	if !ok {
		return Lesson{}, false
	}
	return x.Lessons[pos], true
}

func (x Index) Unit(raw any) (Unit, bool) {
	key, ok := id.Parse[id.UnitID](raw)
	if !ok {
		return Unit{}, false
	}
	pos, ok := x.unitsByID[key]
	if !ok {
		return Unit{}, false
	}
	return x.Units[pos].clone(), true
}

func (x Index) UnitsByArea(areaKey string) []Unit {
	area, ok := x.areaByKey[AreaKey(areaKey)]
	if !ok {
		return []Unit{}
	}
	out := make([]Unit, 0, len(x.areaUnits[area]))
	for _, pos := range x.areaUnits[area] {
		out = append(out, x.Units[pos].clone())
	}
	return out
}

// Search is a case-insensitive substring match over lesson, topic and unit
// titles and the lesson preview.
func (x Index) Search(query string, limit int) []Lesson {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []Lesson{}
	}
	out := []Lesson{}
	for _, lesson := range x.Lessons {
		haystack := strings.ToLower(strings.Join([]string{lesson.Nombre, lesson.Preview, lesson.TopicTitulo, lesson.UnitTitulo}, "\n"))
		if !strings.Contains(haystack, needle) {
			continue
		}
		out = append(out, lesson)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
