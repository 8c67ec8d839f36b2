package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"mathbot/internal/platform/id"
)

const (
	NoAreaKey   = "sin-area"
	NoAreaLabel = "Sin area"

	ReasonIndexLoaded = "index-loaded"
)

var areaLabels = map[string]string{
	"precalculo":  "Precalculo",
	"algebra":     "Algebra",
	"geometria":   "Geometria",
	"estadistica": "Estadistica",
	"calculo":     "Calculo",
}

type Lesson struct {
	ID          id.LessonID `json:"id"`
	Numero      string      `json:"numero"`
	Nombre      string      `json:"nombre"`
	Preview     string      `json:"preview"`
	AreaKey     string      `json:"areaKey"`
	AreaLabel   string      `json:"areaLabel"`
	UnitID      id.UnitID   `json:"unitId"`
	UnitNumero  string      `json:"unitNumero"`
	UnitTitulo  string      `json:"unitTitulo"`
	TopicID     id.TopicID  `json:"topicId"`
	TopicNumero string      `json:"topicNumero"`
	TopicTitulo string      `json:"topicTitulo"`
}

type Topic struct {
	ID           id.TopicID `json:"id"`
	Numero       string     `json:"numero"`
	Titulo       string     `json:"titulo"`
	Lessons      []Lesson   `json:"lecciones"`
	LessonsCount int        `json:"leccionesCount"`
}

type Unit struct {
	ID           id.UnitID `json:"id"`
	Numero       string    `json:"numero"`
	Titulo       string    `json:"titulo"`
	AreaKey      string    `json:"areaKey"`
	AreaLabel    string    `json:"areaLabel"`
	Topics       []Topic   `json:"temas"`
	TopicsCount  int       `json:"temasCount"`
	LessonsCount int       `json:"lessonsCount"`
}

type AreaSummary struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	UnitCount   int    `json:"unitCount"`
	LessonCount int    `json:"lessonCount"`
	TopicCount  int    `json:"topicCount"`
}

type Totals struct {
	Units   int `json:"units"`
	Lessons int `json:"lessons"`
	Topics  int `json:"topics"`
}

// Event is delivered to catalog subscribers after every publish.
type Event struct {
	Reason string
	Index  Index
}

func (t Topic) clone() Topic {
	t.Lessons = append([]Lesson(nil), t.Lessons...)
	return t
}

func (u Unit) clone() Unit {
	topics := make([]Topic, len(u.Topics))
	for i, topic := range u.Topics {
		topics[i] = topic.clone()
	}
	u.Topics = topics
	return u
}

// NormalizeArea maps a raw area name to its lookup key and display label.
func NormalizeArea(raw any) (string, string) {
	key := strings.ToLower(strings.TrimSpace(text(raw)))
	if key == "" {
		return NoAreaKey, NoAreaLabel
	}
	if label, ok := areaLabels[key]; ok {
		return key, label
	}
	return key, upperFirst(key)
}

// AreaKey normalizes a caller-supplied area key for lookups.
func AreaKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return NoAreaKey
	}
	return key
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// DecodeUnits decodes a raw unit list keeping numbers as json.Number so
// integer ids are not widened to floats.
func DecodeUnits(raw []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode units: %w", err)
	}
	return out, nil
}

// Normalize turns the raw nested unidades payload into an Index in a single
// traversal. Anything that is not a list where a list is expected counts as
// empty, and entries that are not objects are skipped.
func Normalize(raw any) Index {
	idx := newIndex()
	for _, rawUnit := range list(raw) {
		unitFields, ok := object(rawUnit)
		if !ok {
			continue
		}
		areaKey, areaLabel := NormalizeArea(unitFields["area"])
		unit := Unit{
			ID:        id.Unit(pick(unitFields, "id", "id_unidad")),
			Numero:    text(unitFields["numero"]),
			Titulo:    text(unitFields["titulo"]),
			AreaKey:   areaKey,
			AreaLabel: areaLabel,
			Topics:    []Topic{},
		}

		area, seen := idx.areaByKey[areaKey]
		if !seen {
			area = len(idx.Areas)
			idx.areaByKey[areaKey] = area
			idx.Areas = append(idx.Areas, AreaSummary{Key: areaKey, Label: areaLabel})
			idx.areaUnits = append(idx.areaUnits, nil)
		}
		idx.Areas[area].UnitCount++

		for _, rawTopic := range list(unitFields["temas"]) {
			topicFields, ok := object(rawTopic)
			if !ok {
				continue
			}
			topic := Topic{
				ID:      id.Topic(pick(topicFields, "id", "id_tema")),
				Numero:  text(topicFields["numero"]),
				Titulo:  text(topicFields["titulo"]),
				Lessons: []Lesson{},
			}
			for _, rawLesson := range list(topicFields["lecciones"]) {
				lessonFields, ok := object(rawLesson)
				if !ok {
					continue
				}
				lesson := Lesson{
					ID:          id.Lesson(pick(lessonFields, "id", "id_leccion")),
					Numero:      text(lessonFields["numero"]),
					Nombre:      text(lessonFields["nombre"]),
					Preview:     text(lessonFields["preview"]),
					AreaKey:     areaKey,
					AreaLabel:   areaLabel,
					UnitID:      unit.ID,
					UnitNumero:  unit.Numero,
					UnitTitulo:  unit.Titulo,
					TopicID:     topic.ID,
					TopicNumero: topic.Numero,
					TopicTitulo: topic.Titulo,
				}
				topic.Lessons = append(topic.Lessons, lesson)
				if !lesson.ID.IsZero() {
					idx.lessonsByID[lesson.ID] = len(idx.Lessons)
				}
				idx.Lessons = append(idx.Lessons, lesson)
			}
			topic.LessonsCount = len(topic.Lessons)
			unit.LessonsCount += topic.LessonsCount
			unit.Topics = append(unit.Topics, topic)
			idx.Areas[area].LessonCount += topic.LessonsCount
			idx.Totals.Topics++
		}
		unit.TopicsCount = len(unit.Topics)
		idx.Areas[area].TopicCount += unit.TopicsCount

		if !unit.ID.IsZero() {
			idx.unitsByID[unit.ID] = len(idx.Units)
		}
		idx.areaUnits[area] = append(idx.areaUnits[area], len(idx.Units))
		idx.Units = append(idx.Units, unit)
	}
	idx.Totals.Units = len(idx.Units)
	idx.Totals.Lessons = len(idx.Lessons)
	return idx
}

func list(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	default:
		return nil
	}
}

func object(raw any) (map[string]any, bool) {
	fields, ok := raw.(map[string]any)
	return fields, ok && fields != nil
}

func pick(fields map[string]any, primary, legacy string) any {
	if v, ok := fields[primary]; ok && v != nil {
		return v
	}
	return fields[legacy]
}

func text(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
