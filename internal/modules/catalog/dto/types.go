package dto

import "mathbot/internal/platform/id"

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

type IndexOutput struct {
	Units   []Unit        `json:"units"`
	Lessons []Lesson      `json:"lessons"`
	Totals  Totals        `json:"totals"`
	Areas   []AreaSummary `json:"areaSummary"`
}

type StatusOutput struct {
	State  string `json:"state"`
	Totals Totals `json:"totals"`
}

type HydrateInput struct {
	Units []byte
}

type SearchInput struct {
	Query string
	Limit int
}

type Event struct {
	Reason string      `json:"reason"`
	Data   IndexOutput `json:"data"`
}
