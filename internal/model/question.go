package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type QuestionSource string

const (
	SourceSeeded    QuestionSource = "seeded"
	SourceGenerated QuestionSource = "generated"
	SourceMock      QuestionSource = "mock"
)

// StringList is a []string stored as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// swagger:model Question
type Question struct {
	UUIDBase
	StandardRef   string         `gorm:"size:50" json:"standardRef,omitempty"`
	Subject       string         `gorm:"size:50;index:idx_question_key;not null" json:"subject"`
	Grade         *int           `gorm:"index:idx_question_key" json:"grade,omitempty"`
	Topic         string         `gorm:"size:100;index:idx_question_key" json:"topic"`
	SubTopic      string         `gorm:"size:100;index:idx_question_key" json:"subTopic,omitempty"`
	Difficulty    Difficulty     `gorm:"type:enum('easy','medium','hard');default:'medium';index" json:"difficulty"`
	Stem          string         `gorm:"type:text;not null" json:"stem"`
	Options       StringList     `gorm:"type:json;not null" json:"options"`
	CorrectAnswer string         `gorm:"type:text;not null" json:"correctAnswer"`
	Rationale     string         `gorm:"type:text" json:"rationale,omitempty"`
	Source        QuestionSource `gorm:"type:enum('seeded','generated','mock');default:'generated'" json:"source"`
	Hash          string         `gorm:"size:64;uniqueIndex;not null" json:"hash"`
}

func (Question) TableName() string {
	return "questions"
}

// Validate enforces the MCQ shape once at the store boundary: exactly four
// distinct options with the correct answer among them.
func (q *Question) Validate() error {
	if q.Stem == "" {
		return errors.New("question must have a stem")
	}
	if len(q.Options) != 4 {
		return errors.New("each question must carry exactly four options")
	}
	unique := make(map[string]struct{}, len(q.Options))
	answerFound := false
	for _, opt := range q.Options {
		unique[opt] = struct{}{}
		if opt == q.CorrectAnswer {
			answerFound = true
		}
	}
	if len(unique) != 4 {
		return errors.New("options must be unique")
	}
	if !answerFound {
		return errors.New("correct answer must be one of the provided options")
	}
	return nil
}
