package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

type QuizStatus string

const (
	QuizStatusActive    QuizStatus = "active"
	QuizStatusCompleted QuizStatus = "completed"
	QuizStatusExpired   QuizStatus = "expired"
)

// QuizExpiry is the wall-clock age past creation after which an active
// session is lazily expired on read or submit.
const QuizExpiry = 24 * time.Hour

// DifficultyMix holds the three proportions of a quiz. They must sum to 1.0
// within ±0.01.
type DifficultyMix struct {
	Easy   float64 `json:"easy"`
	Medium float64 `json:"medium"`
	Hard   float64 `json:"hard"`
}

func DefaultDifficultyMix() DifficultyMix {
	return DifficultyMix{Easy: 0.3, Medium: 0.5, Hard: 0.2}
}

func (m DifficultyMix) Validate() error {
	for _, v := range []float64{m.Easy, m.Medium, m.Hard} {
		if v < 0 || v > 1 {
			return fmt.Errorf("difficulty mix proportions must be between 0 and 1")
		}
	}
	if math.Abs(m.Easy+m.Medium+m.Hard-1.0) > 0.01 {
		return fmt.Errorf("difficulty mix proportions must sum to 1.0")
	}
	return nil
}

func (m DifficultyMix) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *DifficultyMix) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = DifficultyMix{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type for DifficultyMix: %T", value)
	}
}

// QuizSession is a bounded-lifetime assembly of questions for one child.
// The answer key is locked at creation and lives in QuizSessionQuestion.
// swagger:model QuizSession
type QuizSession struct {
	UUIDBase
	ChildID        string        `gorm:"type:varchar(36);index:idx_active_quiz;not null" json:"childId"`
	Subject        string        `gorm:"size:50;index:idx_active_quiz;not null" json:"subject"`
	Topic          string        `gorm:"size:100;index:idx_active_quiz;not null" json:"topic"`
	SubTopic       string        `gorm:"size:100" json:"subTopic,omitempty"`
	Status         QuizStatus    `gorm:"type:enum('active','completed','expired');default:'active';index:idx_active_quiz" json:"status"`
	DurationSec    int           `gorm:"not null" json:"durationSec"`
	DifficultyMix  DifficultyMix `gorm:"type:json" json:"difficultyMix"`
	StartedAt      time.Time     `gorm:"not null" json:"startedAt"`
	SubmittedAt    *time.Time    `json:"submittedAt,omitempty"`
	Score          *int          `json:"score,omitempty"` // 0-100
	TotalQuestions int           `gorm:"not null" json:"totalQuestions"`
}

func (QuizSession) TableName() string {
	return "quiz_sessions"
}

// QuizSessionQuestion is one locked slot: the correct choice and rationale
// are copied at creation so later bank edits cannot alter a live quiz.
// Selection fields are filled in only at submission.
// swagger:model QuizSessionQuestion
type QuizSessionQuestion struct {
	UUIDBase
	QuizSessionID  string  `gorm:"type:varchar(36);index;not null" json:"quizSessionId"`
	QuestionID     string  `gorm:"type:varchar(36);not null" json:"questionId"`
	Position       int     `gorm:"not null" json:"index"`
	CorrectChoice  string  `gorm:"type:text;not null" json:"-"`
	Explanation    string  `gorm:"type:text" json:"-"`
	SelectedChoice *string `gorm:"type:text" json:"selectedChoice,omitempty"`
	IsCorrect      *bool   `json:"isCorrect,omitempty"`
}

func (QuizSessionQuestion) TableName() string {
	return "quiz_session_questions"
}

// QuizSessionQuestionDetail joins a locked slot with the live question row
// for display and grading.
type QuizSessionQuestionDetail struct {
	QuizSessionQuestion
	Stem       string     `json:"stem"`
	Options    StringList `json:"options"`
	Subject    string     `json:"subject"`
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
}
