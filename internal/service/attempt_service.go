package service

import (
	"errors"
	"math"

	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/util"
	"studybuddy_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LogAttemptRequest struct {
	ChildID     string `json:"child_id" binding:"required"`
	QuestionID  string `json:"question_id" binding:"required"`
	Selected    string `json:"selected" binding:"required"`
	TimeSpentMS int    `json:"time_spent_ms"`
}

type AttemptResult struct {
	Attempt       *model.Attempt `json:"attempt"`
	Correct       bool           `json:"correct"`
	CorrectAnswer string         `json:"correctAnswer"`
	Rationale     string         `json:"rationale"`
}

type SubjectProgress struct {
	Subject   string  `json:"subject"`
	Attempted int     `json:"attempted"`
	Correct   int     `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
}

type ProgressSummary struct {
	ChildID       string            `json:"childId"`
	Attempted     int               `json:"attempted"`
	Correct       int               `json:"correct"`
	Accuracy      float64           `json:"accuracy"`
	CurrentStreak int               `json:"currentStreak"`
	BySubject     []SubjectProgress `json:"bySubject"`
}

type AttemptService struct {
	Attempts  AttemptStore
	Questions QuestionStore
	Children  ChildStore
}

func NewAttemptService(attempts AttemptStore, questions QuestionStore, children ChildStore) *AttemptService {
	return &AttemptService{Attempts: attempts, Questions: questions, Children: children}
}

// LogAttempt records a practice answer. Correctness is derived server-side
// from the stored answer key; the client never grades itself.
func (s *AttemptService) LogAttempt(req LogAttemptRequest) (*AttemptResult, error) {
	if _, err := s.Children.FindByID(req.ChildID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrChildNotFound
		}
		return nil, err
	}

	question, err := s.Questions.FindByID(req.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	correct := req.Selected == question.CorrectAnswer
	attempt := &model.Attempt{
		ChildID:     req.ChildID,
		QuestionID:  req.QuestionID,
		Selected:    req.Selected,
		Correct:     correct,
		TimeSpentMS: req.TimeSpentMS,
	}
	if err := s.Attempts.Create(attempt); err != nil {
		return nil, err
	}

	logger.Log.Debug("logged attempt",
		zap.String("childId", req.ChildID),
		zap.String("questionId", req.QuestionID),
		zap.Bool("correct", correct))

	return &AttemptResult{
		Attempt:       attempt,
		Correct:       correct,
		CorrectAnswer: question.CorrectAnswer,
		Rationale:     question.Rationale,
	}, nil
}

func roundAccuracy(correct, attempted int) float64 {
	if attempted == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(attempted)*1000) / 1000
}

// Progress aggregates a child's practice history: overall accuracy, the
// current run of consecutive correct answers, and a per-subject breakdown.
func (s *AttemptService) Progress(childID string) (*ProgressSummary, error) {
	if _, err := s.Children.FindByID(childID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrChildNotFound
		}
		return nil, err
	}

	rows, err := s.Attempts.ListByChildWithSubject(childID)
	if err != nil {
		return nil, err
	}

	summary := &ProgressSummary{ChildID: childID, BySubject: []SubjectProgress{}}
	type bucket struct {
		attempted int
		correct   int
	}
	subjects := map[string]*bucket{}
	var order []string

	for _, row := range rows {
		summary.Attempted++
		if row.Correct {
			summary.Correct++
		}
		b, ok := subjects[row.Subject]
		if !ok {
			b = &bucket{}
			subjects[row.Subject] = b
			order = append(order, row.Subject)
		}
		b.attempted++
		if row.Correct {
			b.correct++
		}
	}

	// Streak counts consecutive correct answers ending at the most recent
	// attempt; rows arrive in chronological order.
	for i := len(rows) - 1; i >= 0; i-- {
		if !rows[i].Correct {
			break
		}
		summary.CurrentStreak++
	}

	summary.Accuracy = roundAccuracy(summary.Correct, summary.Attempted)
	for _, subject := range order {
		b := subjects[subject]
		summary.BySubject = append(summary.BySubject, SubjectProgress{
			Subject:   subject,
			Attempted: b.attempted,
			Correct:   b.correct,
			Accuracy:  roundAccuracy(b.correct, b.attempted),
		})
	}

	return summary, nil
}
