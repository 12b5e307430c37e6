package service

import (
	"math"
	"time"

	"studybuddy_backend/internal/model"
)

// AnswerSubmission is one submitted answer keyed by question id.
type AnswerSubmission struct {
	QuestionID     string `json:"question_id" binding:"required"`
	SelectedChoice string `json:"selected_choice" binding:"required"`
}

// QuizIncorrectItem carries enough data to render a review screen without
// another round trip. SelectedChoice is empty for unanswered slots.
type QuizIncorrectItem struct {
	QuestionID     string           `json:"questionId"`
	Index          int              `json:"index"`
	Stem           string           `json:"stem"`
	Options        model.StringList `json:"options"`
	SelectedChoice string           `json:"selectedChoice"`
	CorrectChoice  string           `json:"correctChoice"`
	Explanation    string           `json:"explanation"`
}

type GradingResult struct {
	Score           int
	CorrectCount    int
	TotalQuestions  int
	UnansweredCount int
	IncorrectItems  []QuizIncorrectItem
	TimeTakenSec    int
}

// GradeQuiz scores a submission against the locked answer key. A missing
// answer counts as unanswered and as incorrect; the grader never fails on
// well-formed input. Score is round(correct/total*100) on the exact
// fraction.
func GradeQuiz(session *model.QuizSession, questions []model.QuizSessionQuestionDetail, answers []AnswerSubmission, now time.Time) GradingResult {
	answerMap := make(map[string]string, len(answers))
	for _, ans := range answers {
		answerMap[ans.QuestionID] = ans.SelectedChoice
	}

	correctCount := 0
	unansweredCount := 0
	incorrectItems := []QuizIncorrectItem{}

	for _, q := range questions {
		selected, answered := answerMap[q.QuestionID]
		if !answered {
			unansweredCount++
			incorrectItems = append(incorrectItems, QuizIncorrectItem{
				QuestionID:     q.QuestionID,
				Index:          q.Position,
				Stem:           q.Stem,
				Options:        q.Options,
				SelectedChoice: "",
				CorrectChoice:  q.CorrectChoice,
				Explanation:    q.Explanation,
			})
			continue
		}

		if selected == q.CorrectChoice {
			correctCount++
			continue
		}
		incorrectItems = append(incorrectItems, QuizIncorrectItem{
			QuestionID:     q.QuestionID,
			Index:          q.Position,
			Stem:           q.Stem,
			Options:        q.Options,
			SelectedChoice: selected,
			CorrectChoice:  q.CorrectChoice,
			Explanation:    q.Explanation,
		})
	}

	total := len(questions)
	score := 0
	if total > 0 {
		score = int(math.Round(float64(correctCount) / float64(total) * 100))
	}

	return GradingResult{
		Score:           score,
		CorrectCount:    correctCount,
		TotalQuestions:  total,
		UnansweredCount: unansweredCount,
		IncorrectItems:  incorrectItems,
		TimeTakenSec:    int(now.Sub(session.StartedAt).Seconds()),
	}
}
