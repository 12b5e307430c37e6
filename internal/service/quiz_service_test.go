package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuizFixture(grade *int) (*QuizService, *fakeQuestionStore, *fakeAttemptStore, *fakeQuizStore, *fakeGenerator) {
	questions := &fakeQuestionStore{}
	attempts := &fakeAttemptStore{}
	children := &fakeChildStore{children: map[string]*model.Child{
		"child-1": {Name: "Ada", Grade: grade},
	}}
	quizzes := newFakeQuizStore()
	generator := &fakeGenerator{}
	svc := NewQuizService(questions, attempts, children, quizzes, generator, engineCfg())
	return svc, questions, attempts, quizzes, generator
}

func TestDifficultyTargetsRounding(t *testing.T) {
	targets := difficultyTargets(11, model.DifficultyMix{Easy: 0.3, Medium: 0.5, Hard: 0.2})

	assert.Equal(t, 3, targets[model.DifficultyEasy])
	assert.Equal(t, 6, targets[model.DifficultyMedium])
	assert.Equal(t, 2, targets[model.DifficultyHard])
}

func TestDifficultyTargetsMediumAbsorbsDrift(t *testing.T) {
	targets := difficultyTargets(10, model.DifficultyMix{Easy: 0.35, Medium: 0.35, Hard: 0.3})

	total := targets[model.DifficultyEasy] + targets[model.DifficultyMedium] + targets[model.DifficultyHard]
	assert.Equal(t, 10, total)
}

func TestAssembleQuestionsUnseenBeforeSeen(t *testing.T) {
	grade := intPtr(3)
	svc, questions, attempts, _, _ := newQuizFixture(grade)

	bank := mkBank("med", "math", "multiplication", "", grade, model.DifficultyMedium, 0, 10)
	questions.questions = bank
	seenSet := map[string]struct{}{}
	for _, q := range bank[:5] {
		attempts.seen = append(attempts.seen, q.Hash)
		seenSet[q.Hash] = struct{}{}
	}

	selected, err := svc.assembleQuestions(context.Background(), "child-1", "math", "multiplication", "", grade, 7, model.DifficultyMix{Medium: 1})
	require.NoError(t, err)
	require.Len(t, selected, 7)

	unseenCount := 0
	for _, q := range selected {
		if _, ok := seenSet[q.Hash]; !ok {
			unseenCount++
		}
	}
	// All 5 unseen questions must be in the quiz before any seen one.
	assert.Equal(t, 5, unseenCount)
}

func TestAssembleQuestionsNoDuplicates(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, _, _ := newQuizFixture(grade)
	questions.questions = append(questions.questions, mkBank("easy", "math", "multiplication", "", grade, model.DifficultyEasy, 0, 10)...)
	questions.questions = append(questions.questions, mkBank("med", "math", "multiplication", "", grade, model.DifficultyMedium, 0, 10)...)
	questions.questions = append(questions.questions, mkBank("hard", "math", "multiplication", "", grade, model.DifficultyHard, 0, 10)...)

	selected, err := svc.assembleQuestions(context.Background(), "child-1", "math", "multiplication", "", grade, 10, model.DefaultDifficultyMix())
	require.NoError(t, err)
	require.Len(t, selected, 10)

	hashes := map[string]struct{}{}
	for _, q := range selected {
		hashes[q.Hash] = struct{}{}
	}
	assert.Len(t, hashes, 10)
}

func TestAssembleQuestionsInsufficientSupplyNonMath(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, _, generator := newQuizFixture(grade)
	questions.questions = mkBank("read", "reading", "comprehension", "", grade, model.DifficultyMedium, 0, 3)

	_, err := svc.assembleQuestions(context.Background(), "child-1", "reading", "comprehension", "", grade, 10, model.DifficultyMix{Medium: 1})
	assert.True(t, errors.Is(err, util.ErrInsufficientSupply))
	// Non-math subjects never reach the generator.
	assert.Empty(t, generator.calls)
}

func TestAssembleQuestionsMathGenerationFallback(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, _, generator := newQuizFixture(grade)
	questions.questions = mkBank("med", "math", "multiplication", "", grade, model.DifficultyMedium, 0, 4)

	generator.generate = func(ctx context.Context, gc GenerationContext) ([]model.Question, error) {
		out := make([]model.Question, 0, gc.Count)
		for i := 0; i < gc.Count; i++ {
			stem := fmt.Sprintf("generated %s %d", gc.Difficulty, i)
			out = append(out, mkQuestion(fmt.Sprintf("gen-%s-%d", gc.Difficulty, i), gc.Subject, gc.Topic, gc.SubTopic, gc.Grade, gc.Difficulty, stem))
		}
		return out, nil
	}

	selected, err := svc.assembleQuestions(context.Background(), "child-1", "math", "multiplication", "", grade, 10, model.DifficultyMix{Medium: 1})
	require.NoError(t, err)
	assert.Len(t, selected, 10)
	assert.NotEmpty(t, generator.calls)
	assert.NotEmpty(t, questions.upserted)
}

func TestCreateSessionSlotsReferenceStoredRowsOnContentCollision(t *testing.T) {
	// A generated fill-in can collide with bank content held at a tier the
	// quiz never queried. The skipped insert must not leave a slot pointing
	// at an ID no stored row carries, or the session would come back short.
	grade := intPtr(3)
	svc, questions, _, quizzes, generator := newQuizFixture(grade)
	questions.questions = append(questions.questions, mkBank("easy", "math", "multiplication", "", grade, model.DifficultyEasy, 0, 2)...)
	questions.questions = append(questions.questions, mkBank("med", "math", "multiplication", "", grade, model.DifficultyMedium, 0, 2)...)
	stored := mkQuestion("hard-stored", "math", "multiplication", "", grade, model.DifficultyHard, "collision stem")
	questions.questions = append(questions.questions, stored)

	generator.generate = func(ctx context.Context, gc GenerationContext) ([]model.Question, error) {
		dup := mkQuestion("", gc.Subject, gc.Topic, gc.SubTopic, gc.Grade, gc.Difficulty, "collision stem")
		dup.Source = model.SourceGenerated
		return []model.Question{dup}, nil
	}

	resp, err := svc.CreateSession(context.Background(), CreateQuizRequest{
		ChildID: "child-1", Subject: "math", Topic: "multiplication",
		QuestionCount: 5, DurationSec: 600,
		DifficultyMix: &model.DifficultyMix{Easy: 0.4, Medium: 0.6},
	})
	require.NoError(t, err)
	require.Len(t, resp.Questions, 5)

	slots := quizzes.slots[resp.Session.ID]
	require.Len(t, slots, 5)
	placedStored := false
	for _, slot := range slots {
		_, err := questions.FindByID(slot.QuestionID)
		assert.NoError(t, err)
		if slot.QuestionID == "hard-stored" {
			placedStored = true
		}
	}
	assert.True(t, placedStored)
	// No second row was stored for the colliding content.
	assert.Len(t, questions.questions, 5)
}

func TestCreateSessionValidation(t *testing.T) {
	svc, _, _, _, _ := newQuizFixture(intPtr(3))

	_, err := svc.CreateSession(context.Background(), CreateQuizRequest{
		ChildID: "child-1", Subject: "math", Topic: "multiplication",
		QuestionCount: 3, DurationSec: 600,
	})
	assert.True(t, errors.Is(err, util.ErrValidationFailed))

	_, err = svc.CreateSession(context.Background(), CreateQuizRequest{
		ChildID: "child-1", Subject: "math", Topic: "multiplication",
		QuestionCount: 10, DurationSec: 60,
	})
	assert.True(t, errors.Is(err, util.ErrValidationFailed))

	_, err = svc.CreateSession(context.Background(), CreateQuizRequest{
		ChildID: "child-1", Subject: "math", Topic: "multiplication",
		QuestionCount: 10, DurationSec: 600,
		DifficultyMix: &model.DifficultyMix{Easy: 0.5, Medium: 0.5, Hard: 0.5},
	})
	assert.True(t, errors.Is(err, util.ErrValidationFailed))
}

func TestCreateSessionConflictsWithActiveQuiz(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, quizzes, _ := newQuizFixture(grade)
	questions.questions = mkBank("med", "math", "multiplication", "", grade, model.DifficultyMedium, 0, 20)
	quizzes.active = &model.QuizSession{ChildID: "child-1", Subject: "math", Topic: "multiplication", Status: model.QuizStatusActive}

	_, err := svc.CreateSession(context.Background(), CreateQuizRequest{
		ChildID: "child-1", Subject: "math", Topic: "multiplication",
		QuestionCount: 10, DurationSec: 600,
		DifficultyMix: &model.DifficultyMix{Medium: 1},
	})
	assert.True(t, errors.Is(err, util.ErrActiveQuizExists))
}

func TestCreateSessionLocksAnswerKey(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, quizzes, _ := newQuizFixture(grade)
	questions.questions = mkBank("med", "math", "multiplication", "", grade, model.DifficultyMedium, 0, 20)

	resp, err := svc.CreateSession(context.Background(), CreateQuizRequest{
		ChildID: "child-1", Subject: "math", Topic: "multiplication",
		QuestionCount: 10, DurationSec: 600,
		DifficultyMix: &model.DifficultyMix{Medium: 1},
	})
	require.NoError(t, err)

	require.Len(t, resp.Questions, 10)
	assert.Equal(t, 600, resp.TimeRemainingSec)
	assert.Equal(t, model.QuizStatusActive, resp.Session.Status)

	slots := quizzes.slots[resp.Session.ID]
	require.Len(t, slots, 10)
	for i, slot := range slots {
		assert.Equal(t, i, slot.Position)
		assert.NotEmpty(t, slot.CorrectChoice)
	}
}

func TestSubmitGradesAndCompletes(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, quizzes, _ := newQuizFixture(grade)
	questions.questions = mkBank("med", "math", "multiplication", "", grade, model.DifficultyMedium, 0, 20)

	start := time.Now()
	svc.now = func() time.Time { return start }

	resp, err := svc.CreateSession(context.Background(), CreateQuizRequest{
		ChildID: "child-1", Subject: "math", Topic: "multiplication",
		QuestionCount: 5, DurationSec: 600,
		DifficultyMix: &model.DifficultyMix{Medium: 1},
	})
	require.NoError(t, err)

	slots := quizzes.slots[resp.Session.ID]
	answers := []AnswerSubmission{
		{QuestionID: slots[0].QuestionID, SelectedChoice: slots[0].CorrectChoice},
		{QuestionID: slots[1].QuestionID, SelectedChoice: "wrong"},
	}

	svc.now = func() time.Time { return start.Add(2 * time.Minute) }
	result, err := svc.Submit(resp.Session.ID, answers)
	require.NoError(t, err)

	assert.Equal(t, 20, result.Score)
	assert.Equal(t, 1, result.CorrectCount)
	assert.Equal(t, 3, result.UnansweredCnt)
	assert.Equal(t, 120, result.TimeTakenSec)
	assert.Len(t, result.IncorrectItems, 4)

	// Second submit is rejected.
	_, err = svc.Submit(resp.Session.ID, answers)
	assert.True(t, errors.Is(err, util.ErrAlreadySubmitted))
}

func TestSubmitStaleSessionExpires(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, quizzes, _ := newQuizFixture(grade)
	questions.questions = mkBank("med", "math", "multiplication", "", grade, model.DifficultyMedium, 0, 20)

	start := time.Now()
	svc.now = func() time.Time { return start }

	resp, err := svc.CreateSession(context.Background(), CreateQuizRequest{
		ChildID: "child-1", Subject: "math", Topic: "multiplication",
		QuestionCount: 5, DurationSec: 600,
		DifficultyMix: &model.DifficultyMix{Medium: 1},
	})
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(25 * time.Hour) }
	_, err = svc.Submit(resp.Session.ID, nil)
	assert.True(t, errors.Is(err, util.ErrSessionExpired))
	assert.Contains(t, quizzes.expired, resp.Session.ID)

	// Reading it afterwards reports expiry too.
	_, err = svc.GetSession(resp.Session.ID)
	assert.True(t, errors.Is(err, util.ErrSessionExpired))
}

func TestGetSessionTimeRemaining(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, _, _ := newQuizFixture(grade)
	questions.questions = mkBank("med", "math", "multiplication", "", grade, model.DifficultyMedium, 0, 20)

	start := time.Now()
	svc.now = func() time.Time { return start }

	resp, err := svc.CreateSession(context.Background(), CreateQuizRequest{
		ChildID: "child-1", Subject: "math", Topic: "multiplication",
		QuestionCount: 5, DurationSec: 600,
		DifficultyMix: &model.DifficultyMix{Medium: 1},
	})
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(4 * time.Minute) }
	got, err := svc.GetSession(resp.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 360, got.TimeRemainingSec)
	assert.Len(t, got.Questions, 5)

	// Past the duration the clock floors at zero; the session stays
	// submittable until the 24h expiry.
	svc.now = func() time.Time { return start.Add(20 * time.Minute) }
	got, err = svc.GetSession(resp.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TimeRemainingSec)
}

func TestExpireSessionIdempotent(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, _, _ := newQuizFixture(grade)
	questions.questions = mkBank("med", "math", "multiplication", "", grade, model.DifficultyMedium, 0, 20)

	resp, err := svc.CreateSession(context.Background(), CreateQuizRequest{
		ChildID: "child-1", Subject: "math", Topic: "multiplication",
		QuestionCount: 5, DurationSec: 600,
		DifficultyMix: &model.DifficultyMix{Medium: 1},
	})
	require.NoError(t, err)

	require.NoError(t, svc.ExpireSession(resp.Session.ID))
	require.NoError(t, svc.ExpireSession(resp.Session.ID))

	got, err := svc.Quizzes.FindByID(resp.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuizStatusExpired, got.Status)
}
