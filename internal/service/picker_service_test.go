package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPickerFixture(grade *int) (*PickerService, *fakeQuestionStore, *fakeAttemptStore, *fakeGenerator) {
	questions := &fakeQuestionStore{}
	attempts := &fakeAttemptStore{}
	children := &fakeChildStore{children: map[string]*model.Child{
		"child-1": {Name: "Ada", Grade: grade},
	}}
	generator := &fakeGenerator{}
	selector := &fakeSelector{next: "single-digit products", defaultTopic: "multiplication"}
	svc := NewPickerService(questions, attempts, children, selector, generator, engineCfg())
	return svc, questions, attempts, generator
}

func TestFetchBatchServesUnseen(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, _ := newPickerFixture(grade)
	questions.questions = mkBank("mult", "math", "multiplication", "single-digit products", grade, model.DifficultyEasy, 0, 12)

	batch, err := svc.FetchBatch(context.Background(), "child-1", "math", "multiplication", "", 5)
	require.NoError(t, err)

	assert.Len(t, batch.Questions, 5)
	assert.Equal(t, "single-digit products", batch.SelectedSubtopic)
	hashes := map[string]struct{}{}
	for _, q := range batch.Questions {
		hashes[q.Hash] = struct{}{}
	}
	assert.Len(t, hashes, 5)
}

func TestFetchBatchRestockTargetsServedSubtopic(t *testing.T) {
	// 12 in stock, 5 served: 7 remaining is under the threshold of 10, so
	// the batch asks for exactly 3 more for this subtopic.
	grade := intPtr(3)
	svc, questions, _, _ := newPickerFixture(grade)
	questions.questions = mkBank("mult", "math", "multiplication", "single-digit products", grade, model.DifficultyEasy, 0, 12)

	batch, err := svc.FetchBatch(context.Background(), "child-1", "math", "multiplication", "", 5)
	require.NoError(t, err)

	require.NotNil(t, batch.Restock)
	assert.Equal(t, 3, batch.Restock.Count)
	assert.Equal(t, "single-digit products", batch.Restock.SubTopic)
	assert.Equal(t, "math", batch.Restock.Subject)
	assert.Equal(t, "multiplication", batch.Restock.Topic)
}

func TestFetchBatchNoRestockWhenStockHealthy(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, _ := newPickerFixture(grade)
	questions.questions = mkBank("mult", "math", "multiplication", "single-digit products", grade, model.DifficultyEasy, 0, 30)

	batch, err := svc.FetchBatch(context.Background(), "child-1", "math", "multiplication", "", 5)
	require.NoError(t, err)
	assert.Nil(t, batch.Restock)
}

func TestFetchBatchSkipsSeenQuestions(t *testing.T) {
	grade := intPtr(3)
	svc, questions, attempts, _ := newPickerFixture(grade)
	bank := mkBank("mult", "math", "multiplication", "single-digit products", grade, model.DifficultyEasy, 0, 8)
	questions.questions = bank
	attempts.seen = []string{bank[0].Hash, bank[1].Hash, bank[2].Hash}

	batch, err := svc.FetchBatch(context.Background(), "child-1", "math", "multiplication", "single-digit products", 5)
	require.NoError(t, err)

	require.Len(t, batch.Questions, 5)
	for _, q := range batch.Questions {
		assert.NotContains(t, attempts.seen, q.Hash)
	}
}

func TestFetchBatchGeneratesDeficit(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, generator := newPickerFixture(grade)
	questions.questions = mkBank("mult", "math", "multiplication", "single-digit products", grade, model.DifficultyEasy, 0, 2)

	generator.generate = func(ctx context.Context, gc GenerationContext) ([]model.Question, error) {
		out := make([]model.Question, 0, gc.Count)
		for i := 0; i < gc.Count; i++ {
			stem := fmt.Sprintf("generated %d", i)
			q := mkQuestion(fmt.Sprintf("gen-%d", i), gc.Subject, gc.Topic, gc.SubTopic, gc.Grade, gc.Difficulty, stem)
			q.Source = model.SourceGenerated
			out = append(out, q)
		}
		return out, nil
	}

	batch, err := svc.FetchBatch(context.Background(), "child-1", "math", "multiplication", "single-digit products", 5)
	require.NoError(t, err)

	assert.Len(t, batch.Questions, 5)
	require.Len(t, generator.calls, 1)
	assert.Equal(t, 3, generator.calls[0].Count)
	// Generated questions were persisted.
	assert.NotEmpty(t, questions.upserted)
}

func TestFetchBatchDegradesWhenGenerationFails(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, generator := newPickerFixture(grade)
	questions.questions = mkBank("mult", "math", "multiplication", "single-digit products", grade, model.DifficultyEasy, 0, 2)
	generator.generate = func(ctx context.Context, gc GenerationContext) ([]model.Question, error) {
		return nil, util.ErrGenerationUnavailable
	}

	batch, err := svc.FetchBatch(context.Background(), "child-1", "math", "multiplication", "single-digit products", 5)
	require.NoError(t, err)
	assert.Len(t, batch.Questions, 2)
}

func TestFetchBatchUnknownChild(t *testing.T) {
	svc, _, _, _ := newPickerFixture(intPtr(3))

	_, err := svc.FetchBatch(context.Background(), "nope", "math", "multiplication", "", 5)
	assert.True(t, errors.Is(err, util.ErrChildNotFound))
}

func TestFetchBatchRejectsNonPositiveLimit(t *testing.T) {
	svc, _, _, _ := newPickerFixture(intPtr(3))

	_, err := svc.FetchBatch(context.Background(), "child-1", "math", "multiplication", "", 0)
	assert.True(t, errors.Is(err, util.ErrValidationFailed))
}

func TestFetchBatchGradeAgnosticQuestionsIncluded(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, _ := newPickerFixture(grade)
	bank := mkBank("mult", "math", "multiplication", "single-digit products", nil, model.DifficultyEasy, 0, 12)
	questions.questions = bank

	batch, err := svc.FetchBatch(context.Background(), "child-1", "math", "multiplication", "single-digit products", 4)
	require.NoError(t, err)
	assert.Len(t, batch.Questions, 4)
}

func TestFetchBatchServesCanonicalIDOnContentCollision(t *testing.T) {
	// The bank already holds this content under another difficulty; the
	// generated duplicate's insert is skipped, so the batch must carry the
	// stored row's ID rather than the candidate's transient one.
	grade := intPtr(3)
	svc, questions, _, generator := newPickerFixture(grade)
	stored := mkQuestion("stored-1", "math", "multiplication", "single-digit products", grade, model.DifficultyHard, "collision stem")
	questions.questions = []model.Question{stored}

	generator.generate = func(ctx context.Context, gc GenerationContext) ([]model.Question, error) {
		dup := mkQuestion("", gc.Subject, gc.Topic, gc.SubTopic, gc.Grade, gc.Difficulty, "collision stem")
		dup.Source = model.SourceGenerated
		return []model.Question{dup}, nil
	}

	batch, err := svc.FetchBatch(context.Background(), "child-1", "math", "multiplication", "single-digit products", 1)
	require.NoError(t, err)

	require.Len(t, batch.Questions, 1)
	assert.Equal(t, "stored-1", batch.Questions[0].ID)
	_, err = questions.FindByID(batch.Questions[0].ID)
	assert.NoError(t, err)
	// No second row was stored for the same content.
	assert.Len(t, questions.questions, 1)
}

func TestFetchBatchResolvesTopicFromPacing(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, _ := newPickerFixture(grade)
	questions.questions = mkBank("mult", "math", "multiplication", "single-digit products", grade, model.DifficultyEasy, 0, 12)

	batch, err := svc.FetchBatch(context.Background(), "child-1", "math", "", "", 5)
	require.NoError(t, err)

	assert.Len(t, batch.Questions, 5)
	for _, q := range batch.Questions {
		assert.Equal(t, "multiplication", q.Topic)
	}
	require.NotNil(t, batch.Restock)
	assert.Equal(t, "multiplication", batch.Restock.Topic)
}

func TestTopUpStockPersistsGenerated(t *testing.T) {
	grade := intPtr(3)
	svc, questions, _, generator := newPickerFixture(grade)
	generator.generate = func(ctx context.Context, gc GenerationContext) ([]model.Question, error) {
		return mkBank("gen", gc.Subject, gc.Topic, gc.SubTopic, gc.Grade, gc.Difficulty, 100, gc.Count), nil
	}

	err := svc.TopUpStock(context.Background(), RestockRequest{
		Subject: "math", Topic: "multiplication", SubTopic: "single-digit products", Grade: grade, Count: 3,
	})
	require.NoError(t, err)
	assert.Len(t, questions.upserted, 3)
	require.Len(t, generator.calls, 1)
	assert.Equal(t, model.DifficultyMedium, generator.calls[0].Difficulty)
}
