package service

import (
	"context"
	"testing"
	"time"

	"studybuddy_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestockWorkerProcessTopsUpBank(t *testing.T) {
	grade := intPtr(3)
	picker, questions, _, generator := newPickerFixture(grade)
	generator.generate = func(ctx context.Context, gc GenerationContext) ([]model.Question, error) {
		return mkBank("gen", gc.Subject, gc.Topic, gc.SubTopic, gc.Grade, gc.Difficulty, 0, gc.Count), nil
	}
	picker.Cfg.GenerationTimeout = 30 * time.Second

	worker := NewRestockWorker(picker, 4)
	worker.process(RestockRequest{
		Subject: "math", Topic: "multiplication", SubTopic: "single-digit products", Grade: grade, Count: 3,
	})

	assert.Len(t, questions.upserted, 3)
}

func TestRestockWorkerStopDrainsQueue(t *testing.T) {
	grade := intPtr(3)
	picker, questions, _, generator := newPickerFixture(grade)
	generator.generate = func(ctx context.Context, gc GenerationContext) ([]model.Question, error) {
		return mkBank(gc.SubTopic, gc.Subject, gc.Topic, gc.SubTopic, gc.Grade, gc.Difficulty, 0, gc.Count), nil
	}
	picker.Cfg.GenerationTimeout = 30 * time.Second

	worker := NewRestockWorker(picker, 4)
	require.True(t, worker.Enqueue(RestockRequest{
		Subject: "math", Topic: "multiplication", SubTopic: "single-digit products", Grade: grade, Count: 2,
	}))
	require.True(t, worker.Enqueue(RestockRequest{
		Subject: "math", Topic: "fractions", SubTopic: "unit fractions", Grade: grade, Count: 3,
	}))

	// Stop returns only after everything queued before it was worked off.
	worker.Run()
	worker.Stop()

	assert.Len(t, questions.upserted, 5)
}

func TestRestockWorkerEnqueueDropsWhenFull(t *testing.T) {
	picker, _, _, _ := newPickerFixture(intPtr(3))
	worker := NewRestockWorker(picker, 1)

	req := RestockRequest{Subject: "math", Topic: "multiplication", Count: 1}
	require.True(t, worker.Enqueue(req))
	// The worker is not running, so the buffered slot stays occupied.
	assert.False(t, worker.Enqueue(req))
}
