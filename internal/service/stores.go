package service

import (
	"context"
	"time"

	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/repository"
)

// Narrow store contracts consumed by the engine services. The gorm
// repositories satisfy them; tests substitute in-memory fakes.

type QuestionStore interface {
	List(f repository.QuestionFilter) ([]model.Question, error)
	ListHashes(f repository.QuestionFilter) ([]string, error)
	Count(f repository.QuestionFilter) (int64, error)
	FindByID(id string) (*model.Question, error)
	Upsert(qs []model.Question) error
	FindByHashes(hashes []string) ([]model.Question, error)
}

type AttemptStore interface {
	Create(attempt *model.Attempt) error
	ListByChild(childID string) ([]model.Attempt, error)
	ListSeenHashes(childID string) ([]string, error)
	ListByChildWithSubject(childID string) ([]repository.AttemptWithSubject, error)
}

type ChildStore interface {
	FindByID(id string) (*model.Child, error)
}

type SubtopicStore interface {
	ListSubtopics(subject string, grade *int, topic string) ([]model.Subtopic, error)
	ListTopics(subject string, grade *int) ([]string, error)
	ListPacingPresets(subject string, grade int) ([]model.PacingPreset, error)
}

type QuizStore interface {
	AcquireCreateLock(ctx context.Context, childID, subject, topic string) (func(), error)
	FindActive(childID, subject, topic string) (*model.QuizSession, error)
	CreateSessionWithQuestions(session *model.QuizSession, slots []model.QuizSessionQuestion) error
	FindByID(id string) (*model.QuizSession, error)
	ListByChild(childID string, limit, offset int) ([]model.QuizSession, error)
	ListSessionQuestions(sessionID string) ([]model.QuizSessionQuestionDetail, error)
	Submit(sessionID string, score int, submittedAt time.Time, selections map[string]string, correctness map[string]bool) (*model.QuizSession, error)
	Expire(sessionID string) error
}

// Generator is the narrow contract to the external MCQ synthesis
// collaborator. It may return fewer candidates than requested; every
// returned candidate already passed MCQ shape validation.
type Generator interface {
	Generate(ctx context.Context, gc GenerationContext) ([]model.Question, error)
}

// SubtopicSelector picks the next subtopic to serve when the caller did not
// pin one, and resolves a pacing topic when the caller named none.
type SubtopicSelector interface {
	SelectNext(subject, topic string, grade *int, childID string) (string, error)
	DefaultTopic(subject string, grade *int) (string, error)
}

// upsertCanonical persists candidates idempotently and returns the stored
// rows, in candidate order. A candidate's content may already exist in the
// bank under another row (concurrent insert, or the same content at a
// different difficulty or grade); serving the hook-assigned in-memory ID of
// a skipped insert would reference no stored row, so the canonical IDs come
// from a re-read by hash.
func upsertCanonical(store QuestionStore, candidates []model.Question) ([]model.Question, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if err := store.Upsert(candidates); err != nil {
		return nil, err
	}
	hashes := make([]string, len(candidates))
	for i, q := range candidates {
		hashes[i] = q.Hash
	}
	stored, err := store.FindByHashes(hashes)
	if err != nil {
		return nil, err
	}
	byHash := make(map[string]model.Question, len(stored))
	for _, q := range stored {
		byHash[q.Hash] = q
	}
	canonical := make([]model.Question, 0, len(candidates))
	for _, q := range candidates {
		row, ok := byHash[q.Hash]
		if !ok {
			continue
		}
		canonical = append(canonical, row)
	}
	return canonical, nil
}

func hashSet(hashes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		set[h] = struct{}{}
	}
	return set
}

// subtopicFilter maps the empty subtopic ("whole topic as one pool") to an
// unfiltered query.
func subtopicFilter(subtopic string) *string {
	if subtopic == "" {
		return nil
	}
	return &subtopic
}
