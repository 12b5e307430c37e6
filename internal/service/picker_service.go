package service

import (
	"context"
	"errors"

	"studybuddy_backend/internal/config"
	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/repository"
	"studybuddy_backend/internal/util"
	"studybuddy_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RestockRequest asks the background worker to top up one exact
// subject/topic/grade/subtopic key. Restocking the wrong subtopic is a
// correctness bug: each subtopic's supply is tracked independently.
type RestockRequest struct {
	Subject  string
	Topic    string
	SubTopic string
	Grade    *int
	Count    int
}

// QuestionBatch is the outcome of one adaptive fetch.
type QuestionBatch struct {
	Questions        []model.Question
	SelectedSubtopic string
	Restock          *RestockRequest
}

type PickerService struct {
	Questions QuestionStore
	Attempts  AttemptStore
	Children  ChildStore
	Subtopics SubtopicSelector
	Generator Generator
	Cfg       config.EngineConfig
}

func NewPickerService(questions QuestionStore, attempts AttemptStore, children ChildStore, subtopics SubtopicSelector, generator Generator, cfg config.EngineConfig) *PickerService {
	return &PickerService{
		Questions: questions,
		Attempts:  attempts,
		Children:  children,
		Subtopics: subtopics,
		Generator: generator,
		Cfg:       cfg,
	}
}

// FetchBatch assembles up to limit unseen questions for the child, walking
// difficulty tiers in preference order and falling back to on-demand
// generation for any deficit. Generation failure degrades to a short batch;
// it never fails the fetch.
func (s *PickerService) FetchBatch(ctx context.Context, childID, subject, topic, subtopic string, limit int) (*QuestionBatch, error) {
	if limit <= 0 {
		return nil, util.ErrValidationFailed
	}

	child, err := s.Children.FindByID(childID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrChildNotFound
		}
		return nil, err
	}
	grade := child.Grade

	// A fetch may name no topic at all; pacing resolves one from the
	// child's grade before subtopic selection runs.
	if topic == "" {
		topic, err = s.Subtopics.DefaultTopic(subject, grade)
		if err != nil {
			return nil, err
		}
	}

	// Explicit caller choice always wins; otherwise pick the subtopic with
	// the most fresh material.
	if subtopic == "" {
		subtopic, err = s.Subtopics.SelectNext(subject, topic, grade, childID)
		if err != nil {
			return nil, err
		}
	}

	attempts, err := s.Attempts.ListByChild(childID)
	if err != nil {
		return nil, err
	}
	preferences := DifficultySequence(attempts, s.Cfg)

	seenHashes, err := s.Attempts.ListSeenHashes(childID)
	if err != nil {
		return nil, err
	}
	seen := hashSet(seenHashes)

	var available []model.Question
	for _, difficulty := range preferences {
		fetched, err := s.Questions.List(repository.QuestionFilter{
			Subject:       subject,
			Topic:         topic,
			SubTopic:      subtopicFilter(subtopic),
			Grade:         grade,
			Difficulties:  []model.Difficulty{difficulty},
			ExcludeHashes: seenHashes,
		})
		if err != nil {
			return nil, err
		}
		available = append(available, fetched...)
	}

	picked := make([]model.Question, 0, limit)
	pickedOrSeen := make(map[string]struct{}, len(seen)+limit)
	for h := range seen {
		pickedOrSeen[h] = struct{}{}
	}
	for _, q := range available {
		if len(picked) >= limit {
			break
		}
		if _, dup := pickedOrSeen[q.Hash]; dup {
			continue
		}
		pickedOrSeen[q.Hash] = struct{}{}
		picked = append(picked, q)
	}

	if deficit := limit - len(picked); deficit > 0 {
		generated := s.generateDeficit(ctx, GenerationContext{
			Subject:    subject,
			Topic:      topic,
			SubTopic:   subtopic,
			Grade:      grade,
			Difficulty: preferences[0],
			Count:      deficit,
		}, pickedOrSeen)
		if len(generated) > deficit {
			generated = generated[:deficit]
		}
		picked = append(picked, generated...)
	}

	batch := &QuestionBatch{Questions: picked, SelectedSubtopic: subtopic}

	stock, err := s.Questions.Count(repository.QuestionFilter{
		Subject:  subject,
		Topic:    topic,
		SubTopic: subtopicFilter(subtopic),
		Grade:    grade,
	})
	if err != nil {
		return nil, err
	}
	if remaining := int(stock) - len(picked); remaining < s.Cfg.MinStockThreshold {
		batch.Restock = &RestockRequest{
			Subject:  subject,
			Topic:    topic,
			SubTopic: subtopic,
			Grade:    grade,
			Count:    s.Cfg.MinStockThreshold - remaining,
		}
	}

	return batch, nil
}

// generateDeficit synthesizes questions for the given context, drops
// duplicates of anything already picked or seen, and persists the survivors
// idempotently. Errors are swallowed: casual practice degrades gracefully.
func (s *PickerService) generateDeficit(ctx context.Context, gc GenerationContext, exclude map[string]struct{}) []model.Question {
	candidates, err := s.Generator.Generate(ctx, gc)
	if err != nil {
		logger.Log.Warn("generation fallback failed, serving short batch",
			zap.String("subject", gc.Subject),
			zap.String("topic", gc.Topic),
			zap.Error(err))
		return nil
	}

	unique := make([]model.Question, 0, len(candidates))
	for _, q := range candidates {
		if _, dup := exclude[q.Hash]; dup {
			continue
		}
		exclude[q.Hash] = struct{}{}
		unique = append(unique, q)
	}
	if len(unique) == 0 {
		return nil
	}
	canonical, err := upsertCanonical(s.Questions, unique)
	if err != nil {
		logger.Log.Error("failed to persist generated questions", zap.Error(err))
		return nil
	}
	return canonical
}

// TopUpStock is the out-of-band restock path consumed by the worker.
func (s *PickerService) TopUpStock(ctx context.Context, req RestockRequest) error {
	if req.Count <= 0 {
		return nil
	}
	generated, err := s.Generator.Generate(ctx, GenerationContext{
		Subject:    req.Subject,
		Topic:      req.Topic,
		SubTopic:   req.SubTopic,
		Grade:      req.Grade,
		Difficulty: model.DifficultyMedium,
		Count:      req.Count,
	})
	if err != nil {
		return err
	}
	return s.Questions.Upsert(generated)
}
