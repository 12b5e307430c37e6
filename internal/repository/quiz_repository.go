package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const createLockTTL = 10 * time.Second

type QuizRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewQuizRepository(db *gorm.DB, rdb *redis.Client) *QuizRepository {
	return &QuizRepository{DB: db, Redis: rdb}
}

// AcquireCreateLock serializes session creation per (child, subject, topic)
// so two concurrent requests cannot both observe "no active session". The
// returned release func is safe to call even after the TTL elapsed.
func (r *QuizRepository) AcquireCreateLock(ctx context.Context, childID, subject, topic string) (func(), error) {
	key := fmt.Sprintf("quiz:create:%s:%s:%s", childID, subject, topic)
	ok, err := r.Redis.SetNX(ctx, key, 1, createLockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrActiveQuizExists
	}
	return func() {
		r.Redis.Del(context.Background(), key)
	}, nil
}

func (r *QuizRepository) FindActive(childID, subject, topic string) (*model.QuizSession, error) {
	var s model.QuizSession
	err := r.DB.Where(
		"child_id = ? AND subject = ? AND topic = ? AND status = ?",
		childID, subject, topic, model.QuizStatusActive,
	).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSessionWithQuestions inserts the session and its locked question
// slots in one transaction, re-checking the active-session invariant inside
// the transaction boundary.
func (r *QuizRepository) CreateSessionWithQuestions(session *model.QuizSession, slots []model.QuizSessionQuestion) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var active int64
		err := tx.Model(&model.QuizSession{}).Where(
			"child_id = ? AND subject = ? AND topic = ? AND status = ?",
			session.ChildID, session.Subject, session.Topic, model.QuizStatusActive,
		).Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return util.ErrActiveQuizExists
		}
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		for i := range slots {
			slots[i].QuizSessionID = session.ID
		}
		return tx.Create(&slots).Error
	})
}

func (r *QuizRepository) FindByID(id string) (*model.QuizSession, error) {
	var s model.QuizSession
	err := r.DB.First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *QuizRepository) ListByChild(childID string, limit, offset int) ([]model.QuizSession, error) {
	var ss []model.QuizSession
	err := r.DB.Where("child_id = ?", childID).
		Order("started_at desc").
		Offset(offset).Limit(limit).
		Find(&ss).Error
	return ss, err
}

func (r *QuizRepository) ListSessionQuestions(sessionID string) ([]model.QuizSessionQuestionDetail, error) {
	var rows []model.QuizSessionQuestionDetail
	err := r.DB.Model(&model.QuizSessionQuestion{}).
		Select("quiz_session_questions.*, questions.stem, questions.options, questions.subject, questions.topic, questions.difficulty").
		Joins("JOIN questions ON questions.id = quiz_session_questions.question_id").
		Where("quiz_session_questions.quiz_session_id = ?", sessionID).
		Order("quiz_session_questions.position asc").
		Scan(&rows).Error
	return rows, err
}

// Submit marks the session completed and records per-slot selections. The
// status guard on the UPDATE makes a concurrent double submit lose the race.
func (r *QuizRepository) Submit(sessionID string, score int, submittedAt time.Time, selections map[string]string, correctness map[string]bool) (*model.QuizSession, error) {
	var updated *model.QuizSession
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.QuizSession{}).
			Where("id = ? AND status = ?", sessionID, model.QuizStatusActive).
			Updates(map[string]interface{}{
				"status":       model.QuizStatusCompleted,
				"submitted_at": submittedAt,
				"score":        score,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrAlreadySubmitted
		}
		for questionID, selected := range selections {
			correct := correctness[questionID]
			err := tx.Model(&model.QuizSessionQuestion{}).
				Where("quiz_session_id = ? AND question_id = ?", sessionID, questionID).
				Updates(map[string]interface{}{
					"selected_choice": selected,
					"is_correct":      correct,
				}).Error
			if err != nil {
				return err
			}
		}
		var s model.QuizSession
		if err := tx.First(&s, "id = ?", sessionID).Error; err != nil {
			return err
		}
		updated = &s
		return nil
	})
	return updated, err
}

func (r *QuizRepository) Expire(sessionID string) error {
	return r.DB.Model(&model.QuizSession{}).
		Where("id = ? AND status = ?", sessionID, model.QuizStatusActive).
		Update("status", model.QuizStatusExpired).Error
}
