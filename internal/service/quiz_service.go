package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"studybuddy_backend/internal/config"
	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/repository"
	"studybuddy_backend/internal/util"
	"studybuddy_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateQuizRequest struct {
	ChildID       string               `json:"child_id" binding:"required"`
	Subject       string               `json:"subject" binding:"required"`
	Topic         string               `json:"topic" binding:"required"`
	SubTopic      string               `json:"subtopic"`
	QuestionCount int                  `json:"question_count" binding:"required"`
	DurationSec   int                  `json:"duration_sec" binding:"required"`
	DifficultyMix *model.DifficultyMix `json:"difficulty_mix"`
}

// QuizQuestionDisplay is a question as shown during an active quiz: no
// correct choice, no explanation.
type QuizQuestionDisplay struct {
	ID         string           `json:"id"`
	Index      int              `json:"index"`
	Stem       string           `json:"stem"`
	Options    model.StringList `json:"options"`
	Difficulty model.Difficulty `json:"difficulty"`
	Subject    string           `json:"subject"`
	Topic      string           `json:"topic"`
}

type QuizSessionResponse struct {
	Session          *model.QuizSession    `json:"session"`
	Questions        []QuizQuestionDisplay `json:"questions"`
	TimeRemainingSec int                   `json:"timeRemainingSec"`
}

type QuizResult struct {
	SessionID      string              `json:"sessionId"`
	Score          int                 `json:"score"`
	CorrectCount   int                 `json:"correctCount"`
	TotalQuestions int                 `json:"totalQuestions"`
	UnansweredCnt  int                 `json:"unansweredCount"`
	TimeTakenSec   int                 `json:"timeTakenSec"`
	IncorrectItems []QuizIncorrectItem `json:"incorrectItems"`
	SubmittedAt    time.Time           `json:"submittedAt"`
}

type QuizService struct {
	Questions QuestionStore
	Attempts  AttemptStore
	Children  ChildStore
	Quizzes   QuizStore
	Generator Generator
	Cfg       config.EngineConfig

	now func() time.Time
}

func NewQuizService(questions QuestionStore, attempts AttemptStore, children ChildStore, quizzes QuizStore, generator Generator, cfg config.EngineConfig) *QuizService {
	return &QuizService{
		Questions: questions,
		Attempts:  attempts,
		Children:  children,
		Quizzes:   quizzes,
		Generator: generator,
		Cfg:       cfg,
		now:       time.Now,
	}
}

// difficultyTargets splits count by the mix, absorbing rounding drift in the
// medium bucket.
func difficultyTargets(count int, mix model.DifficultyMix) map[model.Difficulty]int {
	targets := map[model.Difficulty]int{
		model.DifficultyEasy:   int(math.Round(float64(count) * mix.Easy)),
		model.DifficultyMedium: int(math.Round(float64(count) * mix.Medium)),
		model.DifficultyHard:   int(math.Round(float64(count) * mix.Hard)),
	}
	sum := targets[model.DifficultyEasy] + targets[model.DifficultyMedium] + targets[model.DifficultyHard]
	targets[model.DifficultyMedium] += count - sum
	return targets
}

func isMathSubject(subject string) bool {
	switch strings.ToLower(subject) {
	case "math", "mathematics":
		return true
	}
	return false
}

// assembleQuestions builds the fixed-size question set for a quiz:
// per-tier quotas, unseen prioritized over seen, no intra-quiz duplicates,
// generation fallback for math when the bank runs short.
func (s *QuizService) assembleQuestions(ctx context.Context, childID, subject, topic, subtopic string, grade *int, count int, mix model.DifficultyMix) ([]model.Question, error) {
	targets := difficultyTargets(count, mix)

	seenHashes, err := s.Attempts.ListSeenHashes(childID)
	if err != nil {
		return nil, err
	}
	seen := hashSet(seenHashes)

	selected := make([]model.Question, 0, count)
	placed := make(map[string]struct{}, count)

	for _, difficulty := range []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard} {
		target := targets[difficulty]
		if target <= 0 {
			continue
		}

		bank, err := s.Questions.List(repository.QuestionFilter{
			Subject:      subject,
			Topic:        topic,
			SubTopic:     subtopicFilter(subtopic),
			Grade:        grade,
			Difficulties: []model.Difficulty{difficulty},
		})
		if err != nil {
			return nil, err
		}

		var unseen, alreadySeen []model.Question
		for _, q := range bank {
			if _, dup := placed[q.Hash]; dup {
				continue
			}
			if _, ok := seen[q.Hash]; ok {
				alreadySeen = append(alreadySeen, q)
			} else {
				unseen = append(unseen, q)
			}
		}
		// Shuffle within each partition to avoid positional bias while
		// keeping novelty first.
		rand.Shuffle(len(unseen), func(i, j int) { unseen[i], unseen[j] = unseen[j], unseen[i] })
		rand.Shuffle(len(alreadySeen), func(i, j int) { alreadySeen[i], alreadySeen[j] = alreadySeen[j], alreadySeen[i] })

		available := append(unseen, alreadySeen...)
		take := target
		if take > len(available) {
			take = len(available)
		}
		for _, q := range available[:take] {
			placed[q.Hash] = struct{}{}
			selected = append(selected, q)
		}

		deficit := target - take
		if deficit > 0 && isMathSubject(subject) {
			filled := s.generateForQuiz(ctx, GenerationContext{
				Subject:    subject,
				Topic:      topic,
				SubTopic:   subtopic,
				Grade:      grade,
				Difficulty: difficulty,
				Count:      deficit,
			}, seen, placed, deficit)
			selected = append(selected, filled...)
		}
	}

	if len(selected) < count {
		return nil, fmt.Errorf("%w: needed %d, only found %d", util.ErrInsufficientSupply, count, len(selected))
	}

	// Internal-consistency postcondition: placed hashes are pairwise
	// distinct for any bank contents.
	distinct := make(map[string]struct{}, len(selected))
	for _, q := range selected {
		if _, dup := distinct[q.Hash]; dup {
			logger.Log.Error("duplicate questions detected in quiz selection",
				zap.String("subject", subject), zap.String("topic", topic))
			return nil, util.ErrDuplicateQuizQuestions
		}
		distinct[q.Hash] = struct{}{}
	}

	return selected, nil
}

// generateForQuiz synthesizes up to deficit questions at one tier,
// deduplicates against the seen-set and this quiz's placed hashes, and
// persists survivors. Generation errors leave the quota unmet; assembly
// reports the overall shortfall.
func (s *QuizService) generateForQuiz(ctx context.Context, gc GenerationContext, seen, placed map[string]struct{}, deficit int) []model.Question {
	candidates, err := s.Generator.Generate(ctx, gc)
	if err != nil {
		logger.Log.Warn("quiz generation fallback failed",
			zap.String("difficulty", string(gc.Difficulty)), zap.Error(err))
		return nil
	}

	accepted := make([]model.Question, 0, deficit)
	for _, q := range candidates {
		if len(accepted) >= deficit {
			break
		}
		if _, dup := placed[q.Hash]; dup {
			continue
		}
		if _, ok := seen[q.Hash]; ok {
			continue
		}
		placed[q.Hash] = struct{}{}
		accepted = append(accepted, q)
	}
	if len(accepted) == 0 {
		return nil
	}
	// Slots persist the question ID, so only canonical stored rows may be
	// placed: a hash collision with an existing bank row must resolve to
	// that row, not to the candidate's transient ID.
	canonical, err := upsertCanonical(s.Questions, accepted)
	if err != nil {
		logger.Log.Error("failed to persist quiz-generated questions", zap.Error(err))
		for _, q := range accepted {
			delete(placed, q.Hash)
		}
		return nil
	}
	return canonical
}

func (s *QuizService) CreateSession(ctx context.Context, req CreateQuizRequest) (*QuizSessionResponse, error) {
	if req.QuestionCount < 5 || req.QuestionCount > 30 {
		return nil, fmt.Errorf("%w: question_count must be between 5 and 30", util.ErrValidationFailed)
	}
	if req.DurationSec < 300 || req.DurationSec > 7200 {
		return nil, fmt.Errorf("%w: duration_sec must be between 300 and 7200", util.ErrValidationFailed)
	}
	mix := model.DefaultDifficultyMix()
	if req.DifficultyMix != nil {
		mix = *req.DifficultyMix
	}
	if err := mix.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrValidationFailed, err)
	}

	child, err := s.Children.FindByID(req.ChildID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrChildNotFound
		}
		return nil, err
	}

	// Serialize creation per (child, subject, topic); the store re-checks
	// the invariant inside its transaction as well.
	release, err := s.Quizzes.AcquireCreateLock(ctx, req.ChildID, req.Subject, req.Topic)
	if err != nil {
		return nil, err
	}
	defer release()

	active, err := s.Quizzes.FindActive(req.ChildID, req.Subject, req.Topic)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, fmt.Errorf("%w: %s", util.ErrActiveQuizExists, active.ID)
	}

	questions, err := s.assembleQuestions(ctx, req.ChildID, req.Subject, req.Topic, req.SubTopic, child.Grade, req.QuestionCount, mix)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &model.QuizSession{
		ChildID:        req.ChildID,
		Subject:        req.Subject,
		Topic:          req.Topic,
		SubTopic:       req.SubTopic,
		Status:         model.QuizStatusActive,
		DurationSec:    req.DurationSec,
		DifficultyMix:  mix,
		StartedAt:      now,
		TotalQuestions: req.QuestionCount,
	}

	// Lock the answer key at creation time so later bank edits cannot
	// retroactively alter a live quiz.
	slots := make([]model.QuizSessionQuestion, len(questions))
	for i, q := range questions {
		slots[i] = model.QuizSessionQuestion{
			QuestionID:    q.ID,
			Position:      i,
			CorrectChoice: q.CorrectAnswer,
			Explanation:   q.Rationale,
		}
	}

	if err := s.Quizzes.CreateSessionWithQuestions(session, slots); err != nil {
		return nil, err
	}

	logger.Log.Info("created quiz session",
		zap.String("sessionId", session.ID),
		zap.String("childId", req.ChildID),
		zap.String("subject", req.Subject),
		zap.String("topic", req.Topic),
		zap.Int("questions", len(questions)))

	displays := make([]QuizQuestionDisplay, len(questions))
	for i, q := range questions {
		displays[i] = QuizQuestionDisplay{
			ID:         q.ID,
			Index:      i,
			Stem:       q.Stem,
			Options:    q.Options,
			Difficulty: q.Difficulty,
			Subject:    q.Subject,
			Topic:      q.Topic,
		}
	}

	return &QuizSessionResponse{
		Session:          session,
		Questions:        displays,
		TimeRemainingSec: req.DurationSec,
	}, nil
}

// expireIfStale lazily expires an active session older than 24h. The caller
// receives ErrSessionExpired so the transition is never invisible.
func (s *QuizService) expireIfStale(session *model.QuizSession) error {
	if session.Status != model.QuizStatusActive {
		return nil
	}
	if s.now().Sub(session.CreatedAt) <= model.QuizExpiry {
		return nil
	}
	logger.Log.Info("auto-expiring quiz session", zap.String("sessionId", session.ID))
	if err := s.Quizzes.Expire(session.ID); err != nil {
		return err
	}
	session.Status = model.QuizStatusExpired
	return util.ErrSessionExpired
}

func (s *QuizService) GetSession(sessionID string) (*QuizSessionResponse, error) {
	session, err := s.Quizzes.FindByID(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.expireIfStale(session); err != nil {
		return nil, err
	}

	questions, err := s.Quizzes.ListSessionQuestions(sessionID)
	if err != nil {
		return nil, err
	}

	elapsed := int(s.now().Sub(session.StartedAt).Seconds())
	remaining := session.DurationSec - elapsed
	if remaining < 0 {
		remaining = 0
	}

	displays := make([]QuizQuestionDisplay, len(questions))
	for i, q := range questions {
		displays[i] = QuizQuestionDisplay{
			ID:         q.QuestionID,
			Index:      q.Position,
			Stem:       q.Stem,
			Options:    q.Options,
			Difficulty: q.Difficulty,
			Subject:    q.Subject,
			Topic:      q.Topic,
		}
	}

	return &QuizSessionResponse{
		Session:          session,
		Questions:        displays,
		TimeRemainingSec: remaining,
	}, nil
}

func (s *QuizService) ListSessions(childID string, limit, offset int) ([]model.QuizSession, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.Quizzes.ListByChild(childID, limit, offset)
}

func (s *QuizService) Submit(sessionID string, answers []AnswerSubmission) (*QuizResult, error) {
	session, err := s.Quizzes.FindByID(sessionID)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case model.QuizStatusCompleted:
		return nil, util.ErrAlreadySubmitted
	case model.QuizStatusExpired:
		return nil, util.ErrSessionExpired
	}
	if err := s.expireIfStale(session); err != nil {
		return nil, err
	}

	questions, err := s.Quizzes.ListSessionQuestions(sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	grading := GradeQuiz(session, questions, answers, now)

	keys := make(map[string]string, len(questions))
	for _, q := range questions {
		keys[q.QuestionID] = q.CorrectChoice
	}
	selections := make(map[string]string, len(answers))
	correctness := make(map[string]bool, len(answers))
	for _, ans := range answers {
		correct, known := keys[ans.QuestionID]
		if !known {
			// Answers for questions outside the session are ignored.
			continue
		}
		selections[ans.QuestionID] = ans.SelectedChoice
		correctness[ans.QuestionID] = ans.SelectedChoice == correct
	}

	updated, err := s.Quizzes.Submit(sessionID, grading.Score, now, selections, correctness)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("graded quiz session",
		zap.String("sessionId", sessionID),
		zap.Int("score", grading.Score),
		zap.Int("correct", grading.CorrectCount),
		zap.Int("unanswered", grading.UnansweredCount))

	submittedAt := now
	if updated.SubmittedAt != nil {
		submittedAt = *updated.SubmittedAt
	}

	return &QuizResult{
		SessionID:      sessionID,
		Score:          grading.Score,
		CorrectCount:   grading.CorrectCount,
		TotalQuestions: grading.TotalQuestions,
		UnansweredCnt:  grading.UnansweredCount,
		TimeTakenSec:   grading.TimeTakenSec,
		IncorrectItems: grading.IncorrectItems,
		SubmittedAt:    submittedAt,
	}, nil
}

// ExpireSession is the explicit expiry call. Expiring an already-expired
// session is a no-op; a completed session cannot be expired.
func (s *QuizService) ExpireSession(sessionID string) error {
	session, err := s.Quizzes.FindByID(sessionID)
	if err != nil {
		return err
	}
	switch session.Status {
	case model.QuizStatusCompleted:
		return util.ErrAlreadySubmitted
	case model.QuizStatusExpired:
		return nil
	}
	return s.Quizzes.Expire(sessionID)
}
