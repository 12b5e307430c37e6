package service

import (
	"context"
	"fmt"
	"time"

	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/repository"
	"studybuddy_backend/internal/util"

	"gorm.io/gorm"
)

// In-memory fakes for the store contracts.

type fakeQuestionStore struct {
	questions []model.Question
	upserted  []model.Question
}

func matchesFilter(q model.Question, f repository.QuestionFilter) bool {
	if f.Subject != "" && q.Subject != f.Subject {
		return false
	}
	if f.Topic != "" && q.Topic != f.Topic {
		return false
	}
	if f.SubTopic != nil && q.SubTopic != *f.SubTopic {
		return false
	}
	// Grade-agnostic questions match any grade filter.
	if f.Grade != nil && q.Grade != nil && *q.Grade != *f.Grade {
		return false
	}
	if len(f.Difficulties) > 0 {
		found := false
		for _, d := range f.Difficulties {
			if q.Difficulty == d {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, h := range f.ExcludeHashes {
		if q.Hash == h {
			return false
		}
	}
	return true
}

func (s *fakeQuestionStore) List(f repository.QuestionFilter) ([]model.Question, error) {
	var out []model.Question
	for _, q := range s.questions {
		if matchesFilter(q, f) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *fakeQuestionStore) ListHashes(f repository.QuestionFilter) ([]string, error) {
	qs, _ := s.List(f)
	hashes := make([]string, 0, len(qs))
	for _, q := range qs {
		hashes = append(hashes, q.Hash)
	}
	return hashes, nil
}

func (s *fakeQuestionStore) Count(f repository.QuestionFilter) (int64, error) {
	qs, _ := s.List(f)
	return int64(len(qs)), nil
}

func (s *fakeQuestionStore) FindByID(id string) (*model.Question, error) {
	for i := range s.questions {
		if s.questions[i].ID == id {
			return &s.questions[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// Upsert mirrors the gorm repository: the create hook assigns an ID to every
// in-memory row, but a hash conflict skips the insert and keeps the stored
// row untouched.
func (s *fakeQuestionStore) Upsert(qs []model.Question) error {
	for i := range qs {
		if qs[i].ID == "" {
			qs[i].ID = model.GenerateUUID()
		}
		exists := false
		for _, have := range s.questions {
			if have.Hash == qs[i].Hash {
				exists = true
				break
			}
		}
		if !exists {
			s.questions = append(s.questions, qs[i])
		}
		s.upserted = append(s.upserted, qs[i])
	}
	return nil
}

func (s *fakeQuestionStore) FindByHashes(hashes []string) ([]model.Question, error) {
	want := map[string]struct{}{}
	for _, h := range hashes {
		want[h] = struct{}{}
	}
	var out []model.Question
	for _, q := range s.questions {
		if _, ok := want[q.Hash]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

type fakeAttemptStore struct {
	attempts    []model.Attempt
	seen        []string
	withSubject []repository.AttemptWithSubject
}

func (s *fakeAttemptStore) Create(attempt *model.Attempt) error {
	if attempt.ID == "" {
		attempt.ID = model.GenerateUUID()
	}
	s.attempts = append(s.attempts, *attempt)
	return nil
}

func (s *fakeAttemptStore) ListByChild(childID string) ([]model.Attempt, error) {
	var out []model.Attempt
	for _, a := range s.attempts {
		if a.ChildID == childID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeAttemptStore) ListSeenHashes(childID string) ([]string, error) {
	return s.seen, nil
}

func (s *fakeAttemptStore) ListByChildWithSubject(childID string) ([]repository.AttemptWithSubject, error) {
	return s.withSubject, nil
}

type fakeChildStore struct {
	children map[string]*model.Child
}

func (s *fakeChildStore) FindByID(id string) (*model.Child, error) {
	child, ok := s.children[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return child, nil
}

type fakeSubtopicStore struct {
	subtopics []model.Subtopic
	topics    []string
	presets   []model.PacingPreset
}

func (s *fakeSubtopicStore) ListSubtopics(subject string, grade *int, topic string) ([]model.Subtopic, error) {
	var out []model.Subtopic
	for _, st := range s.subtopics {
		if st.Subject == subject && st.Topic == topic {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *fakeSubtopicStore) ListTopics(subject string, grade *int) ([]string, error) {
	return s.topics, nil
}

func (s *fakeSubtopicStore) ListPacingPresets(subject string, grade int) ([]model.PacingPreset, error) {
	var out []model.PacingPreset
	for _, p := range s.presets {
		if p.Subject == subject && p.Grade == grade {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeSelector struct {
	next         string
	defaultTopic string
	err          error
}

func (s *fakeSelector) SelectNext(subject, topic string, grade *int, childID string) (string, error) {
	return s.next, s.err
}

func (s *fakeSelector) DefaultTopic(subject string, grade *int) (string, error) {
	return s.defaultTopic, s.err
}

type fakeGenerator struct {
	generate func(ctx context.Context, gc GenerationContext) ([]model.Question, error)
	calls    []GenerationContext
}

func (g *fakeGenerator) Generate(ctx context.Context, gc GenerationContext) ([]model.Question, error) {
	g.calls = append(g.calls, gc)
	if g.generate == nil {
		return nil, nil
	}
	return g.generate(ctx, gc)
}

type fakeQuizStore struct {
	sessions map[string]*model.QuizSession
	slots    map[string][]model.QuizSessionQuestionDetail
	active   *model.QuizSession
	expired  []string
}

func newFakeQuizStore() *fakeQuizStore {
	return &fakeQuizStore{
		sessions: map[string]*model.QuizSession{},
		slots:    map[string][]model.QuizSessionQuestionDetail{},
	}
}

func (s *fakeQuizStore) AcquireCreateLock(ctx context.Context, childID, subject, topic string) (func(), error) {
	return func() {}, nil
}

func (s *fakeQuizStore) FindActive(childID, subject, topic string) (*model.QuizSession, error) {
	return s.active, nil
}

func (s *fakeQuizStore) CreateSessionWithQuestions(session *model.QuizSession, slots []model.QuizSessionQuestion) error {
	if session.ID == "" {
		session.ID = model.GenerateUUID()
	}
	session.CreatedAt = session.StartedAt
	s.sessions[session.ID] = session
	details := make([]model.QuizSessionQuestionDetail, len(slots))
	for i, slot := range slots {
		slot.QuizSessionID = session.ID
		details[i] = model.QuizSessionQuestionDetail{QuizSessionQuestion: slot}
	}
	s.slots[session.ID] = details
	return nil
}

func (s *fakeQuizStore) FindByID(id string) (*model.QuizSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *fakeQuizStore) ListByChild(childID string, limit, offset int) ([]model.QuizSession, error) {
	var out []model.QuizSession
	for _, session := range s.sessions {
		if session.ChildID == childID {
			out = append(out, *session)
		}
	}
	return out, nil
}

func (s *fakeQuizStore) ListSessionQuestions(sessionID string) ([]model.QuizSessionQuestionDetail, error) {
	return s.slots[sessionID], nil
}

func (s *fakeQuizStore) Submit(sessionID string, score int, submittedAt time.Time, selections map[string]string, correctness map[string]bool) (*model.QuizSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	if session.Status != model.QuizStatusActive {
		return nil, util.ErrAlreadySubmitted
	}
	session.Status = model.QuizStatusCompleted
	session.Score = &score
	session.SubmittedAt = &submittedAt
	return session, nil
}

func (s *fakeQuizStore) Expire(sessionID string) error {
	session, ok := s.sessions[sessionID]
	if !ok {
		return util.ErrSessionNotFound
	}
	session.Status = model.QuizStatusExpired
	s.expired = append(s.expired, sessionID)
	return nil
}

func intPtr(v int) *int { return &v }

// mkQuestion builds a bank question with a content hash derived from its stem.
func mkQuestion(id, subject, topic, subtopic string, grade *int, difficulty model.Difficulty, stem string) model.Question {
	options := model.StringList{"A " + stem, "B " + stem, "C " + stem, "D " + stem}
	q := model.Question{
		Subject:       subject,
		Topic:         topic,
		SubTopic:      subtopic,
		Grade:         grade,
		Difficulty:    difficulty,
		Stem:          stem,
		Options:       options,
		CorrectAnswer: options[0],
		Rationale:     "because",
		Source:        model.SourceSeeded,
		Hash:          util.QuestionFingerprint(stem, options, options[0]),
	}
	q.ID = id
	return q
}

// mkBank builds n questions sharing one key, stems numbered from start.
func mkBank(prefix, subject, topic, subtopic string, grade *int, difficulty model.Difficulty, start, n int) []model.Question {
	out := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		stem := fmt.Sprintf("%s question %d", prefix, start+i)
		out = append(out, mkQuestion(fmt.Sprintf("%s-%d", prefix, start+i), subject, topic, subtopic, grade, difficulty, stem))
	}
	return out
}
