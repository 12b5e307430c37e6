package service

import (
	"sort"
	"time"

	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/repository"
)

type SubtopicService struct {
	Subtopics SubtopicStore
	Questions QuestionStore
	Attempts  AttemptStore

	now func() time.Time
}

func NewSubtopicService(subtopics SubtopicStore, questions QuestionStore, attempts AttemptStore) *SubtopicService {
	return &SubtopicService{Subtopics: subtopics, Questions: questions, Attempts: attempts, now: time.Now}
}

// SelectNext greedily picks the subtopic with the most unseen supply for the
// child; ties break on curriculum order. Returns "" when the catalog has no
// entries, in which case the caller treats the whole topic as one pool.
func (s *SubtopicService) SelectNext(subject, topic string, grade *int, childID string) (string, error) {
	candidates, err := s.Subtopics.ListSubtopics(subject, grade, topic)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", nil
	}

	seenHashes, err := s.Attempts.ListSeenHashes(childID)
	if err != nil {
		return "", err
	}
	seen := hashSet(seenHashes)

	type ranked struct {
		name          string
		unseen        int
		sequenceOrder int
	}
	rankedCandidates := make([]ranked, 0, len(candidates))
	for _, candidate := range candidates {
		name := candidate.Name
		hashes, err := s.Questions.ListHashes(repository.QuestionFilter{
			Subject:  subject,
			Topic:    topic,
			SubTopic: &name,
			Grade:    grade,
		})
		if err != nil {
			return "", err
		}
		unseen := 0
		for _, h := range hashes {
			if _, ok := seen[h]; !ok {
				unseen++
			}
		}
		rankedCandidates = append(rankedCandidates, ranked{
			name:          name,
			unseen:        unseen,
			sequenceOrder: candidate.SequenceOrder,
		})
	}

	sort.SliceStable(rankedCandidates, func(i, j int) bool {
		if rankedCandidates[i].unseen != rankedCandidates[j].unseen {
			return rankedCandidates[i].unseen > rankedCandidates[j].unseen
		}
		return rankedCandidates[i].sequenceOrder < rankedCandidates[j].sequenceOrder
	})

	return rankedCandidates[0].name, nil
}

// Topics lists the catalog topics for a subject in curriculum order.
func (s *SubtopicService) Topics(subject string, grade *int) ([]string, error) {
	return s.Subtopics.ListTopics(subject, grade)
}

// Catalog lists a topic's subtopics in curriculum order.
func (s *SubtopicService) Catalog(subject string, grade *int, topic string) ([]model.Subtopic, error) {
	return s.Subtopics.ListSubtopics(subject, grade, topic)
}

// DefaultTopic resolves the topic for a fetch request that names none.
// Pacing presets for the child's grade decide first: entries matching the
// current calendar month (or carrying no month) win; when no entry matches
// the month at all, every preset for the grade stays in play. The first
// catalog topic is the fallback when no preset names a topic.
func (s *SubtopicService) DefaultTopic(subject string, grade *int) (string, error) {
	gradeValue := 0
	if grade != nil {
		gradeValue = *grade
	}
	presets, err := s.Subtopics.ListPacingPresets(subject, gradeValue)
	if err != nil {
		return "", err
	}

	month := int(s.now().Month())
	inMonth := make([]model.PacingPreset, 0, len(presets))
	for _, p := range presets {
		if p.Month == nil || *p.Month == month {
			inMonth = append(inMonth, p)
		}
	}
	candidates := presets
	if len(inMonth) > 0 {
		candidates = inMonth
	}
	for _, p := range candidates {
		if len(p.Topics) > 0 {
			return p.Topics[0], nil
		}
	}

	topics, err := s.Subtopics.ListTopics(subject, grade)
	if err != nil {
		return "", err
	}
	if len(topics) == 0 {
		return "", nil
	}
	return topics[0], nil
}
