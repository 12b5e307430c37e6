package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"studybuddy_backend/internal/config"
	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/util"
	"studybuddy_backend/pkg/logger"
	"studybuddy_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// GenerationContext describes one synthesis request to the MCQ generator.
type GenerationContext struct {
	Subject    string
	Topic      string
	SubTopic   string
	Grade      *int
	Difficulty model.Difficulty
	Count      int
}

type GeneratorService struct {
	mu     sync.RWMutex
	ai     config.AIConfig
	engine config.EngineConfig
	client *http.Client
}

func NewGeneratorService(ai config.AIConfig, engine config.EngineConfig) *GeneratorService {
	return &GeneratorService{
		ai:     ai,
		engine: engine,
		client: &http.Client{Timeout: engine.GenerationTimeout},
	}
}

type aiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message aiChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// candidate mirrors the JSON shape the model is prompted to emit.
type candidate struct {
	Stem          string   `json:"stem"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Rationale     string   `json:"rationale"`
	Subject       string   `json:"subject"`
	Grade         *int     `json:"grade"`
	Topic         string   `json:"topic"`
	SubTopic      string   `json:"sub_topic"`
	Difficulty    string   `json:"difficulty"`
}

// Generate produces validated MCQ candidates for the context. In mock mode
// it returns deterministic questions without touching the network. Retries
// are bounded with exponential backoff; on exhaustion the caller receives
// ErrGenerationUnavailable and decides whether to degrade or fail.
func (g *GeneratorService) Generate(ctx context.Context, gc GenerationContext) ([]model.Question, error) {
	if gc.Count <= 0 {
		return nil, nil
	}
	if g.engine.MockGeneration {
		return g.mockQuestions(gc), nil
	}

	prompt := buildPrompt(gc)

	var raw string
	var err error
	backoff := time.Second
	retries := g.engine.GenerationRetries
	if retries < 1 {
		retries = 1
	}
	for attempt := 1; attempt <= retries; attempt++ {
		raw, err = g.invokeChat(ctx, prompt)
		if err == nil {
			break
		}
		logger.Log.Warn("question generation attempt failed",
			zap.Int("attempt", attempt),
			zap.String("subject", gc.Subject),
			zap.String("topic", gc.Topic),
			zap.Error(err))
		if attempt == retries {
			return nil, fmt.Errorf("%w: %v", util.ErrGenerationUnavailable, err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", util.ErrGenerationUnavailable, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 8*time.Second {
			backoff = 8 * time.Second
		}
	}

	candidates, err := parseCandidates(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrGenerationUnavailable, err)
	}

	questions := make([]model.Question, 0, len(candidates))
	for _, cand := range candidates {
		q := cand.toQuestion(gc)
		if err := q.Validate(); err != nil {
			// A malformed candidate is discarded, never fatal.
			logger.Log.Debug("discarding invalid generated question", zap.Error(err))
			continue
		}
		questions = append(questions, q)
	}
	monitoring.QuestionsGenerated.Add(float64(len(questions)))
	return questions, nil
}

// UpdateAI swaps the upstream credentials and endpoint, used by config
// hot-reload so key rotation does not require a restart.
func (g *GeneratorService) UpdateAI(ai config.AIConfig) {
	g.mu.Lock()
	g.ai = ai
	g.mu.Unlock()
}

func (g *GeneratorService) invokeChat(ctx context.Context, prompt string) (string, error) {
	g.mu.RLock()
	ai := g.ai
	g.mu.RUnlock()

	reqBody := map[string]interface{}{
		"model": ai.Model,
		"messages": []aiChatMessage{
			{Role: "system", Content: "You create Common Core-aligned multiple-choice questions in strict JSON."},
			{Role: "user", Content: prompt},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ai.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ai.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", err
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("AI API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("AI API returned no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}

func buildPrompt(gc GenerationContext) string {
	topicText := gc.Topic
	if topicText == "" {
		topicText = "grade-level concept"
	}
	gradeText := "Elementary"
	if gc.Grade != nil {
		gradeText = fmt.Sprintf("Grade %d", *gc.Grade)
	}
	focus := topicText
	if gc.SubTopic != "" {
		focus = fmt.Sprintf("%s (%s)", topicText, gc.SubTopic)
	}
	return fmt.Sprintf(
		"Generate %d multiple-choice questions for %s students learning %s. Focus on %s. "+
			"Each question must include exactly four answer options, one marked correct, a short rationale, "+
			"a Common Core style topic tag, and a difficulty of %s. "+
			"Respond with a JSON object {\"questions\": [...]} where each item has keys: stem, options (array of four strings), "+
			"correct_answer, rationale, subject, grade, topic, sub_topic, difficulty.",
		gc.Count, gradeText, gc.Subject, focus, gc.Difficulty,
	)
}

// parseCandidates accepts either a bare JSON array or an object wrapping it
// under "questions".
func parseCandidates(raw string) ([]candidate, error) {
	raw = strings.TrimSpace(raw)
	var wrapper struct {
		Questions []candidate `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapper); err == nil && wrapper.Questions != nil {
		return wrapper.Questions, nil
	}
	var list []candidate
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("expected a JSON array of questions: %w", err)
	}
	return list, nil
}

func (c candidate) toQuestion(gc GenerationContext) model.Question {
	subject := c.Subject
	if subject == "" {
		subject = gc.Subject
	}
	topic := c.Topic
	if topic == "" {
		topic = gc.Topic
		if topic == "" {
			topic = gc.Subject
		}
	}
	subTopic := c.SubTopic
	if subTopic == "" {
		subTopic = gc.SubTopic
	}
	difficulty := model.Difficulty(c.Difficulty)
	if !difficulty.Valid() {
		difficulty = gc.Difficulty
	}
	grade := c.Grade
	if grade == nil {
		grade = gc.Grade
	}
	return model.Question{
		Subject:       subject,
		Grade:         grade,
		Topic:         topic,
		SubTopic:      subTopic,
		Difficulty:    difficulty,
		Stem:          c.Stem,
		Options:       model.StringList(c.Options),
		CorrectAnswer: c.CorrectAnswer,
		Rationale:     c.Rationale,
		Source:        model.SourceGenerated,
		Hash:          util.QuestionFingerprint(c.Stem, c.Options, c.CorrectAnswer),
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// mockQuestions is the deterministic fallback used in tests and offline
// environments.
func (g *GeneratorService) mockQuestions(gc GenerationContext) []model.Question {
	baseTopic := gc.Topic
	if baseTopic == "" {
		baseTopic = "core " + gc.Subject
	}
	questions := make([]model.Question, 0, gc.Count)
	for i := 0; i < gc.Count; i++ {
		stem := fmt.Sprintf("[%s] %s practice %d: what is the best answer for %s learners?",
			titleCase(string(gc.Difficulty)), baseTopic, i+1, gc.Subject)
		options := make([]string, 4)
		for j := 0; j < 4; j++ {
			options[j] = fmt.Sprintf("Choice %c for %s", 'A'+j, baseTopic)
		}
		correct := options[i%4]
		questions = append(questions, model.Question{
			Subject:       gc.Subject,
			Grade:         gc.Grade,
			Topic:         baseTopic,
			SubTopic:      gc.SubTopic,
			Difficulty:    gc.Difficulty,
			Stem:          stem,
			Options:       model.StringList(options),
			CorrectAnswer: correct,
			Rationale:     fmt.Sprintf("Because %q best fits the prompt.", correct),
			Source:        model.SourceMock,
			Hash:          util.QuestionFingerprint(stem, options, correct),
		})
	}
	return questions
}
