// Manual question bank seeding script.
//
// Reads a YAML file of questions, validates each one, computes its content
// hash and upserts it into the bank. Duplicate content is skipped by the
// hash unique index, so re-running the script is safe.
//
// Usage: go run scripts/seed_questions.go seed/questions.yaml

package main

import (
	"log"
	"os"

	"studybuddy_backend/internal/config"
	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/repository"
	"studybuddy_backend/internal/util"
	"studybuddy_backend/pkg/database"
	"studybuddy_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

type seedQuestion struct {
	Subject       string   `yaml:"subject"`
	Grade         *int     `yaml:"grade"`
	Topic         string   `yaml:"topic"`
	SubTopic      string   `yaml:"subtopic"`
	Difficulty    string   `yaml:"difficulty"`
	Stem          string   `yaml:"stem"`
	Options       []string `yaml:"options"`
	CorrectAnswer string   `yaml:"correct_answer"`
	Rationale     string   `yaml:"rationale"`
	StandardRef   string   `yaml:"standard_ref"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: go run scripts/seed_questions.go <seed-file.yaml>")
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.InitLogger(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("failed to read seed file: %v", err)
	}

	var seeds []seedQuestion
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		log.Fatalf("failed to parse seed file: %v", err)
	}

	questions := make([]model.Question, 0, len(seeds))
	skipped := 0
	for i, s := range seeds {
		difficulty := model.Difficulty(s.Difficulty)
		if !difficulty.Valid() {
			difficulty = model.DifficultyMedium
		}
		q := model.Question{
			Subject:       s.Subject,
			Grade:         s.Grade,
			Topic:         s.Topic,
			SubTopic:      s.SubTopic,
			Difficulty:    difficulty,
			Stem:          s.Stem,
			Options:       model.StringList(s.Options),
			CorrectAnswer: s.CorrectAnswer,
			Rationale:     s.Rationale,
			StandardRef:   s.StandardRef,
			Source:        model.SourceSeeded,
			Hash:          util.QuestionFingerprint(s.Stem, s.Options, s.CorrectAnswer),
		}
		if err := q.Validate(); err != nil {
			log.Printf("skipping entry %d: %v", i, err)
			skipped++
			continue
		}
		questions = append(questions, q)
	}

	repo := repository.NewQuestionRepository(db)
	if err := repo.Upsert(questions); err != nil {
		log.Fatalf("failed to upsert questions: %v", err)
	}

	log.Printf("seeded %d questions (%d skipped)", len(questions), skipped)
}
