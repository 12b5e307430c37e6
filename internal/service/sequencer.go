package service

import (
	"studybuddy_backend/internal/config"
	"studybuddy_backend/internal/model"
)

// DifficultySequence maps a child's whole attempt history to an ordered
// difficulty preference list. The result is a priority order, not an
// exclusion list: lower tiers are still consulted when higher ones cannot
// fill a request. Thresholds are inclusive and accuracy is computed over the
// entire history, not a window.
func DifficultySequence(attempts []model.Attempt, cfg config.EngineConfig) []model.Difficulty {
	if len(attempts) == 0 {
		return []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium}
	}

	correct := 0
	for _, attempt := range attempts {
		if attempt.Correct {
			correct++
		}
	}
	accuracy := float64(correct) / float64(len(attempts))

	if accuracy >= cfg.MasteryAccuracy && len(attempts) >= cfg.MasteryMinAttempts {
		// Mastery: lead with challenge, keep an easy tail for confidence.
		return []model.Difficulty{model.DifficultyMedium, model.DifficultyHard, model.DifficultyEasy}
	}
	if accuracy >= 0.80 {
		return []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard}
	}
	return []model.Difficulty{model.DifficultyEasy}
}
