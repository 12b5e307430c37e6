package util

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

type fingerprintPayload struct {
	Answer  string   `json:"answer"`
	Options []string `json:"options"`
	Stem    string   `json:"stem"`
}

// QuestionFingerprint derives the content-addressed identity of a question
// from its stem, options and correct answer. Metadata (subject, topic,
// difficulty) never participates, so re-tagging keeps the identity stable.
// Options are hashed in the given order: two questions differing only in
// option order are distinct.
func QuestionFingerprint(stem string, options []string, answer string) string {
	if options == nil {
		options = []string{}
	}
	payload, _ := json.Marshal(fingerprintPayload{
		Answer:  answer,
		Options: options,
		Stem:    stem,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
