package util

import "errors"

var (
	ErrEmailRegistered        = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrChildNotFound          = errors.New("child not found")
	ErrChildMismatch          = errors.New("child does not belong to parent")
	ErrQuestionNotFound       = errors.New("question not found")
	ErrSessionNotFound        = errors.New("quiz session not found")
	ErrValidationFailed       = errors.New("validation failed")
	ErrInsufficientSupply     = errors.New("insufficient questions available")
	ErrAlreadySubmitted       = errors.New("quiz already submitted")
	ErrSessionExpired         = errors.New("quiz session has expired")
	ErrActiveQuizExists       = errors.New("active quiz already exists for this child/subject/topic")
	ErrGenerationUnavailable  = errors.New("question generation unavailable")
	ErrDuplicateQuizQuestions = errors.New("duplicate questions detected in selection")
)
