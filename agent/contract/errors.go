package contract

import (
	"errors"

	statex "github.com/tanpawarit/travelai/agent/state"
)

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
	ErrProvider        = errors.New("provider call failed")
	ErrEmptyTurn       = errors.New("turn produced no observable output")

	ErrSessionNotFound = statex.ErrSessionNotFound
	ErrSessionCorrupt  = statex.ErrSessionCorrupt
)
