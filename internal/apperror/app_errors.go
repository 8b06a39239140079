package apperror

import "errors"

var (
	ErrGameFinished      = errors.New("game is already finished")
	ErrGameNotFound      = errors.New("game not found")
	ErrNotFound          = errors.New("record not found")
	ErrMalformedRequest  = errors.New("malformed request")
	ErrDuplicatePlayer   = errors.New("player name is already taken")
	ErrPlayerNotWaiting  = errors.New("player is not waiting for a match")
	ErrCorruptSnapshot   = errors.New("snapshot does not describe a valid game")
	ErrGameAlreadyExists = errors.New("game already exists")
)
