package service

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrLevelNotFound   = errors.New("level not found")
	ErrInvalidLevel    = errors.New("invalid level")
	ErrNoNextLevel     = errors.New("no next level")
	ErrInvalidPref     = errors.New("invalid preference")
)
