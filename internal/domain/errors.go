package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNameRequired    = errors.New("display name is required")
	ErrNameNotSet      = errors.New("display name not set")
	ErrInvalidStatus   = errors.New("invalid status value")
	ErrSendQueueFull   = errors.New("send queue is full")
)
