package services

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrEventNotFound = errors.New("event not found")
)
