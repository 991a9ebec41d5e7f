package contract

import "errors"

var (
	ErrInvalidRequest = errors.New("request type is not supported")
	ErrInvalidSession = errors.New("session id is empty")
	ErrUnknownIntent  = errors.New("intent is not supported")
	ErrValidation     = errors.New("validation failed")
)
