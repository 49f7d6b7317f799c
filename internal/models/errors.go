package models

import "errors"

var (
	ErrInvalidStep   = errors.New("invalid step")
	ErrUnknownStepID = errors.New("unknown step id")
	ErrCorruptState  = errors.New("corrupt progress state")
)
