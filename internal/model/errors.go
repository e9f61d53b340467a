package model

import "errors"

var (
	ErrUnauthorized      = errors.New("not authorized")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrTransport         = errors.New("notification transport failure")
)
