package usecase

import "errors"

var (
	ErrUserNotRegistered    = errors.New("user not registered")
	ErrInvalidPrice         = errors.New("invalid price")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidCondition     = errors.New("invalid condition")
	ErrDuplicateAlert       = errors.New("duplicate alert")
	ErrAlertNotFound        = errors.New("alert not found")
	ErrPositionNotFound     = errors.New("position not found")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
)
