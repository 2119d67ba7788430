package token

import "errors"

var (
	ErrTokenExists           = errors.New("token: symbol already registered")
	ErrTokenNotFound         = errors.New("token: not registered")
	ErrInvalidSymbol         = errors.New("token: invalid symbol")
	ErrInvalidName           = errors.New("token: name must not be empty")
	ErrInvalidAmount         = errors.New("token: amount must be positive")
	ErrUnauthorized          = errors.New("token: unauthorized")
	ErrInsufficientBalance   = errors.New("token: transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("token: transfer amount exceeds allowance")
)
