package registry

import "errors"

var (
	ErrOnlyFactory      = errors.New("registry: only the factory can store projects")
	ErrOnlyProjectOwner = errors.New("registry: only the project owner can update the project")
	ErrUnauthorized     = errors.New("registry: unauthorized")
	ErrProjectNotFound  = errors.New("registry: project not found")
	ErrTerminated       = errors.New("registry: project terminated")
	ErrInvalidBoostRate = errors.New("registry: boost rate must be positive")
	ErrInvalidPayload   = errors.New("registry: invalid verification payload")
	ErrInvalidAmount    = errors.New("registry: amount must be positive")
	ErrTransferFailed   = errors.New("registry: token transfer failed")
)
