package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrDocumentGeneration = errors.New("document generation failed")
)
