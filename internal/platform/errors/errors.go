package apperrors

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrNotLoaded          = errors.New("lesson catalog not loaded")
	ErrCatalogUnavailable = errors.New("lesson catalog unavailable")
)
