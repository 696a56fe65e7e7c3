package domain

import "errors"

// Not found / conflict errors
var (
	ErrTemplateNotFound = errors.New("no such template")
	ErrTemplateExists   = errors.New("template with this id already exists")
)

// Validation errors
var (
	ErrMissingCategory    = errors.New("category is required")
	ErrMissingTitle       = errors.New("title is required")
	ErrMissingDescription = errors.New("description is required")
	ErrMissingOwner       = errors.New("owner is required")
	ErrMissingFile        = errors.New("a file must be provided under the field \"file\"")
	ErrMissingPrincipal   = errors.New("an authenticated user principal is required")
)
