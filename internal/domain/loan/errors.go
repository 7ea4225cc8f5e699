package loan

import "errors"

var (
	ErrNotFound            = errors.New("loan not found")
	ErrInvalidTerms        = errors.New("invalid loan terms")
	ErrDuplicateIdentifier = errors.New("loan identifier already exists")
)
