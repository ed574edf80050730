package shortener

import "errors"

// Sentinel errors name the exact failure. They are always wrapped in an
// *errx.Error whose Kind carries the class.
var (
	ErrInvalidURL          = errors.New("invalid url")
	ErrInvalidCode         = errors.New("invalid code")
	ErrCodeExists          = errors.New("code already exists")
	ErrGenerationExhausted = errors.New("could not generate a unique code")
	ErrNotFound            = errors.New("link not found")
)
