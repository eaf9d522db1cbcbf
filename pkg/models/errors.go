package models

import "errors"

// Sentinel errors shared by the collaborators and the components that read them
var (
	ErrPriceNotFound     = errors.New("price not found")
	ErrTokenNotFound     = errors.New("token not found")
	ErrMalformedResponse = errors.New("malformed response")
)
