package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrTemporary         = errors.New("temporary failure")
	ErrCatalogNotLoaded  = errors.New("catalog not loaded")
	ErrMalformedMessage  = errors.New("malformed message")
	ErrClientNotFound    = errors.New("client not found")
	ErrNoValidArticles   = errors.New("no valid articles")
	ErrUnknownCatalogSet = errors.New("unknown catalog list")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
