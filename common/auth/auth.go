package auth

import (
	"context"
	"errors"
)

// ErrUnauthenticated is returned when an identity token is missing or invalid
var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier checks a caller-supplied identity token and resolves it to a user ID
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}
