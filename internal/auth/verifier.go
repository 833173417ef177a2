// Package auth verifies identity-provider tokens and resolves the caller of
// each request into a domain.Actor.
package auth

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the identity facts taken from a verified token.
type Claims struct {
	UID   string
	Email string
	Name  string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}
