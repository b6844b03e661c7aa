package auth

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_verifier.go -package=mocks semnotes/internal/auth Verifier

import (
	"context"

	"semnotes/internal/core"
)

// Verifier resolves an opaque credential to a user id. Token issuance and the
// authentication protocol itself live outside this service; every core
// operation only needs the resulting user id.
type Verifier interface {
	// Verify resolves a bearer token to a user id.
	// Returns core.ErrUnauthorized for unknown or empty tokens.
	Verify(ctx context.Context, token string) (string, error)
}

// StaticVerifier verifies tokens against a fixed token-to-user map loaded at
// startup.
type StaticVerifier struct {
	tokens map[string]string
}

// NewStaticVerifier creates a StaticVerifier from a token->userID map.
func NewStaticVerifier(tokens map[string]string) *StaticVerifier {
	m := make(map[string]string, len(tokens))
	for token, userID := range tokens {
		m[token] = userID
	}
	return &StaticVerifier{tokens: m}
}

// Verify resolves a bearer token to a user id.
func (v *StaticVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", core.ErrUnauthorized
	}
	userID, ok := v.tokens[token]
	if !ok {
		return "", core.ErrUnauthorized
	}
	return userID, nil
}
