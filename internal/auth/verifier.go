// Package auth implements the session guard: identity token verification
// delegated to an external provider, and a session store binding generated
// session ids to user ids for 24 hours.
package auth

import (
	"context"
	"fmt"
	"strings"

	"wisepenny/internal/core"

	"google.golang.org/api/idtoken"
)

// Verifier validates an externally-issued identity token and returns the
// user id it asserts. Implementations map any verification failure to
// core.ErrInvalidToken.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// GoogleVerifier validates Google-issued ID tokens against an OAuth client
// audience.
type GoogleVerifier struct {
	audience string
}

func NewGoogleVerifier(audience string) *GoogleVerifier {
	return &GoogleVerifier{audience: audience}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (string, error) {
	payload, err := idtoken.Validate(ctx, token, v.audience)
	if err != nil {
		return "", fmt.Errorf("%w: %s", core.ErrInvalidToken, err)
	}
	if payload.Subject == "" {
		return "", core.ErrInvalidToken
	}
	return payload.Subject, nil
}

// InsecureVerifier accepts any non-empty token as the user id itself.
// Development only; main refuses to use it unless explicitly configured.
type InsecureVerifier struct{}

func (InsecureVerifier) Verify(_ context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", core.ErrInvalidToken
	}
	return token, nil
}

var (
	_ Verifier = (*GoogleVerifier)(nil)
	_ Verifier = InsecureVerifier{}
)
