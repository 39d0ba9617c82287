package middleware

import (
	"context"
	"errors"
	"fmt"

	"smokedash/internal/auth"

	"github.com/spf13/cobra"
)

var (
	// ErrUnauthenticated - the command needs a logged-in user.
	ErrUnauthenticated = errors.New("login required")
	// ErrForbidden - the logged-in user lacks the page permission.
	ErrForbidden = errors.New("permission denied")
)

// Guard runs before a command; a non-nil error stops it.
type Guard func(cmd *cobra.Command, args []string) error

// SessionSource yields the claims of the terminal's current session.
type SessionSource interface {
	Current() (*auth.Claims, error)
}

type claimsKey struct{}

func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the claims stored by AuthMiddleware.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	if ctx == nil {
		return nil, false
	}
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

// AuthMiddleware checks that the terminal has a valid session token
func AuthMiddleware(sessions func() SessionSource) Guard {
	return func(cmd *cobra.Command, args []string) error {
		// 1. Load and validate the stored token
		claims, err := sessions().Current()
		if errors.Is(err, auth.ErrNoSession) {
			return fmt.Errorf("%w: run 'pos login' first", ErrUnauthenticated)
		}
		if err != nil {
			return err
		}

		// 2. Store user info in the context for the command to use
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(WithClaims(ctx, claims))
		return nil
	}
}

// RequirePage is a secondary guard that checks for a page permission
func RequirePage(page string) Guard {
	return func(cmd *cobra.Command, args []string) error {
		claims, ok := ClaimsFrom(cmd.Context())
		if !ok {
			return ErrUnauthenticated
		}
		if !claims.CanAccess(page) {
			return fmt.Errorf("%w: %s may not use %s", ErrForbidden, claims.Username, page)
		}
		return nil
	}
}

// Chain runs guards in order and stops at the first error.
func Chain(guards ...Guard) Guard {
	return func(cmd *cobra.Command, args []string) error {
		for _, g := range guards {
			if err := g(cmd, args); err != nil {
				return err
			}
		}
		return nil
	}
}
