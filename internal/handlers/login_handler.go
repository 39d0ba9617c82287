package handlers

import (
	"errors"
	"strings"

	"smokedash/internal/auth"
	"smokedash/internal/database"
	"smokedash/internal/models"
)

// Authenticator checks credentials against the user records.
type Authenticator interface {
	Authenticate(username, password string) (*models.User, error)
	GetUser(username string) (*models.User, error)
}

// Login opens and closes the terminal session.
type Login struct {
	users   Authenticator
	issuer  *auth.TokenIssuer
	session *auth.SessionFile
}

func NewLogin(users Authenticator, issuer *auth.TokenIssuer, session *auth.SessionFile) *Login {
	return &Login{users: users, issuer: issuer, session: session}
}

// Login verifies the credentials and stores a signed token for the terminal.
func (l *Login) Login(username, password string) (*auth.Claims, error) {
	// 1. Validate input
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, database.ErrInvalidCredentials
	}

	// 2. Find the user and verify the password
	user, err := l.users.Authenticate(username, password)
	if err != nil {
		return nil, err
	}

	// 3. Generate the session token
	token, err := l.issuer.GenerateToken(*user)
	if err != nil {
		return nil, err
	}

	// 4. Remember it for the next command
	if err := l.session.Save(token); err != nil {
		return nil, err
	}
	return l.issuer.ValidateToken(token)
}

// Logout forgets the terminal session.
func (l *Login) Logout() error {
	return l.session.Clear()
}

// Current returns the claims of the stored session. A stale or tampered
// token is cleared and reported as no session. Role and pages come from the
// user record as it is now, so edits apply to sessions already open and a
// deleted user is logged out.
func (l *Login) Current() (*auth.Claims, error) {
	token, err := l.session.Load()
	if err != nil {
		return nil, err
	}
	claims, err := l.issuer.ValidateToken(token)
	if err != nil {
		return nil, l.endSession()
	}

	user, err := l.users.GetUser(claims.Username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, l.endSession()
	}
	if err != nil {
		return nil, err
	}
	claims.Role = user.Role
	claims.Permissions = user.EffectivePermissions()
	return claims, nil
}

func (l *Login) endSession() error {
	if err := l.session.Clear(); err != nil {
		return err
	}
	return auth.ErrNoSession
}
