package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/psds-microservice/chamados-service/internal/errs"
	"github.com/psds-microservice/chamados-service/internal/model"
	"github.com/psds-microservice/chamados-service/internal/service"
)

// UserFinder looks up active accounts in usuarios.
type UserFinder interface {
	GetActiveByUsername(ctx context.Context, username string) (*model.User, error)
}

// Session is an issued credential.
type Session struct {
	Token     string     `json:"access_token"`
	Subject   string     `json:"sub"`
	Role      model.Role `json:"papel"`
	ExpiresAt time.Time  `json:"expires_at"`
}

type Authenticator struct {
	users  UserFinder
	issuer *Issuer
}

func NewAuthenticator(users UserFinder, issuer *Issuer) *Authenticator {
	return &Authenticator{users: users, issuer: issuer}
}

// Login verifies username/password and issues a session token. Unknown users,
// inactive users, wrong passwords and rows with an unknown role all yield
// errs.ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, errs.ErrInvalidCredentials
	}
	u, err := a.users.GetActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, errs.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login %q: %w", username, err)
	}
	if !CheckPassword(password, u.PasswordHash) || !u.Role.Valid() {
		return nil, errs.ErrInvalidCredentials
	}
	token, exp, err := a.issuer.Issue(u.Username, u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Subject: u.Username, Role: u.Role, ExpiresAt: exp}, nil
}
