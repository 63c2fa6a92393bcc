package auth

import (
	"context"

	"github.com/lunavps/auth-service/users"
)

// Authenticator verifies a user's credentials and account status. A failed
// check returns an error matching AuthenticationErr; the orchestrator
// performs no recovery.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*users.User, error)
}

// CredentialsAuthenticator checks an email/password pair against the user
// store's bcrypt hashes.
type CredentialsAuthenticator struct {
	users users.UserRepo
}

var _ Authenticator = (*CredentialsAuthenticator)(nil)

func NewCredentialsAuthenticator(userRepo users.UserRepo) *CredentialsAuthenticator {
	return &CredentialsAuthenticator{users: userRepo}
}

// Authenticate returns the matching user. Unknown emails and wrong passwords
// both surface as BadCredentialsErr so callers cannot probe for accounts.
func (a *CredentialsAuthenticator) Authenticate(_ context.Context, email, password string) (*users.User, error) {
	user, err := a.users.GetByEmail(email)
	if err != nil {
		return nil, BadCredentialsErr
	}
	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, BadCredentialsErr
	}
	if !user.Active {
		return nil, AccountDisabledErr
	}
	return user, nil
}
