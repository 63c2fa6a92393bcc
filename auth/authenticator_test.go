package auth_test

import (
	"context"
	"testing"

	"github.com/lunavps/auth-service/auth"
	"github.com/lunavps/auth-service/users"
	fakeuserrepo "github.com/lunavps/auth-service/users/repofake"
	"github.com/stretchr/testify/require"
)

func setupAuthenticator(t *testing.T, active bool) *auth.CredentialsAuthenticator {
	t.Helper()

	ur := fakeuserrepo.NewFakeUserRepo()
	hash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)
	require.NoError(t, ur.Upsert(&users.User{
		ID:           testUserID,
		Email:        testUserEmail,
		PasswordHash: hash,
		Role:         users.RoleUser,
		Active:       active,
	}))
	return auth.NewCredentialsAuthenticator(ur)
}

func TestAuthenticateSuccess(t *testing.T) {
	a := setupAuthenticator(t, true)

	user, err := a.Authenticate(context.Background(), testUserEmail, testUserPassword)
	require.NoError(t, err)
	require.Equal(t, testUserID, user.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	a := setupAuthenticator(t, true)

	_, err := a.Authenticate(context.Background(), testUserEmail, "wrongPassword1")
	require.ErrorIs(t, err, auth.BadCredentialsErr)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	a := setupAuthenticator(t, true)

	// Indistinguishable from a wrong password.
	_, err := a.Authenticate(context.Background(), "nobody@example.com", testUserPassword)
	require.ErrorIs(t, err, auth.BadCredentialsErr)
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	a := setupAuthenticator(t, false)

	_, err := a.Authenticate(context.Background(), testUserEmail, testUserPassword)
	require.ErrorIs(t, err, auth.AccountDisabledErr)
}
