package auth

import (
	"errors"
	"fmt"
)

// AuthenticationErr is the parent of every credential-check failure. The
// concrete causes below all match it via errors.Is.
var AuthenticationErr = errors.New("authentication failed")

var (
	BadCredentialsErr  = fmt.Errorf("%w: bad credentials", AuthenticationErr)
	AccountDisabledErr = fmt.Errorf("%w: account disabled", AuthenticationErr)

	// IntegrityErr means the identity record vanished between the credential
	// check and the canonical lookup. Always a server-side invariant violation.
	IntegrityErr = errors.New("identity record missing after authentication")

	InvalidRefreshTokenErr          = errors.New("invalid refresh token")
	RefreshTokenExpiredErr          = errors.New("refresh token expired")
	InvalidRefreshTokenSignatureErr = errors.New("invalid refresh token signature")
)
