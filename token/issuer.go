package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lunavps/auth-service/users"
)

// Issuer creates and validates the signed bearer tokens handed to clients.
// Access tokens are short-lived and stateless; refresh tokens are long-lived
// and tracked server-side as sessions.
type Issuer struct {
	signer             Signer
	issuer             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

type IssuerOption func(*Issuer)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTokenExpiry = accessTokenExpiry
		i.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithIssuer(issuer string) IssuerOption {
	return func(i *Issuer) {
		i.issuer = issuer
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func New(signer Signer, options ...IssuerOption) *Issuer {
	i := &Issuer{
		signer: signer,
	}

	for _, opt := range options {
		opt(i)
	}

	if i.accessTokenExpiry == 0 {
		i.accessTokenExpiry = 15 * time.Minute
	}
	if i.refreshTokenExpiry == 0 {
		i.refreshTokenExpiry = 7 * 24 * time.Hour
	}
	if i.nowFunc == nil {
		i.nowFunc = time.Now
	}
	return i
}

// AccessTokenExpiry returns the configured access token lifetime.
func (i *Issuer) AccessTokenExpiry() time.Duration {
	return i.accessTokenExpiry
}

// RefreshTokenExpiry returns the configured refresh token lifetime.
func (i *Issuer) RefreshTokenExpiry() time.Duration {
	return i.refreshTokenExpiry
}

// CreateAccessToken produces a signed, short-lived token carrying the user's
// identity and role claims.
func (i *Issuer) CreateAccessToken(user *users.User) (string, error) {
	claims := jwt.MapClaims{
		"iss":   i.issuer,
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   int64(i.nowFunc().Unix()),
		"exp":   int64(i.nowFunc().Add(i.accessTokenExpiry).Unix()),
		"jti":   uuid.New().String(),
	}

	return i.signer.Sign(claims)
}

// CreateRefreshToken produces a signed, long-lived token for the user. The
// fresh jti claim makes every issued value distinct.
func (i *Issuer) CreateRefreshToken(user *users.User) (string, error) {
	claims := jwt.MapClaims{
		"iss": i.issuer,
		"sub": user.ID,
		"iat": int64(i.nowFunc().Unix()),
		"exp": int64(i.nowFunc().Add(i.refreshTokenExpiry).Unix()),
		"jti": uuid.New().String(),
	}

	return i.signer.Sign(claims)
}

// ValidateRefreshToken verifies the token's signature and expiry and that its
// subject matches the given user. Malformed or tampered input returns false,
// never an error.
func (i *Issuer) ValidateRefreshToken(rawToken string, user *users.User) bool {
	if strings.TrimSpace(rawToken) == "" || user == nil {
		return false
	}

	parsed, err := jwt.Parse(rawToken, i.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(i.nowFunc),
	)
	if err != nil || !parsed.Valid {
		return false
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return false
	}
	return sub == user.ID
}
