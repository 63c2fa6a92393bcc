package auth

import (
	"context"
	"time"

	"github.com/lunavps/auth-service/sessions"
	"github.com/lunavps/auth-service/token"
	"github.com/lunavps/auth-service/users"
	"github.com/pkg/errors"
)

// TokenPair is the credentials handed back to a client on successful login
// or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users    users.UserRepo // Repository for user data
	Sessions sessions.Repo  // Repository for refresh-token sessions
}

// Service ties credential checking, token issuance, and session persistence
// together: login issues a fresh token pair and records a session; refresh
// validates and rotates the presented session.
type Service struct {
	repos         Repos
	authenticator Authenticator
	issuer        *token.Issuer
	sessionTTL    time.Duration    // Lifetime of a session row, matches the refresh token expiry
	nowTime       func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithSessionTTL overrides the session lifetime.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.sessionTTL = ttl
	}
}

// NewService initializes a new Service with required dependencies. Optional
// configuration can be provided via options (e.g., WithNowTime for testing).
func NewService(
	repos Repos,
	authenticator Authenticator,
	issuer *token.Issuer,
	options ...ServiceOption,
) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if authenticator == nil {
		return nil, errors.New("[NewService] authenticator is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewService] issuer is required")
	}

	service := &Service{
		repos:         repos,
		authenticator: authenticator,
		issuer:        issuer,
		nowTime:       time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	if service.sessionTTL == 0 {
		service.sessionTTL = issuer.RefreshTokenExpiry()
	}

	return service, nil
}

// Login checks the credentials and, on success, issues an access/refresh
// token pair and persists a new session keyed by the refresh token.
// Authentication failures propagate unchanged.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	if _, err := s.authenticator.Authenticate(ctx, email, password); err != nil {
		return nil, err
	}

	// The credential check already proved the identity exists, so absence
	// here is an invariant violation, not a client error.
	user, err := s.repos.Users.GetByEmail(email)
	if err != nil {
		return nil, errors.Wrap(IntegrityErr, "[Service.Login] GetByEmail")
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] issueTokenPair")
	}

	if err := s.repos.Sessions.Upsert(ctx, s.newSession(user, pair.RefreshToken)); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] Sessions.Upsert")
	}

	return pair, nil
}

// Refresh exchanges a refresh token for a new token pair, rotating the
// backing session. The presented token is single-use: once rotated, a replay
// fails with InvalidRefreshTokenErr because its row no longer exists.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	session, err := s.repos.Sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return nil, InvalidRefreshTokenErr
		}
		return nil, errors.Wrap(err, "[Service.Refresh] GetByRefreshToken")
	}

	now := s.nowTime()
	if session.Expired(now) {
		// Eager eviction: the stale row is removed even though the request fails.
		if err := s.repos.Sessions.Delete(ctx, session.ID); err != nil {
			return nil, errors.Wrap(err, "[Service.Refresh] Delete expired")
		}
		return nil, RefreshTokenExpiredErr
	}

	user, err := s.repos.Users.GetByID(session.UserID)
	if err != nil {
		return nil, errors.Wrap(IntegrityErr, "[Service.Refresh] GetByID")
	}

	// A tampered token leaves the session row untouched, unlike the expiry
	// branch above.
	if !s.issuer.ValidateRefreshToken(refreshToken, user) {
		return nil, InvalidRefreshTokenSignatureErr
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] issueTokenPair")
	}

	if err := s.repos.Sessions.Rotate(ctx, session, s.newSession(user, pair.RefreshToken)); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			// A concurrent refresh won the rotation.
			return nil, InvalidRefreshTokenErr
		}
		return nil, errors.Wrap(err, "[Service.Refresh] Sessions.Rotate")
	}

	return pair, nil
}

// Logout invalidates the session behind the presented refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.repos.Sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return InvalidRefreshTokenErr
		}
		return errors.Wrap(err, "[Service.Logout] GetByRefreshToken")
	}

	if err := s.repos.Sessions.Delete(ctx, session.ID); err != nil {
		return errors.Wrap(err, "[Service.Logout] Sessions.Delete")
	}
	return nil
}

// LogoutAll revokes every session the user owns (logout everywhere).
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repos.Sessions.DeleteAllForUser(ctx, userID); err != nil {
		return errors.Wrap(err, "[Service.LogoutAll] Sessions.DeleteAllForUser")
	}
	return nil
}

func (s *Service) issueTokenPair(user *users.User) (*TokenPair, error) {
	accessToken, err := s.issuer.CreateAccessToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "CreateAccessToken")
	}
	refreshToken, err := s.issuer.CreateRefreshToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "CreateRefreshToken")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) newSession(user *users.User, refreshToken string) *sessions.Session {
	now := s.nowTime()
	return &sessions.Session{
		UserID:       user.ID,
		RefreshToken: refreshToken,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.sessionTTL),
	}
}
