package services

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zatekoja/patientportal/internal/domain/entities"
	"github.com/zatekoja/patientportal/internal/domain/providers"
	"github.com/zatekoja/patientportal/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/patientportal/pkg/errors"
)

// SessionService owns the access token: login writes it, logout clears it,
// everything else only reads it through RequireToken.
type SessionService struct {
	api   providers.ClinicAPI
	store providers.CredentialStore
}

// NewSessionService creates a new session service
func NewSessionService(api providers.ClinicAPI, store providers.CredentialStore) *SessionService {
	return &SessionService{
		api:   api,
		store: store,
	}
}

// Login exchanges credentials for a token and stores it. On any failure the
// previously stored token is left as it was.
func (s *SessionService) Login(ctx context.Context, login, password string) (*entities.Session, error) {
	if strings.TrimSpace(login) == "" || password == "" {
		return nil, apperrors.NewAuthenticationError("login and password are required", nil)
	}

	token, err := s.api.Login(ctx, login, password)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrorTypeAuthentication) {
			return nil, err
		}
		return nil, apperrors.NewAuthenticationError("login failed", err)
	}

	if err := s.store.Set(ctx, providers.AccessTokenKey, token); err != nil {
		return nil, apperrors.NewInternalError("store access token", err)
	}

	observability.LoggerFromContext(ctx).Info().Str("login", login).Msg("Logged in")
	session := newSession(token)
	return &session, nil
}

// CurrentToken returns the stored token; ok is false when there is none
func (s *SessionService) CurrentToken(ctx context.Context) (string, bool, error) {
	token, ok, err := s.store.Get(ctx, providers.AccessTokenKey)
	if err != nil {
		return "", false, apperrors.NewInternalError("read access token", err)
	}
	if !ok || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// RequireToken returns the stored token or an UNAUTHENTICATED error. Callers
// must use it before any authenticated request.
func (s *SessionService) RequireToken(ctx context.Context) (string, error) {
	token, ok, err := s.CurrentToken(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperrors.NewUnauthenticatedError("no access token")
	}
	return token, nil
}

// Current returns the session for the stored token, unauthenticated if none
func (s *SessionService) Current(ctx context.Context) (entities.Session, error) {
	token, ok, err := s.CurrentToken(ctx)
	if err != nil || !ok {
		return entities.Session{}, err
	}
	return newSession(token), nil
}

// Logout tells the server the token is no longer in use, then removes it
// locally. The server call is best effort; removal always happens.
func (s *SessionService) Logout(ctx context.Context) error {
	token, ok, err := s.CurrentToken(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Could not read token before logout")
	}

	if ok {
		if err := s.api.Logout(ctx, token); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Server logout failed, clearing local session anyway")
		}
	}

	if err := s.store.Remove(ctx, providers.AccessTokenKey); err != nil {
		return apperrors.NewInternalError("remove access token", err)
	}
	observability.LoggerFromContext(ctx).Info().Msg("Logged out")
	return nil
}

func newSession(token string) entities.Session {
	return entities.Session{
		Token:     token,
		ExpiresAt: tokenExpiry(token),
	}
}

// tokenExpiry reads exp from a JWT without verifying it; the server remains
// the judge of validity. Opaque tokens have no expiry.
func tokenExpiry(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}
