package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoubaax/on-time/internal/core/domain"
	"github.com/zoubaax/on-time/internal/core/ports"
)

var tracer = otel.Tracer("github.com/zoubaax/on-time/internal/core/service")

// AuthService implements sign-up, sign-in, OAuth callback, refresh and sign-out.
type AuthService struct {
	idp    ports.IdentityProvider
	users  ports.UserRepository
	tokens ports.TokenService
	audit  ports.AuditSink
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(
	idp ports.IdentityProvider,
	users ports.UserRepository,
	tokens ports.TokenService,
	audit ports.AuditSink,
	log zerolog.Logger,
) *AuthService {
	if audit == nil {
		audit = NopAuditSink{}
	}
	return &AuthService{
		idp:    idp,
		users:  users,
		tokens: tokens,
		audit:  audit,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SignUp registers the credentials with the provider and reconciles the local
// user. Tokens are issued only when the provider returned a session.
func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (res *ports.AuthResult, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.SignUp")
	defer func() { endSpan(span, err) }()

	identity, session, err := s.idp.SignUp(ctx, email, password, fullName)
	if err != nil {
		return nil, err
	}
	if identity.FullName == "" {
		identity.FullName = fullName
	}
	if identity.Provider == "" {
		identity.Provider = domain.ProviderEmail
	}

	user, err := s.ensureLocalUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID))
	s.record(domain.EventSignUp, user, "")

	if session == nil {
		s.log.Info().Str("user_id", user.ID).Msg("sign-up pending email confirmation")
		return &ports.AuthResult{User: user, ConfirmationRequired: true}, nil
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{User: user, Tokens: pair}, nil
}

// SignIn authenticates with the provider and issues a local token pair.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (res *ports.AuthResult, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.SignIn")
	defer func() { endSpan(span, err) }()

	identity, _, err := s.idp.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if identity.Provider == "" {
		identity.Provider = domain.ProviderEmail
	}

	user, err := s.ensureLocalUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.record(domain.EventSignIn, user, "")
	return &ports.AuthResult{User: user, Tokens: pair}, nil
}

// GoogleAuthURL returns the provider consent URL. No local state is kept.
func (s *AuthService) GoogleAuthURL(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "AuthService.GoogleAuthURL")
	url, err := s.idp.OAuthURL(ctx, domain.ProviderGoogle)
	endSpan(span, err)
	return url, err
}

// HandleOAuthCallback exchanges the provider access token for the provider
// user, reconciles the local record by email and issues a local pair. The
// provider's own tokens are not forwarded.
func (s *AuthService) HandleOAuthCallback(ctx context.Context, accessToken, _ string) (res *ports.AuthResult, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.HandleOAuthCallback")
	defer func() { endSpan(span, err) }()

	identity, err := s.idp.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if identity.Email == "" {
		return nil, domain.NewProviderError(http.StatusUnauthorized, "Invalid access token")
	}
	if identity.Provider == "" {
		identity.Provider = domain.ProviderGoogle
	}

	user, err := s.ensureLocalUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.record(domain.EventOAuthCallback, user, string(identity.Provider))
	return &ports.AuthResult{User: user, Tokens: pair}, nil
}

// RefreshToken verifies the refresh token locally and issues a fresh pair for
// the user it names. The user is re-read, so the new pair carries the current role.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (pair *domain.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.RefreshToken")
	defer func() { endSpan(span, err) }()

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	pair, err = s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.record(domain.EventTokenRefresh, user, "")
	return pair, nil
}

// SignOut acknowledges the request. Issued tokens stay valid until they expire.
func (s *AuthService) SignOut(ctx context.Context, userID string) error {
	_, span := tracer.Start(ctx, "AuthService.SignOut")
	defer span.End()

	s.audit.Record(domain.AuthEvent{Type: domain.EventSignOut, UserID: userID, OccurredAt: s.now()})
	return nil
}

// ensureLocalUser returns the local record for identity, creating it with
// role=user when neither the id nor the email is known. Safe to call repeatedly.
func (s *AuthService) ensureLocalUser(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	if identity.ID != "" {
		user, err := s.users.FindByID(ctx, identity.ID)
		if err != nil {
			return nil, fmt.Errorf("ensure local user: %w", err)
		}
		if user != nil {
			return user, nil
		}
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ensure local user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	created, err := s.users.Create(ctx, domain.NewUser(identity, s.now()))
	if errors.Is(err, domain.ErrUserExists) {
		// Lost a race with a concurrent flow for the same email.
		user, findErr := s.users.FindByEmail(ctx, email)
		if findErr == nil && user != nil {
			return user, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("ensure local user: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("provider", string(created.Provider)).Msg("local user created")
	s.record(domain.EventUserCreated, created, string(created.Provider))
	return created, nil
}

func (s *AuthService) record(t domain.AuthEventType, user *domain.User, detail string) {
	s.audit.Record(domain.AuthEvent{
		Type:       t,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: s.now(),
		Detail:     detail,
	})
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// NopAuditSink discards events.
type NopAuditSink struct{}

func (NopAuditSink) Record(domain.AuthEvent) {}
