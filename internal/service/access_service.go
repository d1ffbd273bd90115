package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// TokenTypeBearer is the only token type issued at login.
const TokenTypeBearer = "bearer"

// dummyPassword is hashed once and compared against when the email is
// unknown, so both login failure paths pay for a bcrypt comparison.
const dummyPassword = "tasktrack-login-timing-equalizer"

// TokenResult is the outcome of a successful login.
type TokenResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// AccessService handles account registration, login and the resolution of
// bearer tokens to user identities.
type AccessService interface {
	// ResolveIdentity returns the id of the user the token was issued for.
	// Any problem with the token, or a user that no longer exists, yields
	// ErrUnauthenticated.
	ResolveIdentity(ctx context.Context, token string) (uuid.UUID, error)

	// Register creates an account. Returns ErrEmailTaken when the email is
	// already registered.
	Register(ctx context.Context, email, password string) (*domain.User, error)

	// Login checks credentials and issues an access token. Unknown email and
	// wrong password both yield ErrUnauthenticated.
	Login(ctx context.Context, email, password string) (*TokenResult, error)
}

type accessServiceImpl struct {
	users    store.UserStore
	tokens   auth.JWTService
	hasher   auth.PasswordHasher
	verifier auth.PasswordVerifier
	logger   *slog.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// NewAccessService creates an AccessService.
func NewAccessService(
	users store.UserStore,
	tokens auth.JWTService,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	logger *slog.Logger,
) (AccessService, error) {
	switch {
	case users == nil:
		return nil, NewServiceError("access", "create_service", errors.New("user store cannot be nil"))
	case tokens == nil:
		return nil, NewServiceError("access", "create_service", errors.New("jwt service cannot be nil"))
	case hasher == nil:
		return nil, NewServiceError("access", "create_service", errors.New("password hasher cannot be nil"))
	case verifier == nil:
		return nil, NewServiceError("access", "create_service", errors.New("password verifier cannot be nil"))
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &accessServiceImpl{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		verifier: verifier,
		logger:   logger.With(slog.String("component", "access_service")),
	}, nil
}

// ResolveIdentity implements AccessService.
func (s *accessServiceImpl) ResolveIdentity(ctx context.Context, token string) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	claims, err := s.tokens.ValidateToken(ctx, token)
	if err != nil {
		log.Debug("token rejected", slog.String("reason", err.Error()))
		return uuid.Nil, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("token subject has no account",
				slog.String("user_id", claims.UserID.String()))
			return uuid.Nil, ErrUnauthenticated
		}
		log.Error("failed to look up token subject",
			slog.String("error", err.Error()),
			slog.String("user_id", claims.UserID.String()))
		return uuid.Nil, NewServiceError("access", "resolve_identity", err)
	}

	return user.ID, nil
}

// Register implements AccessService.
func (s *accessServiceImpl) Register(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		log.Debug("registration with existing email rejected")
		return nil, ErrEmailTaken
	case !errors.Is(err, store.ErrUserNotFound):
		log.Error("failed to check email availability", slog.String("error", err.Error()))
		return nil, NewServiceError("access", "register", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, NewServiceError("access", "register", err)
	}

	user, err := domain.NewUser(email, digest)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can win between the check and the insert.
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("registration lost race for email")
			return nil, ErrEmailTaken
		}
		log.Error("failed to save user", slog.String("error", err.Error()))
		return nil, NewServiceError("access", "register", err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login implements AccessService.
func (s *accessServiceImpl) Login(ctx context.Context, email, password string) (*TokenResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Error("failed to look up user for login", slog.String("error", err.Error()))
			return nil, NewServiceError("access", "login", err)
		}
		_ = s.verifier.Compare(s.dummyHash(), password)
		log.Debug("login failed")
		return nil, ErrUnauthenticated
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login failed", slog.String("user_id", user.ID.String()))
		return nil, ErrUnauthenticated
	}

	token, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		log.Error("failed to issue token",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return nil, NewServiceError("access", "login", err)
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))

	return &TokenResult{
		AccessToken: token.Value,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

func (s *accessServiceImpl) dummyHash() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Warn("failed to prepare dummy password hash", slog.String("error", err.Error()))
			return
		}
		s.dummyDigest = digest
	})
	return s.dummyDigest
}
