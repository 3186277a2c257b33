package service

import (
	"context"
	"errors"
	"time"

	authdomain "github.com/dcamposl/inventario/internal/auth/domain"
	authrepo "github.com/dcamposl/inventario/internal/auth/repository"
	"github.com/dcamposl/inventario/internal/common/clock"
	commoncrypto "github.com/dcamposl/inventario/internal/common/crypto"
	"github.com/dcamposl/inventario/internal/common/logger"
	"github.com/dcamposl/inventario/internal/observability/metrics"
)

type AuthService struct {
	repo        authrepo.UserRepository
	hasher      commoncrypto.PasswordHasher
	idGenerator commoncrypto.IDGenerator
	tokenIssuer *TokenIssuer
	clock       clock.Clock
	log         *logger.Logger
}

func NewAuthService(
	repo authrepo.UserRepository,
	hasher commoncrypto.PasswordHasher,
	idGenerator commoncrypto.IDGenerator,
	tokenIssuer *TokenIssuer,
	clk clock.Clock,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		hasher:      hasher,
		idGenerator: idGenerator,
		tokenIssuer: tokenIssuer,
		clock:       clk,
		log:         log,
	}
}

type LoginInput struct {
	Username string
	Password string
}

type LoginResult struct {
	Username  string
	Token     string
	ExpiresAt time.Time
}

// Login verifies the submitted credentials and issues a session token. Unknown
// username and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "login_attempt",
	}).Info("login attempt")

	if input.Username == "" || input.Password == "" {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, authrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "login_user_not_found",
			}).Warn("login failed: not found")
			metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
			return LoginResult{}, ErrInvalidCredentials
		}
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return LoginResult{}, err
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "login_invalid_password",
		}).Warn("login failed: invalid password")
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return LoginResult{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokenIssuer.IssueSessionToken(user)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"user_id":  string(user.ID),
			"action":   "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return LoginResult{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"user_id":  string(user.ID),
		"action":   "login_success",
	}).Info("login success")
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	return LoginResult{
		Username:  user.Username,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// CreateUser provisions a user record. Used by the createuser command, not by
// the request flow.
func (s *AuthService) CreateUser(ctx context.Context, username, password string) (authdomain.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return authdomain.User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return authdomain.User{}, err
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return authdomain.User{}, err
	}

	user := authdomain.User{
		ID:           authdomain.ID(id),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, authrepo.ErrUsernameAlreadyExists) {
			return authdomain.User{}, ErrUsernameTaken
		}
		return authdomain.User{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": username,
		"user_id":  string(user.ID),
		"action":   "user_created",
	}).Info("user created")

	return user, nil
}
