package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	authdomain "github.com/dcamposl/inventario/internal/auth/domain"
	"github.com/dcamposl/inventario/internal/common/clock"
	commoncrypto "github.com/dcamposl/inventario/internal/common/crypto"
	"github.com/dcamposl/inventario/internal/common/session"
)

type TokenIssuer struct {
	secret      []byte
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	sessionTTL  time.Duration
}

func NewTokenIssuer(
	secret string,
	idGenerator commoncrypto.IDGenerator,
	sessionTTL time.Duration,
	clk clock.Clock,
) *TokenIssuer {
	return &TokenIssuer{
		secret:      []byte(secret),
		idGenerator: idGenerator,
		clock:       clk,
		sessionTTL:  sessionTTL,
	}
}

// IssueSessionToken signs an HS256 session token bound to the user id and
// username. Returns the token and its expiry.
func (ti *TokenIssuer) IssueSessionToken(user authdomain.User) (string, time.Time, error) {
	jti, err := ti.idGenerator.NewID()
	if err != nil {
		return "", time.Time{}, err
	}

	now := ti.clock.Now()
	expiresAt := now.Add(ti.sessionTTL)
	claims := jwt.MapClaims{
		"sub": string(user.ID),
		"usr": user.Username,
		"jti": jti,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := t.SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func (ti *TokenIssuer) ParseToken(tokenString string) (session.Claims, error) {
	return session.ParseToken(tokenString, ti.secret)
}
