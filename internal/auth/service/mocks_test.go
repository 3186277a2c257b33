package service_test

import (
	"context"
	"testing"
	"time"

	authdomain "github.com/dcamposl/inventario/internal/auth/domain"
	authrepo "github.com/dcamposl/inventario/internal/auth/repository"
	"github.com/dcamposl/inventario/internal/auth/service"
	"github.com/dcamposl/inventario/internal/common/clock"
	"github.com/dcamposl/inventario/internal/common/logger"
)

type mockUserRepo struct {
	createFunc         func(ctx context.Context, user authdomain.User) error
	findByUsernameFunc func(ctx context.Context, username string) (authdomain.User, error)
	findByIDFunc       func(ctx context.Context, id authdomain.ID) (authdomain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user authdomain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (authdomain.User, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return authdomain.User{}, authrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByID(ctx context.Context, id authdomain.ID) (authdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return authdomain.User{}, authrepo.ErrUserNotFound
}

type mockHasher struct {
	hashFunc    func(password string) (string, error)
	compareFunc func(hash string, password string) error
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFunc != nil {
		return m.hashFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *mockHasher) Compare(hash string, password string) error {
	if m.compareFunc != nil {
		return m.compareFunc(hash, password)
	}
	return nil
}

type mockIDGenerator struct {
	newIDFunc func() (string, error)
}

func (m *mockIDGenerator) NewID() (string, error) {
	if m.newIDFunc != nil {
		return m.newIDFunc()
	}
	return "00000000-0000-0000-0000-000000000001", nil
}

const testSessionSecret = "test-secret-that-is-long-enough!"

func setupAuthService(t *testing.T) (*service.AuthService, *mockUserRepo, *mockHasher, *clock.MockClock) {
	t.Helper()

	repo := &mockUserRepo{}
	hasher := &mockHasher{}
	idGen := &mockIDGenerator{}
	// Seeded from the real clock so issued tokens survive ParseToken's
	// expiry validation; the clock stays frozen for the test's duration.
	mockClock := clock.NewMockClock(time.Now().UTC().Truncate(time.Second))
	log, err := logger.New("", "test", "info")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	issuer := service.NewTokenIssuer(testSessionSecret, idGen, 8*time.Hour, mockClock)
	svc := service.NewAuthService(repo, hasher, idGen, issuer, mockClock, log)

	return svc, repo, hasher, mockClock
}
