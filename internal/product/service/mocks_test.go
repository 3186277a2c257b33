package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/dcamposl/inventario/internal/common/clock"
	"github.com/dcamposl/inventario/internal/common/logger"
	"github.com/dcamposl/inventario/internal/product/cache"
	"github.com/dcamposl/inventario/internal/product/domain"
	productrepo "github.com/dcamposl/inventario/internal/product/repository"
	"github.com/dcamposl/inventario/internal/product/service"
)

type mockRepo struct {
	createFunc   func(ctx context.Context, product domain.Product) error
	findByIDFunc func(ctx context.Context, id domain.ID) (domain.Product, error)
	updateFunc   func(ctx context.Context, product domain.Product) error
	deleteFunc   func(ctx context.Context, id domain.ID) error
	listFunc     func(ctx context.Context, query domain.ListQuery) ([]domain.Product, int, error)
}

func (m *mockRepo) Create(ctx context.Context, product domain.Product) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, product)
	}
	return nil
}

func (m *mockRepo) FindByID(ctx context.Context, id domain.ID) (domain.Product, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return domain.Product{}, productrepo.ErrProductNotFound
}

func (m *mockRepo) Update(ctx context.Context, product domain.Product) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, product)
	}
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id domain.ID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockRepo) List(ctx context.Context, query domain.ListQuery) ([]domain.Product, int, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, query)
	}
	return nil, 0, nil
}

type mockListCache struct {
	getFunc        func(ctx context.Context, query domain.ListQuery) (domain.ListResult, error)
	setFunc        func(ctx context.Context, query domain.ListQuery, result domain.ListResult) error
	invalidateFunc func(ctx context.Context) error
}

func (m *mockListCache) Get(ctx context.Context, query domain.ListQuery) (domain.ListResult, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, query)
	}
	return domain.ListResult{}, cache.ErrCacheMiss
}

func (m *mockListCache) Set(ctx context.Context, query domain.ListQuery, result domain.ListResult) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, query, result)
	}
	return nil
}

func (m *mockListCache) Invalidate(ctx context.Context) error {
	if m.invalidateFunc != nil {
		return m.invalidateFunc(ctx)
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
	return "00000000-0000-0000-0000-0000000000aa", nil
}

func setupClock() *clock.MockClock {
	return clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func setupService(t *testing.T) (*service.Service, *mockRepo, *clock.MockClock) {
	t.Helper()

	repo := &mockRepo{}
	mockClock := setupClock()
	log, err := logger.New("", "test", "info")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	svc := service.NewService(repo, nil, &mockIDGenerator{}, mockClock, log)
	return svc, repo, mockClock
}
