package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dcamposl/inventario/internal/common/clock"
	"github.com/dcamposl/inventario/internal/common/logger"
	"github.com/dcamposl/inventario/internal/common/session"
	"github.com/dcamposl/inventario/internal/product/domain"
	producthttp "github.com/dcamposl/inventario/internal/product/http"
	productrepo "github.com/dcamposl/inventario/internal/product/repository"
	"github.com/dcamposl/inventario/internal/product/service"
)

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

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

type mockIDGenerator struct{}

func (m *mockIDGenerator) NewID() (string, error) {
	return "00000000-0000-0000-0000-0000000000aa", nil
}

func setupHandler(t *testing.T) (http.Handler, *mockRepo) {
	t.Helper()

	repo := &mockRepo{}
	mockClock := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	log, err := logger.New("", "test", "info")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	svc := service.NewService(repo, nil, &mockIDGenerator{}, mockClock, log)
	return producthttp.NewHandler(svc, 5*time.Second, log), repo
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env
}

func TestProductHTTP_List(t *testing.T) {
	h, repo := setupHandler(t)

	var seen domain.ListQuery
	repo.listFunc = func(ctx context.Context, query domain.ListQuery) ([]domain.Product, int, error) {
		seen = query
		return []domain.Product{
			{ID: "p1", Name: "Bolts", Quantity: 12},
			{ID: "p2", Name: "Nuts", Quantity: 3},
		}, 2, nil
	}

	rec := doJSON(t, h, http.MethodGet, "/api/products?page=2&limit=5&search=bo&minQuantity=4", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if seen.Page != 2 || seen.Limit != 5 || seen.Search != "bo" {
		t.Errorf("unexpected query %+v", seen)
	}
	if seen.MinQuantity == nil || *seen.MinQuantity != 4 {
		t.Errorf("expected minQuantity 4, got %v", seen.MinQuantity)
	}

	var result domain.ListResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(result.Products) != 2 || result.TotalProducts != 2 || result.CurrentPage != 2 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestProductHTTP_List_DefaultsApplied(t *testing.T) {
	h, repo := setupHandler(t)

	var seen domain.ListQuery
	repo.listFunc = func(ctx context.Context, query domain.ListQuery) ([]domain.Product, int, error) {
		seen = query
		return nil, 0, nil
	}

	rec := doJSON(t, h, http.MethodGet, "/api/products", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if seen.Page != 1 || seen.Limit != 10 {
		t.Errorf("expected defaults page=1 limit=10, got %+v", seen)
	}
	if seen.MinQuantity != nil {
		t.Errorf("expected no minQuantity filter, got %v", seen.MinQuantity)
	}
}

func TestProductHTTP_Create(t *testing.T) {
	h, repo := setupHandler(t)

	var created domain.Product
	repo.createFunc = func(ctx context.Context, product domain.Product) error {
		created = product
		return nil
	}

	rec := doJSON(t, h, http.MethodPost, "/api/products", `{"name":"Bolts","quantity":12}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var product domain.Product
	if err := json.NewDecoder(rec.Body).Decode(&product); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if product.Name != "Bolts" || product.Quantity != 12 || product.ID == "" {
		t.Errorf("unexpected product %+v", product)
	}
	if created.ID != product.ID {
		t.Errorf("expected persisted product %+v, got %+v", product, created)
	}
}

func TestProductHTTP_Create_Invalid(t *testing.T) {
	h, repo := setupHandler(t)
	repo.createFunc = func(ctx context.Context, product domain.Product) error {
		t.Error("repo must not be reached for invalid input")
		return nil
	}

	cases := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"missing name", `{"quantity":5}`},
		{"missing quantity", `{"name":"Bolts"}`},
		{"quantity as string", `{"name":"Bolts","quantity":"5"}`},
		{"negative quantity", `{"name":"Bolts","quantity":-1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/products", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Message != "invalid product data" {
				t.Errorf("expected generic message, got %q", env.Message)
			}
		})
	}
}

func TestProductHTTP_Get(t *testing.T) {
	h, repo := setupHandler(t)

	repo.findByIDFunc = func(ctx context.Context, id domain.ID) (domain.Product, error) {
		if id != "p1" {
			return domain.Product{}, productrepo.ErrProductNotFound
		}
		return domain.Product{ID: "p1", Name: "Bolts", Quantity: 12}, nil
	}

	rec := doJSON(t, h, http.MethodGet, "/api/products/p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var product domain.Product
	if err := json.NewDecoder(rec.Body).Decode(&product); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if product.ID != "p1" {
		t.Errorf("expected product p1, got %+v", product)
	}
}

func TestProductHTTP_Get_NotFound(t *testing.T) {
	h, _ := setupHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/products/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Code != "PRODUCT_NOT_FOUND" {
		t.Errorf("expected code PRODUCT_NOT_FOUND, got %s", env.Code)
	}
}

func TestProductHTTP_Update(t *testing.T) {
	h, repo := setupHandler(t)

	repo.findByIDFunc = func(ctx context.Context, id domain.ID) (domain.Product, error) {
		return domain.Product{ID: id, Name: "Old", Quantity: 1}, nil
	}

	rec := doJSON(t, h, http.MethodPut, "/api/products/p1", `{"name":"New","quantity":9}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var product domain.Product
	if err := json.NewDecoder(rec.Body).Decode(&product); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if product.Name != "New" || product.Quantity != 9 {
		t.Errorf("unexpected product %+v", product)
	}
}

func TestProductHTTP_Update_NotFound(t *testing.T) {
	h, _ := setupHandler(t)

	rec := doJSON(t, h, http.MethodPut, "/api/products/missing", `{"name":"New","quantity":9}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestProductHTTP_Delete(t *testing.T) {
	h, repo := setupHandler(t)

	var deleted domain.ID
	repo.deleteFunc = func(ctx context.Context, id domain.ID) error {
		deleted = id
		return nil
	}

	rec := doJSON(t, h, http.MethodDelete, "/api/products/p1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
	if deleted != "p1" {
		t.Errorf("expected delete for p1, got %s", deleted)
	}
}

func TestProductHTTP_Delete_NotFound(t *testing.T) {
	h, repo := setupHandler(t)

	repo.deleteFunc = func(ctx context.Context, id domain.ID) error {
		return productrepo.ErrProductNotFound
	}

	rec := doJSON(t, h, http.MethodDelete, "/api/products/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestProductHTTP_MethodNotAllowed(t *testing.T) {
	h, _ := setupHandler(t)

	rec := doJSON(t, h, http.MethodPatch, "/api/products/p1", `{}`)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/products", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405 on collection delete, got %d", rec.Code)
	}
}

func TestProductHTTP_NestedPathRejected(t *testing.T) {
	h, _ := setupHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/products/p1/extra", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestProductHTTP_RequiresSession(t *testing.T) {
	h, _ := setupHandler(t)
	log, _ := logger.New("", "test", "info")

	gate := session.Middleware("test-secret-that-is-long-enough!", log)
	protected := gate(h)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without session, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Code != "UNAUTHORIZED" {
		t.Errorf("expected code UNAUTHORIZED, got %s", env.Code)
	}
}
