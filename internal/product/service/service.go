package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/dcamposl/inventario/internal/common/clock"
	"github.com/dcamposl/inventario/internal/common/constants"
	commoncrypto "github.com/dcamposl/inventario/internal/common/crypto"
	commonerrors "github.com/dcamposl/inventario/internal/common/errors"
	"github.com/dcamposl/inventario/internal/common/logger"
	"github.com/dcamposl/inventario/internal/observability/metrics"
	"github.com/dcamposl/inventario/internal/product/cache"
	"github.com/dcamposl/inventario/internal/product/domain"
	productrepo "github.com/dcamposl/inventario/internal/product/repository"
)

// Input is the validated command for create and update.
type Input struct {
	Name     string `validate:"required,min=1,max=200"`
	Quantity int    `validate:"gte=0"`
}

type Service struct {
	repo        productrepo.Repository
	listCache   cache.ListCache
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	validate    *validator.Validate
	log         *logger.Logger
}

func NewService(
	repo productrepo.Repository,
	listCache cache.ListCache,
	idGenerator commoncrypto.IDGenerator,
	clk clock.Clock,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		listCache:   listCache,
		idGenerator: idGenerator,
		clock:       clk,
		validate:    validator.New(),
		log:         log,
	}
}

// List serves one page sorted by name. An out-of-range page is not an error:
// it returns an empty sequence with the totals unchanged.
func (s *Service) List(ctx context.Context, query domain.ListQuery) (domain.ListResult, error) {
	query = normalizeQuery(query)

	if s.listCache != nil {
		if result, err := s.listCache.Get(ctx, query); err == nil {
			return result, nil
		}
	}

	products, total, err := s.repo.List(ctx, query)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"page":   query.Page,
			"action": "list_products_failed",
		}).Errorf("list products failed: %v", err)
		metrics.ProductOperationsTotal.WithLabelValues("list", "error").Inc()
		return domain.ListResult{}, commonerrors.ErrInternal.WithCause(err)
	}

	result := domain.ListResult{
		Products:      products,
		TotalPages:    totalPages(total, query.Limit),
		CurrentPage:   query.Page,
		TotalProducts: total,
	}

	if s.listCache != nil {
		_ = s.listCache.Set(ctx, query, result)
	}

	metrics.ProductOperationsTotal.WithLabelValues("list", "success").Inc()
	metrics.ProductListResults.Observe(float64(len(products)))
	return result, nil
}

func (s *Service) Get(ctx context.Context, id domain.ID) (domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, productrepo.ErrProductNotFound) {
			metrics.ProductOperationsTotal.WithLabelValues("get", "not_found").Inc()
			return domain.Product{}, commonerrors.ErrProductNotFound
		}
		s.log.WithFields(ctx, logger.Fields{
			"product_id": string(id),
			"action":     "get_product_failed",
		}).Errorf("get product failed: %v", err)
		metrics.ProductOperationsTotal.WithLabelValues("get", "error").Inc()
		return domain.Product{}, commonerrors.ErrInternal.WithCause(err)
	}

	metrics.ProductOperationsTotal.WithLabelValues("get", "success").Inc()
	return product, nil
}

func (s *Service) Create(ctx context.Context, input Input) (domain.Product, error) {
	if err := s.validate.Struct(input); err != nil {
		metrics.ProductOperationsTotal.WithLabelValues("create", "invalid").Inc()
		return domain.Product{}, commonerrors.ErrInvalidInput.WithCause(err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return domain.Product{}, commonerrors.ErrInternal.WithCause(err)
	}

	now := s.clock.Now()
	product := domain.Product{
		ID:        domain.ID(id),
		Name:      input.Name,
		Quantity:  input.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"name":   input.Name,
			"action": "create_product_failed",
		}).Errorf("create product failed: %v", err)
		metrics.ProductOperationsTotal.WithLabelValues("create", "error").Inc()
		return domain.Product{}, commonerrors.ErrInternal.WithCause(err)
	}

	s.invalidateListCache(ctx)
	s.log.WithFields(ctx, logger.Fields{
		"product_id": string(product.ID),
		"action":     "product_created",
	}).Info("product created")
	metrics.ProductOperationsTotal.WithLabelValues("create", "success").Inc()
	return product, nil
}

func (s *Service) Update(ctx context.Context, id domain.ID, input Input) (domain.Product, error) {
	if err := s.validate.Struct(input); err != nil {
		metrics.ProductOperationsTotal.WithLabelValues("update", "invalid").Inc()
		return domain.Product{}, commonerrors.ErrInvalidInput.WithCause(err)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, productrepo.ErrProductNotFound) {
			metrics.ProductOperationsTotal.WithLabelValues("update", "not_found").Inc()
			return domain.Product{}, commonerrors.ErrProductNotFound
		}
		metrics.ProductOperationsTotal.WithLabelValues("update", "error").Inc()
		return domain.Product{}, commonerrors.ErrInternal.WithCause(err)
	}

	existing.Name = input.Name
	existing.Quantity = input.Quantity
	existing.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, existing); err != nil {
		if errors.Is(err, productrepo.ErrProductNotFound) {
			metrics.ProductOperationsTotal.WithLabelValues("update", "not_found").Inc()
			return domain.Product{}, commonerrors.ErrProductNotFound
		}
		s.log.WithFields(ctx, logger.Fields{
			"product_id": string(id),
			"action":     "update_product_failed",
		}).Errorf("update product failed: %v", err)
		metrics.ProductOperationsTotal.WithLabelValues("update", "error").Inc()
		return domain.Product{}, commonerrors.ErrInternal.WithCause(err)
	}

	s.invalidateListCache(ctx)
	s.log.WithFields(ctx, logger.Fields{
		"product_id": string(id),
		"action":     "product_updated",
	}).Info("product updated")
	metrics.ProductOperationsTotal.WithLabelValues("update", "success").Inc()
	return existing, nil
}

func (s *Service) Delete(ctx context.Context, id domain.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, productrepo.ErrProductNotFound) {
			metrics.ProductOperationsTotal.WithLabelValues("delete", "not_found").Inc()
			return commonerrors.ErrProductNotFound
		}
		s.log.WithFields(ctx, logger.Fields{
			"product_id": string(id),
			"action":     "delete_product_failed",
		}).Errorf("delete product failed: %v", err)
		metrics.ProductOperationsTotal.WithLabelValues("delete", "error").Inc()
		return commonerrors.ErrInternal.WithCause(err)
	}

	s.invalidateListCache(ctx)
	s.log.WithFields(ctx, logger.Fields{
		"product_id": string(id),
		"action":     "product_deleted",
	}).Info("product deleted")
	metrics.ProductOperationsTotal.WithLabelValues("delete", "success").Inc()
	return nil
}

func (s *Service) invalidateListCache(ctx context.Context) {
	if s.listCache == nil {
		return
	}
	_ = s.listCache.Invalidate(ctx)
}

func normalizeQuery(query domain.ListQuery) domain.ListQuery {
	if query.Page < 1 {
		query.Page = constants.DefaultPage
	}
	if query.Limit < 1 {
		query.Limit = constants.DefaultLimit
	}
	if query.Limit > constants.MaxLimit {
		query.Limit = constants.MaxLimit
	}
	if len(query.Search) > constants.MaxSearchLength {
		query.Search = query.Search[:constants.MaxSearchLength]
	}
	if query.MinQuantity != nil && *query.MinQuantity < 0 {
		zero := 0
		query.MinQuantity = &zero
	}
	return query
}

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
