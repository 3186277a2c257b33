package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	commonhttp "github.com/dcamposl/inventario/internal/common/http"
	"github.com/dcamposl/inventario/internal/common/logger"
	"github.com/dcamposl/inventario/internal/product/domain"
	"github.com/dcamposl/inventario/internal/product/service"
)

// Quantity is a pointer so a missing field is told apart from zero; a numeric
// string fails the decode outright.
type productRequest struct {
	Name     string `json:"name"`
	Quantity *int   `json:"quantity"`
}

type Handler struct {
	products       *service.Service
	requestTimeout time.Duration
	log            *logger.Logger
}

func NewHandler(products *service.Service, requestTimeout time.Duration, log *logger.Logger) http.Handler {
	h := &Handler{products: products, requestTimeout: requestTimeout, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/products", h.collection)
	mux.HandleFunc("/api/products/", h.item)
	return mux
}

func (h *Handler) collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		commonhttp.WriteErrorCode(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) item(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/products/")
	if id == "" || strings.Contains(id, "/") {
		commonhttp.WriteErrorCode(w, http.StatusNotFound, commonhttp.CodeInvalidPath, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, domain.ID(id))
	case http.MethodPut:
		h.update(w, r, domain.ID(id))
	case http.MethodDelete:
		h.delete(w, r, domain.ID(id))
	default:
		commonhttp.WriteErrorCode(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.products.List(ctx, parseListQuery(r))
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, id domain.ID) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	product, err := h.products.Get(ctx, id)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, product)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	product, err := h.products.Create(ctx, input)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, id domain.ID) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	product, err := h.products.Update(ctx, id, input)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, product)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, id domain.ID) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.products.Delete(ctx, id); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (service.Input, bool) {
	var req productRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("product request failed: invalid json: %v", err)
		commonhttp.WriteErrorCode(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid product data")
		return service.Input{}, false
	}

	if req.Quantity == nil {
		commonhttp.WriteErrorCode(w, http.StatusBadRequest, commonhttp.CodeInvalidInput, "invalid product data")
		return service.Input{}, false
	}

	return service.Input{Name: req.Name, Quantity: *req.Quantity}, true
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.requestTimeout)
}

func parseListQuery(r *http.Request) domain.ListQuery {
	params := r.URL.Query()

	query := domain.ListQuery{
		Page:   parseIntDefault(params.Get("page"), 1),
		Limit:  parseIntDefault(params.Get("limit"), 10),
		Search: params.Get("search"),
	}

	if raw := params.Get("minQuantity"); raw != "" {
		minQ := parseIntDefault(raw, 0)
		query.MinQuantity = &minQ
	}

	return query
}

func parseIntDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
