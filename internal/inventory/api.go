package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"

	"github.com/dcamposl/inventario/internal/product/domain"
)

// ProductAPI is the surface the panel talks to. The HTTP client below is the
// production implementation; tests substitute their own.
type ProductAPI interface {
	List(ctx context.Context, query domain.ListQuery) (domain.ListResult, error)
	Create(ctx context.Context, name string, quantity int) (domain.Product, error)
	Update(ctx context.Context, id domain.ID, name string, quantity int) (domain.Product, error)
	Delete(ctx context.Context, id domain.ID) error
}

type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) (*HTTPClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Jar: jar},
	}, nil
}

// Login establishes the session cookie used by every later call.
func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return nil
}

func (c *HTTPClient) List(ctx context.Context, query domain.ListQuery) (domain.ListResult, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(query.Page))
	params.Set("limit", strconv.Itoa(query.Limit))
	if query.Search != "" {
		params.Set("search", query.Search)
	}
	if query.MinQuantity != nil {
		params.Set("minQuantity", strconv.Itoa(*query.MinQuantity))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/products?"+params.Encode(), nil)
	if err != nil {
		return domain.ListResult{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.ListResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ListResult{}, decodeAPIError(resp)
	}

	var result domain.ListResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.ListResult{}, err
	}
	return result, nil
}

func (c *HTTPClient) Create(ctx context.Context, name string, quantity int) (domain.Product, error) {
	return c.send(ctx, http.MethodPost, c.baseURL+"/api/products", name, quantity, http.StatusCreated)
}

func (c *HTTPClient) Update(ctx context.Context, id domain.ID, name string, quantity int) (domain.Product, error) {
	return c.send(ctx, http.MethodPut, c.baseURL+"/api/products/"+string(id), name, quantity, http.StatusOK)
}

func (c *HTTPClient) Delete(ctx context.Context, id domain.ID) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/products/"+string(id), nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return decodeAPIError(resp)
	}
	return nil
}

func (c *HTTPClient) send(ctx context.Context, method, url, name string, quantity int, wantStatus int) (domain.Product, error) {
	payload, err := json.Marshal(map[string]any{
		"name":     name,
		"quantity": quantity,
	})
	if err != nil {
		return domain.Product{}, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return domain.Product{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Product{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return domain.Product{}, decodeAPIError(resp)
	}

	var product domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: "request failed"}

	var env struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Message != "" {
		apiErr.Code = env.Code
		apiErr.Message = env.Message
	}
	return apiErr
}
