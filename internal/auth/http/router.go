package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dcamposl/inventario/internal/auth/service"
	commonhttp "github.com/dcamposl/inventario/internal/common/http"
	"github.com/dcamposl/inventario/internal/common/logger"
	"github.com/dcamposl/inventario/internal/common/session"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Username string `json:"username"`
}

type Handler struct {
	auth           *service.AuthService
	requestTimeout time.Duration
	log            *logger.Logger
}

func NewHandler(auth *service.AuthService, requestTimeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{auth: auth, requestTimeout: requestTimeout, log: log}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteErrorCode(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed")
		return
	}

	req, err := decodeLoginRequest(r)
	if err != nil {
		h.log.Warnf("login failed: invalid body: %v", err)
		commonhttp.WriteErrorCode(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	result, err := h.auth.Login(ctx, service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			commonhttp.WriteErrorCode(w, http.StatusUnauthorized, commonhttp.CodeUnauthorized, "invalid credentials")
			return
		}
		h.log.Errorf("login failed: %v", err)
		commonhttp.WriteErrorCode(w, http.StatusInternalServerError, commonhttp.CodeInternal, "internal server error")
		return
	}

	session.SetCookie(w, r, result.Token, result.ExpiresAt)
	commonhttp.WriteJSON(w, http.StatusOK, sessionResponse{Username: result.Username})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteErrorCode(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed")
		return
	}

	session.ClearCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// Session reports the authenticated user. Mounted behind the session gate.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		commonhttp.WriteErrorCode(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed")
		return
	}

	claims, ok := session.FromContext(r.Context())
	if !ok {
		commonhttp.WriteErrorCode(w, http.StatusUnauthorized, commonhttp.CodeUnauthorized, "unauthorized")
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, sessionResponse{Username: claims.Username})
}

// The login page posts a form; API clients post JSON. Both are accepted.
func decodeLoginRequest(r *http.Request) (loginRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return loginRequest{}, err
		}
		return loginRequest{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
		}, nil
	}

	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		return loginRequest{}, err
	}
	return req, nil
}
