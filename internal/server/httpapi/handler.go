// Package httpapi exposes the authentication gateway as a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/credstack/internal/logging"
	"github.com/dmitrijs2005/credstack/internal/server/auth"
	"github.com/dmitrijs2005/credstack/internal/server/services"
)

type userSvc interface {
	Register(ctx context.Context, email, password, name string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Refresh(ctx context.Context, userID string) (*services.AuthResult, error)
	IssueAPIToken(ctx context.Context, userID string) (string, error)
	Authenticate(token string) (auth.Identity, error)
}

type Handler struct {
	users  userSvc
	logger logging.Logger
	now    func() time.Time
}

func NewHandler(us userSvc, l logging.Logger) *Handler {
	return &Handler{users: us, logger: l, now: time.Now}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type identityResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type apiTokenResponse struct {
	APIToken string `json:"api_token"`
}

func toAuthResponse(r *services.AuthResult) authResponse {
	return authResponse{UserID: r.UserID, Email: r.Email, Token: r.Token, ExpiresAt: r.ExpiresAt.UTC()}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "Registered", "user_id", res.UserID)
	writeJSON(w, http.StatusCreated, toAuthResponse(res))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(res))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	res, err := h.users.Refresh(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(res))
}

func (h *Handler) IssueAPIToken(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	token, err := h.users.IssueAPIToken(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, apiTokenResponse{APIToken: token})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, identityResponse{
		UserID:    id.UserID,
		Email:     id.Email,
		IssuedAt:  id.IssuedAt.UTC(),
		ExpiresAt: id.ExpiresAt.UTC(),
	})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
