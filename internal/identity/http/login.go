package http

import (
	"errors"
	"net/http"

	"github.com/egx/identity/internal/identity/service"
	"github.com/egx/identity/pkg/httpx"
	"github.com/egx/identity/pkg/slogx"
)

type LoginHandler struct {
	IdentityService *service.IdentityService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ServeHTTP authenticates an email/password pair and returns a token
// pair. A user who already holds a live session gets the same pair back.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeErrors(w, http.StatusBadRequest, "email and password are required")
		return
	}

	pair, err := h.IdentityService.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeErrors(w, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrInvalidCredentials):
			writeErrors(w, http.StatusBadRequest, "invalid credentials")
		default:
			log.Error("login failed", "error", err)
			writeServerError(w)
		}
		return
	}

	writeData(w, http.StatusOK, tokenPayload{
		JwtToken:     pair.JwtToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}
