package http

import (
	"errors"
	"net/http"

	"github.com/egx/identity/internal/identity/service"
	"github.com/egx/identity/pkg/httpx"
	"github.com/egx/identity/pkg/slogx"
)

type RefreshHandler struct {
	IdentityService *service.IdentityService
}

type refreshRequest struct {
	JwtToken     string `json:"jwtToken"`
	RefreshToken string `json:"refreshToken"`
}

// ServeHTTP rotates a token pair. The presented pair must match the
// stored pair exactly; the old pair is unusable once rotation succeeds.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.JwtToken == "" || req.RefreshToken == "" {
		writeErrors(w, http.StatusBadRequest, "jwtToken and refreshToken are required")
		return
	}

	pair, err := h.IdentityService.Refresh(ctx, req.JwtToken, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeErrors(w, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrPairMismatch):
			writeErrors(w, http.StatusBadRequest, "token pair does not match")
		case errors.Is(err, service.ErrRefreshExpiredOrUsed):
			writeErrors(w, http.StatusBadRequest, "refresh token expired or already used")
		default:
			log.Error("refresh failed", "error", err)
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
