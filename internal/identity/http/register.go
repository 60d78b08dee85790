package http

import (
	"errors"
	"net/http"

	"github.com/egx/identity/internal/identity/service"
	"github.com/egx/identity/pkg/httpx"
	"github.com/egx/identity/pkg/slogx"
)

type RegisterHandler struct {
	UserService *service.UserService
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ServeHTTP creates a new account. New accounts receive the StandardUser
// role when the role table has been populated.
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := h.UserService.Register(ctx, service.RegisterParams{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRegistration):
			writeErrors(w, http.StatusBadRequest, "invalid registration details")
		case errors.Is(err, service.ErrEmailTaken):
			writeErrors(w, http.StatusBadRequest, "email is already registered")
		default:
			log.Error("registration failed", "error", err)
			writeServerError(w)
		}
		return
	}

	roleNames, err := h.UserService.ListRoleNamesForUser(ctx, user.ID)
	if err != nil {
		log.Error("failed to resolve roles for new user", "error", err)
		writeServerError(w)
		return
	}
	var roleAssigned string
	if len(roleNames) > 0 {
		roleAssigned = roleNames[0]
	}

	writeData(w, http.StatusCreated, registerPayload{
		IDAssigned:   user.ID,
		RoleAssigned: roleAssigned,
	})
}
