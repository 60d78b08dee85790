package http

import (
	"errors"
	"net/http"

	"github.com/egx/identity/internal/identity/service"
	"github.com/egx/identity/pkg/httpx"
	"github.com/egx/identity/pkg/slogx"
)

type RolesHandler struct {
	RolesService *service.RolesService
}

type roleRequest struct {
	Name string `json:"name"`
}

// HandleList returns every role.
func (h *RolesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	roles, err := h.RolesService.ListRoles(ctx)
	if err != nil {
		log.Error("failed to list roles", "error", err)
		writeServerError(w)
		return
	}

	payload := make([]rolePayload, len(roles))
	for i, role := range roles {
		payload[i] = rolePayload{ID: role.ID, Name: role.Name}
	}
	writeData(w, http.StatusOK, payload)
}

// HandleGet returns a single role by id.
func (h *RolesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	role, err := h.RolesService.GetRole(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeRoleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rolePayload{ID: role.ID, Name: role.Name})
}

// HandleCreate adds a new role.
func (h *RolesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "malformed request body")
		return
	}

	role, err := h.RolesService.CreateRole(r.Context(), req.Name)
	if err != nil {
		h.writeRoleError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, rolePayload{ID: role.ID, Name: role.Name})
}

// HandleRename changes a role's name.
func (h *RolesHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "malformed request body")
		return
	}

	role, err := h.RolesService.RenameRole(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		h.writeRoleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rolePayload{ID: role.ID, Name: role.Name})
}

// HandleDelete removes a role.
func (h *RolesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.RolesService.DeleteRole(r.Context(), r.PathValue("id")); err != nil {
		h.writeRoleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RolesHandler) writeRoleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrRoleNotFound):
		writeErrors(w, http.StatusNotFound, "role not found")
	case errors.Is(err, service.ErrRoleNameTaken):
		writeErrors(w, http.StatusBadRequest, "role name is already taken")
	case errors.Is(err, service.ErrInvalidRoleName):
		writeErrors(w, http.StatusBadRequest, "invalid role name")
	default:
		slogx.FromContext(r.Context()).Error("roles request failed", "error", err)
		writeServerError(w)
	}
}
