package handler

import (
	"net/http"

	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/rota"
)

func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.rota.ListStaff(r.Context(), actorFrom(r))
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "fetched staff", staff)
}

func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string  `json:"name" validate:"required,max=100"`
		LinkedUserID *int64  `json:"linkedUserID" validate:"omitnil,gt=0"`
		Role         *string `json:"role" validate:"omitnil,oneof=manager staff"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	in := rota.StaffInput{
		Name:         req.Name,
		LinkedUserID: req.LinkedUserID,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		in.Role = &role
	}

	staff, err := h.rota.CreateStaff(r.Context(), actorFrom(r), in)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "staff member created", staff)
}

func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.rota.DeleteStaff(r.Context(), actorFrom(r), idFrom(r)); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "staff member deleted", nil)
}
