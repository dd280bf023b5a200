package handler

import (
	"errors"
	"net/http"

	"github.com/rotadesk/backend/internal/domain"
)

type meResponse struct {
	Account  *domain.Account `json:"account"`
	TenantID int64           `json:"tenantID"`
	Role     domain.Role     `json:"role"`
	Staff    *domain.Staff   `json:"staff"`
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	account, err := h.repository.GetAccountByID(r.Context(), actor.AccountID)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	resp := meResponse{
		Account:  account,
		TenantID: actor.TenantID,
		Role:     actor.Role,
	}

	if actor.StaffID != nil {
		staff, err := h.repository.GetStaff(r.Context(), actor.TenantID, *actor.StaffID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			h.internalServerError(w, r, err)
			return
		}
		resp.Staff = staff
	}

	h.successResponse(w, r, "fetched current member", resp)
}
