package handler

import (
	"net/http"

	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/swap"
)

func (h *Handler) ListSwapRequests(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor.IsManager() {
		swaps, err := h.swaps.ManagerSwaps(r.Context(), actor)
		if err != nil {
			h.domainError(w, r, err)
			return
		}
		h.successResponse(w, r, "fetched swap requests", swaps)
		return
	}

	swaps, err := h.swaps.StaffSwaps(r.Context(), actor)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	h.successResponse(w, r, "fetched swap requests", swaps)
}

type swapOptions struct {
	Shifts  []*domain.Shift `json:"shifts"`
	Targets []*domain.Staff `json:"targets"`
}

func (h *Handler) GetSwapOptions(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	shifts, err := h.swaps.OfferableShifts(r.Context(), actor)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	targets, err := h.swaps.EligibleTargets(r.Context(), actor)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "fetched swap options", swapOptions{Shifts: shifts, Targets: targets})
}

func (h *Handler) SubmitSwapRequest(w http.ResponseWriter, r *http.Request) {
	// a missing requestedWith opens the shift to anybody eligible
	var req struct {
		ShiftID       int64  `json:"shiftID" validate:"required,gt=0"`
		RequestedWith *int64 `json:"requestedWith" validate:"omitnil,gt=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	request, err := h.swaps.Submit(r.Context(), actorFrom(r), swap.SubmitInput{
		ShiftID:       req.ShiftID,
		RequestedWith: req.RequestedWith,
	})
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "swap request submitted", request)
}

func (h *Handler) ApproveSwapRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClaimingStaffID *int64 `json:"claimingStaffID" validate:"omitnil,gt=0"`
	}

	if err := h.readOptionalJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	decision, err := h.swaps.Approve(r.Context(), actorFrom(r), idFrom(r), req.ClaimingStaffID)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "swap request approved", decision)
}

func (h *Handler) RejectSwapRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.swaps.Reject(r.Context(), actorFrom(r), idFrom(r))
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "swap request rejected", request)
}
