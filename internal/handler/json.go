package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rotadesk/backend/internal/domain"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	h.logger.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("malformed request body")
	}
	return nil
}

// readOptionalJSON is readJSON for endpoints whose body may be left out entirely.
func (h *Handler) readOptionalJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.New("malformed request body")
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "internal server error",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

// clientErrors are answered inline with their own message. Anything else is a 500.
var clientErrors = []error{
	domain.ErrInvalidInput,
	domain.ErrInvalidRange,
	domain.ErrOverlapsApprovedHoliday,
	domain.ErrOverlapsPendingRequest,
	domain.ErrHolidayConflict,
	domain.ErrDuplicatePending,
	domain.ErrNotFound,
	domain.ErrAlreadyResolved,
	domain.ErrForbidden,
	domain.ErrNotShiftOwner,
	domain.ErrIneligibleStaff,
	domain.ErrSelfApproval,
	domain.ErrCascadeDeclined,
	domain.ErrSlotOccupied,
	domain.ErrBusy,
}

// CascadeData is returned alongside an unconfirmed holiday so the client can ask the user
// and resubmit with confirmShiftRemoval.
type CascadeData struct {
	AffectedShifts int `json:"affectedShifts"`
}

// domainError answers a failed core operation.
func (h *Handler) domainError(w http.ResponseWriter, r *http.Request, err error) {
	var cascade *domain.CascadeError
	if errors.As(err, &cascade) {
		h.writeJSON(w, r, http.StatusOK, Response{
			Success: false,
			Message: cascade.Error(),
			Data:    CascadeData{AffectedShifts: cascade.Count},
		})
		return
	}

	if errors.Is(err, domain.ErrStoreFailure) {
		h.internalServerError(w, r, err)
		return
	}

	for _, kind := range clientErrors {
		if errors.Is(err, kind) {
			h.logger.Debug("request refused", slog.String("path", r.URL.Path), slog.String("reason", err.Error()))
			h.errorResponse(w, r, err.Error())
			return
		}
	}

	h.internalServerError(w, r, err)
}
