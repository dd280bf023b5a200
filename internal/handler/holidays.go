package handler

import (
	"errors"
	"net/http"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/holiday"
)

func confirmation(confirmShiftRemoval bool) domain.ConfirmFunc {
	if confirmShiftRemoval {
		return domain.Confirmed
	}
	return domain.Declined
}

func parseDates(start, end string) (calendar.Date, calendar.Date, error) {
	s, err := calendar.ParseDate(start)
	if err != nil {
		return calendar.Date{}, calendar.Date{}, err
	}
	e, err := calendar.ParseDate(end)
	if err != nil {
		return calendar.Date{}, calendar.Date{}, err
	}
	return s, e, nil
}

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, to, err := parseDates(query.Get("from"), query.Get("to"))
	if err != nil {
		h.badRequest(w, r, errors.New("from and to must be dates formatted YYYY-MM-DD"))
		return
	}

	holidays, err := h.holidays.ListHolidays(r.Context(), actorFrom(r), from, to)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "fetched holidays", holidays)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StaffID             int64   `json:"staffID" validate:"required,gt=0"`
		StartDate           string  `json:"startDate" validate:"required,datetime=2006-01-02"`
		EndDate             string  `json:"endDate" validate:"required,datetime=2006-01-02"`
		Reason              *string `json:"reason" validate:"omitnil,max=500"`
		ConfirmShiftRemoval bool    `json:"confirmShiftRemoval"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	start, end, err := parseDates(req.StartDate, req.EndDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	decision, err := h.holidays.CreateHoliday(r.Context(), actorFrom(r), holiday.CreateInput{
		StaffID:   req.StaffID,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
	}, confirmation(req.ConfirmShiftRemoval))
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "holiday created", decision)
}

func (h *Handler) ListHolidayRequests(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor.IsManager() {
		requests, err := h.holidays.ManagerRequests(r.Context(), actor)
		if err != nil {
			h.domainError(w, r, err)
			return
		}
		h.successResponse(w, r, "fetched holiday requests", requests)
		return
	}

	requests, err := h.holidays.StaffRequests(r.Context(), actor)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	h.successResponse(w, r, "fetched holiday requests", requests)
}

func (h *Handler) SubmitHolidayRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate string  `json:"startDate" validate:"required,datetime=2006-01-02"`
		EndDate   string  `json:"endDate" validate:"required,datetime=2006-01-02"`
		Note      *string `json:"note" validate:"omitnil,max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	start, end, err := parseDates(req.StartDate, req.EndDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	request, err := h.holidays.Submit(r.Context(), actorFrom(r), holiday.SubmitInput{
		StartDate: start,
		EndDate:   end,
		Note:      req.Note,
	})
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "holiday request submitted", request)
}

func (h *Handler) ApproveHolidayRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfirmShiftRemoval bool `json:"confirmShiftRemoval"`
	}

	// an empty body approves without confirming any cascade
	if err := h.readOptionalJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	decision, err := h.holidays.Approve(r.Context(), actorFrom(r), idFrom(r), confirmation(req.ConfirmShiftRemoval))
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "holiday request approved", decision)
}

func (h *Handler) RejectHolidayRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.holidays.Reject(r.Context(), actorFrom(r), idFrom(r))
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "holiday request rejected", request)
}
