package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/export"
	"github.com/rotadesk/backend/internal/rota"
)

// weekParam reads ?week=YYYY-MM-DD and returns the Monday of that week, defaulting to the
// current week in the rota timezone.
func (h *Handler) weekParam(r *http.Request) (calendar.Date, error) {
	raw := r.URL.Query().Get("week")
	if raw == "" {
		return calendar.WeekStart(calendar.DateIn(time.Now(), h.rota.Location())), nil
	}

	d, err := calendar.ParseDate(raw)
	if err != nil {
		return calendar.Date{}, errors.New("week must be a date formatted YYYY-MM-DD")
	}
	return calendar.WeekStart(d), nil
}

func (h *Handler) GetRota(w http.ResponseWriter, r *http.Request) {
	weekStart, err := h.weekParam(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	actor := actorFrom(r)
	if actor.IsManager() {
		week, err := h.rota.WeekRota(r.Context(), actor, weekStart)
		if err != nil {
			h.domainError(w, r, err)
			return
		}
		h.successResponse(w, r, "fetched rota", week)
		return
	}

	week, err := h.rota.MyWeek(r.Context(), actor, weekStart)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	h.successResponse(w, r, "fetched rota", week)
}

func (h *Handler) ExportRota(w http.ResponseWriter, r *http.Request) {
	weekStart, err := h.weekParam(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	week, err := h.rota.WeekRota(r.Context(), actorFrom(r), weekStart)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	buf, err := export.WeekRota(week, h.rota.Location())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(weekStart)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	weekStart, err := h.weekParam(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var staffID *int64
	if raw := r.URL.Query().Get("staffID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "invalid staff id")
			return
		}
		staffID = &id
	}

	shifts, err := h.rota.ShiftsForWeek(r.Context(), actorFrom(r), staffID, weekStart)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "fetched shifts", shifts)
}

func (h *Handler) UpsertShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StaffID int64   `json:"staffID" validate:"required,gt=0"`
		Day     string  `json:"day" validate:"required,datetime=2006-01-02"`
		Start   *string `json:"start" validate:"omitnil,datetime=15:04"`
		End     *string `json:"end" validate:"omitnil,datetime=15:04"`
		RoleTag string  `json:"roleTag" validate:"required,roletag"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	day, err := calendar.ParseDate(req.Day)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	// the configured default hours fill whichever end is missing
	start := h.config.Rota.DefaultShiftStart
	if req.Start != nil {
		start = *req.Start
	}
	end := h.config.Rota.DefaultShiftEnd
	if req.End != nil {
		end = *req.End
	}
	startClock, err := calendar.ParseClock(start)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	endClock, err := calendar.ParseClock(end)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift, err := h.rota.CreateOrUpdateShift(r.Context(), actorFrom(r), rota.ShiftInput{
		StaffID: req.StaffID,
		Day:     day,
		Start:   startClock,
		End:     endClock,
		RoleTag: req.RoleTag,
	})
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift saved", shift)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	if err := h.rota.DeleteShift(r.Context(), actorFrom(r), idFrom(r)); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift deleted", nil)
}

func (h *Handler) ReassignShift(w http.ResponseWriter, r *http.Request) {
	// open unassigns the shift; without it a null staffID keeps the current holder
	var req struct {
		StaffID *int64  `json:"staffID" validate:"omitnil,gt=0"`
		Day     *string `json:"day" validate:"omitnil,datetime=2006-01-02"`
		Open    bool    `json:"open"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	var newDay *calendar.Date
	if req.Day != nil {
		d, err := calendar.ParseDate(*req.Day)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		newDay = &d
	}

	shift, err := h.rota.ReassignShift(r.Context(), actorFrom(r), idFrom(r), rota.Destination{
		StaffID: req.StaffID,
		Day:     newDay,
		Open:    req.Open,
	})
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift reassigned", shift)
}
