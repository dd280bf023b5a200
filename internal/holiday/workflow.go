// Package holiday runs the time-off workflow: staff submit requests, managers approve or
// reject them, and approval turns a request into a binding holiday that clears the rota.
package holiday

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/lock"
	"github.com/rotadesk/backend/internal/metrics"
	"github.com/rotadesk/backend/internal/notify"
	"github.com/rotadesk/backend/internal/overlap"
	"github.com/rotadesk/backend/internal/repository"
)

type Workflow struct {
	store        repository.Store
	loc          *time.Location
	locker       lock.Locker
	publisher    notify.Publisher
	logger       *slog.Logger
	selfApproval domain.SelfApprovalFunc
	now          func() time.Time
}

type Option func(*Workflow)

// WithSelfApprovalCheck replaces the check that stops managers reviewing their own requests.
func WithSelfApprovalCheck(fn domain.SelfApprovalFunc) Option {
	return func(w *Workflow) { w.selfApproval = fn }
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func NewWorkflow(store repository.Store, loc *time.Location, locker lock.Locker, publisher notify.Publisher, logger *slog.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		store:        store,
		loc:          loc,
		locker:       locker,
		publisher:    publisher,
		logger:       logger,
		selfApproval: domain.LinkedToReviewer,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type SubmitInput struct {
	StartDate calendar.Date
	EndDate   calendar.Date
	Note      *string
}

// Submit files a pending request for the calling staff member.
func (w *Workflow) Submit(ctx context.Context, actor domain.Actor, in SubmitInput) (*domain.HolidayRequest, error) {
	request, err := w.submit(ctx, actor, in)
	metrics.RecordDecision(metrics.WorkflowHoliday, "submit", err)
	return request, err
}

func (w *Workflow) submit(ctx context.Context, actor domain.Actor, in SubmitInput) (*domain.HolidayRequest, error) {
	if actor.StaffID == nil {
		return nil, domain.ErrForbidden
	}
	staffID := *actor.StaffID

	candidate := overlap.NewDateRange(in.StartDate, in.EndDate)
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", domain.ErrInvalidInput)
	}
	if !candidate.Valid() {
		return nil, domain.ErrInvalidRange
	}

	request := &domain.HolidayRequest{
		TenantID:  actor.TenantID,
		StaffID:   staffID,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Note:      in.Note,
		Status:    domain.StatusPending,
	}

	err := w.store.WithTx(ctx, func(q repository.Querier) error {
		if err := checkApprovedOverlap(ctx, q, actor.TenantID, staffID, candidate); err != nil {
			return err
		}

		pending, err := q.ListHolidayRequests(ctx, actor.TenantID, repository.HolidayRequestFilter{
			StaffID: &staffID,
			Status:  domain.StatusPending,
		})
		if err != nil {
			return err
		}
		if overlap.HasOverlap(candidate, domain.HolidayRequestRanges(pending)) {
			return domain.ErrOverlapsPendingRequest
		}

		return q.InsertHolidayRequest(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("holiday request submitted",
		slog.Int64("tenant", actor.TenantID),
		slog.Int64("request", request.ID),
		slog.Int64("staff", staffID),
	)

	return request, nil
}

func checkApprovedOverlap(ctx context.Context, q repository.Querier, tenantID, staffID int64, candidate overlap.DateRange) error {
	holidays, err := q.ListHolidays(ctx, tenantID, repository.HolidayFilter{StaffID: &staffID})
	if err != nil {
		return err
	}
	if overlap.HasOverlap(candidate, domain.HolidayRanges(holidays)) {
		return domain.ErrOverlapsApprovedHoliday
	}
	return nil
}

// Decision is the outcome of a committed holiday approval or direct entry.
type Decision struct {
	Request       *domain.HolidayRequest `json:"request,omitempty"`
	Holiday       *domain.Holiday        `json:"holiday"`
	RemovedShifts int                    `json:"removedShifts"`
}

// Approve turns a pending request into a holiday. Shifts the holiday covers are removed once
// confirm agrees to their count; a refusal leaves the request pending and returns a
// *domain.CascadeError. The overlap check is repeated inside the committing transaction.
func (w *Workflow) Approve(ctx context.Context, actor domain.Actor, requestID int64, confirm domain.ConfirmFunc) (*Decision, error) {
	decision, err := w.approve(ctx, actor, requestID, confirm)
	metrics.RecordDecision(metrics.WorkflowHoliday, "approve", err)
	return decision, err
}

func (w *Workflow) approve(ctx context.Context, actor domain.Actor, requestID int64, confirm domain.ConfirmFunc) (*Decision, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}

	request, err := w.reviewable(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}

	release, err := w.acquire(ctx, lock.StaffKey(actor.TenantID, request.StaffID))
	if err != nil {
		return nil, err
	}
	defer release()

	affected, err := w.preflight(ctx, actor.TenantID, request.StaffID, request.Range(), confirm)
	if err != nil {
		return nil, err
	}

	decision := &Decision{}
	err = w.store.WithTx(ctx, func(q repository.Querier) error {
		current, err := q.GetHolidayRequest(ctx, actor.TenantID, requestID)
		if err != nil {
			return err
		}
		if !domain.ValidTransition(current.Status, domain.StatusApproved) {
			return domain.ErrAlreadyResolved
		}

		holiday := &domain.Holiday{
			TenantID:  actor.TenantID,
			StaffID:   current.StaffID,
			StartDate: current.StartDate,
			EndDate:   current.EndDate,
			Reason:    current.Note,
			CreatedBy: &actor.AccountID,
		}
		removed, err := w.commitHoliday(ctx, q, holiday, affected)
		if err != nil {
			return err
		}

		reviewedAt := w.now().UTC()
		current.Status = domain.StatusApproved
		current.ReviewedAt = &reviewedAt
		current.ReviewedBy = &actor.AccountID
		if err := q.UpdateHolidayRequest(ctx, current); err != nil {
			return err
		}

		decision.Request, decision.Holiday, decision.RemovedShifts = current, holiday, removed
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("holiday request approved",
		slog.Int64("tenant", actor.TenantID),
		slog.Int64("request", requestID),
		slog.Int64("holiday", decision.Holiday.ID),
		slog.Int("days", overlap.NewDateRange(decision.Holiday.StartDate, decision.Holiday.EndDate).Days()),
		slog.Int("removedShifts", decision.RemovedShifts),
	)
	w.publish(ctx, notify.New(domain.NotificationHolidayApproved, actor.TenantID, decision.Request.StaffID, map[string]any{
		"requestID":     requestID,
		"startDate":     decision.Holiday.StartDate.String(),
		"endDate":       decision.Holiday.EndDate.String(),
		"removedShifts": decision.RemovedShifts,
	}))

	return decision, nil
}

// Reject closes a pending request without side effects on the rota.
func (w *Workflow) Reject(ctx context.Context, actor domain.Actor, requestID int64) (*domain.HolidayRequest, error) {
	request, err := w.reject(ctx, actor, requestID)
	metrics.RecordDecision(metrics.WorkflowHoliday, "reject", err)
	return request, err
}

func (w *Workflow) reject(ctx context.Context, actor domain.Actor, requestID int64) (*domain.HolidayRequest, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}

	if _, err := w.reviewable(ctx, actor, requestID); err != nil {
		return nil, err
	}

	var rejected *domain.HolidayRequest
	err := w.store.WithTx(ctx, func(q repository.Querier) error {
		current, err := q.GetHolidayRequest(ctx, actor.TenantID, requestID)
		if err != nil {
			return err
		}
		if !domain.ValidTransition(current.Status, domain.StatusRejected) {
			return domain.ErrAlreadyResolved
		}

		reviewedAt := w.now().UTC()
		current.Status = domain.StatusRejected
		current.ReviewedAt = &reviewedAt
		current.ReviewedBy = &actor.AccountID
		if err := q.UpdateHolidayRequest(ctx, current); err != nil {
			return err
		}

		rejected = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("holiday request rejected", slog.Int64("tenant", actor.TenantID), slog.Int64("request", requestID))
	w.publish(ctx, notify.New(domain.NotificationHolidayRejected, actor.TenantID, rejected.StaffID, map[string]any{
		"requestID": requestID,
		"startDate": rejected.StartDate.String(),
		"endDate":   rejected.EndDate.String(),
	}))

	return rejected, nil
}

// reviewable loads a request the actor may decide on.
func (w *Workflow) reviewable(ctx context.Context, actor domain.Actor, requestID int64) (*domain.HolidayRequest, error) {
	request, err := w.store.GetHolidayRequest(ctx, actor.TenantID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, domain.ErrAlreadyResolved
	}

	requester, err := w.store.GetStaff(ctx, actor.TenantID, request.StaffID)
	if err != nil {
		return nil, err
	}
	if w.selfApproval(requester, actor) {
		return nil, domain.ErrSelfApproval
	}

	return request, nil
}

type CreateInput struct {
	StaffID   int64
	StartDate calendar.Date
	EndDate   calendar.Date
	Reason    *string
}

// CreateHoliday records a holiday directly, bypassing the request workflow. It applies the
// same overlap and cascade rules as approval.
func (w *Workflow) CreateHoliday(ctx context.Context, actor domain.Actor, in CreateInput, confirm domain.ConfirmFunc) (*Decision, error) {
	decision, err := w.createHoliday(ctx, actor, in, confirm)
	metrics.RecordDecision(metrics.WorkflowHoliday, "create", err)
	return decision, err
}

func (w *Workflow) createHoliday(ctx context.Context, actor domain.Actor, in CreateInput, confirm domain.ConfirmFunc) (*Decision, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}

	rng := overlap.NewDateRange(in.StartDate, in.EndDate)
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", domain.ErrInvalidInput)
	}
	if !rng.Valid() {
		return nil, domain.ErrInvalidRange
	}

	if _, err := w.store.GetStaff(ctx, actor.TenantID, in.StaffID); err != nil {
		return nil, err
	}

	release, err := w.acquire(ctx, lock.StaffKey(actor.TenantID, in.StaffID))
	if err != nil {
		return nil, err
	}
	defer release()

	affected, err := w.preflight(ctx, actor.TenantID, in.StaffID, rng, confirm)
	if err != nil {
		return nil, err
	}

	holiday := &domain.Holiday{
		TenantID:  actor.TenantID,
		StaffID:   in.StaffID,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Reason:    in.Reason,
		CreatedBy: &actor.AccountID,
	}

	decision := &Decision{Holiday: holiday}
	err = w.store.WithTx(ctx, func(q repository.Querier) error {
		removed, err := w.commitHoliday(ctx, q, holiday, affected)
		decision.RemovedShifts = removed
		return err
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("holiday created",
		slog.Int64("tenant", actor.TenantID),
		slog.Int64("holiday", holiday.ID),
		slog.Int64("staff", in.StaffID),
		slog.Int("days", overlap.NewDateRange(holiday.StartDate, holiday.EndDate).Days()),
		slog.Int("removedShifts", decision.RemovedShifts),
	)

	return decision, nil
}

// preflight runs the checks that can happen before a transaction opens and asks for
// confirmation of the cascade. It returns the number of shifts the caller agreed to remove.
func (w *Workflow) preflight(ctx context.Context, tenantID, staffID int64, rng overlap.DateRange, confirm domain.ConfirmFunc) (int, error) {
	if err := checkApprovedOverlap(ctx, w.store, tenantID, staffID, rng); err != nil {
		return 0, err
	}

	shifts, err := w.shiftsInRange(ctx, w.store, tenantID, staffID, rng)
	if err != nil {
		return 0, err
	}

	if len(shifts) > 0 {
		if confirm == nil || !confirm(len(shifts)) {
			return 0, &domain.CascadeError{Count: len(shifts)}
		}
	}

	return len(shifts), nil
}

// commitHoliday re-verifies the overlap invariant, clears the covered shifts and inserts the
// holiday. More covered shifts than were confirmed aborts with a fresh CascadeError.
func (w *Workflow) commitHoliday(ctx context.Context, q repository.Querier, holiday *domain.Holiday, confirmed int) (int, error) {
	rng := holiday.Range()
	if err := checkApprovedOverlap(ctx, q, holiday.TenantID, holiday.StaffID, rng); err != nil {
		return 0, err
	}

	shifts, err := w.shiftsInRange(ctx, q, holiday.TenantID, holiday.StaffID, rng)
	if err != nil {
		return 0, err
	}
	if len(shifts) > confirmed {
		return 0, &domain.CascadeError{Count: len(shifts)}
	}

	ids := make([]int64, 0, len(shifts))
	for _, s := range shifts {
		ids = append(ids, s.ID)
	}
	if err := q.DeleteShifts(ctx, holiday.TenantID, ids); err != nil {
		return 0, err
	}

	if err := q.InsertHoliday(ctx, holiday); err != nil {
		return 0, err
	}

	return len(ids), nil
}

func (w *Workflow) shiftsInRange(ctx context.Context, q repository.Querier, tenantID, staffID int64, rng overlap.DateRange) ([]*domain.Shift, error) {
	covering := overlap.Covering(rng, w.loc)
	return q.ListShifts(ctx, tenantID, repository.ShiftFilter{
		StaffID: &staffID,
		From:    covering.Start,
		To:      covering.End,
	})
}

func (w *Workflow) acquire(ctx context.Context, key string) (func(), error) {
	release, err := w.locker.Acquire(ctx, key)
	if errors.Is(err, lock.ErrLocked) {
		return nil, domain.ErrBusy
	}
	if err != nil {
		return nil, domain.NewStoreError("acquire review lock", err)
	}
	return release, nil
}

// publish never fails the caller: the decision is already committed.
func (w *Workflow) publish(ctx context.Context, n domain.Notification) {
	if err := w.publisher.Publish(ctx, n); err != nil {
		w.logger.Error("publish notification failed",
			slog.String("type", string(n.Type)),
			slog.String("id", n.ID),
			slog.String("error", err.Error()),
		)
	}
}
