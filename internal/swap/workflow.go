// Package swap runs the shift-trade workflow: a staff member offers one of their shifts,
// optionally to a named colleague, and a manager approves or rejects the hand-over.
package swap

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/lock"
	"github.com/rotadesk/backend/internal/metrics"
	"github.com/rotadesk/backend/internal/notify"
	"github.com/rotadesk/backend/internal/repository"
	"github.com/rotadesk/backend/internal/rota"
)

type Workflow struct {
	store        repository.Store
	rota         *rota.Manager
	locker       lock.Locker
	publisher    notify.Publisher
	logger       *slog.Logger
	selfApproval domain.SelfApprovalFunc
	now          func() time.Time
}

type Option func(*Workflow)

// WithSelfApprovalCheck replaces the check that stops managers reviewing their own swaps.
func WithSelfApprovalCheck(fn domain.SelfApprovalFunc) Option {
	return func(w *Workflow) { w.selfApproval = fn }
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func NewWorkflow(store repository.Store, rotaManager *rota.Manager, locker lock.Locker, publisher notify.Publisher, logger *slog.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		store:        store,
		rota:         rotaManager,
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
	ShiftID       int64
	RequestedWith *int64
}

// Submit offers one of the caller's shifts. Leaving RequestedWith unset opens the shift to
// any eligible colleague.
func (w *Workflow) Submit(ctx context.Context, actor domain.Actor, in SubmitInput) (*domain.SwapRequest, error) {
	request, err := w.submit(ctx, actor, in)
	metrics.RecordDecision(metrics.WorkflowSwap, "submit", err)
	return request, err
}

func (w *Workflow) submit(ctx context.Context, actor domain.Actor, in SubmitInput) (*domain.SwapRequest, error) {
	if actor.StaffID == nil {
		return nil, domain.ErrForbidden
	}
	requestedBy := *actor.StaffID

	request := &domain.SwapRequest{
		TenantID:      actor.TenantID,
		ShiftID:       in.ShiftID,
		RequestedBy:   requestedBy,
		RequestedWith: in.RequestedWith,
		Status:        domain.StatusPending,
	}

	err := w.store.WithTx(ctx, func(q repository.Querier) error {
		shift, err := q.GetShift(ctx, actor.TenantID, in.ShiftID)
		if err != nil {
			return err
		}

		pending, err := q.ListSwapRequests(ctx, actor.TenantID, repository.SwapRequestFilter{
			ShiftID: &in.ShiftID,
			Status:  domain.StatusPending,
		})
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			return domain.ErrDuplicatePending
		}

		if !shift.HeldBy(requestedBy) {
			return domain.ErrNotShiftOwner
		}

		if in.RequestedWith != nil {
			if err := checkTarget(ctx, q, actor.TenantID, requestedBy, *in.RequestedWith); err != nil {
				return err
			}
		}

		return q.InsertSwapRequest(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("swap request submitted",
		slog.Int64("tenant", actor.TenantID),
		slog.Int64("request", request.ID),
		slog.Int64("shift", in.ShiftID),
	)

	return request, nil
}

// checkTarget verifies targetID names a non-manager colleague of requestedBy.
func checkTarget(ctx context.Context, q repository.Querier, tenantID, requestedBy, targetID int64) error {
	if targetID == requestedBy {
		return domain.ErrIneligibleStaff
	}

	target, err := q.GetStaff(ctx, tenantID, targetID)
	if err != nil {
		return err
	}
	if target.IsManager() {
		return domain.ErrIneligibleStaff
	}

	return nil
}

// Decision is the outcome of an approved swap.
type Decision struct {
	Request *domain.SwapRequest `json:"request"`
	Shift   *domain.Shift       `json:"shift"`
}

// Approve hands the shift over and closes the request in one transaction. The new holder is
// RequestedWith when the request names one, otherwise claimingStaffID; with neither the
// shift is left open.
func (w *Workflow) Approve(ctx context.Context, actor domain.Actor, requestID int64, claimingStaffID *int64) (*Decision, error) {
	decision, err := w.approve(ctx, actor, requestID, claimingStaffID)
	metrics.RecordDecision(metrics.WorkflowSwap, "approve", err)
	return decision, err
}

func (w *Workflow) approve(ctx context.Context, actor domain.Actor, requestID int64, claimingStaffID *int64) (*Decision, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}

	request, err := w.reviewable(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}

	release, err := w.acquire(ctx, lock.ShiftKey(actor.TenantID, request.ShiftID))
	if err != nil {
		return nil, err
	}
	defer release()

	target := request.RequestedWith
	if target == nil {
		target = claimingStaffID
	}
	dest := rota.Destination{StaffID: target, Open: target == nil}

	if target != nil {
		releaseStaff, err := w.rota.LockStaff(ctx, actor.TenantID, *target)
		if err != nil {
			return nil, err
		}
		defer releaseStaff()
	}

	decision := &Decision{}
	err = w.store.WithTx(ctx, func(q repository.Querier) error {
		current, err := q.GetSwapRequest(ctx, actor.TenantID, requestID)
		if err != nil {
			return err
		}
		if !domain.ValidTransition(current.Status, domain.StatusApproved) {
			return domain.ErrAlreadyResolved
		}

		shift, err := q.GetShift(ctx, actor.TenantID, current.ShiftID)
		if err != nil {
			return err
		}
		if !shift.HeldBy(current.RequestedBy) {
			return domain.ErrNotShiftOwner
		}

		if target != nil {
			if err := checkTarget(ctx, q, actor.TenantID, current.RequestedBy, *target); err != nil {
				return err
			}
		}
		if err := w.rota.Move(ctx, q, shift, dest); err != nil {
			return err
		}

		reviewedAt := w.now().UTC()
		current.Status = domain.StatusApproved
		current.ReviewedAt = &reviewedAt
		current.ReviewedBy = &actor.AccountID
		if err := q.UpdateSwapRequest(ctx, current); err != nil {
			return err
		}

		decision.Request, decision.Shift = current, shift
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("swap request approved",
		slog.Int64("tenant", actor.TenantID),
		slog.Int64("request", requestID),
		slog.Int64("shift", decision.Shift.ID),
		slog.Any("staff", decision.Shift.StaffID),
	)

	data := map[string]any{
		"requestID": requestID,
		"shift":     shiftLabel(decision.Shift, w.rota.Location()),
	}
	if target != nil {
		if staff, err := w.store.GetStaff(ctx, actor.TenantID, *target); err == nil {
			data["newOwner"] = staff.Name
		}
	}
	w.publish(ctx, notify.New(domain.NotificationSwapApproved, actor.TenantID, decision.Request.RequestedBy, data))

	return decision, nil
}

// Reject closes a pending swap; the shift stays with the requester.
func (w *Workflow) Reject(ctx context.Context, actor domain.Actor, requestID int64) (*domain.SwapRequest, error) {
	request, err := w.reject(ctx, actor, requestID)
	metrics.RecordDecision(metrics.WorkflowSwap, "reject", err)
	return request, err
}

func (w *Workflow) reject(ctx context.Context, actor domain.Actor, requestID int64) (*domain.SwapRequest, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}

	if _, err := w.reviewable(ctx, actor, requestID); err != nil {
		return nil, err
	}

	var rejected *domain.SwapRequest
	err := w.store.WithTx(ctx, func(q repository.Querier) error {
		current, err := q.GetSwapRequest(ctx, actor.TenantID, requestID)
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
		if err := q.UpdateSwapRequest(ctx, current); err != nil {
			return err
		}

		rejected = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("swap request rejected", slog.Int64("tenant", actor.TenantID), slog.Int64("request", requestID))

	data := map[string]any{"requestID": requestID}
	if shift, err := w.store.GetShift(ctx, actor.TenantID, rejected.ShiftID); err == nil {
		data["shift"] = shiftLabel(shift, w.rota.Location())
	}
	w.publish(ctx, notify.New(domain.NotificationSwapRejected, actor.TenantID, rejected.RequestedBy, data))

	return rejected, nil
}

func (w *Workflow) reviewable(ctx context.Context, actor domain.Actor, requestID int64) (*domain.SwapRequest, error) {
	request, err := w.store.GetSwapRequest(ctx, actor.TenantID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, domain.ErrAlreadyResolved
	}

	requester, err := w.store.GetStaff(ctx, actor.TenantID, request.RequestedBy)
	if err != nil {
		return nil, err
	}
	if w.selfApproval(requester, actor) {
		return nil, domain.ErrSelfApproval
	}

	return request, nil
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

func (w *Workflow) publish(ctx context.Context, n domain.Notification) {
	if err := w.publisher.Publish(ctx, n); err != nil {
		w.logger.Error("publish notification failed",
			slog.String("type", string(n.Type)),
			slog.String("id", n.ID),
			slog.String("error", err.Error()),
		)
	}
}
