package holiday

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/lock"
	"github.com/rotadesk/backend/internal/notify"
	"github.com/rotadesk/backend/internal/repository"
	"github.com/rotadesk/backend/internal/repository/memory"
)

type fixture struct {
	store     *memory.Store
	locker    *lock.MemoryLocker
	published *notify.Recorder
	workflow  *Workflow
	loc       *time.Location
	boss      domain.Actor
	alice     *domain.Staff
	aliceAct  domain.Actor
	chef      *domain.Staff
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	store := memory.NewStore()
	tenant := &domain.Tenant{Name: "Kitchen"}
	require.NoError(t, store.InsertTenant(ctx, tenant))

	bossAccount := &domain.Account{Email: "boss@example.com", FullName: "Chef"}
	aliceAccount := &domain.Account{Email: "alice@example.com", FullName: "Alice"}
	require.NoError(t, store.InsertAccount(ctx, bossAccount))
	require.NoError(t, store.InsertAccount(ctx, aliceAccount))

	managerRole, staffRole := domain.RoleManager, domain.RoleStaff
	chef := &domain.Staff{TenantID: tenant.ID, Name: "Chef", Role: &managerRole, LinkedUserID: &bossAccount.ID}
	alice := &domain.Staff{TenantID: tenant.ID, Name: "Alice", Role: &staffRole, LinkedUserID: &aliceAccount.ID}
	require.NoError(t, store.InsertStaff(ctx, chef))
	require.NoError(t, store.InsertStaff(ctx, alice))

	locker := lock.NewMemoryLocker()
	published := &notify.Recorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		store:     store,
		locker:    locker,
		published: published,
		workflow:  NewWorkflow(store, loc, locker, published, logger),
		loc:       loc,
		boss:      domain.Actor{TenantID: tenant.ID, AccountID: bossAccount.ID, Role: domain.RoleManager, StaffID: &chef.ID},
		alice:     alice,
		aliceAct:  domain.Actor{TenantID: tenant.ID, AccountID: aliceAccount.ID, Role: domain.RoleStaff, StaffID: &alice.ID},
		chef:      chef,
	}
}

func (f *fixture) approvedHoliday(t *testing.T, start, end string) {
	t.Helper()
	require.NoError(t, f.store.InsertHoliday(context.Background(), &domain.Holiday{
		TenantID:  f.boss.TenantID,
		StaffID:   f.alice.ID,
		StartDate: calendar.MustParseDate(start),
		EndDate:   calendar.MustParseDate(end),
	}))
}

func (f *fixture) submit(t *testing.T, start, end string) *domain.HolidayRequest {
	t.Helper()
	request, err := f.workflow.Submit(context.Background(), f.aliceAct, SubmitInput{
		StartDate: calendar.MustParseDate(start),
		EndDate:   calendar.MustParseDate(end),
	})
	require.NoError(t, err)
	return request
}

func (f *fixture) shift(t *testing.T, day string) *domain.Shift {
	t.Helper()
	d := calendar.MustParseDate(day)
	shift := &domain.Shift{
		TenantID:  f.boss.TenantID,
		StaffID:   &f.alice.ID,
		StartTime: calendar.At(d, calendar.Clock{Hour: 11, Minute: 30}, f.loc),
		EndTime:   calendar.At(d, calendar.Clock{Hour: 19}, f.loc),
		RoleTag:   "FOH",
	}
	require.NoError(t, f.store.InsertShift(context.Background(), shift))
	return shift
}

func (f *fixture) status(t *testing.T, id int64) domain.RequestStatus {
	t.Helper()
	r, err := f.store.GetHolidayRequest(context.Background(), f.boss.TenantID, id)
	require.NoError(t, err)
	return r.Status
}

func TestSubmitOverlappingApprovedHoliday(t *testing.T) {
	f := newFixture(t)
	f.approvedHoliday(t, "2025-06-10", "2025-06-12")

	_, err := f.workflow.Submit(context.Background(), f.aliceAct, SubmitInput{
		StartDate: calendar.MustParseDate("2025-06-11"),
		EndDate:   calendar.MustParseDate("2025-06-13"),
	})
	assert.ErrorIs(t, err, domain.ErrOverlapsApprovedHoliday)

	_, err = f.workflow.Submit(context.Background(), f.aliceAct, SubmitInput{
		StartDate: calendar.MustParseDate("2025-06-01"),
		EndDate:   calendar.MustParseDate("2025-06-30"),
	})
	assert.ErrorIs(t, err, domain.ErrOverlapsApprovedHoliday, "a range swallowing the holiday overlaps too")
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, "2025-07-01", "2025-07-05")

	_, err := f.workflow.Submit(ctx, f.aliceAct, SubmitInput{
		StartDate: calendar.MustParseDate("2025-07-05"),
		EndDate:   calendar.MustParseDate("2025-07-07"),
	})
	assert.ErrorIs(t, err, domain.ErrOverlapsPendingRequest)

	_, err = f.workflow.Submit(ctx, f.aliceAct, SubmitInput{
		StartDate: calendar.MustParseDate("2025-07-10"),
		EndDate:   calendar.MustParseDate("2025-07-09"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = f.workflow.Submit(ctx, domain.Actor{TenantID: f.boss.TenantID, Role: domain.RoleStaff}, SubmitInput{
		StartDate: calendar.MustParseDate("2025-07-10"),
		EndDate:   calendar.MustParseDate("2025-07-10"),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestApproveRemovesCoveredShifts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	covered := f.shift(t, "2025-06-15")
	outside := f.shift(t, "2025-06-17")
	request := f.submit(t, "2025-06-14", "2025-06-16")

	var asked int
	decision, err := f.workflow.Approve(ctx, f.boss, request.ID, func(n int) bool {
		asked = n
		return true
	})
	require.NoError(t, err)

	assert.Equal(t, 1, asked)
	assert.Equal(t, 1, decision.RemovedShifts)
	assert.Equal(t, domain.StatusApproved, decision.Request.Status)
	assert.Equal(t, f.boss.AccountID, *decision.Request.ReviewedBy)
	assert.NotNil(t, decision.Request.ReviewedAt)

	_, err = f.store.GetShift(ctx, f.boss.TenantID, covered.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.store.GetShift(ctx, f.boss.TenantID, outside.ID)
	assert.NoError(t, err)

	holidays, err := f.store.ListHolidays(ctx, f.boss.TenantID, repository.HolidayFilter{StaffID: &f.alice.ID})
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, "2025-06-14", holidays[0].StartDate.String())
	assert.Equal(t, "2025-06-16", holidays[0].EndDate.String())
	assert.Equal(t, f.boss.AccountID, *holidays[0].CreatedBy)

	sent := f.published.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.NotificationHolidayApproved, sent[0].Type)
	assert.Equal(t, f.alice.ID, sent[0].StaffID)
}

func TestApproveDeclinedCascadeLeavesRequestPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shift := f.shift(t, "2025-06-15")
	request := f.submit(t, "2025-06-14", "2025-06-16")

	_, err := f.workflow.Approve(ctx, f.boss, request.ID, domain.Declined)

	var cascade *domain.CascadeError
	require.ErrorAs(t, err, &cascade)
	assert.Equal(t, 1, cascade.Count)
	assert.Equal(t, domain.StatusPending, f.status(t, request.ID))

	_, err = f.store.GetShift(ctx, f.boss.TenantID, shift.ID)
	assert.NoError(t, err)
	assert.Empty(t, f.published.Sent())
}

func TestApproveRechecksOverlapAtApprovalTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	request := f.submit(t, "2025-08-01", "2025-08-05")

	// another holiday lands between submission and approval
	_, err := f.workflow.CreateHoliday(ctx, f.boss, CreateInput{
		StaffID:   f.alice.ID,
		StartDate: calendar.MustParseDate("2025-08-05"),
		EndDate:   calendar.MustParseDate("2025-08-06"),
	}, domain.Confirmed)
	require.NoError(t, err)

	_, err = f.workflow.Approve(ctx, f.boss, request.ID, domain.Confirmed)
	assert.ErrorIs(t, err, domain.ErrOverlapsApprovedHoliday)
	assert.Equal(t, domain.StatusPending, f.status(t, request.ID))
}

func TestApproveRollsBackWhenHolidayInsertFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shift := f.shift(t, "2025-06-15")
	request := f.submit(t, "2025-06-14", "2025-06-16")

	f.store.FailOn("InsertHoliday", errors.New("disk full"))
	_, err := f.workflow.Approve(ctx, f.boss, request.ID, domain.Confirmed)
	assert.ErrorIs(t, err, domain.ErrStoreFailure)

	f.store.FailOn("InsertHoliday", nil)
	assert.Equal(t, domain.StatusPending, f.status(t, request.ID))
	_, err = f.store.GetShift(ctx, f.boss.TenantID, shift.ID)
	assert.NoError(t, err, "shift deletion must be rolled back with the rest")

	_, err = f.workflow.Approve(ctx, f.boss, request.ID, domain.Confirmed)
	assert.NoError(t, err, "the request stays retryable")
}

func TestResolvedRequestsAreTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	approved := f.submit(t, "2025-06-14", "2025-06-16")
	rejected := f.submit(t, "2025-07-14", "2025-07-16")

	_, err := f.workflow.Approve(ctx, f.boss, approved.ID, domain.Confirmed)
	require.NoError(t, err)
	_, err = f.workflow.Reject(ctx, f.boss, rejected.ID)
	require.NoError(t, err)

	_, err = f.workflow.Approve(ctx, f.boss, approved.ID, domain.Confirmed)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	_, err = f.workflow.Reject(ctx, f.boss, approved.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	_, err = f.workflow.Approve(ctx, f.boss, rejected.ID, domain.Confirmed)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	assert.Equal(t, domain.StatusRejected, f.status(t, rejected.ID))

	holidays, err := f.store.ListHolidays(ctx, f.boss.TenantID, repository.HolidayFilter{})
	require.NoError(t, err)
	assert.Len(t, holidays, 1, "rejection creates no holiday")
}

func TestReviewGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	request := f.submit(t, "2025-06-14", "2025-06-16")

	_, err := f.workflow.Approve(ctx, f.aliceAct, request.ID, domain.Confirmed)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.workflow.Approve(ctx, f.boss, 9999, domain.Confirmed)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	release, err := f.locker.Acquire(ctx, lock.StaffKey(f.boss.TenantID, f.alice.ID))
	require.NoError(t, err)
	_, err = f.workflow.Approve(ctx, f.boss, request.ID, domain.Confirmed)
	assert.ErrorIs(t, err, domain.ErrBusy)
	release()

	// a manager reviewing a request raised from their own account
	self := domain.Actor{TenantID: f.boss.TenantID, AccountID: *f.alice.LinkedUserID, Role: domain.RoleManager}
	_, err = f.workflow.Reject(ctx, self, request.ID)
	assert.ErrorIs(t, err, domain.ErrSelfApproval)
}

func TestPublishFailureDoesNotFailApproval(t *testing.T) {
	f := newFixture(t)
	request := f.submit(t, "2025-06-14", "2025-06-16")

	f.published.Err = errors.New("broker unavailable")
	_, err := f.workflow.Approve(context.Background(), f.boss, request.ID, domain.Confirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, f.status(t, request.ID))
}

func TestCreateHoliday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.shift(t, "2025-09-02")

	in := CreateInput{
		StaffID:   f.alice.ID,
		StartDate: calendar.MustParseDate("2025-09-01"),
		EndDate:   calendar.MustParseDate("2025-09-03"),
	}

	_, err := f.workflow.CreateHoliday(ctx, f.boss, in, nil)
	assert.ErrorIs(t, err, domain.ErrCascadeDeclined, "shifts in range need confirmation")

	decision, err := f.workflow.CreateHoliday(ctx, f.boss, in, domain.Confirmed)
	require.NoError(t, err)
	assert.Equal(t, 1, decision.RemovedShifts)

	_, err = f.workflow.CreateHoliday(ctx, f.boss, in, domain.Confirmed)
	assert.ErrorIs(t, err, domain.ErrOverlapsApprovedHoliday)

	_, err = f.workflow.CreateHoliday(ctx, f.aliceAct, in, domain.Confirmed)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	in.EndDate = calendar.MustParseDate("2025-08-01")
	_, err = f.workflow.CreateHoliday(ctx, f.boss, in, domain.Confirmed)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestRoleViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.submit(t, "2025-06-14", "2025-06-16")
	second := f.submit(t, "2025-07-14", "2025-07-16")
	third := f.submit(t, "2025-08-14", "2025-08-16")
	_, err := f.workflow.Reject(ctx, f.boss, second.ID)
	require.NoError(t, err)

	mine, err := f.workflow.StaffRequests(ctx, f.aliceAct)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, third.ID, mine[0].ID, "newest first")

	buckets, err := f.workflow.ManagerRequests(ctx, f.boss)
	require.NoError(t, err)
	require.Len(t, buckets.Pending, 2)
	require.Len(t, buckets.Reviewed, 1)
	assert.Equal(t, third.ID, buckets.Pending[0].ID)
	assert.Equal(t, first.ID, buckets.Pending[1].ID)
	assert.Equal(t, "Alice", buckets.Reviewed[0].StaffName)

	_, err = f.workflow.ManagerRequests(ctx, f.aliceAct)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListHolidaysScopesStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approvedHoliday(t, "2025-06-10", "2025-06-12")
	require.NoError(t, f.store.InsertHoliday(ctx, &domain.Holiday{
		TenantID:  f.boss.TenantID,
		StaffID:   f.chef.ID,
		StartDate: calendar.MustParseDate("2025-06-11"),
		EndDate:   calendar.MustParseDate("2025-06-11"),
	}))

	from, to := calendar.MustParseDate("2025-06-01"), calendar.MustParseDate("2025-06-30")

	mine, err := f.workflow.ListHolidays(ctx, f.aliceAct, from, to)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.workflow.ListHolidays(ctx, f.boss, from, to)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestApproveRechecksOverlapInsideTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.shift(t, "2025-06-15")
	request := f.submit(t, "2025-06-14", "2025-06-16")

	// a concurrent decision commits while the reviewer is confirming the cascade
	confirm := func(int) bool {
		f.approvedHoliday(t, "2025-06-16", "2025-06-18")
		return true
	}

	_, err := f.workflow.Approve(ctx, f.boss, request.ID, confirm)
	assert.ErrorIs(t, err, domain.ErrOverlapsApprovedHoliday)
	assert.Equal(t, domain.StatusPending, f.status(t, request.ID))

	shifts, err := f.store.ListShifts(ctx, f.boss.TenantID, repository.ShiftFilter{StaffID: &f.alice.ID})
	require.NoError(t, err)
	assert.Len(t, shifts, 1)
}
