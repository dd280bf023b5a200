package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/config"
	"github.com/rotadesk/backend/internal/domain"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 5

	return NewRepository(cfg, db), mock
}

func TestListShiftsBuildsFilter(t *testing.T) {
	repo, mock := newMockRepository(t)

	staffID := int64(7)
	from := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	start := from.Add(11*time.Hour + 30*time.Minute)

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "staff_id", "start_time", "end_time", "role_tag", "created_at"}).
		AddRow(1, 1, 7, start, start.Add(7*time.Hour+30*time.Minute), "FOH", from).
		AddRow(2, 1, nil, start.Add(24*time.Hour), start.Add(31*time.Hour), "", from)

	mock.ExpectQuery(regexp.QuoteMeta("FROM shifts WHERE tenant_id = $1 AND staff_id = $2 AND start_time >= $3 AND start_time < $4")).
		WithArgs(int64(1), staffID, from, to).
		WillReturnRows(rows)

	shifts, err := repo.ListShifts(context.Background(), 1, ShiftFilter{StaffID: &staffID, From: from, To: to})
	require.NoError(t, err)
	require.Len(t, shifts, 2)

	assert.True(t, shifts[0].HeldBy(7))
	assert.Equal(t, "FOH", shifts[0].RoleTag)
	assert.Nil(t, shifts[1].StaffID, "NULL staff_id is an open shift")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetShiftNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM shifts WHERE tenant_id = $1 AND id = $2")).
		WithArgs(int64(1), int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetShift(context.Background(), 1, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInsertHolidayMapsExclusionConstraint(t *testing.T) {
	repo, mock := newMockRepository(t)

	holiday := &domain.Holiday{
		TenantID:  1,
		StaffID:   3,
		StartDate: calendar.MustParseDate("2025-06-10"),
		EndDate:   calendar.MustParseDate("2025-06-12"),
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO holidays")).
		WithArgs(int64(1), int64(3), holiday.StartDate, holiday.EndDate, nil, nil).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "holidays_no_overlap"})

	err := repo.InsertHoliday(context.Background(), holiday)
	assert.ErrorIs(t, err, domain.ErrOverlapsApprovedHoliday)
}

func TestInsertSwapRequestMapsPendingIndex(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO swap_requests")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "swap_requests_one_pending_per_shift"})

	err := repo.InsertSwapRequest(context.Background(), &domain.SwapRequest{
		TenantID:    1,
		ShiftID:     5,
		RequestedBy: 2,
		Status:      domain.StatusPending,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicatePending)
}

func TestUnknownDriverErrorIsStoreFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	cause := errors.New("connection reset by peer")
	mock.ExpectQuery(regexp.QuoteMeta("FROM staff WHERE tenant_id = $1 ORDER BY name")).
		WillReturnError(cause)

	_, err := repo.ListStaff(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	assert.ErrorIs(t, err, cause)
}

func TestListHolidayRequestsScansNullableColumns(t *testing.T) {
	repo, mock := newMockRepository(t)

	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "staff_id", "start_date", "end_date", "note", "status", "created_at", "reviewed_at", "reviewed_by"}).
		AddRow(4, 1, 3, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC), nil, "pending", created, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM holiday_requests WHERE tenant_id = $1 AND status = $2 ORDER BY created_at DESC")).
		WithArgs(int64(1), domain.StatusPending).
		WillReturnRows(rows)

	requests, err := repo.ListHolidayRequests(context.Background(), 1, HolidayRequestFilter{Status: domain.StatusPending})
	require.NoError(t, err)
	require.Len(t, requests, 1)

	r := requests[0]
	assert.Equal(t, "2025-06-10", r.StartDate.String())
	assert.Equal(t, "2025-06-12", r.EndDate.String())
	assert.Equal(t, domain.StatusPending, r.Status)
	assert.Nil(t, r.Note)
	assert.Nil(t, r.ReviewedAt)
	assert.Nil(t, r.ReviewedBy)
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shifts WHERE tenant_id = $1 AND id = $2")).
		WithArgs(int64(1), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithTx(context.Background(), func(q Querier) error {
		return q.DeleteShift(context.Background(), 1, 9)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shifts")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO holidays")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.WithTx(context.Background(), func(q Querier) error {
		if err := q.DeleteShift(context.Background(), 1, 9); err != nil {
			return err
		}
		return q.InsertHoliday(context.Background(), &domain.Holiday{
			TenantID:  1,
			StaffID:   3,
			StartDate: calendar.MustParseDate("2025-06-10"),
			EndDate:   calendar.MustParseDate("2025-06-10"),
		})
	})
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingShiftIsNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shifts")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteShift(context.Background(), 1, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
