package repository

import (
	"context"
	"database/sql"

	"github.com/rotadesk/backend/internal/domain"
)

const holidayRequestColumns = `id, tenant_id, staff_id, start_date, end_date, note, status, created_at, reviewed_at, reviewed_by`

func scanHolidayRequest(row rowScanner) (*domain.HolidayRequest, error) {
	request := &domain.HolidayRequest{}

	var note sql.NullString
	var reviewedAt sql.NullTime
	var reviewedBy sql.NullInt64
	dst := []any{
		&request.ID, &request.TenantID, &request.StaffID, &request.StartDate, &request.EndDate,
		&note, &request.Status, &request.CreatedAt, &reviewedAt, &reviewedBy,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	request.Note = nullableString(note)
	request.ReviewedAt = nullableTime(reviewedAt)
	request.ReviewedBy = nullableInt64(reviewedBy)

	return request, nil
}

func (r *Repository) GetHolidayRequest(ctx context.Context, tenantID, id int64) (*domain.HolidayRequest, error) {
	query := `SELECT ` + holidayRequestColumns + ` FROM holiday_requests WHERE tenant_id = $1 AND id = $2`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	request, err := scanHolidayRequest(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		return nil, translate("get holiday request", err)
	}

	return request, nil
}

func (r *Repository) ListHolidayRequests(ctx context.Context, tenantID int64, filter HolidayRequestFilter) ([]*domain.HolidayRequest, error) {
	cond := newConditions(tenantID)
	if filter.StaffID != nil {
		cond.add("staff_id = $%d", *filter.StaffID)
	}
	if filter.Status != "" {
		cond.add("status = $%d", filter.Status)
	}
	if !filter.To.IsZero() {
		cond.add("start_date <= $%d", filter.To)
	}
	if !filter.From.IsZero() {
		cond.add("end_date >= $%d", filter.From)
	}

	query := `SELECT ` + holidayRequestColumns + ` FROM holiday_requests ` + cond.where() + ` ORDER BY created_at DESC, id DESC`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, cond.args...)
	if err != nil {
		return nil, translate("list holiday requests", err)
	}
	defer rows.Close()

	requests := []*domain.HolidayRequest{}
	for rows.Next() {
		request, err := scanHolidayRequest(rows)
		if err != nil {
			return nil, translate("list holiday requests", err)
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, translate("list holiday requests", err)
	}

	return requests, nil
}

func (r *Repository) InsertHolidayRequest(ctx context.Context, request *domain.HolidayRequest) error {
	query := `
		INSERT INTO holiday_requests (tenant_id, staff_id, start_date, end_date, note, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{request.TenantID, request.StaffID, request.StartDate, request.EndDate, request.Note, request.Status}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&request.ID, &request.CreatedAt); err != nil {
		return translate("insert holiday request", err)
	}

	return nil
}

// UpdateHolidayRequest persists the review outcome. Only the status and review columns change.
func (r *Repository) UpdateHolidayRequest(ctx context.Context, request *domain.HolidayRequest) error {
	query := `
		UPDATE holiday_requests
		SET status = $3, reviewed_at = $4, reviewed_by = $5
		WHERE tenant_id = $1 AND id = $2
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{request.TenantID, request.ID, request.Status, request.ReviewedAt, request.ReviewedBy}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translate("update holiday request", err)
	}

	return expectAffected("update holiday request", result)
}
