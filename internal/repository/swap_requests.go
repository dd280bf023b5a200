package repository

import (
	"context"
	"database/sql"

	"github.com/rotadesk/backend/internal/domain"
)

const swapRequestColumns = `id, tenant_id, shift_id, requested_by, requested_with, status, created_at, reviewed_at, reviewed_by`

func scanSwapRequest(row rowScanner) (*domain.SwapRequest, error) {
	request := &domain.SwapRequest{}

	var requestedWith sql.NullInt64
	var reviewedAt sql.NullTime
	var reviewedBy sql.NullInt64
	dst := []any{
		&request.ID, &request.TenantID, &request.ShiftID, &request.RequestedBy, &requestedWith,
		&request.Status, &request.CreatedAt, &reviewedAt, &reviewedBy,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	request.RequestedWith = nullableInt64(requestedWith)
	request.ReviewedAt = nullableTime(reviewedAt)
	request.ReviewedBy = nullableInt64(reviewedBy)

	return request, nil
}

func (r *Repository) GetSwapRequest(ctx context.Context, tenantID, id int64) (*domain.SwapRequest, error) {
	query := `SELECT ` + swapRequestColumns + ` FROM swap_requests WHERE tenant_id = $1 AND id = $2`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	request, err := scanSwapRequest(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		return nil, translate("get swap request", err)
	}

	return request, nil
}

func (r *Repository) ListSwapRequests(ctx context.Context, tenantID int64, filter SwapRequestFilter) ([]*domain.SwapRequest, error) {
	cond := newConditions(tenantID)
	if filter.ShiftID != nil {
		cond.add("shift_id = $%d", *filter.ShiftID)
	}
	if filter.RequestedBy != nil {
		cond.add("requested_by = $%d", *filter.RequestedBy)
	}
	if filter.Status != "" {
		cond.add("status = $%d", filter.Status)
	}

	query := `SELECT ` + swapRequestColumns + ` FROM swap_requests ` + cond.where() + ` ORDER BY created_at DESC, id DESC`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, cond.args...)
	if err != nil {
		return nil, translate("list swap requests", err)
	}
	defer rows.Close()

	requests := []*domain.SwapRequest{}
	for rows.Next() {
		request, err := scanSwapRequest(rows)
		if err != nil {
			return nil, translate("list swap requests", err)
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, translate("list swap requests", err)
	}

	return requests, nil
}

func (r *Repository) InsertSwapRequest(ctx context.Context, request *domain.SwapRequest) error {
	query := `
		INSERT INTO swap_requests (tenant_id, shift_id, requested_by, requested_with, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{request.TenantID, request.ShiftID, request.RequestedBy, request.RequestedWith, request.Status}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&request.ID, &request.CreatedAt); err != nil {
		return translate("insert swap request", err)
	}

	return nil
}

func (r *Repository) UpdateSwapRequest(ctx context.Context, request *domain.SwapRequest) error {
	query := `
		UPDATE swap_requests
		SET requested_with = $3, status = $4, reviewed_at = $5, reviewed_by = $6
		WHERE tenant_id = $1 AND id = $2
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{request.TenantID, request.ID, request.RequestedWith, request.Status, request.ReviewedAt, request.ReviewedBy}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translate("update swap request", err)
	}

	return expectAffected("update swap request", result)
}
