package repository

import (
	"context"
	"database/sql"

	"github.com/rotadesk/backend/internal/domain"
)

const shiftColumns = `id, tenant_id, staff_id, start_time, end_time, role_tag, created_at`

func scanShift(row rowScanner) (*domain.Shift, error) {
	shift := &domain.Shift{}

	var staffID sql.NullInt64
	if err := row.Scan(&shift.ID, &shift.TenantID, &staffID, &shift.StartTime, &shift.EndTime, &shift.RoleTag, &shift.CreatedAt); err != nil {
		return nil, err
	}
	shift.StaffID = nullableInt64(staffID)

	return shift, nil
}

func (r *Repository) GetShift(ctx context.Context, tenantID, id int64) (*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE tenant_id = $1 AND id = $2`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	shift, err := scanShift(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		return nil, translate("get shift", err)
	}

	return shift, nil
}

func (r *Repository) ListShifts(ctx context.Context, tenantID int64, filter ShiftFilter) ([]*domain.Shift, error) {
	cond := newConditions(tenantID)
	if filter.IDs != nil {
		cond.add("id = ANY($%d)", filter.IDs)
	}
	if filter.StaffID != nil {
		cond.add("staff_id = $%d", *filter.StaffID)
	}
	if !filter.From.IsZero() {
		cond.add("start_time >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		cond.add("start_time < $%d", filter.To)
	}

	query := `SELECT ` + shiftColumns + ` FROM shifts ` + cond.where() + ` ORDER BY start_time, id`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, cond.args...)
	if err != nil {
		return nil, translate("list shifts", err)
	}
	defer rows.Close()

	shifts := []*domain.Shift{}
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, translate("list shifts", err)
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, translate("list shifts", err)
	}

	return shifts, nil
}

func (r *Repository) InsertShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (tenant_id, staff_id, start_time, end_time, role_tag)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{shift.TenantID, shift.StaffID, shift.StartTime, shift.EndTime, shift.RoleTag}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&shift.ID, &shift.CreatedAt); err != nil {
		return translate("insert shift", err)
	}

	return nil
}

func (r *Repository) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET staff_id = $3, start_time = $4, end_time = $5, role_tag = $6
		WHERE tenant_id = $1 AND id = $2
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{shift.TenantID, shift.ID, shift.StaffID, shift.StartTime, shift.EndTime, shift.RoleTag}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translate("update shift", err)
	}

	return expectAffected("update shift", result)
}

func (r *Repository) DeleteShift(ctx context.Context, tenantID, id int64) error {
	query := `DELETE FROM shifts WHERE tenant_id = $1 AND id = $2`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, tenantID, id)
	if err != nil {
		return translate("delete shift", err)
	}

	return expectAffected("delete shift", result)
}

// DeleteShifts removes every listed shift of the tenant; ids that no longer exist are ignored.
func (r *Repository) DeleteShifts(ctx context.Context, tenantID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM shifts WHERE tenant_id = $1 AND id = ANY($2)`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, query, tenantID, ids); err != nil {
		return translate("delete shifts", err)
	}

	return nil
}
