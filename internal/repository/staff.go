package repository

import (
	"context"
	"database/sql"

	"github.com/rotadesk/backend/internal/domain"
)

const staffColumns = `id, tenant_id, name, linked_user_id, role, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaff(row rowScanner) (*domain.Staff, error) {
	staff := &domain.Staff{}

	var linkedUserID sql.NullInt64
	var role sql.NullString
	if err := row.Scan(&staff.ID, &staff.TenantID, &staff.Name, &linkedUserID, &role, &staff.CreatedAt); err != nil {
		return nil, err
	}

	staff.LinkedUserID = nullableInt64(linkedUserID)
	if role.Valid {
		r := domain.Role(role.String)
		staff.Role = &r
	}

	return staff, nil
}

func (r *Repository) GetStaff(ctx context.Context, tenantID, id int64) (*domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE tenant_id = $1 AND id = $2`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	staff, err := scanStaff(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		return nil, translate("get staff", err)
	}

	return staff, nil
}

func (r *Repository) GetStaffByLinkedUser(ctx context.Context, tenantID, accountID int64) (*domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE tenant_id = $1 AND linked_user_id = $2`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	staff, err := scanStaff(r.db.QueryRowContext(ctx, query, tenantID, accountID))
	if err != nil {
		return nil, translate("get staff by linked user", err)
	}

	return staff, nil
}

func (r *Repository) ListStaff(ctx context.Context, tenantID int64) ([]*domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE tenant_id = $1 ORDER BY name, id`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, translate("list staff", err)
	}
	defer rows.Close()

	staff := []*domain.Staff{}
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, translate("list staff", err)
		}
		staff = append(staff, s)
	}

	if err := rows.Err(); err != nil {
		return nil, translate("list staff", err)
	}

	return staff, nil
}

func (r *Repository) InsertStaff(ctx context.Context, staff *domain.Staff) error {
	query := `
		INSERT INTO staff (tenant_id, name, linked_user_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var role any
	if staff.Role != nil {
		role = string(*staff.Role)
	}

	args := []any{staff.TenantID, staff.Name, staff.LinkedUserID, role}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&staff.ID, &staff.CreatedAt); err != nil {
		return translate("insert staff", err)
	}

	return nil
}

// DeleteStaff removes the staff row; shifts, holidays and requests go with it through
// ON DELETE CASCADE.
func (r *Repository) DeleteStaff(ctx context.Context, tenantID, id int64) error {
	query := `DELETE FROM staff WHERE tenant_id = $1 AND id = $2`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, tenantID, id)
	if err != nil {
		return translate("delete staff", err)
	}

	return expectAffected("delete staff", result)
}

func expectAffected(op string, result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return domain.NewStoreError(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullableInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
