package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotadesk/backend/internal/domain"
)

const holidayColumns = `id, tenant_id, staff_id, start_date, end_date, reason, created_by, created_at`

func scanHoliday(row rowScanner) (*domain.Holiday, error) {
	holiday := &domain.Holiday{}

	var reason sql.NullString
	var createdBy sql.NullInt64
	dst := []any{
		&holiday.ID, &holiday.TenantID, &holiday.StaffID, &holiday.StartDate, &holiday.EndDate,
		&reason, &createdBy, &holiday.CreatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	holiday.Reason = nullableString(reason)
	holiday.CreatedBy = nullableInt64(createdBy)

	return holiday, nil
}

func (r *Repository) ListHolidays(ctx context.Context, tenantID int64, filter HolidayFilter) ([]*domain.Holiday, error) {
	cond := newConditions(tenantID)
	if filter.StaffID != nil {
		cond.add("staff_id = $%d", *filter.StaffID)
	}
	if !filter.To.IsZero() {
		cond.add("start_date <= $%d", filter.To)
	}
	if !filter.From.IsZero() {
		cond.add("end_date >= $%d", filter.From)
	}

	query := `SELECT ` + holidayColumns + ` FROM holidays ` + cond.where() + ` ORDER BY start_date, id`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, cond.args...)
	if err != nil {
		return nil, translate("list holidays", err)
	}
	defer rows.Close()

	holidays := []*domain.Holiday{}
	for rows.Next() {
		holiday, err := scanHoliday(rows)
		if err != nil {
			return nil, translate("list holidays", err)
		}
		holidays = append(holidays, holiday)
	}

	if err := rows.Err(); err != nil {
		return nil, translate("list holidays", err)
	}

	return holidays, nil
}

func (r *Repository) InsertHoliday(ctx context.Context, holiday *domain.Holiday) error {
	query := `
		INSERT INTO holidays (tenant_id, staff_id, start_date, end_date, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{holiday.TenantID, holiday.StaffID, holiday.StartDate, holiday.EndDate, holiday.Reason, holiday.CreatedBy}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&holiday.ID, &holiday.CreatedAt); err != nil {
		return translate("insert holiday", err)
	}

	return nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
