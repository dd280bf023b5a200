package rota

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/repository"
)

type StaffInput struct {
	Name         string
	LinkedUserID *int64
	Role         *domain.Role
}

func (m *Manager) CreateStaff(ctx context.Context, actor domain.Actor, in StaffInput) (*domain.Staff, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, *in.Role)
	}

	staff := &domain.Staff{
		TenantID:     actor.TenantID,
		Name:         name,
		LinkedUserID: in.LinkedUserID,
		Role:         in.Role,
	}
	if err := m.store.InsertStaff(ctx, staff); err != nil {
		return nil, err
	}

	m.logger.Info("staff created", slog.Int64("tenant", actor.TenantID), slog.Int64("staff", staff.ID))

	return staff, nil
}

// DeleteStaff removes a staff member together with their shifts.
func (m *Manager) DeleteStaff(ctx context.Context, actor domain.Actor, staffID int64) error {
	if !actor.IsManager() {
		return domain.ErrForbidden
	}

	err := m.store.WithTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetStaff(ctx, actor.TenantID, staffID); err != nil {
			return err
		}

		shifts, err := q.ListShifts(ctx, actor.TenantID, repository.ShiftFilter{StaffID: &staffID})
		if err != nil {
			return err
		}

		ids := make([]int64, 0, len(shifts))
		for _, s := range shifts {
			ids = append(ids, s.ID)
		}
		if err := q.DeleteShifts(ctx, actor.TenantID, ids); err != nil {
			return err
		}

		return q.DeleteStaff(ctx, actor.TenantID, staffID)
	})
	if err != nil {
		return err
	}

	m.logger.Info("staff deleted", slog.Int64("tenant", actor.TenantID), slog.Int64("staff", staffID))

	return nil
}

// ListStaff returns the tenant's staff sorted by name.
func (m *Manager) ListStaff(ctx context.Context, actor domain.Actor) ([]*domain.Staff, error) {
	return m.store.ListStaff(ctx, actor.TenantID)
}
