// Package seed fills a store with a demo tenant: a manager, a crew of staff with logins and a
// week of shifts.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/repository"
	"github.com/rotadesk/backend/internal/rota"
	"github.com/rotadesk/backend/internal/utils"
)

type Options struct {
	TenantName      string
	ManagerEmail    string
	ManagerPassword string
	StaffPassword   string
	EmailDomain     string
	StaffCount      int
	WeekStart       calendar.Date
	ShiftStart      calendar.Clock
	ShiftEnd        calendar.Clock
	RoleTags        []string
	BcryptCost      int // 0 means bcrypt.DefaultCost
	Rand            *rand.Rand
}

type Result struct {
	Tenant  *domain.Tenant
	Manager *domain.Account
	Staff   []*domain.Staff
	Shifts  int
}

// Seed creates the demo tenant. Staff are created through the rota manager so the data obeys
// the same rules as anything entered through the API.
func Seed(ctx context.Context, store repository.Store, manager *rota.Manager, opts Options, logger *slog.Logger) (*Result, error) {
	if opts.StaffCount < 0 {
		return nil, fmt.Errorf("%w: staff count must not be negative", domain.ErrInvalidInput)
	}
	if len(opts.RoleTags) == 0 {
		return nil, fmt.Errorf("%w: at least one role tag is required", domain.ErrInvalidInput)
	}
	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewSource(rand.Int63()))
	}

	res := &Result{Tenant: &domain.Tenant{Name: opts.TenantName}}
	var actor domain.Actor

	// the manager has to exist before any manager-only operation can run
	err := store.WithTx(ctx, func(q repository.Querier) error {
		if err := q.InsertTenant(ctx, res.Tenant); err != nil {
			return err
		}

		account, err := utils.GenerateAccount(r, "Manager", opts.ManagerPassword, opts.EmailDomain, opts.BcryptCost)
		if err != nil {
			return err
		}
		account.Email = strings.ToLower(opts.ManagerEmail)
		if err := q.InsertAccount(ctx, account); err != nil {
			return err
		}
		if err := q.UpsertMembership(ctx, &domain.Membership{TenantID: res.Tenant.ID, AccountID: account.ID, Role: domain.RoleManager}); err != nil {
			return err
		}

		role := domain.RoleManager
		staff := &domain.Staff{TenantID: res.Tenant.ID, Name: account.FullName, LinkedUserID: &account.ID, Role: &role}
		if err := q.InsertStaff(ctx, staff); err != nil {
			return err
		}

		res.Manager = account
		actor = domain.Actor{TenantID: res.Tenant.ID, AccountID: account.ID, Role: domain.RoleManager, StaffID: &staff.ID}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed manager: %w", err)
	}
	logger.Info("seeded tenant", slog.Int64("tenant", res.Tenant.ID), slog.String("manager", res.Manager.Email))

	used := map[string]bool{res.Manager.Email: true}
	for i := 0; i < opts.StaffCount; i++ {
		staff, err := seedStaff(ctx, store, manager, actor, r, opts, used)
		if err != nil {
			return nil, fmt.Errorf("seed staff %d: %w", i+1, err)
		}
		res.Staff = append(res.Staff, staff)
	}

	for _, staff := range res.Staff {
		for _, offset := range utils.GenerateRandomWorkDays(r, 4+r.Intn(2)) {
			_, err := manager.CreateOrUpdateShift(ctx, actor, rota.ShiftInput{
				StaffID: staff.ID,
				Day:     opts.WeekStart.AddDays(offset),
				Start:   opts.ShiftStart,
				End:     opts.ShiftEnd,
				RoleTag: utils.GenerateRandomRoleTag(r, opts.RoleTags),
			})
			if err != nil {
				return nil, fmt.Errorf("seed shift for %s: %w", staff.Name, err)
			}
			res.Shifts++
		}
	}
	logger.Info("seeded rota", slog.Int("staff", len(res.Staff)), slog.Int("shifts", res.Shifts), slog.String("week", opts.WeekStart.String()))

	return res, nil
}

func seedStaff(ctx context.Context, store repository.Store, manager *rota.Manager, actor domain.Actor, r *rand.Rand, opts Options, used map[string]bool) (*domain.Staff, error) {
	name := utils.GenerateRandomStaffName(r)
	account, err := utils.GenerateAccount(r, name, opts.StaffPassword, opts.EmailDomain, opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	for used[account.Email] {
		account.Email = utils.GenerateEmail(r, name, opts.EmailDomain)
	}
	used[account.Email] = true

	if err := store.InsertAccount(ctx, account); err != nil {
		return nil, err
	}
	if err := store.UpsertMembership(ctx, &domain.Membership{TenantID: actor.TenantID, AccountID: account.ID, Role: domain.RoleStaff}); err != nil {
		return nil, err
	}

	role := domain.RoleStaff
	return manager.CreateStaff(ctx, actor, rota.StaffInput{
		Name:         name,
		LinkedUserID: &account.ID,
		Role:         &role,
	})
}
