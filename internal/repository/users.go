package repository

import (
	"context"

	"github.com/rotadesk/backend/internal/domain"
)

func (r *Repository) GetAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `
		SELECT email, password_hash, full_name, created_at
		FROM accounts WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	account := &domain.Account{
		ID: id,
	}

	dst := []any{&account.Email, &account.PasswordHash, &account.FullName, &account.CreatedAt}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, translate("get account", err)
	}

	return account, nil
}

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `
		SELECT id, password_hash, full_name, created_at
		FROM accounts WHERE email = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	account := &domain.Account{
		Email: email,
	}

	dst := []any{&account.ID, &account.PasswordHash, &account.FullName, &account.CreatedAt}
	if err := r.db.QueryRowContext(ctx, query, email).Scan(dst...); err != nil {
		return nil, translate("get account by email", err)
	}

	return account, nil
}

func (r *Repository) InsertAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (email, password_hash, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{account.Email, account.PasswordHash, account.FullName}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&account.ID, &account.CreatedAt); err != nil {
		return translate("insert account", err)
	}

	return nil
}

func (r *Repository) InsertTenant(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (name) VALUES ($1)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if err := r.db.QueryRowContext(ctx, query, tenant.Name).Scan(&tenant.ID, &tenant.CreatedAt); err != nil {
		return translate("insert tenant", err)
	}

	return nil
}

func (r *Repository) GetMembership(ctx context.Context, tenantID, accountID int64) (*domain.Membership, error) {
	query := `
		SELECT role FROM memberships WHERE tenant_id = $1 AND account_id = $2
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	membership := &domain.Membership{
		TenantID:  tenantID,
		AccountID: accountID,
	}

	if err := r.db.QueryRowContext(ctx, query, tenantID, accountID).Scan(&membership.Role); err != nil {
		return nil, translate("get membership", err)
	}

	return membership, nil
}

func (r *Repository) UpsertMembership(ctx context.Context, membership *domain.Membership) error {
	query := `
		INSERT INTO memberships (tenant_id, account_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, account_id) DO UPDATE SET role = EXCLUDED.role
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, query, membership.TenantID, membership.AccountID, membership.Role); err != nil {
		return translate("upsert membership", err)
	}

	return nil
}
