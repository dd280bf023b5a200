package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotadesk/backend/internal/config"
	"github.com/rotadesk/backend/internal/domain"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository is the Postgres-backed Store.
type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
	db     dbtx
	inTx   bool
}

var _ Store = (*Repository)(nil)

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
		db:     dbpool,
	}
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

// WithTx runs fn inside one database transaction. A nested call joins the running transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(q Querier) error) error {
	if r.inTx {
		return fn(r)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewStoreError("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&Repository{cfg: r.cfg, dbpool: r.dbpool, db: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.NewStoreError("commit transaction", err)
	}

	return nil
}

// translate maps driver errors onto domain error kinds. The constraint names come from
// the migrations in repository/migrations.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case "holidays_no_overlap":
			return domain.ErrOverlapsApprovedHoliday
		case "swap_requests_one_pending_per_shift":
			return domain.ErrDuplicatePending
		case "shifts_end_after_start", "holidays_valid_range", "holiday_requests_valid_range":
			return domain.ErrInvalidRange
		case "shifts_staff_id_fkey", "holidays_staff_id_fkey", "holiday_requests_staff_id_fkey",
			"swap_requests_shift_id_fkey", "swap_requests_requested_by_fkey", "swap_requests_requested_with_fkey",
			"staff_linked_user_id_fkey", "memberships_account_id_fkey", "memberships_tenant_id_fkey":
			return domain.ErrNotFound
		}
	}

	return domain.NewStoreError(op, err)
}

// conditions accumulates AND-ed predicates with positional arguments.
type conditions struct {
	clauses []string
	args    []any
}

func newConditions(tenantID int64) *conditions {
	c := &conditions{}
	c.add("tenant_id = $%d", tenantID)
	return c
}

// add appends a predicate; format receives the positional index of arg.
func (c *conditions) add(format string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(format, len(c.args)))
}

func (c *conditions) where() string {
	return "WHERE " + strings.Join(c.clauses, " AND ")
}
