package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/config"
	"github.com/rotadesk/backend/internal/lock"
	"github.com/rotadesk/backend/internal/repository"
	"github.com/rotadesk/backend/internal/repository/migrations"
	"github.com/rotadesk/backend/internal/rota"
	"github.com/rotadesk/backend/internal/seed"
	"github.com/rotadesk/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var week string
	var n int
	var migrate bool

	flag.StringVar(&week, "week", "", "any date of the week to fill with shifts (YYYY-MM-DD, default: this week)")
	flag.IntVar(&n, "n", -1, "number of staff to create (default: SEED_STAFF_COUNT)")
	flag.BoolVar(&migrate, "migrate", false, "apply pending migrations first")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("cannot load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := utils.ValidateRotaConfig(cfg); err != nil {
		logger.Error("invalid rota configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	weekStart := calendar.WeekStart(calendar.DateIn(time.Now(), loc))
	if week != "" {
		d, err := calendar.ParseDate(week)
		if err != nil {
			logger.Error("invalid -week", slog.String("error", err.Error()))
			os.Exit(1)
		}
		weekStart = calendar.WeekStart(d)
	}
	if n < 0 {
		n = cfg.Seed.StaffCount
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("cannot create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("cannot connect to database", "error", err)
		return
	}

	if migrate {
		if err := migrations.Up(context.Background(), dbpool); err != nil {
			logger.Error("cannot apply migrations", "error", err)
			return
		}
	}

	repo := repository.NewRepository(cfg, dbpool)
	manager := rota.NewManager(repo, loc, lock.Noop{}, logger)

	// validated above
	start, _ := calendar.ParseClock(cfg.Rota.DefaultShiftStart)
	end, _ := calendar.ParseClock(cfg.Rota.DefaultShiftEnd)

	res, err := seed.Seed(context.Background(), repo, manager, seed.Options{
		TenantName:      cfg.Seed.TenantName,
		ManagerEmail:    cfg.Seed.Manager.Email,
		ManagerPassword: cfg.Seed.Manager.Password,
		StaffPassword:   cfg.Seed.User.Password,
		EmailDomain:     cfg.Seed.EmailDomain,
		StaffCount:      n,
		WeekStart:       weekStart,
		ShiftStart:      start,
		ShiftEnd:        end,
		RoleTags:        cfg.Rota.RoleTags,
	}, logger)
	if err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		return
	}

	logger.Info("seed finished", slog.Int64("tenant", res.Tenant.ID), slog.Int("staff", len(res.Staff)), slog.Int("shifts", res.Shifts))
}
