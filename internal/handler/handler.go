package handler

import (
	"log/slog"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotadesk/backend/internal/config"
	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/holiday"
	"github.com/rotadesk/backend/internal/repository"
	"github.com/rotadesk/backend/internal/rota"
	"github.com/rotadesk/backend/internal/swap"
)

type Handler struct {
	validate   *validator.Validate
	translator ut.Translator
	config     *config.Config
	repository repository.Store
	rota       *rota.Manager
	holidays   *holiday.Workflow
	swaps      *swap.Workflow
	logger     *slog.Logger

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo repository.Store, rotaManager *rota.Manager, holidays *holiday.Workflow, swaps *swap.Workflow, logger *slog.Logger) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	// role tags come from configuration, so oneof cannot express them
	if err := validate.RegisterValidation("roletag", func(fl validator.FieldLevel) bool {
		return slices.Contains(cfg.Rota.RoleTags, fl.Field().String())
	}); err != nil {
		return nil, err
	}
	if err := validate.RegisterTranslation("roletag", trans,
		func(ut ut.Translator) error {
			return ut.Add("roletag", "{0} must be one of the configured role tags", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("roletag", fe.Field())
			return t
		},
	); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		translator: trans,
		config:     cfg,
		repository: repo,
		rota:       rotaManager,
		holidays:   holidays,
		swaps:      swaps,
		logger:     logger,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(middleware.RequestID)
	h.Mux.Use(h.accessLog)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h.Mux.Handle("/metrics", promhttp.Handler())

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	manager := h.RequiredRole([]domain.Role{domain.RoleManager})

	// everything below needs a logged-in member of the tenant
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			r.Use(h.tenant)
			r.Get("/me", h.GetMe)

			r.Route("/staff", func(r chi.Router) {
				r.Get("/", h.ListStaff)
				r.With(manager).Post("/", h.CreateStaff)
				r.With(manager, h.pathID).Delete("/{id}", h.DeleteStaff)
			})

			r.Route("/rota", func(r chi.Router) {
				r.Get("/", h.GetRota)
				r.With(manager).Get("/export", h.ExportRota)
			})

			r.Route("/shifts", func(r chi.Router) {
				r.Get("/", h.ListShifts)
				r.With(manager).Put("/", h.UpsertShift)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(manager)
					r.Use(h.pathID)
					r.Delete("/", h.DeleteShift)
					r.Patch("/assignment", h.ReassignShift)
				})
			})

			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", h.ListHolidays)
				r.With(manager).Post("/", h.CreateHoliday)
			})

			r.Route("/holiday-requests", func(r chi.Router) {
				r.Get("/", h.ListHolidayRequests)
				r.Post("/", h.SubmitHolidayRequest)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(manager)
					r.Use(h.pathID)
					r.Post("/approve", h.ApproveHolidayRequest)
					r.Post("/reject", h.RejectHolidayRequest)
				})
			})

			r.Route("/swap-requests", func(r chi.Router) {
				r.Get("/", h.ListSwapRequests)
				r.Post("/", h.SubmitSwapRequest)
				r.Get("/options", h.GetSwapOptions)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(manager)
					r.Use(h.pathID)
					r.Post("/approve", h.ApproveSwapRequest)
					r.Post("/reject", h.RejectSwapRequest)
				})
			})
		})
	})
}
