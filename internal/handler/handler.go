package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rosterline-dev/rosterline/backend/internal/cache"
	"github.com/rosterline-dev/rosterline/backend/internal/config"
	"github.com/rosterline-dev/rosterline/backend/internal/domain"
	"github.com/rosterline-dev/rosterline/backend/internal/paycycle"
	"github.com/rosterline-dev/rosterline/backend/internal/policy"
	"github.com/rosterline-dev/rosterline/backend/internal/repository"
	"github.com/rosterline-dev/rosterline/backend/internal/timegrid"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	grid      *timegrid.Grid
	checker   *policy.Checker
	engine    *paycycle.Engine
	shiftView *cache.ShiftViewCache

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	grid, err := timegrid.NewGrid(cfg)
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		grid:      grid,
		checker:   policy.NewChecker(grid),
		engine:    paycycle.NewEngine(grid.Location()),
		shiftView: cache.NewShiftViewCache(cfg, rdb, grid.Location()),

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myStaff)
			r.Get("/", h.GetMyInfo)
		})

		r.Route("/staff", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleManager})).Post("/", h.CreateStaff)
			r.Get("/", h.GetAllStaffInfo) // 排班视图需要展示所有同事，不做角色限制
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.staffInfo)
				r.Get("/", h.GetStaffInfo)
				r.Route("/rates", func(r chi.Router) {
					r.Use(h.RequiredRole([]domain.Role{domain.RoleManager})) // 时薪只有店长能看
					r.Get("/", h.GetStaffRates)
					r.Post("/", h.CreateStaffRate)
				})
				r.Route("/overtime-config", func(r chi.Router) {
					r.Use(h.RequiredRole([]domain.Role{domain.RoleManager}))
					r.Get("/", h.GetOvertimeConfig)
					r.Put("/", h.UpsertOvertimeConfig)
				})
			})
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.GetShifts)
			r.Post("/validate", h.ValidateShift)
			r.With(h.RequiredRole([]domain.Role{domain.RoleManager})).Post("/", h.CreateShift)
			r.With(h.RequiredRole([]domain.Role{domain.RoleManager})).Get("/cost-preview", h.GetCostPreview)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shift)
				r.Get("/", h.GetShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleManager})).Patch("/", h.UpdateShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleManager})).Delete("/", h.DeleteShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleManager})).Post("/publish", h.PublishShift)
			})
		})
	})
}
