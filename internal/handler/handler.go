package handler

import (
	"github.com/airport-ops-dev/roster-manager/backend/internal/config"
	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
	"github.com/airport-ops-dev/roster-manager/backend/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

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

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	managerRoles := []domain.Role{domain.RoleSupervisor, domain.RoleAdmin}
	adminOnly := []domain.Role{domain.RoleAdmin}

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Route("/update-email", func(r chi.Router) {
				r.Post("/require", h.RequireUpdateEmail)
				r.Post("/confirm", h.ConfirmUpdateEmail)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole(adminOnly)).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo) // 所有员工都有权限查看同事的基本信息
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole(adminOnly)).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole(adminOnly)).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole(adminOnly)).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/units", func(r chi.Router) {
			r.With(h.RequiredRole(adminOnly)).Post("/", h.CreateUnit)
			r.Get("/", h.GetAllUnits)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.unitInfo)
				r.Get("/", h.GetUnit)
				r.With(h.RequiredRole(adminOnly)).Patch("/", h.UpdateUnit)
				r.With(h.RequiredRole(adminOnly)).Delete("/", h.DeleteUnit)
				r.Get("/shift-definitions", h.GetUnitShiftDefinitions)
				r.With(h.RequiredRole(managerRoles)).Post("/shift-definitions", h.CreateShiftDefinition)
			})
		})

		r.Route("/shift-definitions", func(r chi.Router) {
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftDefinitionInfo)
				r.Get("/", h.GetShiftDefinition)
				r.With(h.RequiredRole(managerRoles)).Patch("/", h.UpdateShiftDefinition)
				r.With(h.RequiredRole(managerRoles)).Delete("/", h.DeleteShiftDefinition)
			})
		})

		r.Route("/roster-templates", func(r chi.Router) {
			r.With(h.RequiredRole(managerRoles)).Post("/", h.CreateRosterTemplate)
			r.Get("/", h.GetAllRosterTemplates)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.rosterTemplateInfo)
				r.Get("/", h.GetRosterTemplate)
				r.With(h.RequiredRole(managerRoles)).Patch("/", h.UpdateRosterTemplate)
				r.With(h.RequiredRole(managerRoles)).Delete("/", h.DeleteRosterTemplate)
			})
		})

		r.Route("/rosters", func(r chi.Router) {
			r.With(h.RequiredRole(managerRoles)).Post("/", h.CreateRoster)
			r.With(h.RequiredRole(managerRoles)).Post("/generate", h.GenerateRoster)
			r.Get("/", h.GetAllRosters)
			r.With(h.myInfo).Get("/my", h.GetMyRoster)
			r.Get("/today", h.GetTodayRoster)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.rosterInfo)
				r.Get("/", h.GetRoster)
				r.With(h.RequiredRole(managerRoles)).Patch("/", h.UpdateRoster)
				r.With(h.RequiredRole(managerRoles)).Delete("/", h.DeleteRoster)
				r.With(h.RequiredRole(managerRoles)).Post("/submit", h.SubmitRoster)
				r.With(h.RequiredRole(managerRoles)).Post("/approve", h.ApproveRoster)
				r.With(h.RequiredRole(managerRoles)).Post("/activate", h.ActivateRoster)
				r.Route("/entries", func(r chi.Router) {
					r.Use(h.RequiredRole(managerRoles))
					r.Post("/", h.AddRosterEntry)
					r.Patch("/{entryID}", h.UpdateRosterEntry)
					r.Delete("/{entryID}", h.DeleteRosterEntry)
				})
			})
		})

		r.Route("/shift-swaps", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Post("/", h.RequestSwap)
			r.Get("/", h.GetMySwapRequests)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.swapRequestInfo)
				r.Get("/", h.GetSwapRequest)
				r.Post("/respond", h.RespondToSwap)
				r.With(h.RequiredRole(managerRoles)).Post("/review", h.ReviewSwap)
			})
		})
	})
}
