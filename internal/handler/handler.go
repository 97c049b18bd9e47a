package handler

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/ja"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ja_translations "github.com/go-playground/validator/v10/translations/ja"
	"github.com/myfan-dev/myfan/console/internal/apiclient"
	"github.com/myfan-dev/myfan/console/internal/config"
	"github.com/myfan-dev/myfan/console/internal/metrics"
	"github.com/myfan-dev/myfan/console/internal/repository"
	"github.com/myfan-dev/myfan/console/internal/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// MailPublisher 是 *amqp.Channel 中发送消息的部分
type MailPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailChannel MailPublisher
	sessions    *session.Store
	api         *apiclient.Client
	metrics     *metrics.Metrics
	location    *time.Location
	pages       map[string]*template.Template
	now         func() time.Time

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh MailPublisher, rdb *redis.Client, api *apiclient.Client, m *metrics.Metrics) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息中使用 label 标签里的字段名
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})

	ja := ja.New()
	uni := ut.New(ja, ja)
	trans, _ := uni.GetTranslator("ja")
	if err := ja_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("无法加载时区 %s: %w", cfg.Display.Timezone, err)
	}

	pages, err := parsePages(loc)
	if err != nil {
		return nil, err
	}

	sessionTTL := time.Duration(cfg.JWT.Expiration) * time.Second
	opTimeout := time.Duration(cfg.Redis.OperationTimeout) * time.Second

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		sessions:    session.NewStore(rdb, sessionTTL, opTimeout),
		api:         api,
		metrics:     m,
		location:    loc,
		pages:       pages,
		now:         time.Now,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Healthz)
	h.Mux.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/password-reset", func(r chi.Router) {
			r.Get("/request", h.PasswordResetRequestPage)
			r.Post("/request", h.RequestPasswordReset)
			r.Get("/verify", h.PasswordResetVerifyPage)
			r.Post("/verify", h.VerifyPasswordReset)
		})
	})

	// 以下页面必须要在登录后才允许访问
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/stores", http.StatusSeeOther)
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", h.GetStores)
			r.Get("/new", h.NewStorePage)
			r.Post("/new", h.CreateStore)

			r.Route("/{storeID}", func(r chi.Router) {
				r.Use(h.store)
				r.Get("/", func(w http.ResponseWriter, r *http.Request) {
					http.Redirect(w, r, strings.TrimSuffix(r.URL.Path, "/")+"/bookings", http.StatusSeeOther)
				})
				r.Get("/me", h.GetMe)
				r.Get("/activity", h.GetActivity)

				r.Route("/customers", func(r chi.Router) {
					r.Get("/", h.GetCustomers)
					r.Get("/search", h.SearchCustomers)
					r.Get("/new", h.NewCustomerPage)
					r.Post("/new", h.CreateCustomer)
					r.Route("/{customerID}", func(r chi.Router) {
						r.Use(h.customer)
						r.Get("/", h.GetCustomer)
						r.Get("/edit", h.EditCustomerPage)
						r.Post("/edit", h.UpdateCustomer)
						r.Post("/delete", h.DeleteCustomer)
					})
				})

				r.Route("/bookings", func(r chi.Router) {
					r.Get("/", h.GetBookings)
					r.Get("/grid", h.GetBookingGrid)
					r.Get("/new", h.NewBookingPage)
					r.Post("/new", h.CreateBooking)
					r.Route("/{bookingID}", func(r chi.Router) {
						r.Use(h.booking)
						r.Post("/edit", h.UpdateBooking)
						r.Post("/cancel", h.CancelBooking)
						r.Post("/delete", h.DeleteBooking)
						r.Post("/next", h.CreateNextBooking)
					})
				})
			})
		})
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "ok", map[string]string{"environment": h.config.Environment})
}
