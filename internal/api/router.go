package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/campusbook/appointment-booking/internal/booking"
)

type RouterConfig struct {
	Service   *booking.Service
	JWTSecret string
	PgPool    *pgxpool.Pool // nil in demo mode
	Redis     *redis.Client // nil when redis is unavailable
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	authLimiter := NewRateLimiter(5, 10)
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/auth/register", registerHandler(cfg.Service, cfg.JWTSecret))
		r.Post("/auth/login", loginHandler(cfg.Service, cfg.JWTSecret))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		r.Get("/me", meHandler(cfg.Service))
		r.Patch("/me", updateMeHandler(cfg.Service))

		r.Get("/staff", listStaffHandler(cfg.Service))
		r.Get("/staff/{id}/slots", slotsHandler(cfg.Service))

		r.Get("/availability", listWindowsHandler(cfg.Service))
		r.Post("/availability", createWindowHandler(cfg.Service))
		r.Patch("/availability/{id}", toggleWindowHandler(cfg.Service))
		r.Delete("/availability/{id}", deleteWindowHandler(cfg.Service))

		r.Post("/appointments", bookAppointmentHandler(cfg.Service))
		r.Get("/appointments", listAppointmentsHandler(cfg.Service))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
		r.Patch("/appointments/{id}", rescheduleAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/approve", transitionHandler(cfg.Service, booking.StatusApproved))
		r.Post("/appointments/{id}/decline", transitionHandler(cfg.Service, booking.StatusDeclined))
		r.Post("/appointments/{id}/cancel", transitionHandler(cfg.Service, booking.StatusCancelled))
		r.Post("/appointments/{id}/complete", transitionHandler(cfg.Service, booking.StatusCompleted))
		r.Patch("/appointments/{id}/notes", staffNotesHandler(cfg.Service))

		r.Get("/notifications", listNotificationsHandler(cfg.Service))
		r.Post("/notifications/{id}/read", markNotificationReadHandler(cfg.Service))
		r.Post("/notifications/read-all", markAllNotificationsReadHandler(cfg.Service))
		r.Delete("/notifications/{id}", deleteNotificationHandler(cfg.Service))

		r.Get("/reports/appointments", reportHandler(cfg.Service))
	})

	return r
}
