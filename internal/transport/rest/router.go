package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/lop-gin/janus/internal/activity"
	"github.com/lop-gin/janus/internal/auth"
	"github.com/lop-gin/janus/internal/invitation"
	"github.com/lop-gin/janus/internal/role"
	"github.com/lop-gin/janus/internal/transport/middleware"
	"github.com/lop-gin/janus/internal/transport/swagger"
	"github.com/lop-gin/janus/internal/user"
)

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	authz *auth.Authorization,
	invitationHandler *invitation.Handler,
	roleHandler *role.Handler,
	userHandler *user.Handler,
	activityHandler *activity.Handler,
	allowedOrigins string,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging(logger))
	router.Use(middleware.Recovery(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Unauthenticated: sign-up, sign-in, recovery, and the
		// invitation endpoints the invitee uses before having an
		// account.
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/signup", authHandler.SignUp)
			sr.Post("/signup/verify-otp", authHandler.VerifySignupOTP)
			sr.Post("/signup/set-password", authHandler.SetPassword)
			sr.Post("/signin", authHandler.SignIn)
			sr.Post("/forgot-password", authHandler.ForgotPassword)
			sr.Post("/forgot-password/verify-otp", authHandler.ForgotPasswordVerify)
			sr.Post("/forgot-password/set-password", authHandler.ForgotPasswordSetNew)
			sr.Post("/verify-invite", invitationHandler.Verify)
			sr.Post("/invited/set-password", invitationHandler.Accept)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.Middleware)

			pr.Get("/auth/me", authHandler.Me)

			pr.Route("/roles", func(rr chi.Router) {
				rr.With(authz.Require("roles", "view")).Get("/", roleHandler.List)
				rr.With(authz.Require("roles", "view")).Get("/{roleID}", roleHandler.Get)
				rr.With(authz.Require("roles", "create")).Post("/", roleHandler.Create)
				rr.With(authz.Require("roles", "edit")).Patch("/{roleID}", roleHandler.Update)
				rr.With(authz.Require("roles", "delete")).Delete("/{roleID}", roleHandler.Delete)
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.With(authz.Require("employees", "view")).Get("/", userHandler.List)
				ur.With(authz.Require("employees", "view")).Get("/{userID}", userHandler.Get)
				ur.With(authz.Require("employees", "edit")).Patch("/{userID}", userHandler.Update)
				ur.With(authz.Require("employees", "create")).Post("/invite", userHandler.Invite)
			})

			// Any authenticated user may read the representative
			// picker; it carries no more than names and emails.
			pr.Get("/sales-reps", userHandler.ListSalesReps)

			pr.With(authz.Require("activity_logs", "view")).
				Get("/activity-logs", activityHandler.List)
		})
	})
}
