package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, opts Options) {
	logger := opts.Logger
	broker := opts.Broker
	if broker == nil {
		broker = NewBroker()
	}

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("GeoHunt API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, opts.DB, opts.Redis))

	// Public game surface.
	r.Get("/api/phases/current", handleCurrentPhase(logger, opts.Lifecycle))
	r.Get("/api/phases/events", handleEvents(broker))

	// Accounts.
	r.Post("/api/auth/signup", handleSignup(logger, opts.Auth))
	r.Post("/api/auth/login", handleLogin(logger, opts.Auth, opts.LoginLimiter))
	r.Post("/api/auth/refresh", handleRefresh(logger, opts.Auth))
	r.Post("/api/auth/logout", handleLogout(opts.Auth))
	if opts.OAuth != nil {
		r.Get("/api/auth/google", handleOAuthStart(opts.OAuth))
		r.Get("/api/auth/google/callback", handleOAuthCallback(logger, opts.Auth, opts.OAuth))
	}

	// Authenticated player surface.
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(opts.Auth))

		r.Get("/api/auth/me", handleMe())
		r.Post("/api/phases/submit", handleSubmit(logger, opts.Submitter))
		r.Get("/api/users/profile", handleProfile())
		r.Patch("/api/users/profile", handleUpdateProfile(logger, opts.Store))
		r.Get("/api/users/stats", handleUserStats(logger, opts.Store))
		r.Get("/api/users/submissions", handleUserSubmissions(logger, opts.Store))
	})

	// Admin surface.
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware(opts.Auth))
		r.Use(adminOnly)

		r.Post("/phases", handleAdminCreatePhase(logger, opts.Lifecycle))
		r.Get("/phases", handleAdminListPhases(logger, opts.Store))
		r.Get("/phases/prepared", handleAdminListPrepared(logger, opts.Store))
		r.Delete("/phases/{id}", handleAdminDeletePhase(logger, opts.Store))
		r.Post("/phases/{id}/approve", handleAdminApprovePhase(logger, opts.Lifecycle))
		r.Get("/phases/{id}/preview", handleAdminPreviewPhase(logger, opts.Lifecycle))
		r.Post("/phases/{id}/activate", handleAdminActivatePhase(logger, opts.Lifecycle))
		r.Post("/phases/{id}/regenerate-hint", handleAdminRegenerateHint(logger, opts.Lifecycle))
		r.Get("/phases/{id}/hint-versions", handleAdminListHintVersions(logger, opts.Store))
		r.Post("/phases/{id}/use-hint/{versionId}", handleAdminUseHintVersion(logger, opts.Lifecycle))

		r.Get("/submissions", handleAdminListSubmissions(logger, opts.Store))
		r.Get("/histories", handleAdminListHistories(logger, opts.Store))
	})
}
