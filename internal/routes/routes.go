package routes

import (
	"github.com/go-chi/chi/v5"

	"mysft/internal/handlers"
)

// Setup wires every endpoint. Admin routes rely on the services' own
// session-based authorization rather than route middleware, matching the
// single-device session model.
func Setup(r *chi.Mux, auth *handlers.AuthHandler, profile *handlers.ProfileHandler,
	health *handlers.HealthDeclHandler, training *handlers.TrainingHandler,
	admin *handlers.AdminHandler) {

	// Auth
	r.Post("/api/auth/register", auth.Register)
	r.Post("/api/auth/login", auth.Login)
	r.Post("/api/auth/logout", auth.Logout)
	r.Get("/api/auth/me", auth.Me)

	// Own profile
	r.Get("/api/profile", profile.Get)
	r.Put("/api/profile", profile.Update)

	// Health declaration
	r.Get("/api/health-declaration/questions", health.Questions)
	r.Post("/api/health-declaration", health.Submit)
	r.Get("/api/health-declaration", health.Current)
	r.Get("/api/health-declaration/unfit", health.UnfitHistory)

	// Training sessions
	r.Post("/api/training/start", training.Start)
	r.Post("/api/training/type", training.ChangeType)
	r.Post("/api/training/end", training.End)
	r.Get("/api/training/status", training.Status)
	r.Get("/api/training/records", training.Records)
	r.Post("/api/training/records/hide", training.Hide)
	r.Post("/api/training/records/unhide", training.Unhide)

	// Admin
	r.Get("/api/admin/users", admin.Users)
	r.Get("/api/admin/users/search", admin.SearchUsers)
	r.Put("/api/admin/users/admin", admin.SetAdmin)
	r.Delete("/api/admin/users", admin.DeleteUser)
	r.Post("/api/admin/users/edit-as", admin.EditAs)
	r.Get("/api/admin/records/today", admin.TodayRecords)
	r.Delete("/api/admin/records", admin.ClearRecords)
	r.Get("/api/admin/audit", admin.AuditLog)
	r.Get("/api/admin/unfit-log", admin.UnfitLog)
	r.Delete("/api/admin/unfit-log", admin.ClearUnfitLog)
}
