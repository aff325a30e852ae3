package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/projecthub-be/internal/api/handlers"
	apimw "github.com/isdelr/projecthub-be/internal/api/middleware"
	"github.com/isdelr/projecthub-be/internal/auth"
	"github.com/isdelr/projecthub-be/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	DB             *sql.DB
	Tokens         *auth.TokenIssuer
	Users          services.UserServiceProvider
	Projects       services.ProjectServiceProvider
	Comments       services.CommentServiceProvider
	Events         services.EventServiceProvider
	AllowedOrigins []string
	Production     bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apimw.Prometheus)
	r.Use(apimw.NewSecure(apimw.SecureOptions(!deps.Production)))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	userHandler := handlers.NewUserHandler(deps.Users, deps.Tokens, deps.Production)
	projectHandler := handlers.NewProjectHandler(deps.Projects)
	commentHandler := handlers.NewCommentHandler(deps.Comments)
	eventHandler := handlers.NewEventHandler(deps.Events)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	requireAuth := deps.Tokens.Middleware(handlers.Unauthorized)

	r.Get("/healthz", healthHandler.Check)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Post("/user/signup", userHandler.Signup)
			r.Post("/user/signin", userHandler.Signin)
			r.Post("/user/signout", userHandler.Signout)

			r.Get("/projects", projectHandler.GetAll)
			r.Get("/projects/{id}", projectHandler.Get)
			r.Get("/projects/{id}/comments", commentHandler.ListForProject)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/user/me", userHandler.Me)
			r.Get("/events", eventHandler.GetRecent)

			r.Get("/projects/mine", projectHandler.GetMine)
			r.Post("/projects", projectHandler.Create)
			r.Put("/projects/{id}", projectHandler.Update)
			r.Patch("/projects/{id}", projectHandler.Update)
			r.Delete("/projects/{id}", projectHandler.Delete)
			r.Post("/projects/{id}/comments", commentHandler.Create)

			r.Put("/comments/{id}", commentHandler.Update)
			r.Patch("/comments/{id}", commentHandler.Update)
			r.Delete("/comments/{id}", commentHandler.Delete)
		})
	})

	return r
}
