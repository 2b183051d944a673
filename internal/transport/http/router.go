package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"postcircle/internal/handler"
	"postcircle/internal/httputil"
	authmw "postcircle/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler   *handler.AuthHandler
	UserHandler   *handler.UserHandler
	FollowHandler *handler.FollowHandler
	GroupHandler  *handler.GroupHandler
	PostHandler   *handler.PostHandler
	JWTSecret     string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/me", cfg.UserHandler.Me)

		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)

		r.Route("/users/{username}", func(r chi.Router) {
			r.Get("/", cfg.UserHandler.GetUser)
			r.Put("/", cfg.UserHandler.UpdateUser)

			r.Get("/followers", cfg.FollowHandler.GetFollowers)
			r.Get("/following", cfg.FollowHandler.GetFollowing)
			r.Put("/following", cfg.FollowHandler.Follow)
			r.Delete("/following", cfg.FollowHandler.Unfollow)

			r.Route("/friend-groups", func(r chi.Router) {
				r.Get("/", cfg.GroupHandler.List)
				r.Post("/", cfg.GroupHandler.Create)

				r.Route("/{groupID}", func(r chi.Router) {
					r.Get("/", cfg.GroupHandler.Get)
					r.Put("/", cfg.GroupHandler.Update)
					r.Delete("/", cfg.GroupHandler.Delete)

					r.Get("/members", cfg.GroupHandler.Members)
					r.Put("/members", cfg.GroupHandler.ReconcileMembers)
					r.Put("/members/{memberUsername}", cfg.GroupHandler.AddMember)
					r.Delete("/members/{memberUsername}", cfg.GroupHandler.RemoveMember)
				})
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", cfg.PostHandler.List)
			r.Post("/", cfg.PostHandler.Create)

			r.Route("/{postID}", func(r chi.Router) {
				r.Get("/", cfg.PostHandler.Get)
				r.Put("/", cfg.PostHandler.Update)
				r.Delete("/", cfg.PostHandler.Delete)

				r.Put("/permissions", cfg.PostHandler.GrantPermission)
				r.Delete("/permissions", cfg.PostHandler.RevokePermission)
			})
		})
	})

	return r
}
