package handlers

import (
	"net/http"

	"github.com/civicworks/civicconnect/internal/config"
	"github.com/civicworks/civicconnect/internal/service"
	"github.com/civicworks/civicconnect/internal/transport/http/middleware"
)

// NewRouter assembles the route table with its middleware chain.
func NewRouter(cfg *config.Config, authService *service.AuthService, postService *service.PostService) http.Handler {
	authHandler := NewAuthHandler(authService, cfg.CookieSecure())
	postHandler := NewPostHandler(postService)

	auth := middleware.Auth(authService)
	optionalAuth := middleware.OptionalAuth(authService)
	credLimiter := middleware.NewRateLimiter(5, 10)

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.Handle("POST /users/register", credLimiter.Limit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /users/login", credLimiter.Limit(http.HandlerFunc(authHandler.Login)))
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Protected - Users
	mux.Handle("GET /users/profile", auth(http.HandlerFunc(authHandler.Profile)))
	mux.Handle("POST /users/logout", auth(http.HandlerFunc(authHandler.Logout)))

	// Posts - listing and reads are open to anonymous callers
	mux.Handle("POST /posts", auth(http.HandlerFunc(postHandler.Create)))
	mux.Handle("GET /posts", optionalAuth(http.HandlerFunc(postHandler.List)))
	mux.Handle("GET /posts/{id}", optionalAuth(http.HandlerFunc(postHandler.Get)))

	// Posts - engagement and triage
	mux.Handle("POST /posts/{id}/comments", auth(http.HandlerFunc(postHandler.AddComment)))
	mux.Handle("POST /posts/{id}/like", auth(http.HandlerFunc(postHandler.ToggleLike)))
	mux.Handle("POST /posts/{id}/upvote", auth(http.HandlerFunc(postHandler.ToggleUpvote)))
	mux.Handle("PATCH /posts/{id}/status", auth(http.HandlerFunc(postHandler.UpdateStatus)))
	mux.Handle("DELETE /posts/{id}", auth(http.HandlerFunc(postHandler.Delete)))

	return middleware.CORS(cfg.AllowedOrigins)(mux)
}
