package httpserver

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"chatd/internal/config"
	"chatd/internal/security"
	"chatd/internal/service"
	"chatd/internal/store/sqlite"
	"chatd/internal/ws"
)

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
func NewRouter(
	cfg *config.Config,
	db *sql.DB,
	registry *ws.Registry,
	tokenSvc *security.TokenService,
	passwordHasher *security.PasswordHasher,
	log zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log))
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Repositories
	userRepo := sqlite.NewUserRepo(db)
	convRepo := sqlite.NewConversationRepo(db)

	// Services
	authSvc := service.NewAuthService(userRepo, tokenSvc, passwordHasher)
	userSvc := service.NewUserService(userRepo)
	chatSvc := service.NewChatService(convRepo, userRepo, registry, log)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", handleSignup(authSvc, cfg, tokenSvc))
			r.Post("/login", handleLogin(authSvc, cfg, tokenSvc))
			r.Post("/logout", handleLogout(cfg))
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokenSvc, userRepo))

			r.Get("/auth/me", handleMe())
			r.Get("/users", handleListUsers(userSvc))

			r.Route("/messages", func(r chi.Router) {
				r.Post("/{receiverID}", handleSendMessage(chatSvc))
				r.Get("/{userID}", handleGetMessages(chatSvc))
			})
		})
	})

	// Real-time channel
	r.Get("/ws", ws.MakeHandler(registry, tokenSvc, userRepo, cfg.CORSOrigins, log))

	return r
}
