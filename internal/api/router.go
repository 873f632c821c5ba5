package api

import (
	"log/slog"
	"net/http"

	_ "github.com/rohits-web03/inkwell/docs"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/rohits-web03/inkwell/internal/api/handlers"
	"github.com/rohits-web03/inkwell/internal/api/middleware"
	"github.com/rohits-web03/inkwell/internal/api/services"
	"github.com/rohits-web03/inkwell/internal/repositories"
	"github.com/rs/cors"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Auth          *services.AuthService
	Posts         *services.PostService
	Google        *services.GoogleOAuth
	Blobs         repositories.BlobStore
	Metrics       *middleware.Metrics
	Logger        *slog.Logger
	Cors          cors.Options
	MaxBodyBytes  int64
	SecureCookies bool
}

func SetupRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(d.Auth)
	protect := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

	authHandler := handlers.NewAuthHandler(d.Auth, d.Google, d.SecureCookies)
	postHandler := handlers.NewPostHandler(d.Posts, d.MaxBodyBytes)
	userHandler := handlers.NewUserHandler(d.Auth)
	mediaHandler := handlers.NewMediaHandler(d.Blobs)

	// ---------- PUBLIC ROUTES ----------
	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("GET /api/health", handlers.Health)
	mux.HandleFunc("GET /docs/", httpSwagger.WrapHandler)
	mux.Handle("GET /metrics", d.Metrics.Handler())

	mux.HandleFunc("POST /api/auth/signup", authHandler.RegisterUser)
	mux.HandleFunc("POST /api/auth/login", authHandler.LoginUser)
	mux.HandleFunc("GET /api/auth/check", authHandler.CheckAuth)
	mux.HandleFunc("GET /api/auth/google/login", authHandler.HandleGoogleLogin)
	mux.HandleFunc("GET /api/auth/google/callback", authHandler.HandleGoogleCallback)

	mux.HandleFunc("GET /media/posts/{key}", mediaHandler.ServePostMedia)

	// ---------- PROTECTED ROUTES ----------
	mux.Handle("GET /api/users/{id}", protect(userHandler.GetUser))

	mux.Handle("GET /api/posts", protect(postHandler.ListPosts))
	mux.Handle("POST /api/posts", protect(postHandler.CreatePost))
	mux.Handle("POST /api/posts/seed", protect(postHandler.SeedPosts))
	mux.Handle("GET /api/posts/{id}", protect(postHandler.GetPost))
	mux.Handle("DELETE /api/posts/{id}", protect(postHandler.DeletePost))

	d.Logger.Info("Router initialized")
	handler := cors.New(d.Cors).Handler(mux)
	handler = middleware.Logger(d.Logger)(handler)
	handler = d.Metrics.Middleware(handler)
	return handler
}
