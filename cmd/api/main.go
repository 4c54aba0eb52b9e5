//	@title			Snapfeed API
//	@version		1.0
//	@description	Media sharing backend: upload images and videos, browse your feed, delete your posts.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/snapfeed/service/internal/auth"
	"github.com/snapfeed/service/internal/config"
	"github.com/snapfeed/service/internal/db"
	"github.com/snapfeed/service/internal/logger"
	appMiddleware "github.com/snapfeed/service/internal/middleware"
	"github.com/snapfeed/service/internal/post"
	"github.com/snapfeed/service/internal/storage"
	"github.com/snapfeed/service/internal/user"

	_ "github.com/snapfeed/service/docs/swagger"
)

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		logger.New(0, "").Fatal("load config", "err", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFile)
	if !dotenv {
		log.Debug("no .env file found, using process environment")
	}

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("database connection failed", "err", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, log); err != nil {
		log.Fatal("database migration failed", "err", err)
	}

	store, err := storage.NewMinioStorage(ctx,
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.PublicBase,
		cfg.Storage.UseSSL,
		log,
	)
	if err != nil {
		log.Fatal("object storage init failed", "err", err)
	}

	// Wire dependencies: repository → service → handler
	userRepo := user.NewRepository(pool)
	userSvc := user.NewService(userRepo, store, log)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTLifetime)
	authSvc, err := auth.NewService(userSvc, tokens, bcrypt.DefaultCost, log)
	if err != nil {
		log.Fatal("auth service init failed", "err", err)
	}
	authHandler := auth.NewHandler(authSvc, log)
	userHandler := user.NewHandler(userSvc, authSvc, log)

	postRepo := post.NewRepository(pool)
	postSvc := post.NewService(postRepo, store, cfg.Upload.TempDir, cfg.Storage.Folder, log)
	postHandler := post.NewHandler(postSvc, cfg.Upload.MaxBytes, log)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI at /swagger/index.html
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/jwt/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.RequireAuth(tokens, userSvc, log))

		r.Post("/upload", postHandler.Upload)
		r.Get("/feed", postHandler.Feed)
		r.Delete("/posts/{post_id}", postHandler.Delete)

		r.Get("/users/me", userHandler.GetMe)
		r.Patch("/users/me", userHandler.UpdateMe)
		r.Get("/users/{id}", userHandler.Get)
		r.Patch("/users/{id}", userHandler.UpdateByID)
		r.Delete("/users/{id}", userHandler.Delete)
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 5 * time.Minute, // large video uploads
		IdleTimeout: 60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("server listening", "port", cfg.Port, "env", cfg.AppEnv, "production", cfg.IsProduction())
		log.Info("swagger UI available", "url", "http://localhost:"+cfg.Port+"/swagger/")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", "err", err)
		}
	}()

	<-quit
	log.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("forced shutdown", "err", err)
	}

	log.Info("server stopped")
}
