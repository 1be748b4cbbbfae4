package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"

	"github.com/cloudconstruct/securefile/pkg/securefile"
	"github.com/cloudconstruct/securefile/pkg/securefile/api"
	"github.com/cloudconstruct/securefile/pkg/securefile/config"
	memorystore "github.com/cloudconstruct/securefile/pkg/securefile/store/memory"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	codec, err := cfg.NewCodec()
	if err != nil {
		log.Fatalf("Failed to build encryption codec: %v", err)
	}

	// The standalone server stands in for the host content manager with an
	// in-memory store; records without an active policy fall back to public
	// view.
	store := memorystore.New()
	checker := securefile.ViewPermissionCheckerFunc(
		func(ctx context.Context, identity *securefile.Identity, record *securefile.ContentRecord) bool {
			return true
		})

	resolver := securefile.NewAccessResolver(cfg.SuperUser, store, checker)
	factory := config.NewProviderFactory()

	gateway, err := securefile.New(
		securefile.WithContentStore(store),
		securefile.WithResolver(resolver),
		securefile.WithCodec(codec),
		securefile.WithProviderFactory(factory),
	)
	if err != nil {
		log.Fatalf("Failed to build gateway: %v", err)
	}

	issuer := securefile.NewSignedURLIssuer(factory)

	var auth *jwtauth.JWTAuth
	if cfg.JWTSecret != "" {
		auth = jwtauth.New("HS256", []byte(cfg.JWTSecret), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Mount("/secure-file", api.NewHandler(gateway, issuer, auth).Routes())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		log.Printf("Secure file server starting on port %s (env: %s)", cfg.Port, cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
