package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-gallery/internal/auth"
	"ms-gallery/internal/cache"
	"ms-gallery/internal/config"
	"ms-gallery/internal/database"
	"ms-gallery/internal/database/migrations"
	events_db "ms-gallery/internal/events/db"
	"ms-gallery/internal/events/events_api"
	events "ms-gallery/internal/events/service"
	"ms-gallery/internal/gallery"
	"ms-gallery/internal/gallery/gallery_api"
	"ms-gallery/internal/kafka"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
	"ms-gallery/internal/qr"
	"ms-gallery/internal/sse"
	"ms-gallery/internal/ticketing"
	"ms-gallery/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

func buildVerifier(ctx context.Context, cfg config.AuthConfig, log *logger.Logger) (auth.Verifier, error) {
	switch {
	case cfg.OIDCIssuer != "":
		verifier, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			return nil, err
		}
		log.Info("AUTH", fmt.Sprintf("Admin tokens verified against OIDC issuer %s", cfg.OIDCIssuer))
		return verifier, nil
	case cfg.JWTSecret != "":
		log.Warn("AUTH", "OIDC_ISSUER not set, verifying admin tokens with AUTH_JWT_SECRET")
		return auth.NewHMACVerifier(cfg.JWTSecret, ""), nil
	default:
		return nil, errors.New("set OIDC_ISSUER or AUTH_JWT_SECRET to protect the admin API")
	}
}

// startChangeRelay publishes event changes to Kafka and relays the topic back
// to this instance's SSE clients, so every instance sees every change.
func startChangeRelay(ctx context.Context, cfg config.KafkaConfig, emitter *sse.ChangeEmitter, log *logger.Logger) (*kafka.Producer, *kafka.Consumer) {
	if err := kafka.EnsureTopicsExist(ctx, cfg.Brokers, []string{cfg.ChangeTopic}, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	producer := kafka.NewProducer(cfg.Brokers, cfg.ChangeTopic, log)

	// one group per instance: each instance needs the full stream
	hostname, _ := os.Hostname()
	consumer := kafka.NewConsumer(cfg.Brokers, cfg.ChangeTopic, fmt.Sprintf("%s-%s", cfg.GroupID, hostname), log)

	go func() {
		if err := consumer.Start(ctx, func(change models.EventChange) {
			emitter.Emit(change)
		}); err != nil {
			log.Error("KAFKA", fmt.Sprintf("Event change consumer stopped: %v", err))
		}
	}()

	log.LogKafka("SETUP", cfg.ChangeTopic, "event change relay started")
	return producer, consumer
}

func healthHandler(bunDB *bun.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := bunDB.PingContext(ctx); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("Unhealthy", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("OK", nil))
	}
}

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.Options{Dir: cfg.Logging.Dir, Name: cfg.Logging.Name, Level: cfg.Logging.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("APP", "Starting Gallery Service initialization")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(cfg.Database.DSN, migrations.MigrateOptions{
			MigrationsDir: cfg.Database.MigrationsDir,
			AutoMigrate:   true,
		}, log)
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("MIGRATION", fmt.Sprintf("Failed to run migrations: %v", err))
		}
		if err := runner.Close(); err != nil {
			log.Warn("MIGRATION", err.Error())
		}
	}

	verifier, err := buildVerifier(ctx, cfg.Auth, log)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}

	emitter := sse.NewChangeEmitter()
	var observers []events.Observer

	if cfg.Kafka.Enabled {
		producer, consumer := startChangeRelay(ctx, cfg.Kafka, emitter, log)
		defer producer.Close()
		defer consumer.Close()
		observers = append(observers, producer)
	} else {
		observers = append(observers, emitter)
	}

	var listingCache *cache.ListingCache
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.Connect(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn("CACHE", fmt.Sprintf("Published events cache disabled: %v", err))
		} else {
			defer redisClient.Close()
			listingCache = cache.NewListingCache(redisClient, cfg.Redis.CacheTTL, log)
			observers = append(observers, listingCache)
		}
	}

	tickets := ticketing.NewClient(cfg.Ticketing, nil, log)
	if !tickets.Configured() {
		log.Warn("TICKETING", "Ticketing credentials missing, new events will be local-only")
	}

	eventService := events.NewEventService(events_db.New(bunDB), tickets, log, observers...)
	if listingCache != nil {
		eventService.Cache = listingCache
	}

	aggregator := gallery.NewAggregator(
		gallery.NewStorageClient(cfg.Storage, nil, log),
		gallery.Options{
			PublicBaseURL: cfg.Storage.URL,
			Bucket:        cfg.Storage.Bucket,
			Concurrency:   cfg.Gallery.Concurrency,
			ArtistTimeout: cfg.Gallery.ArtistTimeout,
		},
		log,
	)

	eventHandler := events_api.NewHandler(eventService, qr.NewGenerator(qr.DefaultSize), emitter, log)
	galleryHandler := gallery_api.NewHandler(aggregator, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(utils.AccessLog(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Public Routes ---
	r.Get("/health", healthHandler(bunDB))
	eventHandler.PublicRoutes(r)
	galleryHandler.Routes(r)
	log.Info("ROUTER", "Public routes registered under /api/events and /api/gallery")

	// --- Admin Routes ---
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(auth.Middleware(verifier, log))
		eventHandler.AdminRoutes(r)
	})
	log.Info("ROUTER", "Admin routes registered under /api/admin")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	server.RegisterOnShutdown(emitter.Close)

	go func() {
		log.Info("HTTP", fmt.Sprintf("Gallery Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Gallery Service shutdown complete")
	}
}
