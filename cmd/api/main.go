package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rentnest/rentnest-api/internal/config"
	"github.com/rentnest/rentnest-api/internal/domain/admin"
	"github.com/rentnest/rentnest-api/internal/domain/apartment"
	"github.com/rentnest/rentnest-api/internal/domain/auth"
	"github.com/rentnest/rentnest-api/internal/domain/booking"
	"github.com/rentnest/rentnest-api/internal/domain/favorite"
	"github.com/rentnest/rentnest-api/internal/domain/notification"
	"github.com/rentnest/rentnest-api/internal/domain/review"
	"github.com/rentnest/rentnest-api/internal/domain/user"
	"github.com/rentnest/rentnest-api/internal/pkg/database"
	"github.com/rentnest/rentnest-api/internal/pkg/email"
	"github.com/rentnest/rentnest-api/internal/pkg/imaging"
	"github.com/rentnest/rentnest-api/internal/pkg/jwt"
	"github.com/rentnest/rentnest-api/internal/pkg/mq"
	"github.com/rentnest/rentnest-api/internal/pkg/password"
	"github.com/rentnest/rentnest-api/internal/pkg/signer"
	"github.com/rentnest/rentnest-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting RentNest API")

	db, err := database.NewPostgres(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	store, err := storage.New(context.Background(), storage.Config{
		Driver:      cfg.StorageDriver,
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3Bucket:    cfg.S3Bucket,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
		S3PublicURL: cfg.S3PublicURL,
		LocalPath:   cfg.LocalStoragePath,
		LocalURL:    cfg.LocalStorageURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage")
	}

	emailService := email.NewService(email.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.EmailFrom,
		FromName:  cfg.EmailFromName,
	})
	defer emailService.Close()

	var events *mq.Publisher
	if cfg.RabbitMQURL != "" {
		events, err = mq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
		}
		defer events.Close()
	} else {
		log.Warn().Msg("rabbitmq url not configured, booking events are not published")
	}

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// ---------- WebSocket hub ----------
	hub := notification.NewHub(redis)
	go hub.Run()
	defer hub.Shutdown()

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	apartmentRepo := apartment.NewRepository(db)
	bookingRepo := booking.NewRepository(db)
	reviewRepo := review.NewRepository(db)
	favoriteRepo := favorite.NewRepository(db)
	notificationRepo := notification.NewRepository(db)

	// ---------- Services ----------
	verifier := signer.New([]byte(cfg.EmailSigningKey), "email-verification", cfg.EmailTokenMaxAge, nil)
	authService := auth.NewService(
		userRepo,
		jwtService,
		auth.NewRedisTokenStore(redis),
		password.NewHasher(password.DefaultCost),
		verifier,
		strings.TrimRight(cfg.BackendURL, "/")+"/api/v1/auth/verify-email",
	)
	authService.SetMailer(emailService)

	apartmentService := apartment.NewService(apartmentRepo, store, imaging.NewProcessor(imaging.DefaultConfig()), redis)
	notificationService := notification.NewService(notificationRepo, hub)

	notifier := notification.NewBookingNotifier(userRepo, notificationService).
		WithMailer(emailService).
		WithBookingURL(strings.TrimRight(cfg.FrontendURL, "/") + "/bookings")
	if events != nil {
		notifier.WithEvents(events)
	}

	bookingService := booking.NewService(bookingRepo, apartmentRepo, store)
	bookingService.SetNotifier(notifier)

	reviewService := review.NewService(reviewRepo, bookingRepo, apartmentRepo, apartmentService)
	favoriteService := favorite.NewService(favoriteRepo)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	apartmentHandler := apartment.NewHandler(apartmentService)
	bookingHandler := booking.NewHandler(bookingService)
	reviewHandler := review.NewHandler(reviewService)
	favoriteHandler := favorite.NewHandler(favoriteService)
	notificationHandler := notification.NewHandler(notificationService)
	adminHandler := admin.NewHandler(admin.NewService(userRepo))
	wsHandler := notification.NewWSHandler(hub, jwtService, cfg.AllowedOrigins)

	r := newRouter(cfg, jwtService, routeHandlers{
		auth:         authHandler,
		apartment:    apartmentHandler,
		booking:      bookingHandler,
		review:       reviewHandler,
		favorite:     favoriteHandler,
		notification: notificationHandler,
		admin:        adminHandler,
		ws:           wsHandler,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
