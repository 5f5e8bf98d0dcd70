package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventmate/eventmate-server/internal/enrollment"
	"github.com/eventmate/eventmate-server/internal/http/handlers"
	httpmw "github.com/eventmate/eventmate-server/internal/http/middleware"
	"github.com/eventmate/eventmate-server/internal/payment"
	"github.com/eventmate/eventmate-server/internal/platform/mailer"
	"github.com/eventmate/eventmate-server/internal/repo/postgres"
	"github.com/eventmate/eventmate-server/internal/service"
	"github.com/eventmate/eventmate-server/pkg/config"
	"github.com/eventmate/eventmate-server/pkg/database"
	"github.com/eventmate/eventmate-server/pkg/events"
	"github.com/eventmate/eventmate-server/pkg/logger"
	mw "github.com/eventmate/eventmate-server/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Repositories
	bookingRepo := postgres.NewBookingRepo(pool)
	eventRepo := postgres.NewEventRepo(pool)
	userRepo := postgres.NewUserRepo(pool)
	idempotencyRepo := postgres.NewIdempotencyRepo(pool)

	// Mailer
	mail := buildMailer(cfg)

	// Services
	bookingService := service.NewBookingService(bookingRepo, eventRepo, userRepo, idempotencyRepo, eventBus, mail)
	userService := service.NewUserService(userRepo)
	eventService := service.NewEventService(eventRepo)

	sessionStore := enrollment.NewRedisStore(redisClient, cfg.Enrollment.SessionTTL)
	enrollmentService := enrollment.NewService(
		sessionStore,
		bookingService,
		eventService,
		userService,
		payment.NewMockRegistry(),
		cfg.Payment.Currency,
	)

	// Handlers
	bookingsHandler := handlers.NewBookingsHandler(bookingService)
	usersHandler := handlers.NewUsersHandler(userService)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService)

	enrollLimiter := httpmw.NewRateLimiter(pool, httpmw.RateLimitConfig{
		Requests: cfg.Enrollment.RateLimit,
		Window:   cfg.Enrollment.RateLimitSpan,
		KeyFunc:  httpmw.EnrollRateLimitKeyFunc,
		SkipFunc: func(r *http.Request) bool { return r.Method != http.MethodPost },
	})

	// Router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.With(enrollLimiter.Middleware()).Mount("/bookings", bookingsHandler.Routes())
		r.Mount("/users", usersHandler.Routes())
		r.Mount("/enrollments", enrollmentHandler.Routes())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API server", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func buildMailer(cfg *config.Config) mailer.Service {
	if cfg.Email.DevMode {
		return mailer.NewDevMailer()
	}
	if cfg.Email.MailerSendKey != "" {
		return mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.SMTPFromName, cfg.Email.SMTPFrom)
	}
	return mailer.NewSMTPMailer(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPFrom,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPass,
		cfg.Email.SMTPUseTLS,
	)
}
