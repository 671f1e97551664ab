package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aulavid/aulavid-api/internal/config"
	"github.com/aulavid/aulavid-api/internal/database"
	"github.com/aulavid/aulavid-api/internal/handler"
	"github.com/aulavid/aulavid-api/internal/middleware"
	"github.com/aulavid/aulavid-api/internal/observability"
	"github.com/aulavid/aulavid-api/internal/repository"
	"github.com/aulavid/aulavid-api/internal/router"
	"github.com/aulavid/aulavid-api/internal/service"
	"github.com/aulavid/aulavid-api/pkg/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis and NATS are optional: without them the portal cache and the
	// event stream are simply off.
	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, caching and shared rate limits disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, video events disabled")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	provider, err := mux.New(mux.Config{
		TokenID:     cfg.MuxTokenID,
		TokenSecret: cfg.MuxTokenSecret,
		CORSOrigin:  cfg.MuxCORSOrigin,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create mux client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	professorRepo := repository.NewProfessorRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	accessLogRepo := repository.NewAccessLogRepository(db)

	events := service.NewNATSVideoEvents(natsConn, "", logger)
	reconcileService := service.NewReconcileService(videoRepo, professorRepo, subjectRepo, provider, events, cfg.StaleAfter, logger)
	uploadService := service.NewUploadService(videoRepo, subjectRepo, provider, events, cfg.UploadMaxBytes, logger)
	subjectService := service.NewSubjectService(subjectRepo, videoRepo, logger)
	videoService := service.NewVideoService(videoRepo, subjectRepo, provider, reconcileService, logger)
	studentService := service.NewStudentService(studentRepo, subjectRepo, logger)
	accessService := service.NewAccessService(studentRepo, subjectRepo, accessLogRepo, cfg.JWTSecret, logger)
	authService := service.NewAuthService(professorRepo, cfg.JWTSecret, cfg.JWTRefreshSecret, logger)
	portalService := service.NewPortalService(studentRepo, subjectRepo, videoRepo, accessLogRepo, redisClient, cfg.PortalCacheTTL, logger)
	legacyService := service.NewLegacyStreamService(cfg.LegacyOriginURL, logger)
	professorService := service.NewProfessorService(professorRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(accessService, authService, validate, logger),
		SubjectHandler:   handler.NewSubjectHandler(subjectService, validate, logger),
		VideoHandler:     handler.NewVideoHandler(videoService, reconcileService, validate, logger),
		StudentHandler:   handler.NewStudentHandler(studentService, validate, logger),
		ProfessorHandler: handler.NewProfessorHandler(professorService, validate, logger),
		UploadHandler:    handler.NewUploadHandler(uploadService, validate, logger),
		WebhookHandler:   handler.NewWebhookHandler(reconcileService, cfg.MuxWebhookSecret, logger),
		PortalHandler:    handler.NewPortalHandler(portalService, logger),
		LegacyHandler:    handler.NewLegacyHandler(legacyService, logger),
		Redis:            redisClient,
	})

	// Background sweep keeps stuck records from lingering when both the
	// webhook and on-demand polling miss them.
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go runSweeper(sweepCtx, reconcileService, cfg.StaleAfter, logger)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func runSweeper(ctx context.Context, reconcile service.ReconcileService, interval time.Duration, logger zerolog.Logger) {
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := reconcile.SweepStale(ctx); err != nil {
				logger.Warn().Err(err).Msg("stale sweep failed")
			}
		}
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
