package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"practiceplanner/internal/api"
	"practiceplanner/internal/config"
	"practiceplanner/internal/db"
	"practiceplanner/internal/logging"
	"practiceplanner/internal/repository"
	"practiceplanner/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.Setup(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer conn.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = conn.PingContext(pingCtx)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(ctx, conn); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	projectRepo := repository.NewProjectRepository(conn)
	eventRepo := repository.NewEventRepository(conn)
	proposalRepo := repository.NewProposalRepository(conn)
	userRepo := repository.NewUserRepository(conn)

	scheduleSvc := service.NewScheduleService(eventRepo, projectRepo, proposalRepo, cfg, logger)
	projectSvc := service.NewProjectService(projectRepo)
	eventSvc := service.NewEventService(eventRepo, cfg.Location, logger)
	classifySvc := service.NewClassificationService(eventRepo, projectRepo, service.KeywordClassifier{}, cfg.ClassifyThreshold, cfg.Location, logger)
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	digestSvc := newDigestService(cfg, proposalRepo, logger)

	jobs := service.NewJobService(scheduleSvc, classifySvc, digestSvc, proposalRepo, cfg.ClassifyBatchSize, cfg.Location, logger)
	err = jobs.Schedule(service.JobSpecs{
		Proposals: cfg.CronProposals,
		Purge:     cfg.CronPurge,
		Classify:  cfg.CronClassify,
		Digest:    cfg.CronDigest,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule jobs")
	}
	jobs.Start()

	router := api.NewRouter(api.Handlers{
		Auth:      api.NewAuthHandler(authSvc, logger),
		Slots:     api.NewSlotsHandler(scheduleSvc, cfg, logger),
		Projects:  api.NewProjectHandler(projectSvc, logger),
		Events:    api.NewEventHandler(eventSvc, classifySvc, cfg.ClassifyBatchSize, logger),
		Proposals: api.NewProposalHandler(scheduleSvc, logger),
	}, cfg.JWTSecret, conn)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Wrap(router, cfg.CORSOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	select {
	case <-jobs.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("jobs still running at shutdown")
	}
}

// newDigestService enables each notification channel whose credentials are
// configured.
func newDigestService(cfg *config.Config, proposals service.ProposalStore, logger zerolog.Logger) *service.DigestService {
	var email service.EmailSender
	if cfg.EmailEnabled() {
		email = service.NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName, logger)
	}
	var sms service.SMSSender
	if cfg.SMSEnabled() {
		sms = service.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	}
	to := service.DigestRecipient{Email: cfg.DigestEmail, Name: cfg.DigestName, Phone: cfg.DigestPhone}
	return service.NewDigestService(proposals, email, sms, to, cfg.Location, cfg.LookaheadDays, logger)
}
