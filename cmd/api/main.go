package main

import (
	"appointease/cmd/internal/config"
	"appointease/cmd/internal/domain/database"
	"appointease/cmd/internal/domain/database/repository"
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/integration/google"
	"appointease/cmd/internal/integration/mail"
	"appointease/cmd/internal/jobs"
	"appointease/cmd/internal/metrics"
	"appointease/cmd/internal/routes"
	"appointease/cmd/internal/service"
	"appointease/cmd/internal/utils"
	"appointease/cmd/internal/utils/validators"
	"context"
	"errors"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

// scanBatchLimit caps how many due notifications one scan picks up.
const scanBatchLimit = 500

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}
	log.SetLevel(config.ParseLogLevel(cfg.LogLevel))

	validate := validator.New()
	validators.Register(validate)

	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	db, err := database.Init(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to initialize database: ", err)
	}
	defer func() { _ = database.Close(db) }()

	mailer, err := mail.New(ctx, cfg.Mail)
	if err != nil {
		log.Fatal("failed to initialize mailer: ", err)
	}

	var oauth google.OAuthInterface
	if cfg.GoogleConfigured() {
		oauth = google.NewOAuthClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	} else {
		log.Warn("Google OAuth is not configured, login is disabled")
	}

	clock := utils.SystemClock{}
	m := metrics.New()

	// Getting repositories
	userRepo := repository.NewUserRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	shareRepo := repository.NewShareRepository(db)

	// Notification pipeline
	senders := map[entity.Channel]service.ChannelSender{
		entity.ChannelEmail:   service.NewEmailSender(apptRepo, userRepo, mailer, cfg.FrontendURL, cfg.Mail.TreatErrorsAsSent),
		entity.ChannelBrowser: service.BrowserSender{},
	}
	retry := service.NewRetryPolicy(cfg.RetryMaxAttempts, cfg.RetryDelay)
	dispatcher := service.NewNotificationDispatcher(notifRepo, senders, clock, cfg.DispatchTimeout, retry, m)
	generator := service.NewNotificationGenerator(notifRepo, prefRepo, clock, m)
	generator.Deliverable = dispatcher.Supports
	scanner := service.NewNotificationScanner(notifRepo, dispatcher, clock, cfg.DispatchWorkers, scanBatchLimit, m)

	// Getting services
	userService := service.NewUserService(userRepo, prefRepo, validate, oauth, []byte(cfg.JWTSecret), cfg.JWTTTL)
	apptService := service.NewAppointmentService(apptRepo, userRepo, categoryRepo, generator, validate)
	categoryService := service.NewCategoryService(categoryRepo, userRepo, validate)
	prefService := service.NewPreferenceService(prefRepo, userRepo, validate)
	notifService := service.NewNotificationService(notifRepo, userRepo, clock)
	shareService := service.NewShareService(shareRepo, apptRepo, userRepo, validate, clock, m, cfg.FrontendURL, cfg.ShareDefaultExpiryDay)

	// Getting routes
	userRoutes := routes.NewUserDefault(userService)
	apptRoutes := routes.NewAppointmentDefault(apptService)
	categoryRoutes := routes.NewCategoryDefault(categoryService)
	notifRoutes := routes.NewNotificationDefault(notifService, prefService)
	shareRoutes := routes.NewShareDefault(shareService)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(config.ParseLogLevel(cfg.LogLevel))
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	routes.Register(e, &routes.Handlers{
		Users:         userRoutes,
		Appointments:  apptRoutes,
		Categories:    categoryRoutes,
		Notifications: notifRoutes,
		Shares:        shareRoutes,
		Auth:          userService,
		Metrics:       m.Handler(),
	})

	scheduler := jobs.NewScheduler(
		jobs.NotificationScan(scanner, cfg.ScanInterval),
		jobs.AppointmentStatusUpdate(apptRepo, clock, cfg.StatusUpdateInterval),
	)
	stopJobs := scheduler.Start(ctx)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("failed to shut down http server: %v", err)
	}
	stopJobs()
}
