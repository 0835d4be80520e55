package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"care_reminder_service/internal/app"
	"care_reminder_service/internal/domain/notification"
	"care_reminder_service/internal/domain/reminder"
	"care_reminder_service/internal/domain/subject"
	"care_reminder_service/internal/infra/catalog"
	"care_reminder_service/internal/infra/config"
	idb "care_reminder_service/internal/infra/database"
	"care_reminder_service/internal/infra/httpapi"
	"care_reminder_service/internal/infra/logger"
	"care_reminder_service/internal/infra/memstore"
	"care_reminder_service/internal/infra/notify"
	"care_reminder_service/internal/infra/scheduler"
	"care_reminder_service/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const shutdownTimeout = 15 * time.Second

type repositories struct {
	reminders reminder.Repository
	subjects  subject.Repository
	runs      notification.Repository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Could not load application configuration")
	}

	logger.Init(cfg.LogLevel, cfg.Environment)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"admin_id":    cfg.AdminTelegramID,
		"timezone":    cfg.DefaultTimezone,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defaultLoc := subject.ResolveLocation(cfg.DefaultTimezone, time.UTC)

	// Storage
	var (
		db    *sql.DB
		repos repositories
	)
	if cfg.DatabaseURL != "" {
		db, err = idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to database")
		}
		defer db.Close()
		if err := idb.Migrate(db); err != nil {
			mainLogger.WithError(err).Fatal("Could not apply database migrations")
		}
		repos = repositories{
			reminders: idb.NewPostgresReminderRepository(db),
			subjects:  idb.NewPostgresSubjectRepository(db),
			runs:      idb.NewPostgresNotificationRepository(db),
		}
		mainLogger.Info("PostgreSQL storage initialized")
	} else {
		repos = repositories{
			reminders: memstore.NewReminders(),
			subjects:  memstore.NewSubjects(),
			runs:      memstore.NewNotifications(),
		}
		mainLogger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	reminderService := app.NewReminderService(
		repos.reminders,
		repos.subjects,
		catalog.NewLoader(cfg.CatalogPath),
		defaultLoc,
		logger.Component("app"),
	)

	// Delivery
	var (
		bot    *telebot.Bot
		sender notification.Sender
	)
	if cfg.TelegramToken != "" {
		botLogger := logger.Component("telebot")
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				entry := botLogger.WithError(err)
				if c != nil && c.Sender() != nil && c.Chat() != nil {
					entry = entry.WithFields(logrus.Fields{
						"sender_id": c.Sender().ID,
						"chat_id":   c.Chat().ID,
						"text":      c.Text(),
					})
				}
				entry.Error("Telegram handler failed")
			},
		})
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		sender = telegram.NewTelebotAdapter(bot)
	} else {
		sender = notify.NewLogSender(logger.Component("notify"))
		mainLogger.Warn("TELEGRAM_TOKEN not set, notifications are only logged")
	}

	digestService := app.NewDigestService(reminderService, repos.subjects, repos.runs, sender, defaultLoc, logger.Component("digest"))
	adminService := app.NewAdminService(reminderService, repos.subjects, digestService, cfg.AdminTelegramID)

	if bot != nil {
		handlerLogger := logger.Component("telegram")
		telegram.RegisterBotCommands(ctx, bot, reminderService, adminService, handlerLogger)
		telegram.RegisterResponseHandlers(ctx, bot, reminderService, handlerLogger)
		telegram.RegisterAdminHandlers(ctx, bot, adminService, handlerLogger)
		go bot.Start()
		mainLogger.Info("Telegram bot started")
	}

	reminderScheduler := scheduler.NewReminderScheduler(
		digestService,
		logger.Component("cron"),
		defaultLoc,
		cfg.CronSpecDailyDigest,
		cfg.CronSpecWeeklySummary,
	)
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start scheduler")
	}

	handler := httpapi.NewHandler(reminderService, digestService, logger.Component("http"))
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpapi.NewRouter(handler, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		mainLogger.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.WithError(err).Error("HTTP server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	mainLogger.Info("Shutting down application")

	reminderScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Error("HTTP server shutdown failed")
	}
	if bot != nil {
		bot.Stop()
	}
	mainLogger.Info("Application shut down gracefully")
}
