package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mmoboard_backend/database"
	"mmoboard_backend/internal/auth"
	"mmoboard_backend/internal/config"
	"mmoboard_backend/internal/handlers"
	"mmoboard_backend/internal/logger"
	"mmoboard_backend/internal/middleware"
	"mmoboard_backend/internal/models"
	"mmoboard_backend/internal/pkg/email"
	"mmoboard_backend/internal/repositories"
	"mmoboard_backend/internal/routes"
	"mmoboard_backend/internal/services"
	"mmoboard_backend/internal/validator"
	"mmoboard_backend/internal/workers"
	"mmoboard_backend/internal/ws"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("logger initialized", "env", cfg.Server.Env)

	db, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get *sql.DB from GORM", "error", err)
	}
	if err := sqlDB.Ping(); err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	logger.Info("database connected")

	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("migration failed", "error", err)
	}

	if err := seed(db, cfg); err != nil {
		logger.Fatal("seeding failed", "error", err)
	}

	router, mailWorker := SetupRouter(cfg, db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	mailWorker.Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{Addr: address, Handler: router}

	go func() {
		logger.Info("server starting", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Accepted email jobs drain before exit.
	mailWorker.Stop()
	logger.Info("shutdown complete")
}

// SetupRouter wires repositories, services, workers and handlers onto a gin
// engine. The returned worker is not started; the caller owns its lifecycle.
func SetupRouter(cfg *config.Config, db *gorm.DB) (*gin.Engine, *workers.MailWorker) {
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	userRepo := repositories.NewUserRepository(db)
	postRepo := repositories.NewPostRepository(db)
	responseRepo := repositories.NewResponseRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	newsletterRepo := repositories.NewNewsletterRepository(db)

	sender, err := email.NewSMTPSender(email.Config{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUser:     cfg.Email.SMTPUser,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromEmail:    cfg.Email.FromEmail,
		FromName:     cfg.Email.FromName,
	})
	if err != nil {
		logger.Fatal("failed to configure email sender", "error", err)
	}
	templates, err := email.NewTemplateManager()
	if err != nil {
		logger.Fatal("failed to compile email templates", "error", err)
	}

	dispatcher := services.NewMailDispatchService(
		notificationRepo, userRepo, newsletterRepo, sender, templates, cfg)
	mailWorker := workers.NewMailWorker(dispatcher, cfg.MailWorker.QueueSize, cfg.MailWorker.PoolSize)

	wsManager := ws.NewManager()
	go wsManager.Run()

	notificationService := services.NewNotificationService(notificationRepo, userRepo, mailWorker, wsManager)
	authService := services.NewAuthService(db, userRepo)
	postService := services.NewPostService(postRepo)
	responseService := services.NewResponseService(db, responseRepo, postRepo, userRepo, notificationService)
	newsletterService := services.NewNewsletterService(newsletterRepo, userRepo, mailWorker)

	v := validator.New()
	base := handlers.NewBaseHandler(v)

	h := &routes.Handlers{
		Auth:         handlers.NewAuthHandler(base, authService),
		Post:         handlers.NewPostHandler(base, postService),
		Response:     handlers.NewResponseHandler(base, responseService),
		Notification: handlers.NewNotificationHandler(base, notificationService),
		Newsletter:   handlers.NewNewsletterHandler(base, newsletterService),
		WS:           ws.NewHandler(wsManager, notificationService),
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.CORSMiddleware(),
		middleware.DBMiddleware(db),
	)

	routes.Register(router, h)
	return router, mailWorker
}

func seed(db *gorm.DB, cfg *config.Config) error {
	if err := repositories.NewPostRepository(db).SeedCategories(); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return seedFirstAdmin(db, cfg)
}

// seedFirstAdmin creates the bootstrap admin account once, when credentials
// are configured and no admin exists yet.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.FirstAdminEmail == "" || cfg.FirstAdminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.FirstAdminPassword)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		admin := &models.User{
			Username:     "admin",
			Email:        cfg.FirstAdminEmail,
			PasswordHash: hash,
			Role:         models.UserRoleAdmin,
			IsActive:     true,
		}
		if err := tx.Create(admin).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.UserProfile{
			UserID:                 admin.ID,
			EmailNotifications:     true,
			NewsletterSubscription: true,
		}).Error; err != nil {
			return err
		}
		logger.Info("first admin user created", "email", cfg.FirstAdminEmail)
		return nil
	})
}
