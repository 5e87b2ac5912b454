package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"fieldops/internal/config"
	"fieldops/internal/database"
	"fieldops/internal/middleware"
	"fieldops/internal/modules/appointment"
	"fieldops/internal/modules/auth"
	"fieldops/internal/modules/directory"
	"fieldops/internal/modules/inventory"
	"fieldops/internal/modules/notify"
	"fieldops/internal/modules/workervisit"
	"fieldops/internal/otp"
	jwtsvc "fieldops/internal/pkg/jwt"
	"fieldops/internal/pkg/logger"
	"fieldops/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("fieldops-api", true)
		log.Fatal().Err(err).Msg("config load failed")
	}

	logger.Init("fieldops-api", cfg.AppEnv == "dev")
	logger.SetLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	// repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	clientRepo := repository.NewClientRepository(db)
	engineerRepo := repository.NewEngineerRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	visitRepo := repository.NewWorkerVisitRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)

	jwtService := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	hub := notify.NewHub()
	defer hub.Close()

	sender := otp.ConsoleSender{}
	appointmentIssuer := otp.NewIssuer(sender,
		otp.WithTTL(cfg.OTPTTL),
		otp.WithResendCooldown(cfg.OTPResendCooldown),
		otp.WithMaxAttempts(cfg.OTPMaxAttempts),
	)
	visitIssuer := otp.NewIssuer(sender,
		otp.WithTTL(cfg.OTPTTL),
		otp.WithResendCooldown(cfg.OTPResendCooldown),
	)

	// services
	authService := auth.NewService(userRepo, tokenRepo, jwtService, cfg.RefreshTokenPepper, cfg.RefreshTTL)
	directoryService := directory.NewService(clientRepo, engineerRepo, materialRepo, userRepo)
	appointmentService := appointment.NewService(appointmentRepo, clientRepo, engineerRepo, appointmentIssuer, hub)
	visitService := workervisit.NewService(visitRepo, clientRepo, engineerRepo, visitIssuer, hub, cfg.AdminAlertContact)
	inventoryService := inventory.NewService(inventoryRepo, materialRepo, hub)

	// handlers
	authHandler := auth.NewHandler(authService)
	directoryHandler := directory.NewHandler(directoryService)
	appointmentHandler := appointment.NewHandler(appointmentService)
	visitHandler := workervisit.NewHandler(visitService)
	inventoryHandler := inventory.NewHandler(inventoryService)
	notifyHandler := notify.NewHandler(hub, jwtService)

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())

	api := router.Group("/api/v1")
	authHandler.RegisterPublicRoutes(api)
	notifyHandler.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(jwtService))
	authHandler.RegisterProtectedRoutes(protected)
	appointmentHandler.RegisterRoutes(protected)
	visitHandler.RegisterRoutes(protected)
	inventoryHandler.RegisterRoutes(protected)

	admin := protected.Group("")
	admin.Use(middleware.AdminOnly())
	directoryHandler.RegisterRoutes(admin)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
