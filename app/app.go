// File: app/app.go
package app

import (
	"context"
	"go-identity-api/config"
	"go-identity-api/db"
	"go-identity-api/handler"
	"go-identity-api/logger"
	"go-identity-api/repository"
	"go-identity-api/router"
	"go-identity-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, "db/migrations"); err != nil {
		logger.Log.Fatalf("Error running database migrations: %v", err)
	}

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redisClient.Close()

	accessTTL, err := time.ParseDuration(config.AppConfig.JWT.AccessTokenTTL)
	if err != nil {
		logger.Log.Fatalf("Invalid jwt.access_token_ttl: %v", err)
	}
	refreshTTL, err := time.ParseDuration(config.AppConfig.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Log.Fatalf("Invalid jwt.refresh_token_ttl: %v", err)
	}

	// --- Wiring All Layers Together ---
	userRepo := repository.NewUserRepository(database)
	roleRepo := repository.NewRoleRepository(database)
	tokenRepo := repository.NewTokenRepository(database)

	authService := service.NewAuthService()
	claimsService := service.NewClaimsService(userRepo, roleRepo)
	tokenService := service.NewTokenService(tokenRepo, userRepo, claimsService, service.TokenConfig{
		SecretKey:       config.AppConfig.JWT.SecretKey,
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
		Issuer:          config.AppConfig.JWT.Issuer,
	})
	userService := service.NewUserService(userRepo, roleRepo, authService, tokenService)
	roleService := service.NewRoleService(roleRepo, redisClient)

	authHandler := handler.NewAuthHandler(userService, tokenService)
	accountHandler := handler.NewAccountHandler(userService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)

	r := router.NewRouter(authHandler, accountHandler, userHandler, roleHandler, tokenService)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
