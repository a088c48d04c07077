package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kblog/config"
	"kblog/controllers"
	"kblog/database"
	"kblog/handlers"
	"kblog/middleware"
	"kblog/routes"
	"kblog/services"
	"kblog/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "kblog/docs"
)

// @title Blog API
// @version 1.0
// @description User registration, token login and per-user posts.

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := utils.NewLogger(cfg.Env)
	if envErr != nil {
		log.WithError(envErr).Debug("no .env file loaded")
	}
	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	gin.SetMode(cfg.GinMode)
	utils.InitValidator()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	var cache services.PostCache
	if cfg.RedisAddr != "" {
		rdb, err := database.NewRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to redis")
		}
		defer rdb.Close()
		cache = database.NewRedisPostCache(rdb, cfg.PostCacheTTL)
		log.WithField("addr", cfg.RedisAddr).Info("Post list cache enabled")
	}

	issuer := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAccessTTL)
	hubService := services.NewHubService(log)

	userService := services.NewUserService(db)
	postService := services.NewPostService(db, cache, hubService, log)

	authController := controllers.NewAuthController(userService, issuer, log)
	postController := controllers.NewPostController(postService, log)
	wsHandler := handlers.NewWebSocketHandler(hubService, cfg.CORSOrigins(), log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(cfg.CORSOrigins()))
	r.Use(middleware.Logger(log))

	routes.SetupRoutes(r, middleware.AuthRequired(issuer, log), authController, postController, wsHandler)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Infof("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("Server exited")
}
