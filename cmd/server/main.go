package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ddkma/bakery_shop/internal/config"
	"github.com/ddkma/bakery_shop/internal/es"
	"github.com/ddkma/bakery_shop/internal/events"
	"github.com/ddkma/bakery_shop/internal/httpserver"
	"github.com/ddkma/bakery_shop/internal/models"
	"github.com/ddkma/bakery_shop/internal/repo"
	"github.com/ddkma/bakery_shop/internal/service"
	"github.com/ddkma/bakery_shop/pkg/db"
	"github.com/ddkma/bakery_shop/pkg/logging"
	loggingmw "github.com/ddkma/bakery_shop/pkg/middleware/logging"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.Open(initCtx, configuration.DSN())
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := models.Migrate(database); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	producer := events.NewProducer(configuration.KAFKA_ADDRESS)

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatalf("elasticsearch init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	gormRepo := &repo.GormRepo{DB: database}
	cartService := &service.CartService{Repo: gormRepo}
	catalogService := &service.CatalogService{Repo: gormRepo}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		CartHandler: &httpserver.CartHTTP{
			Svc:       cartService,
			Producer:  producer,
			JWTSecret: jwtSecret,
		},
		CatalogHandler: &httpserver.CatalogHTTP{
			Svc:       catalogService,
			Producer:  producer,
			JWTSecret: jwtSecret,
		},
		AuthHandler: &httpserver.AuthHTTP{
			Repo:          gormRepo,
			JWTSecret:     jwtSecret,
			RefreshSecret: refreshSecret,
			Producer:      producer,
		},
		SearchHandler: &httpserver.SearchHTTP{
			ES:    esClient,
			Index: configuration.ES_INDEX,
		},
	})

	srv := &http.Server{
		Addr:         ":" + configuration.SERVER_PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("starting server", "port", configuration.SERVER_PORT)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	logger.Info("shutdown complete")
}
