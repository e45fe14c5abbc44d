package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pixelbay/marketplace/internal/blobstore"
	"github.com/pixelbay/marketplace/internal/config"
	"github.com/pixelbay/marketplace/internal/es"
	"github.com/pixelbay/marketplace/internal/handlers"
	"github.com/pixelbay/marketplace/internal/handlers/cart"
	"github.com/pixelbay/marketplace/internal/logging"
	"github.com/pixelbay/marketplace/internal/mykafka"
	"github.com/pixelbay/marketplace/internal/service/catalog"
	"github.com/pixelbay/marketplace/internal/service/rating"
	httpserver "github.com/pixelbay/marketplace/internal/transport/http"
	loggingmw "github.com/pixelbay/marketplace/pkg/middleware/logging"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(configuration.JWT_SECRET, "JWT_SECRET")

	logger := logging.New(configuration.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := config.InitDB(ctx, configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)

	prod, err := mykafka.NewProducer(configuration.KafkaBrokers)
	if err != nil {
		log.Fatal(err)
	}

	aggregator := &rating.Aggregator{DB: db}
	catalogEngine := &catalog.Engine{DB: db, Rating: aggregator}

	var uploader blobstore.Uploader
	if configuration.UPLOAD_URL != "" {
		uploader = blobstore.NewHTTPUploader(configuration.UPLOAD_URL)
	}

	deps := httpserver.Deps{
		DB:           db,
		JWTSecret:    jwtSecret,
		AuthHandler:  &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, Producer: prod, Uploader: uploader},
		StoreHandler: &handlers.StoreHandler{DB: db, Uploader: uploader, Producer: prod},
		CatalogHandler: &handlers.CatalogHandler{
			DB:       db,
			Engine:   catalogEngine,
			Uploader: uploader,
			Producer: prod,
			ESIndex:  configuration.ES_INDEX,
		},
		ReviewHandler: &handlers.ReviewHandler{DB: db, Engine: catalogEngine, Rating: aggregator, Producer: prod},
		CartHandler:   &cart.CartHandler{DB: db, Engine: catalogEngine, Producer: prod},
		ChatHandler:   &handlers.ChatHandler{DB: db, Producer: prod},
		SearchHandler: &handlers.SearchHandler{Engine: catalogEngine, Index: configuration.ES_INDEX},
	}

	if configuration.ES_URL != "" {
		client, err := es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		deps.CatalogHandler.ES = client
		deps.SearchHandler.ES = client
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", configuration.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
