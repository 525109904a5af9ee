package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poster-shop/config"
	"poster-shop/internal/activitylog"
	"poster-shop/internal/api"
	"poster-shop/internal/broker"
	"poster-shop/internal/docstore"
	"poster-shop/internal/repository"
	"poster-shop/internal/service"
	"poster-shop/internal/session"
	"poster-shop/internal/util"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting poster shop service")

	if cfg.Observ.TracingEnabled {
		tp, err := util.InitTracer("poster-shop", cfg.Observ.JaegerEndpoint)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				log.Printf("Error shutting down tracer: %v", err)
			}
		}()
	}

	store, err := docstore.NewStore(cfg.Storage.DataDir)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	log.Printf("Document store ready: %s", store.Dir())

	var activityPublisher activitylog.Publisher
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicActivity)
		defer producer.Close()
		activityPublisher = broker.NewActivityPublisher(producer)
		log.Println("Kafka activity mirror enabled")
	}

	activity, err := activitylog.New(cfg.Storage.DataDir, activityPublisher)
	if err != nil {
		log.Fatalf("Failed to open activity log: %v", err)
	}
	defer activity.Close()

	carts := repository.NewCartRepository(store)
	users := repository.NewUserRepository(store, carts)
	purchases := repository.NewPurchaseRepository(store)

	if err := users.EnsureAdmin(context.Background()); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	sessions := session.NewStore()
	pruneCtx, pruneCancel := context.WithCancel(context.Background())
	defer pruneCancel()
	go sessions.PruneLoop(pruneCtx, cfg.Session.PruneInterval)

	authService := service.NewAuthService(users, sessions, activity, cfg.Session.TTL, cfg.Session.RememberMeTTL)
	checkoutService := service.NewCheckoutService(users, carts, purchases, activity)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(authService, checkoutService, users, carts, purchases, activity)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	pruneCancel()

	log.Println("Server exited")
}
