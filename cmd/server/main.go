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

	"github.com/rs/cors"

	"github.com/dvkit/transfer/internal/config"
	"github.com/dvkit/transfer/internal/db"
	"github.com/dvkit/transfer/internal/middleware"
	"github.com/dvkit/transfer/internal/repository"
	"github.com/dvkit/transfer/internal/transfer"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbConfig, err := config.LoadDBConfig("./")
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}
	serverConfig, err := config.LoadServerConfig("./")
	if err != nil {
		log.Fatalf("Failed to load server config: %v", err)
	}

	conn, err := db.NewConnection(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(serverConfig.MigrationsPath, dbConfig); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	configRepo := repository.NewTransferConfigRepository(conn.Pool)
	service := transfer.NewService(configRepo, serverConfig.SimplePluralization)
	handler := transfer.NewHTTPHandler(service)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   serverConfig.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	mux := http.NewServeMux()
	mux.Handle("/api/configs", corsHandler.Handler(middleware.LoggingMiddleware(handler)))
	mux.Handle("/api/configs/", corsHandler.Handler(middleware.LoggingMiddleware(handler)))
	mux.Handle("/api/transfer/", corsHandler.Handler(middleware.LoggingMiddleware(handler)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", serverConfig.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting transfer server on :%d", serverConfig.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
