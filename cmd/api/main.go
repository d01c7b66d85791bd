package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"swiftflow/api/internal/app"
	"swiftflow/api/internal/authpw"
	"swiftflow/api/internal/config"
	"swiftflow/api/internal/email"
	"swiftflow/api/internal/export"
	"swiftflow/api/internal/search"
	"swiftflow/api/internal/session"
	"swiftflow/api/internal/storage"
	"swiftflow/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
	}

	var sessions app.SessionStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Printf("WARNING: redis unavailable, using PostgreSQL for refresh sessions: %v", err)
			sessions = session.NewPostgresStore(dataStore)
		} else {
			log.Printf("Using Redis for refresh session storage")
			defer redisStore.Close()
			sessions = redisStore
		}
	} else {
		log.Printf("Using PostgreSQL for refresh session storage")
		sessions = session.NewPostgresStore(dataStore)
	}

	var attachmentStorage *storage.Service
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		attachmentStorage, err = storage.NewService(ctx, storage.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Printf("WARNING: attachment storage unavailable: %v", err)
			attachmentStorage = nil
		}
	}

	emailService := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})

	service := app.NewService(dataStore, sessions, authpw.NewService(dataStore), app.ServiceOptions{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		Email:      emailService,
		Search:     searchService,
		Storage:    attachmentStorage,
		Export:     export.NewService(),
	})

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("SwiftFlow API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
