package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eflash24/eflash-store/internal/accounts"
	"github.com/eflash24/eflash-store/internal/api"
	"github.com/eflash24/eflash-store/internal/auth"
	"github.com/eflash24/eflash-store/internal/config"
	"github.com/eflash24/eflash-store/internal/server"
	"github.com/eflash24/eflash-store/internal/storage"
	"github.com/eflash24/eflash-store/internal/vault"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		slog.Error("open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}

	hasher, err := vault.NewHasher(cfg.PasswordHash, cfg.HashCost)
	if err != nil {
		slog.Error("password hasher", "error", err)
		os.Exit(1)
	}
	creds := accounts.NewService(store, hasher,
		accounts.WithCollection(cfg.AuthCollection),
		accounts.WithAdminEmail(cfg.AdminEmail),
	)
	if created, err := creds.SeedAdmin(ctx, cfg.AdminPassword); err != nil {
		slog.Warn("could not seed administrator", "error", err)
	} else if created {
		slog.Info("administrator account created", "email", cfg.AdminEmail)
	}

	router := api.NewRouter(store, api.Options{
		BasePath: cfg.BasePath,
		Accounts: creds,
		Tokens:   auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
	})
	srv := server.New(cfg.HTTPAddress(), router)

	go func() {
		slog.Info("eflash gateway listening", "addr", cfg.HTTPAddress(), "base", cfg.BasePath, "driver", cfg.Store.Driver)
		if err := srv.Start(); err != nil {
			slog.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutdown signal received, finalizing disk writes")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		slog.Error("graceful shutdown error", "error", err)
	}
	if err := store.Close(); err != nil {
		slog.Error("close store", "error", err)
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; relying on existing environment")
	}
}
