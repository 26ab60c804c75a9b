package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/app"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/config"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/handlers"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/middleware"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/router"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(level)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	container, err := app.Initialize(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize services")
	}
	container.Start()

	auth := middleware.NewAuthMiddleware(cfg.Admin.JWTSecret)
	engine := router.New(cfg, auth, router.Handlers{
		Bridge:    handlers.NewBridgeHandler(container.Orchestrator, container.TxRepo),
		Relay:     handlers.NewRelayHandler(container.RelayAdmin, container.RelayRelayer, container.RelayOperator),
		Registry:  handlers.NewRegistryHandler(container.Registry),
		WebSocket: handlers.NewWebSocketHandler(container.PushService),
		Health:    handlers.NewHealthHandler(container.DB),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown was not clean")
	}
	container.Stop()
}
