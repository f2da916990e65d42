package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sleepstars/periop-assistant/internal/config"
	"github.com/sleepstars/periop-assistant/internal/logger"
	"github.com/sleepstars/periop-assistant/internal/webui"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	relayURL := flag.String("relay", "", "Relay base URL the page talks to (overrides web.relay_url)")
	flag.Parse()

	logger.InitLogger(logger.INFO, "web")
	log := logger.GetLogger()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.WithError(err).Fatal("Invalid environment")
	}
	if *relayURL != "" {
		cfg.Web.RelayURL = *relayURL
	}
	opts, err := cfg.Logging.LoggerOptions("web")
	if err != nil {
		log.WithError(err).Fatal("Invalid logging configuration")
	}
	logger.SetDefault(logger.New(opts))
	log = logger.GetLogger()

	gin.SetMode(gin.ReleaseMode)
	router, err := webui.NewRouter(webui.Page{
		Title:         cfg.Web.Title,
		RelayURL:      cfg.Web.RelayURL,
		LocalFallback: cfg.Prompts.LocalFallback,
		Questions:     cfg.Web.Questions,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to render page")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Graceful shutdown failed")
		}
	}()

	log.Info("Serving page on :%d, relay at %s", cfg.Web.Port, cfg.Web.RelayURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("Server error")
	}
}
