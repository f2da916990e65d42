package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sleepstars/periop-assistant/internal/config"
	"github.com/sleepstars/periop-assistant/internal/logger"
	"github.com/sleepstars/periop-assistant/internal/modelbridge"
	"github.com/sleepstars/periop-assistant/internal/relay"
	"github.com/sleepstars/periop-assistant/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file (defaults are used when empty)")
	envFile := flag.String("env", ".env", "Optional dotenv file holding the API key")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		logger.InitLogger(logger.INFO, "main")
		logger.GetLogger().WithError(err).Fatal("Failed to load configuration")
	}

	opts, err := cfg.Logging.LoggerOptions("main")
	if err != nil {
		logger.InitLogger(logger.INFO, "main")
		logger.GetLogger().WithError(err).Fatal("Invalid logging configuration")
	}
	logger.SetDefault(logger.New(opts))
	log := logger.GetLogger()

	if cfg.Upstream.APIKey == "" {
		log.Warn("%s is not set; upstream calls will be sent without credentials", cfg.Upstream.APIKeyEnv)
	}

	bridge, err := modelbridge.NewFromConfig(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to create upstream client")
	}
	rl := relay.NewRelay(bridge, cfg.Prompts.Fallback)

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(rl, server.Options{AllowedOrigins: cfg.Server.AllowedOrigins})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// WriteTimeout stays unset; chat handlers finish within upstream.timeout
		IdleTimeout:       60 * time.Second,
	}

	var watcher *config.Watcher
	if *configPath != "" {
		watcher, err = config.NewWatcher(*configPath, *envFile, reloader(cfg, bridge, rl), log)
		if err != nil {
			log.WithError(err).Warn("Config hot reload disabled")
		} else {
			watcher.Start()
		}
	}

	idle := make(chan struct{})
	go func() {
		defer close(idle)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan

		log.Info("Received %s, shutting down", sig)
		if watcher != nil {
			watcher.Stop()
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("Graceful shutdown failed")
		}
	}()

	log.Info("Relay listening on :%d (upstream %s via %s client, model %s)",
		cfg.Server.Port, cfg.Upstream.BaseURL, cfg.Upstream.Client, cfg.Upstream.Model)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("Server error")
	}
	<-idle
	log.Info("Server stopped")
}

// reloader applies the hot settings of a reloaded config and warns about the
// ones that only take effect after a restart
func reloader(startup *config.Config, bridge *modelbridge.ModelBridge, rl *relay.Relay) func(*config.Config) error {
	return func(next *config.Config) error {
		log := logger.GetLogger()
		if changed := startup.ReloadRequiresRestart(next); len(changed) > 0 {
			log.Warn("Restart required to apply: %s", strings.Join(changed, ", "))
		}

		bridge.UpdateSettings(modelbridge.SettingsFromConfig(next))
		rl.SetFallback(next.Prompts.Fallback)
		if level, err := logger.ParseLevel(next.Logging.Level); err == nil {
			log.SetLevel(level)
		}
		return nil
	}
}
