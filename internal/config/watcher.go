package config

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sleepstars/periop-assistant/internal/logger"
)

const debounceDelay = 500 * time.Millisecond

// Watcher reloads the configuration when the file changes or on SIGHUP
type Watcher struct {
	configPath string
	envFile    string
	logger     *logger.Logger
	watcher    *fsnotify.Watcher
	reloadFunc func(*Config) error
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	started    bool
	mu         sync.Mutex
}

// NewWatcher creates a new config file watcher
func NewWatcher(configPath, envFile string, reloadFunc func(*Config) error, log *logger.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsWatcher.Add(configPath); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		configPath: configPath,
		envFile:    envFile,
		logger:     log.WithComponent("config_watcher"),
		watcher:    fsWatcher,
		reloadFunc: reloadFunc,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}, nil
}

// Start starts watching for config changes
func (w *Watcher) Start() {
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP)

	go func() {
		defer close(w.done)
		defer signal.Stop(sigChan)
		defer w.watcher.Close()

		var debounceTimer *time.Timer
		for {
			select {
			case <-w.ctx.Done():
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				w.logger.Info("Config watcher stopped")
				return

			case sig := <-sigChan:
				w.logger.Info("Received %s, reloading configuration", sig)
				w.reload()

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				w.logger.Debug("Config file changed: %s (%s)", event.Name, event.Op)

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, w.reload)

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.WithError(err).Error("Config watcher error")
			}
		}
	}()

	w.logger.Info("Config watcher started for %s", w.configPath)
}

// Stop stops the watcher and waits for its goroutine to exit
func (w *Watcher) Stop() {
	w.cancel()

	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		w.watcher.Close()
		return
	}
	<-w.done
}

// reload loads and applies the new configuration
func (w *Watcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ctx.Err() != nil {
		return
	}

	w.logger.Info("Reloading configuration")
	newCfg, err := Load(w.configPath, w.envFile)
	if err != nil {
		w.logger.WithError(err).Error("Failed to load new configuration, keeping current config")
		return
	}

	if err := w.reloadFunc(newCfg); err != nil {
		w.logger.WithError(err).Error("Failed to apply new configuration, keeping current config")
		return
	}
	w.logger.Info("Configuration reloaded")
}
