package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	domainconfig "pathfinder-backend/domain/config"
)

// Watcher reloads the config file on change and applies the parts that can
// change at runtime: domain rules and the log level
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	domain  *domainconfig.Dynamic
	level   zap.AtomicLevel
	logger  *zap.Logger

	debounce time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	reloaded chan struct{}
}

// NewWatcher creates a new configuration watcher
func NewWatcher(path string, domain *domainconfig.Dynamic, level zap.AtomicLevel, logger *zap.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so atomic saves (write temp + rename) are seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		path:     path,
		watcher:  watcher,
		domain:   domain,
		level:    level,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
		reloaded: make(chan struct{}, 1),
	}, nil
}

// Start begins watching for configuration changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching for configuration changes
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Configuration watcher stopped")
	})
}

func (w *Watcher) watchLoop() {
	var timer *time.Timer
	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Editors emit several events per save
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Config watcher error", zap.Error(err))
		}
	}
}

// Reload reads the file and applies it; it is what the watcher runs on change
func (w *Watcher) Reload() error {
	cfg := Default()
	if err := cfg.overlayFile(w.path); err != nil {
		return err
	}
	cfg.applyEnv()

	domain, err := cfg.DomainConfig()
	if err != nil {
		return fmt.Errorf("invalid domain settings: %w", err)
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	if err := w.domain.Store(domain); err != nil {
		return err
	}
	w.level.SetLevel(level)

	w.logger.Info("Configuration reloaded",
		zap.String("log_level", level.String()),
		zap.Int("max_paths", domain.MaxPaths),
		zap.Int("max_path_depth", domain.MaxPathDepth),
		zap.Duration("roadmap_timeout", domain.RoadmapTimeout),
	)
	return nil
}

func (w *Watcher) reload() {
	if err := w.Reload(); err != nil {
		// keep the previous configuration
		w.logger.Error("Failed to reload configuration", zap.String("path", w.path), zap.Error(err))
		return
	}
	select {
	case w.reloaded <- struct{}{}:
	default:
	}
}

// Reloaded signals after each successful background reload
func (w *Watcher) Reloaded() <-chan struct{} {
	return w.reloaded
}
