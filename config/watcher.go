package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/relaykit/mediator/logger"
)

// hotReloadableKeys are the only settings a running supervisor will ever
// pick up from a config file change without a restart. Everything that
// bears on safety (auto-approval, the denylist, unattended mode) is
// deliberately excluded: Decision determinism (§8.3) must be auditable
// against a single config snapshot per process lifetime.
var hotReloadableKeys = map[string]bool{
	"poll_interval_ms":    true,
	"ws_send_queue_depth": true,
	"history_emit_limit":  true,
}

// Watcher watches the active config file for changes and, for the
// hot-reloadable subset of keys, invokes registered callbacks with the
// freshly reloaded Config.
type Watcher struct {
	configPath     string
	watcher        *fsnotify.Watcher
	callbacks      []ReloadCallback
	mu             sync.RWMutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration

	isOwnWrite      bool
	isOwnWriteMutex sync.Mutex
}

// ReloadCallback receives the newly loaded Config after a hot-reloadable
// key changes on disk.
type ReloadCallback func(*Config) error

var (
	globalWatcher   *Watcher
	globalWatcherMu sync.Mutex
)

// NewWatcher creates a config file watcher for configPath.
func NewWatcher(configPath string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(configPath); err != nil {
		w.Close()
		return nil, err
	}

	return &Watcher{
		configPath:     configPath,
		watcher:        w,
		debouncePeriod: 500 * time.Millisecond,
	}, nil
}

// OnReload registers a callback invoked after a hot-reload.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// MarkOwnWrite marks the next file event as self-inflicted (a write to
// the config file made by this process) so it doesn't trigger a reload loop.
func (w *Watcher) MarkOwnWrite() {
	w.isOwnWriteMutex.Lock()
	defer w.isOwnWriteMutex.Unlock()
	w.isOwnWrite = true
}

func (w *Watcher) checkOwnWrite() bool {
	w.isOwnWriteMutex.Lock()
	defer w.isOwnWriteMutex.Unlock()
	if w.isOwnWrite {
		w.isOwnWrite = false
		return true
	}
	return false
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.watchLoop()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Write != fsnotify.Write && event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if isBackupFile(event.Name) {
				continue
			}
			if w.checkOwnWrite() {
				logger.Debugw("config watcher ignoring own write", "file", event.Name)
				continue
			}

			logger.Infow("config watcher detected change", "file", event.Name, "op", event.Op.String())
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, func() {
		if err := w.reload(); err != nil {
			logger.Errorw("config reload failed", "error", err)
		}
	})
}

// reload re-loads the config file. If any key outside hotReloadableKeys
// changed, the whole reload is logged and ignored and the previous Config
// stays in effect; picking such changes up requires a restart.
func (w *Watcher) reload() error {
	previous := globalConfig

	Reset()
	next, err := Load()
	if err != nil {
		return err
	}

	if previous != nil && safetyKnobsChanged(previous, next) {
		logger.Warnw("config file changed a key that is not hot-reloadable; ignoring until restart",
			"path", w.configPath)
		globalConfig = previous
		return nil
	}

	logger.Infow("config reloaded", "path", w.configPath)

	w.mu.RLock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		if err := cb(next); err != nil {
			logger.Warnw("config reload callback error", "error", err)
		}
	}

	return nil
}

// safetyKnobsChanged reports whether any non-hot-reloadable field differs
// between two loaded configs.
func safetyKnobsChanged(a, b *Config) bool {
	return a.WorkspaceRoot != b.WorkspaceRoot ||
		a.MaxWorkers != b.MaxWorkers ||
		a.MaxDepth != b.MaxDepth ||
		a.ExecutionMode != b.ExecutionMode ||
		a.AutoApproveSafe != b.AutoApproveSafe ||
		a.AutoApproveCaution != b.AutoApproveCaution ||
		a.UnattendedMode != b.UnattendedMode ||
		!stringSlicesEqual(a.SafeCommands, b.SafeCommands) ||
		!stringSlicesEqual(a.DenylistCommands, b.DenylistCommands) ||
		a.AIAdvisorTimeoutMS != b.AIAdvisorTimeoutMS ||
		a.EscalationTimeoutS != b.EscalationTimeoutS ||
		a.PerWorkerIdleTimeoutS != b.PerWorkerIdleTimeoutS ||
		a.RawLogANSIStrip != b.RawLogANSIStrip ||
		a.Anthropic != b.Anthropic ||
		a.Log != b.Log ||
		a.Gateway.Addr != b.Gateway.Addr ||
		!stringSlicesEqual(a.Gateway.AllowedOrigins, b.Gateway.AllowedOrigins)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Stop stops watching for config changes.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func isBackupFile(path string) bool {
	base := filepath.Base(path)
	return base == "mediator.toml.back1" ||
		base == "mediator.toml.back2" ||
		base == "mediator.toml.back3"
}

// SetGlobalWatcher installs the process-wide watcher instance.
func SetGlobalWatcher(w *Watcher) {
	globalWatcherMu.Lock()
	defer globalWatcherMu.Unlock()
	globalWatcher = w
}

// GetGlobalWatcher returns the process-wide watcher instance, if any.
func GetGlobalWatcher() *Watcher {
	globalWatcherMu.Lock()
	defer globalWatcherMu.Unlock()
	return globalWatcher
}
