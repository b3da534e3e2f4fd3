package watch

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/winplace/internal/config"
	"github.com/1broseidon/winplace/internal/ipc"
	"github.com/1broseidon/winplace/internal/logging"
	"github.com/1broseidon/winplace/internal/placement"
	"github.com/1broseidon/winplace/internal/platform"
	"github.com/1broseidon/winplace/internal/x11"
)

// Daemon watches top-level windows and drives the placement store from
// their lifecycle: restore when a tracked window is mapped, record when it
// is destroyed, persist on shutdown and on request.
type Daemon struct {
	cfg   *config.Config
	cfgMu sync.RWMutex

	conn    *x11.Connection
	bridge  *platform.LinuxBridge
	tracker *x11.Tracker
	backend placement.Backend
	logger  *logging.Logger

	// The store itself is single-threaded by design; the daemon serializes
	// event-loop callbacks and IPC goroutines around it.
	storeMu sync.Mutex
	store   *placement.Store

	byWindow map[uint32]windowBinding
	byKey    map[string]uint32

	startTime time.Time
}

// windowBinding remembers how a mapped window was bound.
type windowBinding struct {
	key          string
	positionOnly bool
}

// New creates a daemon from config, connecting to the display server and
// loading the placement map.
func New(cfg *config.Config) (*Daemon, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}

	backend, err := OpenBackend(cfg.PlacementsFile)
	if err != nil {
		conn.Close()
		return nil, err
	}

	logCfg := cfg.GetLoggingConfig()
	var logger *logging.Logger
	if logCfg.Enabled {
		logger, err = logging.NewLogger(logging.LogConfig{
			Enabled:   logCfg.Enabled,
			Level:     logging.ParseLogLevel(logCfg.Level),
			FilePath:  logCfg.File,
			MaxSizeMB: logCfg.MaxSizeMB,
			MaxFiles:  logCfg.MaxFiles,
		})
		if err != nil {
			log.Printf("Warning: failed to initialize action logger: %v", err)
			logger = nil
		}
	}

	bridge := platform.NewLinuxBridge(conn)

	d := &Daemon{
		cfg:       cfg,
		conn:      conn,
		bridge:    bridge,
		tracker:   x11.NewTracker(conn),
		backend:   backend,
		logger:    logger,
		store:     placement.NewStore(backend, bridge),
		byWindow:  make(map[uint32]windowBinding),
		byKey:     make(map[string]uint32),
		startTime: time.Now(),
	}

	d.tracker.OnShown(d.handleShown)
	d.tracker.OnClosing(d.handleClosing)

	return d, nil
}

// OpenBackend selects a placement backend from the file extension:
// .db opens a bbolt database, everything else is a plain file.
func OpenBackend(path string) (placement.Backend, error) {
	if strings.ToLower(filepath.Ext(path)) == ".db" {
		return placement.OpenBolt(path)
	}
	return placement.NewFileBackend(path), nil
}

// Run starts the tracker and blocks in the X11 event loop.
func (d *Daemon) Run() error {
	if err := d.tracker.Start(); err != nil {
		return err
	}

	log.Printf("winplace daemon started (%d placements loaded)", d.store.Len())
	d.conn.EventLoop()
	return nil
}

// Shutdown persists the map and releases resources.
func (d *Daemon) Shutdown() {
	if err := d.SavePlacements(); err != nil {
		log.Printf("Failed to save placements on shutdown: %v", err)
	}
	if closer, ok := d.backend.(io.Closer); ok {
		closer.Close()
	}
	if d.logger != nil {
		d.logger.Close()
	}
	d.conn.StopEventLoop()
	d.conn.Close()
}

func (d *Daemon) config() *config.Config {
	d.cfgMu.RLock()
	defer d.cfgMu.RUnlock()
	return d.cfg
}

// handleShown restores a freshly mapped window when a track rule matches
// its WM_CLASS.
func (d *Daemon) handleShown(windowID uint32, class string) {
	rule, ok := d.config().RuleFor(class)
	if !ok {
		d.logger.Log(logging.ActionSkip, class, map[string]interface{}{
			"window": windowID,
			"reason": "no_rule",
		})
		return
	}
	key := rule.KeyFor(class)

	d.storeMu.Lock()
	defer d.storeMu.Unlock()

	d.byWindow[windowID] = windowBinding{key: key, positionOnly: rule.PositionOnly}
	d.byKey[key] = windowID

	registered := d.store.IsRegistered(key)

	var err error
	if rule.PositionOnly {
		err = d.store.RestorePosition(platform.WindowID(windowID), key)
	} else {
		err = d.store.Restore(platform.WindowID(windowID), key)
	}
	if err != nil {
		log.Printf("Failed to restore %q: %v", key, err)
		return
	}

	if registered {
		d.logger.Log(logging.ActionRestore, key, map[string]interface{}{
			"window":        windowID,
			"position_only": rule.PositionOnly,
		})
	}
}

// handleClosing records the destroyed window's last observed geometry.
// The window is already gone from the server, so the tracker's cache is
// the only source of its geometry.
func (d *Daemon) handleClosing(windowID uint32, last x11.Geometry, known bool) {
	d.storeMu.Lock()
	defer d.storeMu.Unlock()

	binding, ok := d.byWindow[windowID]
	if !ok {
		return
	}
	delete(d.byWindow, windowID)
	if d.byKey[binding.key] == windowID {
		delete(d.byKey, binding.key)
	}

	if !known {
		d.logger.Log(logging.ActionSkip, binding.key, map[string]interface{}{
			"window": windowID,
			"reason": "no_geometry",
		})
		return
	}

	d.store.Put(binding.key, platform.Rect{
		X: last.X, Y: last.Y, Width: last.Width, Height: last.Height,
	})
	d.logger.Log(logging.ActionStore, binding.key, map[string]interface{}{
		"window": windowID,
		"x":      last.X,
		"y":      last.Y,
		"width":  last.Width,
		"height": last.Height,
	})

	if err := d.store.Save(); err != nil {
		log.Printf("Failed to save placements: %v", err)
	}
}

// Status implements ipc.Handler.
func (d *Daemon) Status() ipc.StatusData {
	d.storeMu.Lock()
	keys := d.store.Len()
	d.storeMu.Unlock()

	return ipc.StatusData{
		PlacementsFile: d.config().PlacementsFile,
		TrackedKeys:    keys,
		UptimeSeconds:  int64(time.Since(d.startTime).Seconds()),
		DaemonRunning:  true,
	}
}

// ListPlacements implements ipc.Handler.
func (d *Daemon) ListPlacements() []ipc.PlacementEntry {
	d.storeMu.Lock()
	placements := d.store.Placements()
	d.storeMu.Unlock()

	entries := make([]ipc.PlacementEntry, 0, len(placements))
	for key, r := range placements {
		entries = append(entries, ipc.PlacementEntry{
			Key: key, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// SavePlacements implements ipc.Handler.
func (d *Daemon) SavePlacements() error {
	d.storeMu.Lock()
	defer d.storeMu.Unlock()

	if err := d.store.Save(); err != nil {
		return err
	}
	d.logger.Log(logging.ActionSave, "", map[string]interface{}{
		"keys": d.store.Len(),
	})
	return nil
}

// RestoreKey implements ipc.Handler. With windowID zero, the window most
// recently bound to the key is the target.
func (d *Daemon) RestoreKey(key string, windowID uint32) error {
	d.storeMu.Lock()
	defer d.storeMu.Unlock()

	if !d.store.IsRegistered(key) {
		return fmt.Errorf("no placement recorded for %q", key)
	}

	target := windowID
	if target == 0 {
		bound, ok := d.byKey[key]
		if !ok {
			return fmt.Errorf("no window currently bound to %q", key)
		}
		target = bound
	}

	positionOnly := false
	if binding, ok := d.byWindow[target]; ok {
		positionOnly = binding.positionOnly
	}

	var err error
	if positionOnly {
		err = d.store.RestorePosition(platform.WindowID(target), key)
	} else {
		err = d.store.Restore(platform.WindowID(target), key)
	}
	if err != nil {
		return err
	}

	d.logger.Log(logging.ActionRestore, key, map[string]interface{}{
		"window":    target,
		"requested": true,
	})
	return nil
}

// Reload implements ipc.Handler.
func (d *Daemon) Reload() error {
	newCfg, err := config.Load()
	if err != nil {
		return err
	}

	d.cfgMu.Lock()
	d.cfg = newCfg
	d.cfgMu.Unlock()

	log.Println("Config reloaded successfully")
	return nil
}
