package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Tracker watches top-level windows on the root window and reports their
// lifecycle: a shown signal once a window is mapped, and a closing signal
// when it is destroyed. It also keeps the last-known geometry per window,
// because a destroyed window can no longer be queried from the server.
type Tracker struct {
	conn *Connection

	mu    sync.Mutex
	geom  map[uint32]Geometry
	shown map[uint32]bool

	onShown   func(windowID uint32, class string)
	onClosing func(windowID uint32, last Geometry, known bool)
}

// NewTracker creates a tracker on an existing connection.
func NewTracker(conn *Connection) *Tracker {
	return &Tracker{
		conn:  conn,
		geom:  make(map[uint32]Geometry),
		shown: make(map[uint32]bool),
	}
}

// OnShown sets the callback fired once per window after it is mapped.
func (t *Tracker) OnShown(fn func(windowID uint32, class string)) {
	t.onShown = fn
}

// OnClosing sets the callback fired when a tracked window is destroyed.
// known is false when no geometry was ever observed for the window.
func (t *Tracker) OnClosing(fn func(windowID uint32, last Geometry, known bool)) {
	t.onClosing = fn
}

// Start subscribes to SubstructureNotify on the root window and connects
// the event callbacks. The caller still has to run the event loop.
func (t *Tracker) Start() error {
	root := xwindow.New(t.conn.XUtil, t.conn.Root)
	if err := root.Listen(xproto.EventMaskSubstructureNotify); err != nil {
		return fmt.Errorf("failed to listen on root window: %w", err)
	}

	xevent.MapNotifyFun(t.handleMap).Connect(t.conn.XUtil, t.conn.Root)
	xevent.ConfigureNotifyFun(t.handleConfigure).Connect(t.conn.XUtil, t.conn.Root)
	xevent.DestroyNotifyFun(t.handleDestroy).Connect(t.conn.XUtil, t.conn.Root)

	return nil
}

// LastGeometry returns the last observed geometry for a window.
func (t *Tracker) LastGeometry(windowID uint32) (Geometry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.geom[windowID]
	return g, ok
}

func (t *Tracker) handleMap(xu *xgbutil.XUtil, ev xevent.MapNotifyEvent) {
	if ev.OverrideRedirect {
		return
	}
	id := uint32(ev.Window)
	if !t.conn.IsNormalWindow(id) {
		return
	}

	t.mu.Lock()
	already := t.shown[id]
	t.shown[id] = true
	t.mu.Unlock()
	if already {
		return
	}

	if g, err := t.conn.WindowGeometry(id); err == nil {
		t.mu.Lock()
		t.geom[id] = g
		t.mu.Unlock()
	}

	if t.onShown != nil {
		t.onShown(id, t.conn.WindowClass(id))
	}
}

func (t *Tracker) handleConfigure(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
	id := uint32(ev.Window)

	t.mu.Lock()
	tracked := t.shown[id]
	t.mu.Unlock()
	if !tracked {
		return
	}

	// ConfigureNotify coordinates are parent-relative under reparenting
	// window managers, so re-query root-relative geometry instead.
	g, err := t.conn.WindowGeometry(id)
	if err != nil {
		return
	}

	t.mu.Lock()
	t.geom[id] = g
	t.mu.Unlock()
}

func (t *Tracker) handleDestroy(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
	id := uint32(ev.Window)

	t.mu.Lock()
	tracked := t.shown[id]
	last, known := t.geom[id]
	delete(t.shown, id)
	delete(t.geom, id)
	t.mu.Unlock()

	if !tracked {
		return
	}
	if t.onClosing != nil {
		t.onClosing(id, last, known)
	}
}
