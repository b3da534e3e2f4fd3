//go:build linux

package platform

import (
	"fmt"

	"github.com/1broseidon/winplace/internal/x11"
)

// LinuxBridge implements Bridge on top of an X11 connection.
type LinuxBridge struct {
	conn *x11.Connection
}

var _ Bridge = (*LinuxBridge)(nil)

// NewLinuxBridge wraps an existing X11 connection.
func NewLinuxBridge(conn *x11.Connection) *LinuxBridge {
	return &LinuxBridge{conn: conn}
}

// NewLinuxBridgeFromDisplay opens a fresh X11 connection.
func NewLinuxBridgeFromDisplay() (*LinuxBridge, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBridge{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBridge) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Connection returns the underlying X11 connection for X11-specific callers.
func (b *LinuxBridge) Connection() *x11.Connection {
	if b == nil {
		return nil
	}
	return b.conn
}

func (b *LinuxBridge) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 bridge connection is nil")
	}
	return b.conn, nil
}

// Capture reads the window's current root-relative geometry.
func (b *LinuxBridge) Capture(id WindowID) (Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return Rect{}, err
	}
	geom, err := conn.WindowGeometry(uint32(id))
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: geom.X, Y: geom.Y, Width: geom.Width, Height: geom.Height}, nil
}

// Apply moves and resizes the window.
func (b *LinuxBridge) Apply(id WindowID, r Rect) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MoveResizeWindow(uint32(id), r.X, r.Y, r.Width, r.Height)
}

// ApplyPosition moves the window, leaving its size alone.
func (b *LinuxBridge) ApplyPosition(id WindowID, x, y int) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MoveWindow(uint32(id), x, y)
}
