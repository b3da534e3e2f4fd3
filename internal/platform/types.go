package platform

// WindowID is a platform-neutral identifier for a realized native window.
// It is only meaningful after the window has been mapped by the window
// system; capturing or applying geometry before that is undefined.
type WindowID uint32

// Rect describes a window rectangle in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Bridge abstracts geometry access on native windows. Implementations do
// pure delegation to the window system; clamping or keep-on-screen policy
// belongs to the window manager, not to callers of this interface.
type Bridge interface {
	// Capture reads the window's current position and size.
	Capture(id WindowID) (Rect, error)
	// Apply moves and resizes the window.
	Apply(id WindowID, r Rect) error
	// ApplyPosition moves the window without touching its size.
	ApplyPosition(id WindowID, x, y int) error
}
