package mcp

import (
	"context"
	"fmt"
	"io"
	"sort"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winplace/internal/config"
	"github.com/1broseidon/winplace/internal/placement"
	"github.com/1broseidon/winplace/internal/platform"
	"github.com/1broseidon/winplace/internal/watch"
	"github.com/1broseidon/winplace/internal/x11"
)

const (
	ServerName    = "winplace"
	ServerVersion = "0.1.0"
)

// Server is the MCP server exposing placement tools over stdio.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config
	conn      *x11.Connection
	bridge    *platform.LinuxBridge
	backend   placement.Backend
	store     *placement.Store
}

// NewServer creates an MCP server with its own display connection and
// placement store loaded from the configured backend.
func NewServer(cfg *config.Config) (*Server, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}

	backend, err := watch.OpenBackend(cfg.PlacementsFile)
	if err != nil {
		conn.Close()
		return nil, err
	}

	bridge := platform.NewLinuxBridge(conn)

	s := &Server{
		config:  cfg,
		conn:    conn,
		bridge:  bridge,
		backend: backend,
		store:   placement.NewStore(backend, bridge),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases server resources.
func (s *Server) Close() error {
	if closer, ok := s.backend.(io.Closer); ok {
		closer.Close()
	}
	s.conn.Close()
	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_placements",
		Description: "List all recorded window placements with their keys and geometry.",
	}, s.handleListPlacements)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "store_window",
		Description: "Capture the current position and size of a window and record it under a placement key. The window is located by title substring, or the focused window is used. The map is persisted immediately.",
	}, s.handleStoreWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore_window",
		Description: "Apply a recorded placement to a window located by title substring (or the focused window). Optionally position-only, keeping the window's current size.",
	}, s.handleRestoreWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "save_placements",
		Description: "Persist the in-memory placement map to the configured backend.",
	}, s.handleSavePlacements)
}

// resolveWindow finds the target window for a tool call.
func (s *Server) resolveWindow(title string) (uint32, error) {
	if title != "" {
		return s.conn.FindWindowByTitle(title)
	}
	return s.conn.GetActiveWindow()
}

func (s *Server) handleListPlacements(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListPlacementsInput) (*mcpsdk.CallToolResult, ListPlacementsOutput, error) {
	placements := s.store.Placements()

	out := ListPlacementsOutput{Placements: make([]PlacementInfo, 0, len(placements))}
	for key, r := range placements {
		out.Placements = append(out.Placements, PlacementInfo{
			Key: key, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
		})
	}
	sort.Slice(out.Placements, func(i, j int) bool {
		return out.Placements[i].Key < out.Placements[j].Key
	})

	return nil, out, nil
}

func (s *Server) handleStoreWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args StoreWindowInput) (*mcpsdk.CallToolResult, StoreWindowOutput, error) {
	if args.Key == "" {
		return nil, StoreWindowOutput{}, fmt.Errorf("key is required")
	}

	windowID, err := s.resolveWindow(args.Title)
	if err != nil {
		return nil, StoreWindowOutput{}, err
	}

	if err := s.store.Store(platform.WindowID(windowID), args.Key); err != nil {
		return nil, StoreWindowOutput{}, fmt.Errorf("failed to capture window %d: %w", windowID, err)
	}

	saved := true
	if err := s.store.Save(); err != nil {
		// The entry is recorded in memory; report the persistence failure
		// without discarding it.
		saved = false
	}

	r := s.store.Placements()[args.Key]
	return nil, StoreWindowOutput{
		Key: args.Key, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Saved: saved,
	}, nil
}

func (s *Server) handleRestoreWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args RestoreWindowInput) (*mcpsdk.CallToolResult, RestoreWindowOutput, error) {
	if args.Key == "" {
		return nil, RestoreWindowOutput{}, fmt.Errorf("key is required")
	}
	if !s.store.IsRegistered(args.Key) {
		return nil, RestoreWindowOutput{Key: args.Key, Restored: false}, nil
	}

	windowID, err := s.resolveWindow(args.Title)
	if err != nil {
		return nil, RestoreWindowOutput{}, err
	}

	if args.PositionOnly {
		err = s.store.RestorePosition(platform.WindowID(windowID), args.Key)
	} else {
		err = s.store.Restore(platform.WindowID(windowID), args.Key)
	}
	if err != nil {
		return nil, RestoreWindowOutput{}, fmt.Errorf("failed to restore %q: %w", args.Key, err)
	}

	return nil, RestoreWindowOutput{Key: args.Key, Restored: true}, nil
}

func (s *Server) handleSavePlacements(_ context.Context, _ *mcpsdk.CallToolRequest, _ SavePlacementsInput) (*mcpsdk.CallToolResult, SavePlacementsOutput, error) {
	if err := s.store.Save(); err != nil {
		return nil, SavePlacementsOutput{}, err
	}
	return nil, SavePlacementsOutput{Keys: s.store.Len()}, nil
}
