package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/winplace/internal/config"
	"github.com/1broseidon/winplace/internal/ipc"
	"github.com/1broseidon/winplace/internal/placement"
	"github.com/1broseidon/winplace/internal/platform"
	"github.com/1broseidon/winplace/internal/watch"
	"github.com/1broseidon/winplace/internal/x11"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: winplace daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: winplace daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "store":
		os.Exit(runStore(os.Args[2:]))
	case "restore":
		os.Exit(runRestore(os.Args[2:]))
	case "save":
		os.Exit(runSave(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winplace <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Watch windows and persist placements (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  list                List recorded placements")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  store <key>         Record a window's current geometry under a key")
	fmt.Fprintln(w, "  restore <key>       Apply a recorded placement to a window")
	fmt.Fprintln(w, "  save                Ask the daemon to persist the placement map")
	fmt.Fprintln(w, "  reload              Ask the daemon to reload its configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winplace <command> --help' for command-specific options.")
}

func runDaemon() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded (placements: %s, rules: %d)", cfg.PlacementsFile, len(cfg.Track))

	daemon, err := watch.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start daemon: %v", err)
	}

	ipcServer, err := ipc.NewServer(daemon)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				log.Println("Received SIGHUP, reloading config...")
				if err := daemon.Reload(); err != nil {
					log.Printf("Config reload failed: %v", err)
				}

			case os.Interrupt, syscall.SIGTERM:
				log.Println("Shutting down winplace daemon...")
				ipcServer.Stop()
				daemon.Shutdown()
				os.Exit(0)
			}
		}
	}()

	// Event loop (blocking)
	if err := daemon.Run(); err != nil {
		log.Fatalf("Daemon failed: %v", err)
	}
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winplace status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running:  %v\n", status.DaemonRunning)
	fmt.Printf("placements_file: %s\n", status.PlacementsFile)
	fmt.Printf("tracked_keys:    %d\n", status.TrackedKeys)
	fmt.Printf("uptime_seconds:  %d\n", status.UptimeSeconds)
	return 0
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winplace list [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List recorded placements. Uses the daemon when it is running,")
		fmt.Fprintln(os.Stderr, "otherwise reads the placements file directly.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output placements as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "list takes no arguments")
		fs.Usage()
		return 2
	}

	entries, err := listPlacements()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	printPlacements(entries)
	return 0
}

// listPlacements prefers the daemon's live map and falls back to the
// persisted backend when no daemon is running.
func listPlacements() ([]ipc.PlacementEntry, error) {
	client := ipc.NewClient()
	if entries, err := client.ListPlacements(); err == nil {
		return entries, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	backend, err := watch.OpenBackend(cfg.PlacementsFile)
	if err != nil {
		return nil, err
	}
	if closer, ok := backend.(io.Closer); ok {
		defer closer.Close()
	}

	m, err := backend.Load()
	if err != nil {
		// Missing backend data means no placements yet, not a failure.
		return nil, nil
	}

	entries := make([]ipc.PlacementEntry, 0, len(m))
	for key, r := range m {
		entries = append(entries, ipc.PlacementEntry{
			Key: key, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

// printPlacements emits one line per key, column-aligned on a terminal
// and tab-separated when piped.
func printPlacements(entries []ipc.PlacementEntry) {
	if len(entries) == 0 {
		fmt.Println("no placements recorded")
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		for _, e := range entries {
			fmt.Printf("%s\t%d\t%d\t%d\t%d\n", e.Key, e.X, e.Y, e.Width, e.Height)
		}
		return
	}

	keyWidth := len("KEY")
	for _, e := range entries {
		if len(e.Key) > keyWidth {
			keyWidth = len(e.Key)
		}
	}
	fmt.Printf("%-*s  %6s  %6s  %6s  %6s\n", keyWidth, "KEY", "X", "Y", "WIDTH", "HEIGHT")
	for _, e := range entries {
		fmt.Printf("%-*s  %6d  %6d  %6d  %6d\n", keyWidth, e.Key, e.X, e.Y, e.Width, e.Height)
	}
}

func runStore(args []string) int {
	fs := flag.NewFlagSet("store", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winplace store [--title SUBSTRING] <key>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Capture a window's current geometry, record it under <key> and")
		fmt.Fprintln(os.Stderr, "persist the map. Targets the focused window unless --title is given.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	title := fs.String("title", "", "Locate the window by title substring")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "store takes exactly one key")
		fs.Usage()
		return 2
	}
	key := fs.Arg(0)

	return withStore(func(store *placement.Store, conn *x11.Connection) int {
		windowID, err := resolveWindow(conn, *title)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := store.Store(platform.WindowID(windowID), key); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := store.Save(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		r := store.Placements()[key]
		fmt.Printf("stored %q: %d,%d %dx%d\n", key, r.X, r.Y, r.Width, r.Height)
		return 0
	})
}

func runRestore(args []string) int {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winplace restore [--title SUBSTRING] [--position-only] <key>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Apply the placement recorded under <key> to a window. Targets the")
		fmt.Fprintln(os.Stderr, "focused window unless --title is given.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	title := fs.String("title", "", "Locate the window by title substring")
	positionOnly := fs.Bool("position-only", false, "Apply only the stored position, keep the current size")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "restore takes exactly one key")
		fs.Usage()
		return 2
	}
	key := fs.Arg(0)

	// Without an explicit target, the daemon knows which window is bound
	// to the key; fall back to the focused window when it isn't running.
	if *title == "" && !*positionOnly {
		if err := ipc.NewClient().RestoreKey(key, 0); err == nil {
			return 0
		}
	}

	return withStore(func(store *placement.Store, conn *x11.Connection) int {
		if !store.IsRegistered(key) {
			fmt.Fprintf(os.Stderr, "no placement recorded for %q\n", key)
			return 1
		}
		windowID, err := resolveWindow(conn, *title)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if *positionOnly {
			err = store.RestorePosition(platform.WindowID(windowID), key)
		} else {
			err = store.Restore(platform.WindowID(windowID), key)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	})
}

func runSave(args []string) int {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winplace save")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the running daemon to persist its placement map.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "save takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if err := client.Save(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winplace reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the running daemon to reload its configuration.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "reload takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if err := client.Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  winplace config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  winplace config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/winplace/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var err error
		if *path == "" {
			_, err = config.Load()
		} else {
			_, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/winplace/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var cfg *config.Config
		var err error
		if *printDefaults {
			cfg = config.DefaultConfig()
		} else if *path == "" {
			cfg, err = config.Load()
		} else {
			cfg, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		return 2
	}
}

// withStore runs fn with a store loaded from the configured backend and a
// fresh X11 connection, releasing both afterwards.
func withStore(fn func(store *placement.Store, conn *x11.Connection) int) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	conn, err := x11.NewConnection()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	backend, err := watch.OpenBackend(cfg.PlacementsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if closer, ok := backend.(io.Closer); ok {
		defer closer.Close()
	}

	store := placement.NewStore(backend, platform.NewLinuxBridge(conn))
	return fn(store, conn)
}

func resolveWindow(conn *x11.Connection, title string) (uint32, error) {
	if title != "" {
		return conn.FindWindowByTitle(title)
	}
	return conn.GetActiveWindow()
}
