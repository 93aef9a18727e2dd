// textexpand - hotkeys and hotstrings for the desktop
// Watches the keyboard system-wide, runs actions bound to key combinations
// and replaces typed abbreviations with text.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"textexpand/internal/api"
	"textexpand/internal/autostart"
	"textexpand/internal/config"
	"textexpand/internal/engine"
	"textexpand/internal/input"
	"textexpand/internal/osutils"
	"textexpand/internal/tray"
)

var (
	version      = "0.1.0"
	configPath   = flag.String("config", "", "Path to the config file (.yaml or .toml)")
	listTriggers = flag.Bool("list", false, "List configured hotkeys and hotstrings")
	noTray       = flag.Bool("no-tray", false, "Run without the tray icon")
	verbose      = flag.Bool("v", false, "Enable debug logging")
	showVer      = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("textexpand version %s\n", version)
		return
	}

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config
	cfgMgr, err := config.NewManager(*configPath)
	if err != nil {
		fatal("failed to initialize config", err)
	}
	if err := cfgMgr.Load(); err != nil {
		fatal("failed to load config", err)
	}
	cfg := cfgMgr.Get()
	level.Set(logLevel(cfg.LogLevel, *verbose))

	eng := engine.New(input.NewHook(logger), input.NewHostInjector(), cfg.EngineOptions(logger))
	if err := config.Apply(cfg, eng, logger); err != nil {
		fatal("failed to apply config", err)
	}

	// Handle --list flag
	if *listTriggers {
		printTriggers(os.Stdout, eng)
		return
	}

	if runtime.GOOS == "windows" && !osutils.IsAdmin() {
		slog.Warn("[main] not elevated: keys typed into administrator windows are not seen")
	}

	// Reapply the file on every change; a broken edit keeps the last good set
	reapply := func(cfg *config.Config) {
		level.Set(logLevel(cfg.LogLevel, *verbose))
		if err := config.Apply(cfg, eng, logger); err != nil {
			slog.Error("[main] failed to apply reloaded config", "error", err)
			return
		}
		slog.Info("[main] config reloaded",
			"hotkeys", len(cfg.Hotkeys),
			"hotstrings", len(cfg.Hotstrings),
		)
	}
	cfgMgr.RegisterChangeCallback(reapply)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		err := config.Watch(ctx, cfgMgr.Path(), 0, func() {
			if err := cfgMgr.Load(); err != nil {
				slog.Error("[main] failed to reload config", "error", err)
			}
		}, logger)
		if err != nil {
			slog.Warn("[main] config watch disabled", "error", err)
		}
	}()

	// Start API server if enabled
	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.NewServer(eng, cfg.API.Token, logger)
		go func() {
			if err := apiServer.Serve(ctx, cfg.API.Addr); err != nil {
				slog.Error("[main] API server stopped", "addr", cfg.API.Addr, "error", err)
			}
		}()
	}

	if *noTray || !cfg.Tray {
		runHeadless(ctx, eng)
		return
	}
	runTray(ctx, eng, cfgMgr, reapply, apiServer)
}

func fatal(msg string, err error) {
	slog.Error("[main] "+msg, "error", err)
	os.Exit(1)
}

// logLevel maps the configured level name; -v always wins.
func logLevel(name string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printTriggers(w io.Writer, eng *engine.Engine) {
	hotkeys := eng.Hotkeys()
	hotstrings := eng.Hotstrings()

	fmt.Fprintln(w, "Hotkeys:")
	fmt.Fprintln(w, "--------")
	if len(hotkeys) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, h := range hotkeys {
		fmt.Fprintf(w, "  %-20s %s\n", h.Trigger, h.Description)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Hotstrings:")
	fmt.Fprintln(w, "-----------")
	if len(hotstrings) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, h := range hotstrings {
		fmt.Fprintf(w, "  %-20s %s\n", h.Trigger, h.Description)
	}
}

func runHeadless(ctx context.Context, eng *engine.Engine) {
	slog.Info("[main] textexpand running. Press Ctrl+C to stop.")
	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fatal("engine stopped", err)
	}
	slog.Info("[main] shutting down")
}

func runTray(ctx context.Context, eng *engine.Engine, cfgMgr *config.Manager, reapply func(*config.Config), apiServer *api.Server) {
	if err := eng.Start(); err != nil {
		fatal("failed to start engine", err)
	}
	defer func() {
		if err := eng.Stop(); err != nil {
			slog.Error("[main] failed to stop engine", "error", err)
		}
	}()

	t := tray.New("textexpand", "textexpand - hotkeys and hotstrings")

	var pauseID int
	pauseID = t.AddMenuItem("Pause", func() {
		if eng.Running() {
			if err := eng.Stop(); err != nil {
				slog.Error("[main] pause failed", "error", err)
				return
			}
			t.SetItemTitle(pauseID, "Resume")
		} else {
			if err := eng.Start(); err != nil {
				slog.Error("[main] resume failed", "error", err)
				return
			}
			t.SetItemTitle(pauseID, "Pause")
		}
		if apiServer != nil {
			apiServer.BroadcastState()
		}
	})

	t.AddSeparator()
	hotkeysID := t.AddMenuItem("Hotkeys", nil)
	hotstringsID := t.AddMenuItem("Hotstrings", nil)
	refreshMenu := func() {
		t.SetChildren(hotkeysID, menuLines(eng.Hotkeys()))
		t.SetChildren(hotstringsID, menuLines(eng.Hotstrings()))
	}
	refreshMenu()
	cfgMgr.RegisterChangeCallback(func(cfg *config.Config) {
		reapply(cfg)
		refreshMenu()
	})

	t.AddSeparator()
	t.AddMenuItem("Edit config...", func() {
		if err := osutils.Open(cfgMgr.Path()); err != nil {
			slog.Error("[main] failed to open config", "path", cfgMgr.Path(), "error", err)
		}
	})
	t.AddMenuItem("Reload config", func() {
		if err := cfgMgr.Load(); err != nil {
			slog.Error("[main] failed to reload config", "error", err)
		}
	})

	var loginID int
	loginID = t.AddMenuItem("Start at login", func() {
		on := !autostart.IsEnabled()
		if err := autostart.Set(on); err != nil {
			slog.Error("[main] failed to change login item", "error", err)
			return
		}
		t.SetItemChecked(loginID, on)
	})
	go func() {
		<-t.Ready()
		t.SetItemChecked(loginID, autostart.IsEnabled())
	}()

	t.AddSeparator()
	t.AddMenuItem("Quit", func() {
		t.Stop()
	})

	go func() {
		<-ctx.Done()
		slog.Info("[main] shutting down")
		t.Stop()
	}()

	slog.Info("[main] textexpand running in the tray")
	t.Run()
}

func menuLines(infos []engine.Info) []string {
	if len(infos) == 0 {
		return []string{"(none)"}
	}
	lines := make([]string, len(infos))
	for i, info := range infos {
		lines[i] = info.Trigger + "  " + info.Description
	}
	return lines
}
