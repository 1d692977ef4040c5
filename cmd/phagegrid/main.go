package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/biolattice/phagegrid/pkg/config"
	"github.com/biolattice/phagegrid/pkg/dataset"
	"github.com/biolattice/phagegrid/pkg/logging"
	"github.com/biolattice/phagegrid/pkg/output"
	"github.com/biolattice/phagegrid/pkg/session"
	"github.com/biolattice/phagegrid/pkg/watcher"
	"github.com/biolattice/phagegrid/pkg/web"
	"github.com/biolattice/phagegrid/pkg/workspace"
)

func main() {
	f := pflag.NewFlagSet("phagegrid", pflag.ExitOnError)
	f.String("dataset", "", "Path to the interaction matrix (JSON or CSV)")
	f.String("session", "", "Path to a session snapshot to restore")
	f.Bool("web", false, "Serve the HTTP API instead of printing a report")
	f.Int("port", 8080, "Port for the web server (only used with --web)")
	f.Bool("watch", false, "Reload the session file on external edits")
	f.Bool("jsonlogs", false, "Emit JSON logs")
	f.Bool("verbose", false, "Debug-level logging")
	if err := f.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	configureLogging(cfg)

	ws := workspace.New()

	if cfg.Dataset != "" {
		ds, err := dataset.LoadFile(cfg.Dataset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		ws.LoadDataset(ds)
	}
	if cfg.Session != "" {
		snap, err := session.LoadFile(cfg.Session)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := ws.Import(snap); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if !cfg.WebMode {
		output.PrintTreeReport(ws.Dataset(), ws.Tree(), ws.Extent())
		return
	}

	if cfg.Watch && cfg.Session != "" {
		startSessionWatch(ws, cfg.Session)
	}

	server := web.NewServer(ws)
	defer server.Close()
	logging.Info("starting phagegrid", "port", cfg.Port)
	if err := server.ListenAndServe(cfg.Port); err != nil {
		logging.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func configureLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	if cfg.JSONLogs {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}
}

// startSessionWatch reimports the session whenever the file settles
// after an external edit.
func startSessionWatch(ws *workspace.Workspace, path string) {
	fw, err := watcher.NewFileWatcher(path)
	if err != nil {
		logging.Warn("session watch disabled", "error", err)
		return
	}
	fw.Start(context.Background())
	go func() {
		for range fw.Changes() {
			snap, err := session.LoadFile(path)
			if err != nil {
				logging.Warn("ignoring unreadable session file", "error", err)
				continue
			}
			if err := ws.Import(snap); err != nil {
				logging.Warn("session reload failed", "error", err)
				continue
			}
			logging.Info("session reloaded", "path", path)
		}
	}()
}
