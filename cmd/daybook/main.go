package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/nhle/daybook/internal/app"
	"github.com/nhle/daybook/internal/model"
	"github.com/nhle/daybook/internal/store"
)

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "daybook")
}

func run() error {
	dataDir := defaultDataDir()

	configPath := pflag.String("config", model.DefaultConfigPath(), "config file path")
	dbPath := pflag.String("db", filepath.Join(dataDir, "daybook.db"), "sqlite database path")
	logPath := pflag.String("log", filepath.Join(dataDir, "daybook.log"), "log file path")
	debug := pflag.Bool("debug", false, "enable debug logging")
	pflag.Parse()

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Log to a file; stdout belongs to the terminal UI.
	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(*dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	logger.Info("starting daybook", "db", *dbPath, "remote", cfg.Remote.Enabled)

	p := tea.NewProgram(app.New(s, cfg, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "daybook:", err)
		os.Exit(1)
	}
}
