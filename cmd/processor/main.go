package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"hsecli/internal/app"
	"hsecli/internal/config"
	"hsecli/internal/infrastructure"
	"hsecli/internal/operations"
	"hsecli/internal/store"
	"hsecli/pkg/contracts/domain"
)

func main() {
	sourcesDir := flag.String("in", "", "input directory for Excel/CSV source files (overrides config)")
	exportsDir := flag.String("out", "", "output directory for generated exports (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *sourcesDir != "" {
		cfg.Paths.SourcesDir = *sourcesDir
	}
	if *exportsDir != "" {
		cfg.Paths.ExportsDir = *exportsDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	paths, err := config.NewPaths("", cfg.Paths)
	if err != nil {
		logger.Error("failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("failed to create required directories", "error", err)
		os.Exit(1)
	}

	snapshots, err := store.Open(paths.DBFile)
	if err != nil {
		logger.Error("failed to open snapshot store", "error", err)
		os.Exit(1)
	}
	defer snapshots.Close()

	manager := operations.NewManager(app.RefreshStages(paths, cfg.Processing, snapshots))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("refresh starting",
		slog.String("sources_dir", paths.SourcesDir),
		slog.String("exports_dir", paths.ExportsDir))

	state, op, err := manager.Run(ctx)
	if err != nil {
		logger.Error("refresh failed",
			slog.String("operation_id", op.ID),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	printSummary(os.Stdout, state)
}

func printSummary(w io.Writer, state *operations.State) {
	fmt.Fprintf(w, "Refresh complete: %d records across %d categories\n",
		state.TotalRecords(), len(state.Unified))

	for _, category := range domain.Categories() {
		records := state.Unified[category]
		if len(records) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-18s %d records\n", category, len(records))
	}

	if state.DuplicatesDropped > 0 {
		fmt.Fprintf(w, "Duplicates dropped: %d\n", state.DuplicatesDropped)
	}
	if len(state.UncategorizedSrcs) > 0 {
		fmt.Fprintf(w, "Uncategorized tables: %d\n", len(state.UncategorizedSrcs))
		for _, src := range state.UncategorizedSrcs {
			fmt.Fprintf(w, "  %s\n", src)
		}
	}
	if len(state.SourceErrors) > 0 {
		fmt.Fprintf(w, "Source errors: %d\n", len(state.SourceErrors))
		for _, srcErr := range state.SourceErrors {
			fmt.Fprintf(w, "  %s: %s\n", srcErr.Source, srcErr.Err)
		}
	}

	fmt.Fprintf(w, "Exports written: %d\n", len(state.ExportsWritten))
	for _, name := range state.ExportsWritten {
		fmt.Fprintf(w, "  %s\n", name)
	}
	if state.SnapshotID != 0 {
		fmt.Fprintf(w, "Snapshot saved: %d\n", state.SnapshotID)
	}
}
