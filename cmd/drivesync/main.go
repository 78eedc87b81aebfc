package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"drivesync/internal/adapter/drive"
	"drivesync/internal/adapter/ui"
	"drivesync/internal/config"
	"drivesync/internal/domain"
	"drivesync/internal/pkg/apicache"
	"drivesync/internal/pkg/ratelimit"
	"drivesync/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cli, err := config.ParseArgs()
	if err != nil {
		return err
	}

	cfg, err := config.Load(cli.ConfigPath)
	if err != nil {
		return err
	}
	if cli.LogLevel != "" {
		cfg.Logging.LogLevel = cli.LogLevel
	}
	if cli.Workers > 0 {
		cfg.Performance.Workers = cli.Workers
	}

	if err := setupLogging(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	governor := ratelimit.New(ratelimit.Config{
		RateLimit:  cfg.Performance.UserRateLimit,
		TimeWindow: cfg.TimeWindow(),
		MaxRetries: cfg.Migration.MaxRetries,
	})
	cache := apicache.New()

	opts, err := drive.Options(ctx, cfg.Credentials.ClientSecretsPath, cfg.Credentials.TokenPath)
	if err != nil {
		return err
	}
	store, err := drive.NewClient(ctx, governor, opts...)
	if err != nil {
		return err
	}

	console := ui.NewConsoleUI(cli.NonInteractive)

	sourceID, destID := cfg.Source.FolderID, cfg.Destination.FolderID
	if cli.TestMode {
		log.Info("Running in test mode")
		sourceID, destID = cfg.Test.SourceFolderID, cfg.Test.DestinationFolderID
		if sourceID == "" || destID == "" {
			if cli.NonInteractive {
				return fmt.Errorf("test mode requires test.source_folder_id and test.destination_folder_id")
			}
			if sourceID == "" {
				if sourceID, err = console.PromptFolderID("Test source folder ID"); err != nil {
					return err
				}
			}
			if destID == "" {
				if destID, err = console.PromptFolderID("Test destination folder ID"); err != nil {
					return err
				}
			}
		}
	}

	switch cli.Command {
	case "sync":
		return runSync(ctx, cfg, cli, store, cache, console, sourceID, destID)
	case "compare":
		return runCompare(ctx, store, cache, console, sourceID, destID, cli.Detailed)
	case "tree":
		return runTree(ctx, store, cache, console, sourceID, destID)
	default:
		return fmt.Errorf("unknown command: %s", cli.Command)
	}
}

func runSync(ctx context.Context, cfg *config.Config, cli *config.CLI,
	store domain.RemoteStore, cache *apicache.Cache, console *ui.ConsoleUI,
	sourceID, destID string) error {

	tracker := usecase.NewTracker(console)

	var confirmer usecase.Confirmer
	if !cli.NonInteractive {
		confirmer = console
	}

	engine := usecase.NewEngine(store, cache, tracker, confirmer, usecase.EngineConfig{
		SourceRootID:    sourceID,
		DestRootID:      destID,
		Workers:         cfg.Performance.Workers,
		BatchSize:       cfg.Migration.BatchSize,
		FinalValidation: cfg.FinalValidation(),
		AutoFixMissing:  cfg.Migration.AutoFixMissing,
	})

	result, err := engine.Run(ctx)
	console.Wait()
	console.PrintSummary(result.Stats)

	if err != nil {
		return err
	}
	if result.Cancelled {
		return nil
	}
	log.Info("Sync completed successfully")
	return nil
}

func runCompare(ctx context.Context, store domain.RemoteStore, cache *apicache.Cache,
	console *ui.ConsoleUI, sourceID, destID string, detailed bool) error {

	enum := usecase.NewEnumerator(store, cache, console)
	comparator := usecase.NewComparator(enum)

	report, err := comparator.Compare(ctx, sourceID, destID, detailed)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}
	console.PrintComparison(report)
	return nil
}

func runTree(ctx context.Context, store domain.RemoteStore, cache *apicache.Cache,
	console *ui.ConsoleUI, sourceID, destID string) error {

	enum := usecase.NewEnumerator(store, cache, console)

	for _, side := range []struct {
		label string
		id    string
	}{
		{"Source", sourceID},
		{"Destination", destID},
	} {
		root, err := store.GetMetadata(ctx, side.id)
		if err != nil {
			return fmt.Errorf("resolve %s root: %w", side.label, err)
		}
		snap, err := enum.Enumerate(ctx, side.id, side.label)
		if err != nil {
			return err
		}

		fmt.Printf("\n%s Folder Structure:\n", side.label)
		console.PrintTree(usecase.TreeLines(root.Name, snap))
	}
	return nil
}

func setupLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.Logging.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Logging.LogLevel, err)
	}
	log.SetLevel(level)

	path, err := cfg.LogFilePath(time.Now())
	if err != nil {
		return err
	}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}
	return nil
}
