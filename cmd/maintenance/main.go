package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"guesthouse/internal/config"
	"guesthouse/internal/database"
	"guesthouse/internal/logging"
	"guesthouse/internal/report"
	"guesthouse/internal/service"

	"github.com/rs/zerolog"
)

const usage = `usage: maintenance [-config path] <command>

commands:
  purge    delete pending bookings older than booking.stale_pending_after
  export   write an xlsx export of bookings and payments to exports.path
  backup   copy the database to backup.storage_path and drop expired copies
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("maintenance", flag.ContinueOnError)
	configPath := fs.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to config.yaml")
	timeout := fs.Duration("timeout", 2*time.Minute, "command timeout")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one command")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	logger := baseLogger.With().Str("component", "maintenance").Logger()

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch cmd := fs.Arg(0); cmd {
	case "purge":
		return purge(ctx, cfg, db, &logger)
	case "export":
		return export(ctx, cfg, db, &logger)
	case "backup":
		return backup(ctx, cfg, db, &logger)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func purge(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) error {
	svc := service.NewBookingService(db, nil, nil, cfg.Booking, logger)
	n, err := svc.PurgeStalePending(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("purged: %d\n", n)
	return nil
}

func export(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) error {
	path, err := report.NewExcelExporter(db, cfg.Exports.Path, logger).Export(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("exported: %s\n", path)
	return nil
}

func backup(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) error {
	svc := database.NewBackupService(db, cfg.Backup, logger)
	path, err := svc.PerformBackup(ctx)
	if err != nil {
		return err
	}
	svc.CleanupOldBackups()
	fmt.Printf("backup: %s\n", path)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
