package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/omslab/ordercore/internal/config"
	"github.com/omslab/ordercore/internal/storage/postgres"
)

const defaultTimeout = 30 * time.Second

// migrator: операции над схемой заказов, которые выполняет команда.
type migrator interface {
	MigrateUp(ctx context.Context, steps int) error
	MigrateDown(ctx context.Context, steps int) error
	MigrationStatus(ctx context.Context) (int64, int, error)
}

type options struct {
	configFile string
	direction  string
	steps      int
	dsn        string
}

func parseOptions(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "path to YAML config (same file as order-service)")
	fs.StringVar(&opts.direction, "direction", "up", "migration direction: up|down|status")
	fs.IntVar(&opts.steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	fs.StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN (overrides postgres.dsn / OMS_POSTGRES_DSN)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts.direction = strings.ToLower(strings.TrimSpace(opts.direction))
	switch opts.direction {
	case "up", "down", "status":
	default:
		return options{}, fmt.Errorf("unsupported direction: %s (use up|down|status)", opts.direction)
	}
	if opts.steps < 0 {
		return options{}, fmt.Errorf("steps must not be negative: %d", opts.steps)
	}
	return opts, nil
}

// resolveDSN берёт -dsn, иначе postgres.dsn из той же конфигурации, что и сервис.
func resolveDSN(opts options) (string, error) {
	if dsn := strings.TrimSpace(opts.dsn); dsn != "" {
		return dsn, nil
	}
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage.PostgresDSN == "" {
		return "", errors.New("postgres dsn is required: use -dsn, postgres.dsn or OMS_POSTGRES_DSN")
	}
	return cfg.Storage.PostgresDSN, nil
}

func applyMigrations(ctx context.Context, m migrator, opts options, logger *log.Entry) error {
	steps := opts.steps
	switch opts.direction {
	case "up":
		if err := m.MigrateUp(ctx, steps); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		if steps == 0 {
			steps = 1
		}
		if err := m.MigrateDown(ctx, steps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	}

	version, applied, err := m.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	logger.WithFields(log.Fields{
		"direction": opts.direction,
		"steps":     steps,
		"version":   version,
		"applied":   applied,
	}).Info("order schema migrations done")
	return nil
}

func run(args []string, logger *log.Entry) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	dsn, err := resolveDSN(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("open postgres store: %w", err)
	}
	defer store.Close()

	return applyMigrations(ctx, store, opts, logger)
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger := log.WithField("component", "migrate")

	if err := run(os.Args[1:], logger); err != nil {
		logger.WithError(err).Error("migration failed")
		os.Exit(1)
	}
}
