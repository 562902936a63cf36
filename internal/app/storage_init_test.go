package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/omslab/ordercore/internal/config"
	healthcheck "github.com/omslab/ordercore/internal/health"
)

func TestInitStorage_Memory(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	deps, err := initStorage(context.Background(), cfg, log.WithField("test", "memory-storage"))
	if err != nil {
		t.Fatalf("initStorage(memory) failed: %v", err)
	}
	if deps.repo == nil {
		t.Fatal("repo should not be nil for memory storage")
	}
	if deps.closeFn != nil {
		t.Fatal("memory storage has nothing to close")
	}
	if check := deps.storageChecker.Check(context.Background()); check.Status != healthcheck.StatusHealthy {
		t.Fatalf("memory storage must report healthy, got %+v", check)
	}
}

func TestInitStorage_PostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Storage.Driver = config.DriverPostgres
	if _, err := initStorage(context.Background(), cfg, log.WithField("test", "postgres-missing-dsn")); err == nil {
		t.Fatal("expected error when postgres driver is selected without DSN")
	}
}

func TestInitStorage_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Storage.Driver = "sqlite"
	if _, err := initStorage(context.Background(), cfg, log.WithField("test", "unsupported-driver")); err == nil {
		t.Fatal("expected error for unsupported storage driver")
	}
}
