package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
)

const migrationsDir = "sql/migrations"

//go:embed sql/migrations/*.sql
var migrationsFS embed.FS

// MigrateUp применяет up-миграции.
// steps=0 означает "применить все доступные".
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	provider, err := s.migrationProvider()
	if err != nil {
		return err
	}

	if steps <= 0 {
		if _, err := provider.Up(ctx); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		return nil
	}

	for i := 0; i < steps; i++ {
		if _, err := provider.UpByOne(ctx); err != nil {
			if errors.Is(err, goose.ErrNoNextVersion) {
				return nil
			}
			return fmt.Errorf("migrate up step %d: %w", i+1, err)
		}
	}
	return nil
}

// MigrateDown откатывает миграции.
// steps<=0 интерпретируется как 1 шаг для безопасного поведения.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	provider, err := s.migrationProvider()
	if err != nil {
		return err
	}
	if steps <= 0 {
		steps = 1
	}

	for i := 0; i < steps; i++ {
		res, err := provider.Down(ctx)
		if err != nil {
			if errors.Is(err, goose.ErrNoNextVersion) {
				return nil
			}
			return fmt.Errorf("migrate down step %d: %w", i+1, err)
		}
		if res == nil {
			return nil
		}
	}
	return nil
}

// MigrationStatus возвращает текущую версию и количество применённых миграций.
func (s *Store) MigrationStatus(ctx context.Context) (int64, int, error) {
	provider, err := s.migrationProvider()
	if err != nil {
		return 0, 0, err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("query migration status: %w", err)
	}
	count := 0
	for _, st := range statuses {
		if st.State == goose.StateApplied {
			count++
		}
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("query migration version: %w", err)
	}
	return version, count, nil
}

// migrationProvider собирает goose-провайдер поверх встроенных SQL-файлов.
// Параллельные запуски сериализуются advisory lock'ом PostgreSQL.
func (s *Store) migrationProvider() (*goose.Provider, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("postgres store is not initialized")
	}

	fsys, err := fs.Sub(migrationsFS, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return nil, fmt.Errorf("create migration lock: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, s.db, fsys, goose.WithSessionLocker(locker))
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return provider, nil
}
