package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/dropspots/internal/adapters/postgres"
	"github.com/samirrijal/dropspots/internal/pkg/config"
	"github.com/samirrijal/dropspots/internal/pkg/logging"
)

const migrationsDir = "migrations"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|status>")
	}

	cfg, err := config.Load("dropspots-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	if _, err := db.Pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		log.Fatalf("create schema_migrations: %v", err)
	}

	switch os.Args[1] {
	case "up":
		err = up(ctx, db)
	case "down":
		err = down(ctx, db)
	case "status":
		err = status(ctx, db)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatal(err)
	}
}

// versions lists migration versions in order, e.g. "001_init_extensions".
func versions() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, strings.TrimSuffix(filepath.Base(f), ".up.sql"))
	}
	slices.Sort(out)
	return out, nil
}

func applied(ctx context.Context, db *postgres.DB) (map[string]bool, error) {
	rows, err := db.Pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied: %w", err)
	}
	done, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list applied: %w", err)
	}
	m := make(map[string]bool, len(done))
	for _, v := range done {
		m[v] = true
	}
	return m, nil
}

// up applies every pending migration, each in its own transaction.
func up(ctx context.Context, db *postgres.DB) error {
	all, err := versions()
	if err != nil {
		return err
	}
	done, err := applied(ctx, db)
	if err != nil {
		return err
	}

	n := 0
	for _, v := range all {
		if done[v] {
			continue
		}
		if err := run(ctx, db, v, ".up.sql", `INSERT INTO schema_migrations (version) VALUES ($1)`); err != nil {
			return err
		}
		slog.Info("applied", "version", v)
		n++
	}
	slog.Info("migrations up to date", "applied", n)
	return nil
}

// down reverts the most recent migration only.
func down(ctx context.Context, db *postgres.DB) error {
	all, err := versions()
	if err != nil {
		return err
	}
	done, err := applied(ctx, db)
	if err != nil {
		return err
	}

	for i := len(all) - 1; i >= 0; i-- {
		v := all[i]
		if !done[v] {
			continue
		}
		if err := run(ctx, db, v, ".down.sql", `DELETE FROM schema_migrations WHERE version = $1`); err != nil {
			return err
		}
		slog.Info("reverted", "version", v)
		return nil
	}
	slog.Info("nothing to revert")
	return nil
}

func status(ctx context.Context, db *postgres.DB) error {
	all, err := versions()
	if err != nil {
		return err
	}
	done, err := applied(ctx, db)
	if err != nil {
		return err
	}
	for _, v := range all {
		state := "pending"
		if done[v] {
			state = "applied"
		}
		fmt.Printf("%-8s %s\n", state, v)
	}
	return nil
}

func run(ctx context.Context, db *postgres.DB, version, suffix, record string) error {
	path := filepath.Join(migrationsDir, version+suffix)
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("exec %s: %w", path, err)
		}
		if _, err := tx.Exec(ctx, record, version); err != nil {
			return fmt.Errorf("record %s: %w", version, err)
		}
		return nil
	})
}
