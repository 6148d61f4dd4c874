package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
)

const DefaultDir = "pkg/migrate/migrations"

// Dialect maps SHOPFRONT_DB_DRIVER onto a goose dialect name.
func Dialect(driver string) (string, error) {
	switch driver {
	case "", config.DriverPostgres:
		return string(goose.DialectPostgres), nil
	case config.DriverSQLite:
		return string(goose.DialectSQLite3), nil
	default:
		return "", fmt.Errorf("unsupported db driver %q", driver)
	}
}

// provider binds a goose Provider to dir. The caller keeps ownership of db;
// the provider is never closed because that would close db too.
func provider(db *sql.DB, driver, dir string) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if dir == "" {
		return nil, errors.New("dir is required")
	}
	dialect, err := Dialect(driver)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.Dialect(dialect), db, os.DirFS(dir))
}

// Run executes up, down or status. Applied migrations and the status table
// are written to stdout.
func Run(ctx context.Context, db *sql.DB, driver, dir, command string) error {
	p, err := provider(db, driver, dir)
	if err != nil {
		return err
	}
	return runOn(ctx, p, command, os.Stdout)
}

func runOn(ctx context.Context, p *goose.Provider, command string, out io.Writer) error {
	switch command {
	case "up":
		results, err := p.Up(ctx)
		report(out, results...)
		return wrap("up", err)
	case "down":
		result, err := p.Down(ctx)
		if result != nil {
			report(out, result)
		}
		return wrap("down", err)
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return wrap("status", err)
		}
		for _, s := range statuses {
			applied := "pending"
			if s.State == goose.StateApplied {
				applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(out, "%-20s %s\n", applied, s.Source.Path)
		}
		return nil
	default:
		return fmt.Errorf("unknown goose command %q", command)
	}
}

// MigrateToVersion moves the schema up or down to targetVersion
// (YYYYMMDDHHMMSS).
func MigrateToVersion(ctx context.Context, db *sql.DB, driver, dir, targetVersion string) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", targetVersion, err)
	}
	p, err := provider(db, driver, dir)
	if err != nil {
		return err
	}
	current, err := p.GetDBVersion(ctx)
	if err != nil {
		return wrap("version", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current < target:
		results, err = p.UpTo(ctx, target)
	case current > target:
		results, err = p.DownTo(ctx, target)
	}
	report(os.Stdout, results...)
	return wrap(fmt.Sprintf("migrate to %d", target), err)
}

func report(out io.Writer, results ...*goose.MigrationResult) {
	for _, r := range results {
		fmt.Fprintf(out, "%-4s %s (%s)\n", r.Direction, r.Source.Path, r.Duration.Round(1e6))
	}
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("goose %s: %w", op, err)
}
