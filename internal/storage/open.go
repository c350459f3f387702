package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type Options struct {
	Driver        string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
}

// Open returns the repository selected by opts.Driver. SQLite is the default.
func Open(ctx context.Context, opts Options) (Repository, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		if opts.SQLitePath == "" {
			return nil, fmt.Errorf("storage: sqlite path is required")
		}
		if dir := filepath.Dir(opts.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		return OpenSQLite(opts.SQLitePath)
	case DriverMongo:
		return OpenMongo(ctx, opts.MongoURI, opts.MongoDatabase)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}
