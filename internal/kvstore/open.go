package kvstore

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ClosableStore is a Store holding resources that must be released on shutdown.
type ClosableStore interface {
	Store
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver      string
	SQLitePath  string
	DatabaseURL string
}

// Open returns the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (ClosableStore, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, "":
		return NewSQLite(opts.SQLitePath)
	case DriverPostgres:
		return NewPostgres(ctx, opts.DatabaseURL)
	}
	return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
}
