// Package backends opens a storage.Backend by name.
package backends

import (
	"context"
	"fmt"

	"github.com/FranksOps/seoscribe/internal/storage"
	"github.com/FranksOps/seoscribe/internal/storage/csvbackend"
	"github.com/FranksOps/seoscribe/internal/storage/jsonbackend"
	"github.com/FranksOps/seoscribe/internal/storage/postgres"
	"github.com/FranksOps/seoscribe/internal/storage/sqlite"
)

// Names of the supported backends. None disables the run log.
const (
	None     = "none"
	JSON     = "json"
	CSV      = "csv"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Open returns the backend called name using dsn as its file path or
// connection string. It returns a nil Backend for "" and None.
func Open(ctx context.Context, name, dsn string) (storage.Backend, error) {
	switch name {
	case "", None:
		return nil, nil
	case JSON:
		return jsonbackend.New(dsn)
	case CSV:
		return csvbackend.New(dsn)
	case SQLite:
		return sqlite.New(dsn)
	case Postgres:
		return postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, name)
	}
}
