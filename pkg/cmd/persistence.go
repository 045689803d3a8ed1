// Package cmd holds factories shared by the command line binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/procflow/pkg/persistence"
	"github.com/dukex/procflow/pkg/persistence/file"
	"github.com/dukex/procflow/pkg/persistence/postgresql"
	"github.com/dukex/procflow/pkg/persistence/redis"
)

// NewPersistence builds the persistence backend selected by the database URL scheme.
// URLs without a known scheme are treated as a file system path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger.With("persistence", "postgresql"), databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgresql persistence: %w", err)
		}

		return p, nil
	case "redis":
		p, err := redis.NewPersistence(ctx, logger.With("persistence", "redis"), databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis persistence: %w", err)
		}

		return p, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
