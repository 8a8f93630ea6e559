// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/config"
)

// Wire initializes all dependencies and returns a fully configured
// container. Order of operations:
// 1. Open databases and apply schemas
// 2. Create repositories
// 3. Create services
// 4. Create job instances
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	InitializeRepositories(container, log)
	InitializeServices(container, cfg, log)
	InitializeJobs(container, cfg, log)

	log.Info().Msg("Dependency injection wiring completed")

	return container, nil
}
