// Package cli provides the casa command tree and the initialization
// helpers its commands share.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/joho/godotenv"

	"casa/internal/config"
	"casa/internal/legacy"
	"casa/internal/log"
	"casa/internal/storage"
)

// SetupLogger builds the application logger from configuration and sets it
// as the default slog logger.
func SetupLogger(cfg *config.Config, out io.Writer) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitSQLite opens the ledger at dbPath, migrating it if needed.
func InitSQLite(logger *log.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeDatabase,
			"path", dbPath)
		return nil, err
	}
	return repo, nil
}

// ImportLegacy copies the legacy history at path into repo. A history that
// was already imported is reported through storage.ErrAlreadyImported.
func ImportLegacy(ctx context.Context, logger *log.Logger, repo *storage.SQLiteRepository, path string) (int, error) {
	logger = logger.WithComponent(log.ComponentLegacy)

	n, err := legacy.Import(ctx, path, repo)
	switch {
	case errors.Is(err, storage.ErrAlreadyImported):
		logger.InfoContext(ctx, "Legacy history already imported, skipping", "path", path)
		return 0, err
	case err != nil:
		logger.ErrorContext(ctx, "Legacy import failed",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpImport,
			"path", path)
		return 0, fmt.Errorf("import legacy history: %w", err)
	}
	logger.InfoContext(ctx, "Legacy history imported", "path", path, "records", n)
	return n, nil
}
