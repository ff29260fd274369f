package common

import (
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Storage  StorageConfig
	CNC      CNCConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string
}

// StorageConfig holds the filesystem roots the services work under.
type StorageConfig struct {
	CatalogRoot string // canonical per-template source directories
	JobsRoot    string // regenerated per-item output directories
}

// CNCConfig holds machine-facing configuration.
type CNCConfig struct {
	// ProgramsRoot is the path prefix written into worklist manifests.
	// A DB-backed settings override takes precedence at generation time.
	ProgramsRoot string
}

// DefaultCNCProgramsRoot is the fallback when neither the environment nor
// the settings table provides a value.
const DefaultCNCProgramsRoot = `M:\CNC\PROGRAMS`

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: getEnv("CABJOBS_DB", "cabjobs.db"),
		},
		Storage: StorageConfig{
			CatalogRoot: getEnv("CABJOBS_CATALOG_ROOT", "./catalog"),
			JobsRoot:    getEnv("CABJOBS_JOBS_ROOT", "./jobs"),
		},
		CNC: CNCConfig{
			ProgramsRoot: getEnv("CNC_PROGRAMS_ROOT", DefaultCNCProgramsRoot),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return NewAppError("CONFIG_ERROR", "CABJOBS_DB is required", ErrInvalidInput)
	}
	if c.Storage.CatalogRoot == "" {
		return NewAppError("CONFIG_ERROR", "CABJOBS_CATALOG_ROOT is required", ErrInvalidInput)
	}
	if c.Storage.JobsRoot == "" {
		return NewAppError("CONFIG_ERROR", "CABJOBS_JOBS_ROOT is required", ErrInvalidInput)
	}
	return nil
}
