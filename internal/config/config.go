// Package config loads vaultcli's configuration from the environment:
// environment variables are the source of truth, a nearby .env file is an
// optional convenience for local runs, and every value has a sane default.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting vaultcli needs. There is no
// HTTP server, worker queue, or cloud KMS surface here: the vault is a
// single local file opened by a single local process.
type Config struct {
	// DBPath is the SQLite database file location.
	DBPath string

	// IdleTimeout is how long the session may sit idle before auto-lock.
	IdleTimeout time.Duration

	// LogLevel is the slog level name ("debug"|"info"|"warn"|"error").
	LogLevel string

	// KDFMemoryKiB, KDFIterations, KDFParallelism override the Argon2id cost
	// parameters used for newly initialized vaults. Production defaults are
	// cryptoDomain.DefaultKdfParams; tests lower these via env vars to keep
	// the suite fast.
	KDFMemoryKiB   uint32
	KDFIterations  uint32
	KDFParallelism uint8
}

// Load reads configuration from the environment, first loading a .env file
// found by walking upward from the working directory.
func Load() *Config {
	loadDotEnv()

	return &Config{
		DBPath:         env.GetString("VAULTCLI_DB_PATH", defaultDBPath()),
		IdleTimeout:    env.GetDuration("VAULTCLI_IDLE_TIMEOUT", 300, time.Second),
		LogLevel:       env.GetString("VAULTCLI_LOG_LEVEL", "info"),
		KDFMemoryKiB:   uint32(env.GetInt("VAULTCLI_KDF_MEMORY_KIB", 19*1024)),
		KDFIterations:  uint32(env.GetInt("VAULTCLI_KDF_ITERATIONS", 2)),
		KDFParallelism: uint8(env.GetInt("VAULTCLI_KDF_PARALLELISM", 1)),
	}
}

// defaultDBPath resolves the per-OS application-data directory for vault.db,
// falling back to the current directory if the OS data dir can't be
// determined.
func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "vault.db"
	}
	return filepath.Join(dir, "vault-cli", "vault.db")
}

// loadDotEnv walks upward from the working directory looking for a .env
// file, stopping at the first one found or at the filesystem root.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	for {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
