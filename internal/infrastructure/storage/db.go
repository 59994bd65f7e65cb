package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cocursor/backend/internal/infrastructure/config"
	_ "modernc.org/sqlite"
)

// GetDBPath returns the path to the daemon's sqlite database.
func GetDBPath() (string, error) {
	dir := config.GetDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(dir, "cocursor.db"), nil
}

// OpenDB opens the daemon's sqlite connection.
func OpenDB() (*sql.DB, error) {
	dbPath, err := GetDBPath()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ProvideDB is the wire provider for the shared database connection.
func ProvideDB() (*sql.DB, error) {
	return OpenDB()
}
