package main

import (
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles reads DB_DSN and MIGRATIONS_DIR from the same files the API server uses.
func loadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// migrationsDir is where "create" writes new files. Applying migrations always
// uses the copies embedded in the binary.
func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return "db/migrations"
}
