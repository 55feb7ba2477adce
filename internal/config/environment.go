package config

import (
	"os"

	"github.com/joho/godotenv"
)

// loadDotEnv loads .env into the process environment. Variables that are
// already set win, and a missing file is not an error.
func loadDotEnv() {
	files := []string{".env"}
	if f := GetEnv(EnvPrefix+"_ENV_FILE", ""); f != "" {
		files = []string{f}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

// GetEnv retrieves an environment variable or returns a default value if not found
func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
