package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv reads a local .env file when present. Missing files are fine,
// deployed environments inject variables directly.
func LoadEnv() {
	_ = godotenv.Load()
}

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustGetEnv is for variables the server cannot start without.
func MustGetEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("%s not set in environment variables", key)
	}
	return v
}
