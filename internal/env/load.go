// Package env loads configuration from the process environment, with an
// optional .env file for local development.
package env

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv reads a .env file if one exists. Missing files are fine; in
// deployed environments everything comes from real environment variables.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set directly.")
	}
}

// MustGetEnv returns the value of key or exits the process.
func MustGetEnv(key string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		log.Fatalf("Environment variable %s not set", key)
	}
	return val
}

// GetEnvDefault returns the value of key, or fallback when unset or empty.
func GetEnvDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
