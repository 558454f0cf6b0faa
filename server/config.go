package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the development server settings, read from the
// environment with an optional .env file.
type Config struct {
	Addr         string
	DatabasePath string
	JWTSecret    string
}

func loadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return Config{
		Addr:         getEnv("PHILOTERM_ADDR", ":8000"),
		DatabasePath: getEnv("PHILOTERM_DB", "philoterm.db"),
		// Dev server only; override for anything shared.
		JWTSecret: getEnv("PHILOTERM_JWT_SECRET", "philoterm-dev-secret"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
