package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// RequiredEnvVars must be present at startup; the process refuses to boot
// without them so a missing credential surfaces immediately instead of on the
// first provisioning request.
var RequiredEnvVars = []string{
	"DATABASE_URL",
	"JWT_SECRET",
	"GIT_TOKEN",
	"DEPLOY_TOKEN",
	"GIT_USERNAME",
}

// LoadEnv loads environment variables from .env file
func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
}

// GetEnv gets an environment variable or returns a default value if not present
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// ValidateEnv terminates the process when a required variable is missing.
func ValidateEnv() {
	var missing []string
	for _, name := range RequiredEnvVars {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		log.Fatalf("❌ Missing environment variables: %s", strings.Join(missing, ", "))
	}
}
