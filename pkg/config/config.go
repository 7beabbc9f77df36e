package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Environment   string
	DatabasePath  string
	JWTSecret     string
	CORSOrigins   string
	MaxBodySize   int64
	TokenTTLHours int
}

// Load reads configuration from the environment. An optional env file
// (CAMPUSCHAT_ENV_FILE, falling back to ./.env) supplies values for
// variables that are not already set; real environment variables always win.
func Load() *Config {
	loadEnvFile()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		DatabasePath:  getEnv("DATABASE_PATH", "./data/campus.db"),
		JWTSecret:     getEnv("JWT_SECRET", "tu-clave-super-secreta-cambiar-en-produccion"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
		MaxBodySize:   parseInt64(getEnv("MAX_BODY_SIZE", "16777216")), // 16MB, matches the old API limit
		TokenTTLHours: parseInt(getEnv("TOKEN_TTL_HOURS", "24")),
	}
}

func loadEnvFile() {
	if path, ok := os.LookupEnv("CAMPUSCHAT_ENV_FILE"); ok && path != "" {
		godotenv.Load(path)
		return
	}
	godotenv.Load()
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseInt64(s string) int64 {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 16777216
	}
	return val
}

func parseInt(s string) int {
	val, err := strconv.Atoi(s)
	if err != nil {
		return 24
	}
	return val
}
