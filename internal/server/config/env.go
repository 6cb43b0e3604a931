package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/flagx"
	"github.com/dmitrijs2005/portfolio/internal/timex"
	"github.com/joho/godotenv"
)

// defaultEnvFile is read when no -env-file flag is given. Its absence is not an error.
const defaultEnvFile = ".env"

// loadDotenv is a seam for godotenv.Load.
var loadDotenv = godotenv.Load

// parseEnv loads the dotenv file into the process environment (variables
// already set win) and overlays recognised variables onto config.
//
// Recognised variables:
//
//	APP_ENV, LOG_LEVEL, HTTP_ADDR, GRPC_HEALTH_ADDR, REQUEST_TIMEOUT,
//	DATABASE_DSN, JWT_SECRET, JWT_EXPIRES_IN, JWT_REFRESH_EXPIRES_IN,
//	BCRYPT_COST, S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION,
//	S3_BASE_ENDPOINT, CORS_ALLOWED_ORIGINS (comma separated)
//
// Durations take Go syntax ("15m", "24h") or whole days ("7d").
//
// All malformed values are reported together.
func parseEnv(config *Config) error {
	envFile := flagx.EnvFileFlag()
	explicit := envFile != ""
	if !explicit {
		envFile = defaultEnvFile
	}

	if err := loadDotenv(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	var problems []string

	stringEnv("APP_ENV", &config.Environment)
	stringEnv("LOG_LEVEL", &config.LogLevel)
	stringEnv("HTTP_ADDR", &config.HTTPAddr)
	stringEnv("GRPC_HEALTH_ADDR", &config.GRPCHealthAddr)
	durationEnv("REQUEST_TIMEOUT", &config.RequestTimeout, &problems)
	stringEnv("DATABASE_DSN", &config.DatabaseDSN)
	stringEnv("JWT_SECRET", &config.SecretKey)
	durationEnv("JWT_EXPIRES_IN", &config.AccessTokenValidityDuration, &problems)
	durationEnv("JWT_REFRESH_EXPIRES_IN", &config.RefreshTokenValidityDuration, &problems)
	intEnv("BCRYPT_COST", &config.BcryptCost, &problems)
	stringEnv("S3_ROOT_USER", &config.S3RootUser)
	stringEnv("S3_ROOT_PASSWORD", &config.S3RootPassword)
	stringEnv("S3_BUCKET", &config.S3Bucket)
	stringEnv("S3_REGION", &config.S3Region)
	stringEnv("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)

	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		config.CORSAllowedOrigins = splitList(v)
	}

	if len(problems) > 0 {
		return fmt.Errorf("environment: %s", strings.Join(problems, "; "))
	}
	return nil
}

func stringEnv(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func intEnv(key string, dst *int, problems *[]string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid value for %s: expected integer, got %q", key, v))
		return
	}
	*dst = n
}

func durationEnv(key string, dst *time.Duration, problems *[]string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := timex.ParseDuration(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid value for %s: expected duration, got %q", key, v))
		return
	}
	*dst = d
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
