package config // env-driven configuration for the pricing service

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. Required variables are enforced by must(); the rest
// fall back to defaults that suit a local development setup.
type Config struct {
	Env               string        // deployment environment name ("dev", "prod")
	Port              string        // port the HTTP listener binds to
	DBUser            string        // database username
	DBPass            string        // database password, may be empty
	DBHost            string        // database host address
	DBPort            string        // database port number
	DBName            string        // database name
	JWTSecret         string        // secret used to verify admin JWTs
	RatesURL          string        // currency rate service endpoint
	RatesTimeout      time.Duration // per-fetch timeout for the rate service
	ReferenceCurrency string        // currency fixed markup amounts are stored in
	RabbitURL         string        // AMQP broker URL; empty disables audit events
}

// Load reads configuration from environment variables. Missing required
// variables cause the process to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"), // empty allowed
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		JWTSecret:         must("JWT_SECRET"),
		RatesURL:          must("RATES_URL"),
		RatesTimeout:      getEnvDur("RATES_TIMEOUT", 3*time.Second),
		ReferenceCurrency: getEnv("REFERENCE_CURRENCY", "USD"),
		RabbitURL:         os.Getenv("RABBITMQ_URL"),
	}
}

// must retrieves the value of a required environment variable. An unset
// or empty variable is a fatal startup error.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("required env var %s is not set", key)
	}
	return v
}

// Env helpers shared by the Load*Config loaders. Malformed values fall back
// to the default rather than failing startup; only must() variables are hard
// requirements.

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func getEnvDur(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return d
}

func getEnvBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "":
		return def
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return def
}
