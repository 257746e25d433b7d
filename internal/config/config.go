package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Fetcher  FetcherConfig
	Import   ImportConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type FetcherConfig struct {
	TimeoutSeconds   int
	MaxRetries       int
	RateLimitSeconds int
	UserAgent        string
}

type ImportConfig struct {
	MaxImages      int
	MaxPDFSizeMB   int
	ApplyGSTMarkup bool
	DefaultStatus  string
	DebugDomain    string
	VerboseImages  bool
	VerbosePDFs    bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("PORT", 8086),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "product_import"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Fetcher: FetcherConfig{
			TimeoutSeconds:   getEnvInt("FETCHER_TIMEOUT", 30),
			MaxRetries:       getEnvInt("FETCHER_MAX_RETRIES", 3),
			RateLimitSeconds: getEnvInt("FETCHER_RATE_LIMIT", 2),
			UserAgent:        getEnv("FETCHER_USER_AGENT", ""),
		},
		Import: ImportConfig{
			MaxImages:      getEnvInt("IMPORT_MAX_IMAGES", 10),
			MaxPDFSizeMB:   getEnvInt("IMPORT_MAX_PDF_MB", 50),
			ApplyGSTMarkup: getEnvBool("IMPORT_APPLY_GST", true),
			DefaultStatus:  getEnv("IMPORT_DEFAULT_STATUS", "draft"),
			DebugDomain:    getEnv("IMPORT_DEBUG_DOMAIN", ""),
			VerboseImages:  getEnvBool("IMPORT_VERBOSE_IMAGES", false),
			VerbosePDFs:    getEnvBool("IMPORT_VERBOSE_PDFS", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}

	// Settings outside their working range clamp instead of failing: a bad
	// value in the environment should degrade the import, not stop it.
	if c.Import.MaxImages < 1 {
		c.Import.MaxImages = 1
	}
	if c.Import.MaxImages > 50 {
		c.Import.MaxImages = 50
	}
	if c.Import.MaxPDFSizeMB < 10 {
		c.Import.MaxPDFSizeMB = 10
	}
	if c.Import.MaxPDFSizeMB > 200 {
		c.Import.MaxPDFSizeMB = 200
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
