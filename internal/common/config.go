package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Extraction ExtractionConfig
	Mapping    MappingConfig
	Ingest     IngestConfig
	Queue      QueueConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver          string // "sqlite" or "postgres"
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
}

// ExtractionConfig holds PDF text extraction configuration
type ExtractionConfig struct {
	Strategy      string // "embedded", "pdftotext", or "auto"
	PdftotextPath string
	Timeout       time.Duration
}

// MappingConfig holds mapping and template store configuration
type MappingConfig struct {
	MappingsDir  string
	TemplatesDir string
}

// IngestConfig holds drop-directory ingestion configuration
type IngestConfig struct {
	WatchDir      string // empty disables the watcher
	WatchDebounce time.Duration
	InitialScan   bool
}

// QueueConfig holds background processing configuration
type QueueConfig struct {
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			DSN:             getEnv("DB_URL", "payroll.db"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			PingTimeout:     getEnvAsDuration("DB_PING_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:    getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			MaxUploadBytes: int64(getEnvAsInt("HTTP_MAX_UPLOAD_BYTES", 32<<20)),
		},
		Extraction: ExtractionConfig{
			Strategy:      getEnv("EXTRACT_STRATEGY", "auto"),
			PdftotextPath: getEnv("PDFTOTEXT_PATH", "pdftotext"),
			Timeout:       getEnvAsDuration("EXTRACT_TIMEOUT", 60*time.Second),
		},
		Mapping: MappingConfig{
			MappingsDir:  getEnv("MAPPINGS_DIR", "mappings"),
			TemplatesDir: getEnv("TEMPLATES_DIR", "templates"),
		},
		Ingest: IngestConfig{
			WatchDir:      getEnv("WATCH_DIR", ""),
			WatchDebounce: getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
			InitialScan:   getEnvAsBool("WATCH_INITIAL_SCAN", true),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", 4),
			QueueSize:      getEnvAsInt("QUEUE_SIZE", 64),
			ProcessTimeout: getEnvAsDuration("QUEUE_PROCESS_TIMEOUT", 2*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be sqlite or postgres", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	switch c.Extraction.Strategy {
	case "embedded", "pdftotext", "auto":
	default:
		return NewAppError("CONFIG_ERROR", "EXTRACT_STRATEGY must be embedded, pdftotext, or auto", ErrInvalidInput)
	}
	return nil
}
