package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `yaml:"port"`
	Environment  string `yaml:"environment"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
	LogLevel     string `yaml:"log_level"`

	AllowedOrigins []string `yaml:"allowed_origins"`

	// Annotator service
	DBPath        string        `yaml:"db_path"`
	LabelsDir     string        `yaml:"labels_dir"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	HistoryLimit  int           `yaml:"history_limit"`
	EdgeThreshold float64       `yaml:"edge_threshold"`
	MinConfidence float64       `yaml:"min_confidence"`

	// Gateway
	AnnotatorURL string `yaml:"annotator_url"`
}

// Default listen ports of each service.
const (
	GatewayPort   = "3000"
	AnnotatorPort = "3001"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:          GatewayPort,
		Environment:   "development",
		ReadTimeout:   10,
		WriteTimeout:  10,
		LogLevel:      "info",
		DBPath:        "data/db/annotator.db",
		LabelsDir:     "data/labels",
		SessionTTL:    30 * time.Minute,
		HistoryLimit:  500,
		EdgeThreshold: 5,
		MinConfidence: 0.25,
		AnnotatorURL:  "http://localhost:" + AnnotatorPort,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables. defaultPort is the port
// of the calling service when neither the file nor PORT sets one; empty
// means GatewayPort.
func Load(defaultPort string) (*Config, error) {
	cfg := Default()
	if defaultPort != "" {
		cfg.Port = defaultPort
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	cfg.Validate()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Environment = getEnv("ENV", c.Environment)
	c.ReadTimeout = getEnvAsInt("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", c.WriteTimeout)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DBPath = getEnv("ANNOTATOR_DB_PATH", c.DBPath)
	c.LabelsDir = getEnv("LABELS_DIR", c.LabelsDir)
	c.SessionTTL = getEnvAsDuration("SESSION_TTL", c.SessionTTL)
	c.HistoryLimit = getEnvAsInt("HISTORY_LIMIT", c.HistoryLimit)
	c.EdgeThreshold = getEnvAsFloat("EDGE_THRESHOLD", c.EdgeThreshold)
	c.MinConfidence = getEnvAsFloat("MIN_CONFIDENCE", c.MinConfidence)
	c.AllowedOrigins = getEnvAsList("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.AnnotatorURL = getEnv("ANNOTATOR_URL", c.AnnotatorURL)
}

// Validate replaces out-of-range values with defaults. A SessionTTL of zero
// or less is kept: it disables session expiry.
func (c *Config) Validate() {
	d := Default()
	if c.Port == "" {
		c.Port = d.Port
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	if c.EdgeThreshold <= 0 {
		c.EdgeThreshold = d.EdgeThreshold
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		c.MinConfidence = d.MinConfidence
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}
