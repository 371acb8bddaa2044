// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		Host     string `mapstructure:"host" yaml:"host"`
		Port     int    `mapstructure:"port" yaml:"port"`
		Name     string `mapstructure:"name" yaml:"name"`
		User     string `mapstructure:"user" yaml:"user"`
		Password string `mapstructure:"password" yaml:"-"` // Never serialize the password
		SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
		MaxConns int    `mapstructure:"max_conns" yaml:"max_conns"`
	} `mapstructure:"database" yaml:"database"`

	Matching struct {
		DateWindowDays  int     `mapstructure:"date_window_days" yaml:"date_window_days"`
		AmountTolerance string  `mapstructure:"amount_tolerance" yaml:"amount_tolerance"`
		MinConfidence   float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
		AllowSplit      bool    `mapstructure:"allow_split" yaml:"allow_split"`
		MaxSplitParts   int     `mapstructure:"max_split_parts" yaml:"max_split_parts"`
		NameDrift       float64 `mapstructure:"name_drift" yaml:"name_drift"`
	} `mapstructure:"matching" yaml:"matching"`

	Categorization struct {
		AutoLearn           bool    `mapstructure:"auto_learn" yaml:"auto_learn"`
		ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
		CaseSensitive       bool    `mapstructure:"case_sensitive" yaml:"case_sensitive"`
	} `mapstructure:"categorization" yaml:"categorization"`

	Statement struct {
		DefaultAccount string `mapstructure:"default_account" yaml:"default_account"`
		DateFormat     string `mapstructure:"date_format" yaml:"date_format"`
	} `mapstructure:"statement" yaml:"statement"`

	LMS struct {
		DSN string `mapstructure:"dsn" yaml:"-"` // Connection strings carry credentials
	} `mapstructure:"lms" yaml:"lms"`

	// Company is the letterhead block printed on invoices and confirmations.
	Company struct {
		Name      string `mapstructure:"name" yaml:"name"`
		Address   string `mapstructure:"address" yaml:"address"`
		Phone     string `mapstructure:"phone" yaml:"phone"`
		Email     string `mapstructure:"email" yaml:"email"`
		GSTNumber string `mapstructure:"gst_number" yaml:"gst_number"`
	} `mapstructure:"company" yaml:"company"`

	Data struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
	} `mapstructure:"data" yaml:"data"`
}

// Load initializes Viper configuration with hierarchical loading:
// defaults, then an optional config.yaml, then environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.charterbooks")
	v.AddConfigPath(".charterbooks")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("CHARTERBOOKS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. Bind the legacy script variables alongside the prefixed forms.
	// Every one-off script read DB_* directly, so both spellings work.
	legacyBindings := map[string][]string{
		"database.host":     {"CHARTERBOOKS_DATABASE_HOST", "DB_HOST"},
		"database.port":     {"CHARTERBOOKS_DATABASE_PORT", "DB_PORT"},
		"database.name":     {"CHARTERBOOKS_DATABASE_NAME", "DB_NAME"},
		"database.user":     {"CHARTERBOOKS_DATABASE_USER", "DB_USER"},
		"database.password": {"CHARTERBOOKS_DATABASE_PASSWORD", "DB_PASSWORD"},
		"database.sslmode":  {"CHARTERBOOKS_DATABASE_SSLMODE", "DB_SSLMODE"},
		"lms.dsn":           {"CHARTERBOOKS_LMS_DSN", "LMS_ODBC_DSN"},
		"log.level":         {"CHARTERBOOKS_LOG_LEVEL", "LOG_LEVEL"},
		"log.format":        {"CHARTERBOOKS_LOG_FORMAT", "LOG_FORMAT"},
	}
	for key, envVars := range legacyBindings {
		input := append([]string{key}, envVars...)
		if err := v.BindEnv(input...); err != nil {
			fmt.Printf("Warning: failed to bind %s environment variables: %v\n", key, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Database defaults match the office Postgres the scripts assumed
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "charterbooks")
	v.SetDefault("database.user", "charterbooks")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)

	// Matching defaults
	v.SetDefault("matching.date_window_days", 5)
	v.SetDefault("matching.amount_tolerance", "0")
	v.SetDefault("matching.min_confidence", 0.70)
	v.SetDefault("matching.allow_split", false)
	v.SetDefault("matching.max_split_parts", 3)
	v.SetDefault("matching.name_drift", 0.85)

	// Categorization defaults
	v.SetDefault("categorization.auto_learn", true)
	v.SetDefault("categorization.confidence_threshold", 0.8)
	v.SetDefault("categorization.case_sensitive", false)

	// Statement defaults
	v.SetDefault("statement.default_account", "")
	v.SetDefault("statement.date_format", "01/02/2006")

	// LMS defaults
	v.SetDefault("lms.dsn", "")

	// Company defaults stay blank; the letterhead belongs in config.yaml
	v.SetDefault("company.name", "")
	v.SetDefault("company.address", "")
	v.SetDefault("company.phone", "")
	v.SetDefault("company.email", "")
	v.SetDefault("company.gst_number", "")

	// Data defaults
	v.SetDefault("data.directory", "")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Database.Port < 1 || config.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535, got: %d", config.Database.Port)
	}

	if config.Database.MaxConns < 1 {
		return fmt.Errorf("database.max_conns must be at least 1, got: %d", config.Database.MaxConns)
	}

	if config.Matching.DateWindowDays < 0 {
		return fmt.Errorf("matching.date_window_days must not be negative, got: %d", config.Matching.DateWindowDays)
	}

	if config.Matching.MinConfidence < 0.0 || config.Matching.MinConfidence > 1.0 {
		return fmt.Errorf("matching.min_confidence must be between 0.0 and 1.0, got: %f", config.Matching.MinConfidence)
	}

	if config.Matching.MaxSplitParts < 2 {
		return fmt.Errorf("matching.max_split_parts must be at least 2, got: %d", config.Matching.MaxSplitParts)
	}

	if config.Matching.NameDrift < 0.0 || config.Matching.NameDrift > 1.0 {
		return fmt.Errorf("matching.name_drift must be between 0.0 and 1.0, got: %f", config.Matching.NameDrift)
	}

	if config.Categorization.ConfidenceThreshold < 0.0 || config.Categorization.ConfidenceThreshold > 1.0 {
		return fmt.Errorf("categorization.confidence_threshold must be between 0.0 and 1.0, got: %f", config.Categorization.ConfidenceThreshold)
	}

	return nil
}

// DatabaseURL assembles a pgx keyword/value DSN from the database section.
// The keyword form sidesteps URL escaping of passwords.
func (c *Config) DatabaseURL() string {
	parts := []string{
		"host=" + c.Database.Host,
		fmt.Sprintf("port=%d", c.Database.Port),
		"dbname=" + c.Database.Name,
		"user=" + c.Database.User,
	}
	if c.Database.Password != "" {
		parts = append(parts, "password="+c.Database.Password)
	}
	parts = append(parts,
		"sslmode="+c.Database.SSLMode,
		fmt.Sprintf("pool_max_conns=%d", c.Database.MaxConns),
	)
	return strings.Join(parts, " ")
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
