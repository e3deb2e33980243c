// internal/cli/config.go
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the mtactl configuration file.
type Config struct {
	Mongo        MongoConfig  `yaml:"mongo"`
	SMTP         SMTPConfig   `yaml:"smtp"`
	Outbox       OutboxConfig `yaml:"outbox"`
	PaymentEmail string       `yaml:"paymentEmail" validate:"omitempty,email"`
	Log          LogConfig    `yaml:"log"`
}

type MongoConfig struct {
	URI      string `yaml:"uri" validate:"omitempty,uri"`
	Database string `yaml:"database" validate:"required_with=URI"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	TLS      string `yaml:"tls" validate:"omitempty,oneof=mandatory opportunistic ssl none"`
	From     string `yaml:"from" validate:"required_with=Host,omitempty,email"`
	FromName string `yaml:"fromName"`
}

type OutboxConfig struct {
	MaxAttempts int `yaml:"maxAttempts" validate:"omitempty,min=1,max=50"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	File  string `yaml:"file"` // JSON log file; empty logs to the console only
}

var validate = validator.New()

// defaultConfig is used when no config file exists.
func defaultConfig() Config {
	return Config{
		Mongo:  MongoConfig{URI: "mongodb://localhost:27017", Database: "mtahub"},
		SMTP:   SMTPConfig{Port: 587, TLS: "mandatory"},
		Outbox: OutboxConfig{MaxAttempts: 5},
		Log:    LogConfig{Level: "info"},
	}
}

// LoadConfig reads path over the defaults, applies MTAHUB_* environment
// overrides and validates the result. A missing file is only an error when
// required is set (the user named it with --config).
func LoadConfig(path string, required bool) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// applyEnv overlays MTAHUB_* variables, using the same names as the server.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MTAHUB_MONGO_URI":      &cfg.Mongo.URI,
		"MTAHUB_MONGO_DATABASE": &cfg.Mongo.Database,
		"MTAHUB_SMTP_HOST":      &cfg.SMTP.Host,
		"MTAHUB_SMTP_USER":      &cfg.SMTP.Username,
		"MTAHUB_SMTP_PASS":      &cfg.SMTP.Password,
		"MTAHUB_SMTP_TLS":       &cfg.SMTP.TLS,
		"MTAHUB_MAIL_FROM":      &cfg.SMTP.From,
		"MTAHUB_MAIL_FROM_NAME": &cfg.SMTP.FromName,
		"MTAHUB_PAYMENT_EMAIL":  &cfg.PaymentEmail,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MTAHUB_SMTP_PORT":           &cfg.SMTP.Port,
		"MTAHUB_OUTBOX_MAX_ATTEMPTS": &cfg.Outbox.MaxAttempts,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	return nil
}
