package main

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/usersvc/internal/events"
	"github.com/nkiryanov/usersvc/internal/logger"
	"github.com/nkiryanov/usersvc/internal/service/auth/tokenmanager"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = "production"
	defaultDBPort       = "5432"
	defaultPassword     = "123456"
)

// Database connection parts. Used only if DatabaseDSN is empty
type DBConfig struct {
	Host     string `env:"DB_HOST"`
	Port     string `env:"DB_PORT"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`
}

type Config struct {
	// Default logging level
	LogLevel string `env:"LOG_LEVEL"`

	// Address on which the service will be run
	ListenAddr string `env:"RUN_ADDRESS"`

	// Database to connect to
	DatabaseDSN string `env:"DATABASE_URI"`
	DB          DBConfig

	// Secret key to sign JWT tokens with
	SecretKey string `env:"SECRET_KEY"`

	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL"`

	// Password set on reset and for provisioned users
	ResetPassword string `env:"RESET_PASSWORD"`

	// Environment. 'dev' switches logs to text
	Environment string `env:"ENVIRONMENT"`

	// Events are not published if brokers are empty
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"`

	// OTLP/HTTP collector endpoint. Tracing is disabled if empty
	OTELEndpoint string `env:"OTEL_ENDPOINT"`
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		Environment:     defaultEnvironment,
		AccessTokenTTL:  tokenmanager.DefaultAccessTTL,
		RefreshTokenTTL: tokenmanager.DefaultRefreshTTL,
		ResetPassword:   defaultPassword,
		KafkaTopic:      events.DefaultTopic,
		DB:              DBConfig{Port: defaultDBPort},
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(envMap)
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

// Set options from environment. Empty variables do not override already set values
func (c *Config) LoadEnv(environment map[string]string) error {
	nonEmpty := make(map[string]string, len(environment))
	for key, value := range environment {
		if value != "" {
			nonEmpty[key] = value
		}
	}

	if err := env.ParseWithOptions(c, env.Options{Environment: nonEmpty}); err != nil {
		return fmt.Errorf("error while parsing environment: %w", err)
	}
	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("usersvc", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, production)")
	fs.DurationVar(&c.AccessTokenTTL, "access-ttl", c.AccessTokenTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTokenTTL, "refresh-ttl", c.RefreshTokenTTL, "Refresh token lifetime")
	fs.StringSliceVar(&c.KafkaBrokers, "kafka-brokers", c.KafkaBrokers, "Kafka brokers to publish user events to")
	fs.StringVar(&c.KafkaTopic, "kafka-topic", c.KafkaTopic, "Kafka topic for user events")

	return fs.Parse(args)
}

// DSN returns DatabaseDSN or assembles it from DB parts
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" || c.DB.Host == "" {
		return c.DatabaseDSN
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DB.User, c.DB.Password),
		Host:   net.JoinHostPort(c.DB.Host, c.DB.Port),
		Path:   "/" + c.DB.Name,
	}
	return dsn.String()
}

func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.DSN() == "" {
		errs = append(errs, errors.New("database dsn is required (DATABASE_URI or DB_HOST)"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.ResetPassword == "" {
		errs = append(errs, errors.New("reset password must not be empty"))
	}
	if len(c.KafkaBrokers) > 0 && strings.TrimSpace(c.KafkaTopic) == "" {
		errs = append(errs, errors.New("kafka topic is required if brokers set"))
	}

	return errors.Join(errs...)
}
