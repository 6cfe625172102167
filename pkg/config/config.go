package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DatabaseURL returns a postgres:// connection URL for migrations.
func (c DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret string
}

// KafkaConfig holds Kafka connection settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// Load initializes Viper for the given service, reading from the environment
// and an optional .env file.
func Load(service string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// .env is optional; environment variables always win.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !strings.Contains(err.Error(), "no such file") {
				return nil, fmt.Errorf("failed to read config for %s: %w", service, err)
			}
		}
	}

	return v, nil
}

// GetServicePort returns the configured listen address, defaulting to :8080.
func GetServicePort(v *viper.Viper, key string) string {
	port := v.GetString(key)
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

// GetAppEnv returns the application environment, defaulting to development.
func GetAppEnv(v *viper.Viper) string {
	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}
	return env
}

// LoadDatabaseConfig extracts database settings from Viper.
func LoadDatabaseConfig(v *viper.Viper, dbNameKey string) DatabaseConfig {
	cfg := DatabaseConfig{
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		User:     v.GetString("DB_USER"),
		Password: v.GetString("DB_PASSWORD"),
		DBName:   v.GetString(dbNameKey),
		SSLMode:  v.GetString("DB_SSLMODE"),
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	return cfg
}

// LoadJWTConfig extracts JWT settings from Viper.
func LoadJWTConfig(v *viper.Viper) JWTConfig {
	return JWTConfig{Secret: v.GetString("JWT_SECRET")}
}

// LoadKafkaConfig extracts Kafka settings from Viper.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	brokers := v.GetString("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "localhost:9092"
	}
	prefix := v.GetString("KAFKA_GROUP_PREFIX")
	return KafkaConfig{
		Brokers:     strings.Split(brokers, ","),
		GroupPrefix: prefix,
	}
}
