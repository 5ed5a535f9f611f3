/**
 * @description
 * This package handles the configuration management for the service. It
 * uses the Viper library to read configuration from environment
 * variables, providing a centralized and straightforward way to manage
 * application settings for both the API and scheduler binaries.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the ledger service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort         string `mapstructure:"SERVER_PORT"`
	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	MigrationsPath     string `mapstructure:"MIGRATIONS_PATH"`
	RedisURL           string `mapstructure:"REDIS_URL"`
	RedisJobPrefix     string `mapstructure:"REDIS_JOB_PREFIX"`
	RabbitMQURL        string `mapstructure:"RABBITMQ_URL"`
	InternalAPIKey     string `mapstructure:"INTERNAL_API_KEY"`
	OverdueJobSchedule string `mapstructure:"OVERDUE_JOB_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("MIGRATIONS_PATH", "migrations")
	viper.SetDefault("REDIS_JOB_PREFIX", "coopledger:jobs")
	// Daily at 02:00; overdue state is date-level so the hour only
	// needs to land after midnight.
	viper.SetDefault("OVERDUE_JOB_SCHEDULE", "0 2 * * *")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("MIGRATIONS_PATH")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_JOB_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "LEDGER_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("OVERDUE_JOB_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("LEDGER_SERVICE_INTERNAL_API_KEY"))
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisJobPrefix = strings.TrimSpace(config.RedisJobPrefix)
	if config.RedisJobPrefix == "" {
		config.RedisJobPrefix = "coopledger:jobs"
	}
	if strings.TrimSpace(config.OverdueJobSchedule) == "" {
		config.OverdueJobSchedule = "0 2 * * *"
	}

	return
}
