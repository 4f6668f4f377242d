package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	// Environment selects which database profile is resolved at startup
	Environment string `mapstructure:"environment"`

	// Logging
	LogLevel          string `mapstructure:"log_level" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	LogFormat         string `mapstructure:"log_format" validate:"oneof=json text"`
	LogFile           string `mapstructure:"log_file"`
	LogFileMaxSizeMB  int    `mapstructure:"log_file_max_size_mb" validate:"min=1"`
	LogFileMaxBackups int    `mapstructure:"log_file_max_backups" validate:"min=0"`

	// Service
	ServicePort     int           `mapstructure:"service_port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

var settings = map[string][]string{
	"environment":          {"APP_ENV", "NODE_ENV"},
	"log_level":            {"LOG_LEVEL"},
	"log_format":           {"LOG_FORMAT"},
	"log_file":             {"LOG_FILE"},
	"log_file_max_size_mb": {"LOG_FILE_MAX_SIZE_MB"},
	"log_file_max_backups": {"LOG_FILE_MAX_BACKUPS"},
	"service_port":         {"SERVICE_PORT"},
	"shutdown_timeout":     {"SHUTDOWN_TIMEOUT"},
}

// Load reads the process settings. Any envFiles that exist are loaded first;
// they never override variables already present in the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_file", "")
	v.SetDefault("log_file_max_size_mb", 100)
	v.SetDefault("log_file_max_backups", 3)
	v.SetDefault("service_port", 8080)
	v.SetDefault("shutdown_timeout", 10*time.Second)

	for key, envs := range settings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFiles(files []string) error {
	for _, file := range files {
		if file == "" {
			continue
		}
		if _, err := os.Stat(file); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}
	return nil
}

func NewLogger(cfg *Config) (*zap.Logger, error) {
	var level zapcore.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = zapcore.DebugLevel
	case "INFO":
		level = zapcore.InfoLevel
	case "WARN":
		level = zapcore.WarnLevel
	case "ERROR":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	if cfg.LogFormat == "text" {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var opts []zap.Option
	if cfg.LogFile != "" {
		// The file always gets JSON regardless of the console format.
		fileEncoder := zap.NewProductionEncoderConfig()
		fileEncoder.TimeKey = "timestamp"
		fileEncoder.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoder),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    cfg.LogFileMaxSizeMB,
				MaxBackups: cfg.LogFileMaxBackups,
			}),
			config.Level,
		)
		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	return config.Build(opts...)
}
