package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Model struct {
		ArtifactPath string `yaml:"artifact_path"`
		Version      string `yaml:"version"`
	} `yaml:"model"`
	Retention RetentionConfig `yaml:"retention"`
	Alerts struct {
		Enabled          bool   `yaml:"enabled"`
		TelegramBotToken string `yaml:"telegram_bot_token"`
		ChatID           int64  `yaml:"chat_id"`
	} `yaml:"alerts"`
	Export struct {
		Enabled   bool   `yaml:"enabled"`
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"export"`
}

// RetentionConfig sets the default ages, in days, after which scans
// are deleted or anonymized.
type RetentionConfig struct {
	DeleteDays    int `yaml:"delete_days"`
	AnonymizeDays int `yaml:"anonymize_days"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if config.Model.Version == "" {
		config.Model.Version = "v1.0.0"
	}
	if config.Retention.DeleteDays == 0 {
		config.Retention.DeleteDays = 90
	}
	if config.Retention.AnonymizeDays == 0 {
		config.Retention.AnonymizeDays = 180
	}

	return config, nil
}
