package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Graph    GraphConfig    `yaml:"graph"`
	AWS      AWSConfig      `yaml:"aws"`
	APNS     APNSConfig     `yaml:"apns"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Feed     FeedConfig     `yaml:"feed"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// GraphConfig holds follow-graph database configuration
type GraphConfig struct {
	URI            string `yaml:"uri"`
	Database       string `yaml:"database"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	MaxConnections int    `yaml:"max_connections"`
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// APNSConfig holds Apple push notification configuration
type APNSConfig struct {
	CertPath   string `yaml:"cert_path"`
	CertPass   string `yaml:"cert_pass"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// FeedConfig holds discovery feed tuning knobs
type FeedConfig struct {
	PageSize        int `yaml:"page_size"`         // candidates per pipeline page
	SavedFetchLimit int `yaml:"saved_fetch_limit"` // most-recent saved facts fetched per page build
	LowWater        int `yaml:"low_water"`         // remaining cards that trigger replenishment

	SwipeThreshold    float64 `yaml:"swipe_threshold"`    // horizontal commit distance, px
	VerticalThreshold float64 `yaml:"vertical_threshold"` // upward reveal commit distance, px
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Feed.applyDefaults()

	return &cfg, nil
}

func (c *FeedConfig) applyDefaults() {
	if c.PageSize <= 0 {
		c.PageSize = 20
	}
	if c.SavedFetchLimit <= 0 {
		c.SavedFetchLimit = 200
	}
	if c.LowWater <= 0 {
		c.LowWater = 2
	}
	if c.SwipeThreshold <= 0 {
		c.SwipeThreshold = 100
	}
	if c.VerticalThreshold <= 0 {
		c.VerticalThreshold = 60
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
