package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int `yaml:"port"`
		ShutdownSeconds int `yaml:"shutdownSeconds"`
	} `yaml:"server"`

	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		Production bool   `yaml:"production"`
	} `yaml:"log"`

	AI struct {
		Provider       string `yaml:"provider"` // openai | anthropic
		Model          string `yaml:"model"`
		APIKey         string `yaml:"apiKey"`
		Endpoint       string `yaml:"endpoint"`
		Retries        int    `yaml:"retries"`
		RetryBaseMS    int    `yaml:"retryBaseMs"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"ai"`

	Pipeline struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"pipeline"`

	Session struct {
		Driver     string `yaml:"driver"` // memory | redis
		RedisURL   string `yaml:"redisUrl"`
		TTLMinutes int    `yaml:"ttlMinutes"`
	} `yaml:"session"`

	Storage struct {
		Driver       string `yaml:"driver"` // local | minio
		TempDir      string `yaml:"tempDir"`
		MaxFetchSize int64  `yaml:"maxFetchBytes"`
		FileBaseURL  string `yaml:"fileBaseUrl"` // chat file endpoint refs are resolved against
	} `yaml:"storage"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
		// 0 = plain object URL (public bucket)
		PresignHours int `yaml:"presignHours"`
	} `yaml:"minio"`

	Render struct {
		Format string `yaml:"format"` // docx | markdown | html
	} `yaml:"render"`

	Cleanup struct {
		IntervalHours int `yaml:"intervalHours"`
		MaxAgeHours   int `yaml:"maxAgeHours"`
	} `yaml:"cleanup"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Auth struct {
		APIKeys []string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity     int `yaml:"capacity"`
		RefillPerMin int `yaml:"refillPerMinute"`
	} `yaml:"ratelimit"`
}

// PathFromEnv is CONFIG_PATH or config.yaml.
func PathFromEnv() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

// Load baca file config; file tidak ada = pakai default semua.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// secrets dari env menang atas file
func (c *Config) applyEnv() {
	switch strings.ToLower(c.AI.Provider) {
	case "anthropic":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			c.AI.APIKey = v
		}
	default:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.AI.APIKey = v
		}
	}
	if v := os.Getenv("API_KEY"); v != "" {
		c.Auth.APIKeys = append(c.Auth.APIKeys, v)
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Session.RedisURL = v
	}
	if v := os.Getenv("FILE_BASE_URL"); v != "" {
		c.Storage.FileBaseURL = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownSeconds == 0 {
		c.Server.ShutdownSeconds = 15
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
	if c.AI.Retries == 0 {
		c.AI.Retries = 1
	}
	if c.AI.RetryBaseMS == 0 {
		c.AI.RetryBaseMS = 500
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 60
	}
	if c.Pipeline.Concurrency == 0 {
		c.Pipeline.Concurrency = 4
	}
	if c.Session.Driver == "" {
		c.Session.Driver = "memory"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Storage.TempDir == "" {
		c.Storage.TempDir = "temp"
	}
	if c.Storage.MaxFetchSize == 0 {
		c.Storage.MaxFetchSize = 20 << 20
	}
	if c.Render.Format == "" {
		c.Render.Format = "docx"
	}
	if c.Cleanup.IntervalHours == 0 {
		c.Cleanup.IntervalHours = 6
	}
	if c.Cleanup.MaxAgeHours == 0 {
		c.Cleanup.MaxAgeHours = 24
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Port == 0 {
		if c.Database.Driver == "postgres" {
			c.Database.Port = 5432
		} else {
			c.Database.Port = 3306
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 60
	}
	if c.RateLimit.RefillPerMin == 0 {
		c.RateLimit.RefillPerMin = 60
	}
}

func (c *Config) Validate() error {
	var errs []error
	if !oneOf(c.AI.Provider, "openai", "anthropic") {
		errs = append(errs, fmt.Errorf("ai.provider %q not supported", c.AI.Provider))
	}
	if !oneOf(c.Session.Driver, "memory", "redis") {
		errs = append(errs, fmt.Errorf("session.driver %q not supported", c.Session.Driver))
	}
	if c.Session.Driver == "redis" && c.Session.RedisURL == "" {
		errs = append(errs, errors.New("session.redisUrl required for redis driver"))
	}
	if !oneOf(c.Storage.Driver, "local", "minio") {
		errs = append(errs, fmt.Errorf("storage.driver %q not supported", c.Storage.Driver))
	}
	if c.Storage.Driver == "minio" && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		errs = append(errs, errors.New("minio.endpoint and minio.bucketName required for minio driver"))
	}
	if !oneOf(c.Render.Format, "docx", "markdown", "html") {
		errs = append(errs, fmt.Errorf("render.format %q not supported", c.Render.Format))
	}
	if !oneOf(c.Database.Driver, "mysql", "postgres") {
		errs = append(errs, fmt.Errorf("database.driver %q not supported", c.Database.Driver))
	}
	if c.Pipeline.Concurrency < 0 {
		errs = append(errs, errors.New("pipeline.concurrency must be positive"))
	}
	return errors.Join(errs...)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// DatabaseEnabled is false when no host is configured; reports are then not persisted.
func (c *Config) DatabaseEnabled() bool { return c.Database.Host != "" }

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN untuk lib/pq
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Cleanup.IntervalHours) * time.Hour
}

func (c *Config) MaxAssetAge() time.Duration {
	return time.Duration(c.Cleanup.MaxAgeHours) * time.Hour
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

func (c *Config) RetryBase() time.Duration {
	return time.Duration(c.AI.RetryBaseMS) * time.Millisecond
}
