// Package config loads service settings from defaults, an optional YAML file
// and TENDER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/ZanzyTHEbar/tender-integrity/internal/errors"
	"github.com/ZanzyTHEbar/tender-integrity/internal/fraud"
)

// EnvPrefix is prepended to every environment override, e.g. TENDER_JOBS_WORKERS
const EnvPrefix = "TENDER"

// Config is the full runtime configuration
type Config struct {
	Env        string           `mapstructure:"env"`
	Port       string           `mapstructure:"port"`
	DataDir    string           `mapstructure:"data_dir"`
	LogLevel   string           `mapstructure:"log_level"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	CORS       CORSConfig       `mapstructure:"cors"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Thresholds fraud.Thresholds `mapstructure:"thresholds"`
}

// DatabaseConfig controls the audit store. A zero Retention keeps every run.
type DatabaseConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Path      string        `mapstructure:"path"`
	Retention time.Duration `mapstructure:"retention"`
}

type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// JobsConfig mirrors the scheduler policy: bounded attempts, linear backoff, hard budget
type JobsConfig struct {
	Workers         int           `mapstructure:"workers"`
	QueueSize       int           `mapstructure:"queue_size"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	Backoff         time.Duration `mapstructure:"backoff"`
	Timeout         time.Duration `mapstructure:"timeout"`
	StartsPerSecond float64       `mapstructure:"starts_per_second"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// HTTPConfig bounds request cost and controls response encoding
type HTTPConfig struct {
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	EnableHSTS     bool          `mapstructure:"enable_hsts"`
	GzipMinSize    int           `mapstructure:"gzip_min_size"`
	GzipLevel      int           `mapstructure:"gzip_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("log_level", "info")

	v.SetDefault("database.enabled", true)
	v.SetDefault("database.path", "")
	v.SetDefault("database.retention", time.Duration(0))

	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("cache.cleanup_interval", 30*time.Minute)

	v.SetDefault("jobs.workers", 4)
	v.SetDefault("jobs.queue_size", 100)
	v.SetDefault("jobs.max_attempts", 3)
	v.SetDefault("jobs.backoff", 60*time.Second)
	v.SetDefault("jobs.timeout", 30*time.Minute)
	v.SetDefault("jobs.starts_per_second", 0.0)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("http.max_body_bytes", 8<<20)
	v.SetDefault("http.request_timeout", time.Minute)
	v.SetDefault("http.enable_hsts", false)
	v.SetDefault("http.gzip_min_size", 1024)
	v.SetDefault("http.gzip_level", -1)

	th := fraud.DefaultThresholds()
	v.SetDefault("thresholds.metadata_similarity", th.MetadataSimilarity)
	v.SetDefault("thresholds.metadata_high", th.MetadataHigh)
	v.SetDefault("thresholds.creation_window", th.CreationWindow)
	v.SetDefault("thresholds.price_deviation", th.PriceDeviation)
	v.SetDefault("thresholds.price_critical", th.PriceCritical)
	v.SetDefault("thresholds.round_price_deviation", th.RoundPriceDeviation)
	v.SetDefault("thresholds.round_price_risk_score", th.RoundPriceRiskScore)
	v.SetDefault("thresholds.content_similarity", th.ContentSimilarity)
	v.SetDefault("thresholds.content_critical", th.ContentCritical)
	v.SetDefault("thresholds.content_risk_scale", th.ContentRiskScale)
	v.SetDefault("thresholds.max_features", th.MaxFeatures)
	v.SetDefault("thresholds.max_phrases", th.MaxPhrases)
	v.SetDefault("thresholds.ip_similarity", th.IPSimilarity)
	v.SetDefault("thresholds.ip_high", th.IPHigh)
	v.SetDefault("thresholds.ip_risk_scale", th.IPRiskScale)
	v.SetDefault("thresholds.registration_window", th.RegistrationWindow)
	v.SetDefault("thresholds.registration_risk_score", th.RegistrationRiskScore)
	v.SetDefault("thresholds.submission_window", th.SubmissionWindow)
	v.SetDefault("thresholds.submission_risk_score", th.SubmissionRiskScore)
}

// Load reads configuration. An empty path searches ./config.yaml and
// /etc/tender-integrity; a missing file there is not an error, but a
// missing explicit path is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/tender-integrity")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, apperrors.NewConfigurationError("reading config file", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.NewConfigurationError("decoding config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	problems := map[string]string{}
	if c.Jobs.Workers < 1 {
		problems["jobs.workers"] = "must be at least 1"
	}
	if c.Jobs.MaxAttempts < 1 {
		problems["jobs.max_attempts"] = "must be at least 1"
	}
	if c.Jobs.Timeout <= 0 {
		problems["jobs.timeout"] = "must be positive"
	}
	if c.Jobs.Backoff < 0 {
		problems["jobs.backoff"] = "must not be negative"
	}
	if c.Database.Retention < 0 {
		problems["database.retention"] = "must not be negative"
	}
	if c.HTTP.MaxBodyBytes < 1 {
		problems["http.max_body_bytes"] = "must be positive"
	}
	if c.HTTP.RequestTimeout <= 0 {
		problems["http.request_timeout"] = "must be positive"
	}
	if c.Thresholds.MaxFeatures < 1 {
		problems["thresholds.max_features"] = "must be at least 1"
	}
	for key, val := range map[string]float64{
		"thresholds.metadata_similarity": c.Thresholds.MetadataSimilarity,
		"thresholds.content_similarity":  c.Thresholds.ContentSimilarity,
		"thresholds.ip_similarity":       c.Thresholds.IPSimilarity,
	} {
		if val <= 0 || val > 1 {
			problems[key] = "must be in (0, 1]"
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return apperrors.NewConfigurationError(fmt.Sprintf("%d invalid settings", len(problems)), apperrors.NewValidationErrorWithMap(problems))
}

// DatabasePath returns the SQLite file location
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return strings.TrimRight(c.DataDir, "/") + "/tender-integrity.db"
}
