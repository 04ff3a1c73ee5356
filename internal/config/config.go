package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	// Upload and dataset limits
	MaxUploadMB int `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	MaxRows     int `mapstructure:"max_rows" yaml:"max_rows"`
	PreviewRows int `mapstructure:"preview_rows" yaml:"preview_rows"`
	// Session lifecycle
	SessionTTLMin    int `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`
	SweepIntervalSec int `mapstructure:"sweep_interval_sec" yaml:"sweep_interval_sec"`
	// Analysis defaults
	HistogramBins int     `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	OutlierIQRK   float64 `mapstructure:"outlier_iqr_k" yaml:"outlier_iqr_k"`
	CSVBOM        bool    `mapstructure:"csv_bom" yaml:"csv_bom"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// HTTP server
	ReadTimeoutSec     int     `mapstructure:"read_timeout_sec" yaml:"read_timeout_sec"`
	WriteTimeoutSec    int     `mapstructure:"write_timeout_sec" yaml:"write_timeout_sec"`
	ShutdownTimeoutSec int     `mapstructure:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec"`
	RateLimitRPS       float64 `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
}

// Keys lists every configuration key in display order.
var Keys = []string{
	"listen_addr", "max_upload_mb", "max_rows", "preview_rows",
	"session_ttl_min", "sweep_interval_sec", "histogram_bins", "outlier_iqr_k",
	"csv_bom", "log_level", "log_format", "read_timeout_sec", "write_timeout_sec",
	"shutdown_timeout_sec", "rate_limit_rps", "rate_limit_burst",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("max_upload_mb", 50)
	v.SetDefault("max_rows", 0)
	v.SetDefault("preview_rows", 5)
	v.SetDefault("session_ttl_min", 60)
	v.SetDefault("sweep_interval_sec", 60)
	v.SetDefault("histogram_bins", 0)
	v.SetDefault("outlier_iqr_k", 1.5)
	v.SetDefault("csv_bom", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	// HTTP defaults
	v.SetDefault("read_timeout_sec", 30)
	v.SetDefault("write_timeout_sec", 60)
	v.SetDefault("shutdown_timeout_sec", 10)
	v.SetDefault("rate_limit_rps", 20.0)
	v.SetDefault("rate_limit_burst", 40)
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// DefaultPath is ~/.dqboard/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".dqboard", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.dqboard/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DQBOARD")
	v.AutomaticEnv()
	setDefaults(v)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".dqboard"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// a missing file means defaults; a broken one is an error
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values the server cannot run with.
func (c *Global) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("listen_addr must not be empty")
	case c.MaxUploadMB <= 0:
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB)
	case c.MaxRows < 0:
		return fmt.Errorf("max_rows must not be negative, got %d", c.MaxRows)
	case c.SessionTTLMin <= 0:
		return fmt.Errorf("session_ttl_min must be positive, got %d", c.SessionTTLMin)
	case c.SweepIntervalSec <= 0:
		return fmt.Errorf("sweep_interval_sec must be positive, got %d", c.SweepIntervalSec)
	case c.OutlierIQRK <= 0:
		return fmt.Errorf("outlier_iqr_k must be positive, got %v", c.OutlierIQRK)
	case c.HistogramBins < 0:
		return fmt.Errorf("histogram_bins must not be negative, got %d", c.HistogramBins)
	}
	return nil
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c *Global) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// SessionTTL is the idle time after which a session is evicted.
func (c *Global) SessionTTL() time.Duration { return time.Duration(c.SessionTTLMin) * time.Minute }

// SweepInterval is how often idle sessions are evicted.
func (c *Global) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSec) * time.Second
}

// Set assigns one key from its string form and validates the result.
func (c *Global) Set(key, val string) error {
	next := *c
	var err error
	switch key {
	case "listen_addr":
		next.ListenAddr = val
	case "max_upload_mb":
		next.MaxUploadMB, err = strconv.Atoi(val)
	case "max_rows":
		next.MaxRows, err = strconv.Atoi(val)
	case "preview_rows":
		next.PreviewRows, err = strconv.Atoi(val)
	case "session_ttl_min":
		next.SessionTTLMin, err = strconv.Atoi(val)
	case "sweep_interval_sec":
		next.SweepIntervalSec, err = strconv.Atoi(val)
	case "histogram_bins":
		next.HistogramBins, err = strconv.Atoi(val)
	case "outlier_iqr_k":
		next.OutlierIQRK, err = strconv.ParseFloat(val, 64)
	case "csv_bom":
		next.CSVBOM, err = strconv.ParseBool(val)
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			next.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			next.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	case "read_timeout_sec":
		next.ReadTimeoutSec, err = strconv.Atoi(val)
	case "write_timeout_sec":
		next.WriteTimeoutSec, err = strconv.Atoi(val)
	case "shutdown_timeout_sec":
		next.ShutdownTimeoutSec, err = strconv.Atoi(val)
	case "rate_limit_rps":
		next.RateLimitRPS, err = strconv.ParseFloat(val, 64)
	case "rate_limit_burst":
		next.RateLimitBurst, err = strconv.Atoi(val)
	default:
		return fmt.Errorf("unknown key: %s (valid: %s)", key, strings.Join(Keys, ", "))
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
