package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultMaxFileSizeMB  = 5.0
	defaultRequestTimeout = 60 * time.Second
	defaultSessionTTL     = 30 * time.Minute
	defaultPort           = "8888"

	// maxFileSizeMBLimit keeps MaxFileSizeBytes within int64.
	maxFileSizeMBLimit = float64(math.MaxInt64 >> 20)
)

// Config holds runtime settings for the server and the analyze command.
type Config struct {
	// APIURL is the base URL of the analysis service; /predict is appended.
	APIURL         string        `yaml:"api_url"`
	MaxFileSizeMB  float64       `yaml:"max_file_size_mb"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	Port           string        `yaml:"port"`
}

// Default returns a Config populated with repository defaults. APIURL has no default.
func Default() Config {
	return Config{
		MaxFileSizeMB:  defaultMaxFileSizeMB,
		RequestTimeout: defaultRequestTimeout,
		SessionTTL:     defaultSessionTTL,
		Port:           defaultPort,
	}
}

// Load builds a Config from defaults, then the optional YAML file at path,
// then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := firstEnv(lookup, "ASDSCREEN_API_URL", "REACT_APP_API_URL"); ok {
		c.APIURL = v
	}
	if v, ok := firstEnv(lookup, "ASDSCREEN_MAX_FILE_SIZE_MB"); ok {
		mb, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ASDSCREEN_MAX_FILE_SIZE_MB %q: %w", v, err)
		}
		c.MaxFileSizeMB = mb
	}
	if v, ok := firstEnv(lookup, "ASDSCREEN_REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ASDSCREEN_REQUEST_TIMEOUT %q: %w", v, err)
		}
		c.RequestTimeout = d
	}
	if v, ok := firstEnv(lookup, "ASDSCREEN_SESSION_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ASDSCREEN_SESSION_TTL %q: %w", v, err)
		}
		c.SessionTTL = d
	}
	if v, ok := firstEnv(lookup, "PORT"); ok {
		c.Port = v
	}
	return nil
}

func firstEnv(lookup func(string) (string, bool), keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIURL) == "" {
		errs = append(errs, errors.New("api url is required (set ASDSCREEN_API_URL)"))
	} else if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api url %q must be an absolute http(s) URL", c.APIURL))
	}
	switch {
	case math.IsNaN(c.MaxFileSizeMB) || math.IsInf(c.MaxFileSizeMB, 0):
		errs = append(errs, fmt.Errorf("max file size must be a finite number, got %v", c.MaxFileSizeMB))
	case c.MaxFileSizeMB <= 0:
		errs = append(errs, fmt.Errorf("max file size must be positive, got %v", c.MaxFileSizeMB))
	case c.MaxFileSizeMB >= maxFileSizeMBLimit:
		errs = append(errs, fmt.Errorf("max file size %v is too large", c.MaxFileSizeMB))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL))
	}
	return errors.Join(errs...)
}

// MaxFileSizeBytes converts MaxFileSizeMB (mebibytes) to bytes.
func (c Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB * 1024 * 1024)
}
