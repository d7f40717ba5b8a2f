// Package config holds the settings of a download run.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFileName  = "index"
	DefaultSuffix    = ".ts"
	DefaultTimeout   = 30 * time.Second
	DefaultLogFormat = "text"
	DefaultSummary   = "none"
)

// Config holds the configuration for a download run.
type Config struct {
	// ManifestURL is the location of the media playlist.
	ManifestURL string `yaml:"manifest_url"`
	// BaseURL is prepended to segment and key references.
	BaseURL string `yaml:"base_url"`
	// OutputDir is the directory the output file is created in.
	OutputDir string `yaml:"output_dir"`
	// FileName is the output file name without suffix.
	FileName string `yaml:"file_name"`
	// Suffix selects segment lines and is the output file extension.
	Suffix string `yaml:"suffix"`
	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers"`
	// Timeout bounds each request.
	Timeout time.Duration `yaml:"timeout"`
	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format"`
	// Summary is "none", "json" or "yaml".
	Summary string `yaml:"summary"`
}

// Load reads a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &c, nil
}

// Validate checks if the configuration is valid and fills in defaults.
func (c *Config) Validate() error {
	// Set defaults
	if c.FileName == "" {
		c.FileName = DefaultFileName
	}
	if c.Suffix == "" {
		c.Suffix = DefaultSuffix
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.Summary == "" {
		c.Summary = DefaultSummary
	}

	if c.ManifestURL == "" {
		return fmt.Errorf("manifest URL is required")
	}

	if c.BaseURL == "" {
		base, err := DeriveBaseURL(c.ManifestURL)
		if err != nil {
			return fmt.Errorf("base URL is required: %w", err)
		}
		c.BaseURL = base
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}

	if strings.ContainsAny(c.FileName, `/\`) {
		return fmt.Errorf("file name %q must not contain path separators", c.FileName)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.LogFormat)
	}

	switch c.Summary {
	case "none", "json", "yaml":
	default:
		return fmt.Errorf("invalid summary format %q (want none, json or yaml)", c.Summary)
	}

	return nil
}

// OutputPath returns {OutputDir}/{FileName}{Suffix}.
func (c *Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.FileName+c.Suffix)
}

// DeriveBaseURL returns the directory of manifestURL without a trailing
// slash, query or fragment.
func DeriveBaseURL(manifestURL string) (string, error) {
	u, err := url.Parse(manifestURL)
	if err != nil {
		return "", fmt.Errorf("invalid manifest URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("manifest URL %q is not absolute", manifestURL)
	}

	u.Path = path.Dir(u.Path)
	if u.Path == "." {
		u.Path = ""
	}
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/"), nil
}

// ParseHeader splits a "Name: value" header argument.
func ParseHeader(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid header %q (want Name: value)", s)
	}
	return name, strings.TrimSpace(value), nil
}
