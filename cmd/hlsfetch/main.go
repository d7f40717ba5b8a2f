// The hlsfetch command downloads an HLS media playlist into a single file,
// decrypting AES-128 segments when the playlist carries a key.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agleyzer/hlsfetch/internal/app"
	"github.com/agleyzer/hlsfetch/internal/apperror"
	"github.com/agleyzer/hlsfetch/internal/config"
	"github.com/agleyzer/hlsfetch/internal/output"
)

const (
	version = "1.0.0"
)

// options holds the raw command-line flag values.
type options struct {
	configFile  string
	manifestURL string
	baseURL     string
	outputDir   string
	fileName    string
	suffix      string
	headers     []string
	timeout     time.Duration
	verbose     bool
	logFormat   string
	summary     string
}

// reportedError marks an error that has already been logged.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func main() {
	cmd := newRootCommand()

	if err := cmd.Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	cmd, _ := newRootCommandWithOptions()
	return cmd
}

// newRootCommandWithOptions returns the root command and the options its flags bind to.
func newRootCommandWithOptions() (*cobra.Command, *options) {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "hlsfetch [flags] [manifest-url]",
		Short: "Download an HLS media playlist into a single file",
		Long: `hlsfetch fetches an HLS media playlist, downloads every segment in order,
decrypts AES-128 segments when the playlist has an EXT-X-KEY, and writes
them one after another to {dir}/{name}{suffix}.`,
		Example: `  hlsfetch -m https://example.com/vod/index.m3u8 -d https://example.com/vod -l ./downloads
  hlsfetch -l ./downloads -f lecture https://example.com/vod/index.m3u8
  hlsfetch --config hlsfetch.yaml --summary json`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if cmd.Flags().Changed("m-url") {
					return fmt.Errorf("manifest URL given both as argument and --m-url")
				}
				if err := cmd.Flags().Set("m-url", args[0]); err != nil {
					return err
				}
			}

			cfg, err := buildConfig(cmd, opts)
			if err != nil {
				return err
			}

			return run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "Path to a YAML config file")
	flags.StringVarP(&opts.manifestURL, "m-url", "m", "", "URL of the m3u8 media playlist")
	flags.StringVarP(&opts.baseURL, "domain-name", "d", "", "Base location segment and key references are resolved against (default: directory of the manifest URL)")
	flags.StringVarP(&opts.outputDir, "l-dir", "l", "", "Local directory the output file is written to")
	flags.StringVarP(&opts.fileName, "file-name", "f", config.DefaultFileName, "Output file name without suffix")
	flags.StringVarP(&opts.suffix, "suffix", "s", config.DefaultSuffix, "Segment suffix, also used as the output file extension")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	flags.DurationVar(&opts.timeout, "timeout", config.DefaultTimeout, "Timeout for each HTTP request")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&opts.logFormat, "log-format", config.DefaultLogFormat, "Log format: text or json")
	flags.StringVar(&opts.summary, "summary", config.DefaultSummary, "Print a run summary to stdout: none, json or yaml")

	return cmd, opts
}

// buildConfig merges the config file, if any, with flags. Flags set on the
// command line take precedence over file values.
func buildConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := &config.Config{}
	if opts.configFile != "" {
		loaded, err := config.Load(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	setString := func(name string, dst *string, v string) {
		if flags.Changed(name) || *dst == "" {
			*dst = v
		}
	}

	setString("m-url", &cfg.ManifestURL, opts.manifestURL)
	setString("domain-name", &cfg.BaseURL, opts.baseURL)
	setString("l-dir", &cfg.OutputDir, opts.outputDir)
	setString("file-name", &cfg.FileName, opts.fileName)
	setString("suffix", &cfg.Suffix, opts.suffix)
	setString("log-format", &cfg.LogFormat, opts.logFormat)
	setString("summary", &cfg.Summary, opts.summary)

	if flags.Changed("timeout") || cfg.Timeout == 0 {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}

	if len(opts.headers) > 0 && cfg.Headers == nil {
		cfg.Headers = make(map[string]string, len(opts.headers))
	}
	for _, h := range opts.headers {
		name, value, err := config.ParseHeader(h)
		if err != nil {
			return nil, err
		}
		cfg.Headers[name] = value
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level: logLevel,
	}

	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := newLogger(cfg, stderr)
	logger.Info("hlsfetch starting", "version", version)

	summary, err := app.Run(ctx, cfg, logger)
	if err != nil {
		logger.Error("download failed", "kind", apperror.KindOf(err), "error", err)
		return &reportedError{err: err}
	}

	if cfg.Summary == "none" {
		return nil
	}

	formatter, err := output.NewFormatter(cfg.Summary)
	if err != nil {
		return err
	}

	data, err := formatter.Format(summary)
	if err != nil {
		return fmt.Errorf("failed to format summary: %w", err)
	}

	_, err = stdout.Write(data)
	return err
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindParse:
		return 2
	case apperror.KindNetwork:
		return 3
	case apperror.KindCrypto:
		return 4
	case apperror.KindIO:
		return 5
	default:
		return 1
	}
}
