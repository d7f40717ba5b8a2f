// Package app runs one download: manifest fetch, parse, and the segment pipeline.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/agleyzer/hlsfetch/internal/apperror"
	"github.com/agleyzer/hlsfetch/internal/config"
	"github.com/agleyzer/hlsfetch/internal/fetch"
	"github.com/agleyzer/hlsfetch/internal/manifest"
	"github.com/agleyzer/hlsfetch/internal/output"
	"github.com/agleyzer/hlsfetch/internal/pipeline"
)

// Summary describes a finished run.
type Summary struct {
	ManifestURL    string  `json:"manifest_url" yaml:"manifest_url"`
	Output         string  `json:"output" yaml:"output"`
	Version        *uint32 `json:"version,omitempty" yaml:"version,omitempty"`
	TargetDuration *uint32 `json:"target_duration,omitempty" yaml:"target_duration,omitempty"`
	PlaylistType   *string `json:"playlist_type,omitempty" yaml:"playlist_type,omitempty"`
	MediaSequence  *uint32 `json:"media_sequence,omitempty" yaml:"media_sequence,omitempty"`
	Segments       int     `json:"segments" yaml:"segments"`
	Bytes          int64   `json:"bytes" yaml:"bytes"`
	Encrypted      bool    `json:"encrypted" yaml:"encrypted"`
	Elapsed        string  `json:"elapsed" yaml:"elapsed"`
}

// Run downloads the manifest described by cfg into cfg.OutputPath().
// cfg must already be validated. Any failure aborts the run; a partially
// written output file is left in place.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...pipeline.Option) (*Summary, error) {
	start := time.Now()
	client := fetch.NewClient(cfg.Timeout, cfg.Headers, logger)

	logger.Info("fetching manifest", "url", cfg.ManifestURL)
	text, err := client.FetchText(ctx, cfg.ManifestURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}

	info, err := manifest.Inspect(text)
	if err != nil {
		logger.Debug("manifest inspection skipped", "error", err)
	} else if err := checkInspection(info, logger); err != nil {
		return nil, err
	}

	directives, err := manifest.Parse(text, cfg.Suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	logger.Info("parsed manifest",
		"segments", len(directives.Segments),
		"encrypted", directives.Key != nil,
	)
	if info != nil && info.Segments != len(directives.Segments) {
		logger.Debug("segment count differs from HLS decoder",
			"matched", len(directives.Segments),
			"decoded", info.Segments,
			"suffix", cfg.Suffix,
		)
	}

	path := cfg.OutputPath()
	p := pipeline.New(client, logger, opts...)

	var result pipeline.Result
	err = output.WithFile(path, func(w io.Writer) error {
		var runErr error
		result, runErr = p.Run(ctx, directives, cfg.BaseURL, w)
		return runErr
	})
	if err != nil {
		logger.Warn("run aborted, output is incomplete",
			"output", path,
			"completed", result.Segments,
			"total", result.Total,
			"bytes", result.Bytes,
		)
		return nil, err
	}

	summary := &Summary{
		ManifestURL:    cfg.ManifestURL,
		Output:         path,
		Version:        directives.Version,
		TargetDuration: directives.TargetDuration,
		PlaylistType:   directives.PlaylistType,
		MediaSequence:  directives.MediaSequence,
		Segments:       result.Segments,
		Bytes:          result.Bytes,
		Encrypted:      result.Encrypted,
		Elapsed:        time.Since(start).Round(time.Millisecond).String(),
	}

	logger.Info("download complete",
		"output", path,
		"segments", result.Segments,
		"bytes", result.Bytes,
	)

	return summary, nil
}

func checkInspection(info *manifest.Inspection, logger *slog.Logger) error {
	if info.IsMaster {
		return apperror.Parse(fmt.Sprintf("master playlist with %d variants is not supported, pass a media playlist URL", info.Variants), nil)
	}

	if len(info.KeyIVs) > 0 {
		logger.Warn("manifest declares an explicit IV, decrypting with a zero IV instead", "iv", info.KeyIVs[0])
	}

	if info.Live {
		logger.Warn("playlist has no EXT-X-ENDLIST, downloading the segments listed now")
	}

	return nil
}
