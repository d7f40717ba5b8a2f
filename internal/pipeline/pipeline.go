// Package pipeline fetches, decrypts and writes manifest segments in order.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/agleyzer/hlsfetch/internal/apperror"
	"github.com/agleyzer/hlsfetch/internal/decrypt"
	"github.com/agleyzer/hlsfetch/internal/manifest"
	"github.com/agleyzer/hlsfetch/internal/segment"
)

// Fetcher retrieves a resource as raw bytes.
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// ProgressFunc observes progress after each segment is written.
type ProgressFunc func(completed, total int)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProgress replaces the default progress observer, which logs at Info level.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

// Pipeline processes segments strictly one after another. Segment N+1 is
// not requested until segment N has been written.
type Pipeline struct {
	fetcher  Fetcher
	logger   *slog.Logger
	progress ProgressFunc
}

// Result describes what a run wrote.
type Result struct {
	// Segments is the number of segments fully written.
	Segments int
	// Total is the number of segments in the manifest.
	Total int
	// Bytes is the number of bytes written to the output.
	Bytes int64
	// Encrypted is true when segments were decrypted.
	Encrypted bool
}

// New creates a Pipeline.
func New(fetcher Fetcher, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher: fetcher,
		logger:  logger,
	}
	p.progress = p.logProgress

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run writes every segment of d to out in manifest order. The first failure
// stops the run; out keeps the segments written before it, and the returned
// Result counts them.
func (p *Pipeline) Run(ctx context.Context, d *manifest.Directives, base string, out io.Writer) (Result, error) {
	segments := segment.ResolveAll(base, d.Segments)
	result := Result{Total: len(segments)}

	var dec *decrypt.Decrypter
	if key, ok := d.ActiveKey(); ok {
		keyURL := segment.ResolveKey(base, key.URI)
		p.logger.Info("fetching key", "method", key.Method, "url", keyURL)

		keyData, err := p.fetcher.FetchBytes(ctx, keyURL)
		if err != nil {
			return result, fmt.Errorf("failed to fetch key: %w", err)
		}

		dec, err = decrypt.New(keyData)
		if err != nil {
			return result, fmt.Errorf("invalid key from %s: %w", keyURL, err)
		}
		result.Encrypted = true
	} else if d.Key != nil {
		p.logger.Info("key directive incomplete, writing segments as-is",
			"method", d.Key.Method,
			"uri", d.Key.URI,
		)
	}

	for _, seg := range segments {
		data, err := p.fetcher.FetchBytes(ctx, seg.URL)
		if err != nil {
			return result, fmt.Errorf("failed to fetch segment %d: %w", seg.Sequence, err)
		}

		if dec != nil {
			data, err = dec.Decrypt(data)
			if err != nil {
				return result, fmt.Errorf("failed to decrypt segment %d (%s): %w", seg.Sequence, seg.URL, err)
			}
		}

		n, err := out.Write(data)
		result.Bytes += int64(n)
		if err != nil {
			return result, apperror.IO(fmt.Sprintf("failed to write segment %d", seg.Sequence), err)
		}

		result.Segments++
		p.progress(result.Segments, result.Total)
	}

	return result, nil
}

func (p *Pipeline) logProgress(completed, total int) {
	p.logger.Info("segment written", "completed", completed, "total", total)
}
