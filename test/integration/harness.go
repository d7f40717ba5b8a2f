// Package integration provides end-to-end tests for hlsfetch against a local HTTP origin.
package integration

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agleyzer/hlsfetch/internal/app"
	"github.com/agleyzer/hlsfetch/internal/config"
)

// TestHarness manages an HTTP origin serving a playlist, its key and its
// segments from a temp directory, and runs downloads against it.
type TestHarness struct {
	t          *testing.T
	httpServer *http.Server
	httpPort   int
	originDir  string
	outputDir  string

	mu       sync.Mutex
	requests []string
	failures map[string]int
}

// NewTestHarness creates a new test harness.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	return &TestHarness{
		t:         t,
		httpPort:  findAvailablePort(t),
		originDir: t.TempDir(),
		outputDir: t.TempDir(),
		failures:  make(map[string]int),
	}
}

// BaseURL is the origin's root URL.
func (h *TestHarness) BaseURL() string {
	return fmt.Sprintf("http://localhost:%d", h.httpPort)
}

// StartHTTPServer starts the origin.
func (h *TestHarness) StartHTTPServer() {
	h.t.Helper()

	fileServer := http.FileServer(http.Dir(h.originDir))

	h.httpServer = &http.Server{
		Addr: fmt.Sprintf(":%d", h.httpPort),
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.mu.Lock()
			h.requests = append(h.requests, r.URL.Path)
			status, fail := h.failures[r.URL.Path]
			h.mu.Unlock()

			if fail {
				w.WriteHeader(status)
				return
			}
			fileServer.ServeHTTP(w, r)
		}),
	}

	go func() {
		if err := h.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.t.Logf("HTTP server error: %v", err)
		}
	}()

	h.waitForServer(h.BaseURL()+"/", 5*time.Second)
	h.t.Logf("HTTP origin started on port %d", h.httpPort)
}

// AddFile writes a file to the origin at the given path.
func (h *TestHarness) AddFile(name string, content []byte) {
	h.t.Helper()

	path := filepath.Join(h.originDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("failed to create origin directory: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		h.t.Fatalf("failed to write %s: %v", name, err)
	}
}

// FailPath makes the origin answer requests for path with status.
func (h *TestHarness) FailPath(path string, status int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[path] = status
}

// Requests returns the paths requested so far, in order.
func (h *TestHarness) Requests() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.requests...)
}

// Config returns a validated configuration downloading manifestPath
// into the harness output directory.
func (h *TestHarness) Config(manifestPath, baseDir string) *config.Config {
	h.t.Helper()

	cfg := &config.Config{
		ManifestURL: h.BaseURL() + manifestPath,
		BaseURL:     h.BaseURL() + baseDir,
		OutputDir:   h.outputDir,
	}
	if err := cfg.Validate(); err != nil {
		h.t.Fatalf("invalid test config: %v", err)
	}
	return cfg
}

// Run downloads with cfg.
func (h *TestHarness) Run(cfg *config.Config) (*app.Summary, error) {
	h.t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return app.Run(context.Background(), cfg, logger)
}

// ReadOutput returns the content of the output file.
func (h *TestHarness) ReadOutput(cfg *config.Config) []byte {
	h.t.Helper()

	data, err := os.ReadFile(cfg.OutputPath())
	if err != nil {
		h.t.Fatalf("failed to read output: %v", err)
	}
	return data
}

// Cleanup stops the origin.
func (h *TestHarness) Cleanup() {
	h.t.Helper()

	if h.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.httpServer.Shutdown(ctx)
	}
}

// waitForServer waits for a server to become available.
func (h *TestHarness) waitForServer(url string, timeout time.Duration) {
	h.t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			h.mu.Lock()
			h.requests = nil
			h.mu.Unlock()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	h.t.Fatalf("server at %s did not become available within %v", url, timeout)
}

// findAvailablePort finds an available TCP port.
func findAvailablePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to find available port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

// createTestPlaylist builds a VOD media playlist referencing segmentNNN.ts files.
// keyURI adds an EXT-X-KEY line when non-empty.
func createTestPlaylist(numSegments int, keyURI string) string {
	var sb strings.Builder

	sb.WriteString("#EXTM3U\n")
	sb.WriteString("#EXT-X-VERSION:3\n")
	sb.WriteString("#EXT-X-TARGETDURATION:2\n")
	sb.WriteString("#EXT-X-PLAYLIST-TYPE:VOD\n")
	sb.WriteString("#EXT-X-MEDIA-SEQUENCE:0\n")
	if keyURI != "" {
		fmt.Fprintf(&sb, "#EXT-X-KEY:METHOD=AES-128,URI=\"%s\"\n", keyURI)
	}

	for i := 0; i < numSegments; i++ {
		sb.WriteString("#EXTINF:2.000,\n")
		sb.WriteString(segmentName(i))
		sb.WriteString("\n")
	}

	sb.WriteString("#EXT-X-ENDLIST\n")

	return sb.String()
}

// createBarePlaylist lists segmentNNN.ts lines with no EXTINF or ENDLIST tags.
// keyURI is written verbatim into an EXT-X-KEY line.
func createBarePlaylist(numSegments int, keyURI string) string {
	var sb strings.Builder

	sb.WriteString("#EXTM3U\n")
	sb.WriteString("#EXT-X-VERSION:7\n")
	fmt.Fprintf(&sb, "#EXT-X-KEY:METHOD=AES-128,URI=\"%s\"\n", keyURI)
	for i := 0; i < numSegments; i++ {
		sb.WriteString(segmentName(i))
		sb.WriteString("\n")
	}

	return sb.String()
}

func segmentName(i int) string {
	return fmt.Sprintf("segment%03d.ts", i)
}

// segmentPayload is a recognizable stand-in for transport stream data.
func segmentPayload(i int) []byte {
	return bytes.Repeat([]byte(fmt.Sprintf("[segment %03d]", i)), 50+i)
}

// encryptSegment encrypts data with AES-128-CBC, a zero IV and PKCS#7 padding.
func encryptSegment(t *testing.T, key, data []byte) []byte {
	t.Helper()

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}

	n := aes.BlockSize - len(data)%aes.BlockSize
	padded := append(append([]byte{}, data...), bytes.Repeat([]byte{byte(n)}, n)...)

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(out, padded)
	return out
}
