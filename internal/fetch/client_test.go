package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agleyzer/hlsfetch/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchBytes(t *testing.T) {
	payload := []byte{0x47, 0x00, 0x11, 0xff}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	}))
	defer server.Close()

	c := NewClient(0, nil, createTestLogger())
	got, err := c.FetchBytes(context.Background(), server.URL+"/seg1.ts")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetchText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.Write([]byte("#EXTM3U\nseg1.ts\n"))
	}))
	defer server.Close()

	c := NewClient(time.Second, nil, createTestLogger())
	got, err := c.FetchText(context.Background(), server.URL+"/index.m3u8")
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\nseg1.ts\n", got)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError, http.StatusNoContent} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewClient(0, nil, createTestLogger())
		_, err := c.FetchBytes(context.Background(), server.URL)
		server.Close()

		require.Error(t, err, "status %d", status)
		assert.True(t, apperror.Is(err, apperror.KindNetwork))
	}
}

func TestFetch_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(0, nil, createTestLogger())
	_, err := c.FetchText(context.Background(), url)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindNetwork))
}

func TestFetch_Timeout(t *testing.T) {
	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(done)

	c := NewClient(50*time.Millisecond, nil, createTestLogger())
	_, err := c.FetchBytes(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindNetwork))
}

func TestFetch_InvalidURL(t *testing.T) {
	c := NewClient(0, nil, createTestLogger())
	_, err := c.FetchBytes(context.Background(), "://bad")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindNetwork))
}

func TestFetch_Headers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != "https://example.com/" || r.Header.Get("User-Agent") != "hlsfetch-test" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	headers := map[string]string{
		"Referer":    "https://example.com/",
		"User-Agent": "hlsfetch-test",
	}
	c := NewClient(0, headers, createTestLogger())
	got, err := c.FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}
