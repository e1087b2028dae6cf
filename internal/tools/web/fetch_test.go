package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Doc</title></head><body>
			<h1>Heading</h1>
			<p>Some <strong>bold</strong> text with a <a href="https://example.com">link</a>.</p>
			<script>ignored()</script>
		</body></html>`))
	}))
	defer srv.Close()

	out, err := executeFetch(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.Contains(t, out, "# Doc")
	assert.Contains(t, out, "# Heading")
	assert.Contains(t, out, "**bold **")
	assert.Contains(t, out, "[link ](https://example.com)")
	assert.NotContains(t, out, "ignored")
}

func TestFetchPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("raw content"))
	}))
	defer srv.Close()

	out, err := executeFetch(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "raw content", out)
}

func TestFetchTruncation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		for i := 0; i < 100; i++ {
			w.Write([]byte("0123456789"))
		}
	}))
	defer srv.Close()

	out, err := executeFetch(context.Background(), map[string]any{
		"url":        srv.URL,
		"max_length": 50.0,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "[...truncated...]")
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := executeFetch(context.Background(), map[string]any{"url": srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchMissingURL(t *testing.T) {
	_, err := executeFetch(context.Background(), map[string]any{})
	assert.Error(t, err)
}
