package pdftext

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractText(t *testing.T) {
	pdfSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("%PDF-1.7 fake body"))
	}))
	defer pdfSrv.Close()

	extractSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "%PDF-1.7 fake body", string(body))
		_, _ = w.Write([]byte("6:15A6:45A"))
	}))
	defer extractSrv.Close()

	e := New(extractSrv.URL, "test-agent", 5*time.Second, discardLogger())

	text, err := e.ExtractText(context.Background(), pdfSrv.URL)
	require.NoError(t, err)
	assert.Equal(t, "6:15A6:45A", text)
}

func TestExtractTextRetriesServerErrors(t *testing.T) {
	attempts := 0
	pdfSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("pdf"))
	}))
	defer pdfSrv.Close()

	extractSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("text"))
	}))
	defer extractSrv.Close()

	e := New(extractSrv.URL, "test-agent", 5*time.Second, discardLogger())
	e.maxRetries = 5

	text, err := e.ExtractText(context.Background(), pdfSrv.URL)
	require.NoError(t, err)
	assert.Equal(t, "text", text)
	assert.Equal(t, 3, attempts)
}

func TestExtractTextClientErrorIsPermanent(t *testing.T) {
	attempts := 0
	pdfSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer pdfSrv.Close()

	e := New("http://unused.invalid", "test-agent", 5*time.Second, discardLogger())

	_, err := e.ExtractText(context.Background(), pdfSrv.URL)
	assert.Error(t, err)
	assert.Equal(t, 1, attempts, "4xx responses do not retry")
}
