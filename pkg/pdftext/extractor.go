// Package pdftext is the client side of the PDF text extraction
// collaborator. The extractor service receives a PDF body and responds with
// the plain text it pulled out; everything downstream of that string is the
// normalization pipeline's job.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Extractor struct {
	extractURL string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	maxRetries uint64
}

func New(extractURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Extractor {
	return &Extractor{
		extractURL: extractURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "pdf_extractor"),
		maxRetries: 3,
	}
}

// ExtractText downloads the PDF at pdfURL and runs it through the extraction
// service, returning the raw text. Both network hops retry with exponential
// backoff; the schedule page's host intermittently drops direct downloads.
func (e *Extractor) ExtractText(ctx context.Context, pdfURL string) (string, error) {
	start := time.Now()
	e.logger.Info("downloading schedule PDF", "url", pdfURL)

	pdf, err := e.download(ctx, pdfURL)
	if err != nil {
		return "", fmt.Errorf("download pdf: %w", err)
	}

	e.logger.Debug("PDF downloaded",
		"size_bytes", len(pdf),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	text, err := e.extract(ctx, pdf)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	e.logger.Info("PDF text extracted",
		"text_bytes", len(text),
		"total_duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (e *Extractor) download(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", e.userAgent)
		req.Header.Set("Accept", "application/pdf,application/octet-stream,*/*;q=0.9")

		resp, err := e.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	err := backoff.Retry(op, e.policy(ctx))
	return body, err
}

func (e *Extractor) extract(ctx context.Context, pdf []byte) (string, error) {
	var text string

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.extractURL, bytes.NewReader(pdf))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/pdf")

		resp, err := e.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("extractor returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		text = string(body)
		return nil
	}

	err := backoff.Retry(op, e.policy(ctx))
	return text, err
}

func (e *Extractor) policy(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), e.maxRetries), ctx)
}
