package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sorashop/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Strategy is one way of obtaining page content. Strategies make a single
// attempt each; layering and fallback happen in LayeredFetcher.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, url string) (string, domain.ContentFormat, error)
}

// maxContentBytes caps how much of a response body is read. Marketplace
// pages are large but anything past this carries no extractable signal.
const maxContentBytes = 2 << 20 // 2 MiB

// ReaderStrategy delegates to a page-to-clean-text reduction service
// (Jina-reader style: GET <base>/<target-url> returns plain text).
type ReaderStrategy struct {
	client  *http.Client
	baseURL string
}

// NewReaderStrategy creates a reader-service strategy
func NewReaderStrategy(baseURL string, timeout time.Duration) *ReaderStrategy {
	return &ReaderStrategy{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *ReaderStrategy) Name() string { return "reader" }

func (s *ReaderStrategy) Fetch(ctx context.Context, url string) (string, domain.ContentFormat, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+url, nil)
	if err != nil {
		return "", domain.FormatReducedText, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", domain.FormatReducedText, fmt.Errorf("reader request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.FormatReducedText, fmt.Errorf("reader returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return "", domain.FormatReducedText, fmt.Errorf("failed to read reader response: %w", err)
	}

	return string(body), domain.FormatReducedText, nil
}

// DirectStrategy fetches the page itself, with realistic browser headers to
// get past trivial bot blocking. A shared limiter keeps request volume
// against the marketplace polite across ingestions.
type DirectStrategy struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewDirectStrategy creates a direct-fetch strategy
func NewDirectStrategy(timeout time.Duration, requestsPerMinute int) *DirectStrategy {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 20
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 5)

	return &DirectStrategy{
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

func (s *DirectStrategy) Name() string { return "direct" }

func (s *DirectStrategy) Fetch(ctx context.Context, url string) (string, domain.ContentFormat, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", domain.FormatRawMarkup, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", domain.FormatRawMarkup, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ja;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", domain.FormatRawMarkup, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.FormatRawMarkup, fmt.Errorf("bad response status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return "", domain.FormatRawMarkup, fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), domain.FormatRawMarkup, nil
}
