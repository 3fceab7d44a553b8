package fetch

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sorashop/backend/internal/domain"
)

// LayeredFetcher tries each strategy in order and stops at the first one
// that yields content of at least minLength characters. When every strategy
// fails it returns a degraded FetchResult rather than an error: the caller
// is expected to fall back to a URL-derived draft.
type LayeredFetcher struct {
	strategies []Strategy
	minLength  int
}

// NewLayeredFetcher creates a fetcher over the given strategies
func NewLayeredFetcher(minLength int, strategies ...Strategy) *LayeredFetcher {
	return &LayeredFetcher{
		strategies: strategies,
		minLength:  minLength,
	}
}

// Fetch runs the strategy chain for url. Each strategy gets exactly one
// attempt; there is no retry or backoff because this backs an interactive
// admin action.
func (f *LayeredFetcher) Fetch(ctx context.Context, url string) domain.FetchResult {
	var reasons []string

	for _, strategy := range f.strategies {
		content, format, err := strategy.Fetch(ctx, url)
		if err != nil {
			log.Printf("[fetch] %s strategy failed for %s: %v", strategy.Name(), url, err)
			reasons = append(reasons, fmt.Sprintf("%s: %v", strategy.Name(), err))
			continue
		}
		if len(content) < f.minLength {
			log.Printf("[fetch] %s strategy returned too little content for %s (%d chars)", strategy.Name(), url, len(content))
			reasons = append(reasons, fmt.Sprintf("%s: content too short (%d chars)", strategy.Name(), len(content)))
			continue
		}

		log.Printf("[fetch] %s strategy succeeded for %s (%d chars)", strategy.Name(), url, len(content))
		return domain.FetchResult{
			Content: content,
			Format:  format,
			OK:      true,
		}
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "no fetch strategies configured")
	}
	return domain.FetchResult{
		OK:     false,
		Reason: strings.Join(reasons, "; "),
	}
}
