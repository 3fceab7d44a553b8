package domain

import "context"

// ContentFetcher obtains raw page content for a URL. Implementations degrade
// internally: a result with OK=false is the expected fallback path and never
// an error.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) FetchResult
}

// CompletionClient defines the interface to a generative text-completion
// service constrained to JSON output.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ObjectStore defines the interface for durable keyed object storage.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns the object bytes and content type, or ErrObjectNotFound.
	Get(ctx context.Context, key string) ([]byte, string, error)
}
