package usecase

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sorashop/backend/internal/domain"
)

const (
	jpegContentType = "image/jpeg"
	// maxImageBytes caps a single downloaded image
	maxImageBytes = 10 << 20 // 10 MiB
)

// ImageMirror copies up to maxImages remote product images into object
// storage. Each candidate gets one attempt; failures are logged and skipped
// so a bad URL never aborts the batch.
type ImageMirror struct {
	store  domain.ObjectStore
	client *http.Client
	limit  int
}

// NewImageMirror creates an image mirror writing into store
func NewImageMirror(store domain.ObjectStore, timeout time.Duration) *ImageMirror {
	return &ImageMirror{
		store:  store,
		client: &http.Client{Timeout: timeout},
		limit:  maxImages,
	}
}

// Mirror downloads the candidates concurrently. Results are indexed by input
// ordinal and compacted in input order, so the output preserves the relative
// order of the URLs that succeeded; its length is 0..min(5, len(urls)).
func (m *ImageMirror) Mirror(ctx context.Context, urls []string) []domain.MirroredImage {
	count := len(urls)
	if count > m.limit {
		count = m.limit
	}
	if count == 0 {
		return []domain.MirroredImage{}
	}

	// Timestamp alone can collide when two ingestions land in the same
	// millisecond; a per-batch random suffix keeps keys unique.
	batch := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	results := make([]*domain.MirroredImage, count)

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(ordinal int, imageURL string) {
			defer wg.Done()

			data, err := m.download(ctx, imageURL)
			if err != nil {
				log.Printf("[mirror] image %d skipped (%s): %v", ordinal, imageURL, err)
				return
			}

			key := fmt.Sprintf("product-%s-%d.jpg", batch, ordinal)
			if err := m.store.Put(ctx, key, data, jpegContentType); err != nil {
				log.Printf("[mirror] image %d upload failed (%s): %v", ordinal, key, err)
				return
			}

			results[ordinal] = &domain.MirroredImage{
				StorageKey:  key,
				ContentType: jpegContentType,
			}
		}(i, urls[i])
	}
	wg.Wait()

	mirrored := make([]domain.MirroredImage, 0, count)
	for _, result := range results {
		if result != nil {
			mirrored = append(mirrored, *result)
		}
	}
	return mirrored
}

// download fetches one image, single attempt, no retry
func (m *ImageMirror) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	return data, nil
}
