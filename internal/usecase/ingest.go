package usecase

import (
	"context"
	"log"
	"strings"

	"github.com/sorashop/backend/internal/domain"
)

// IngestService orchestrates the product ingestion pipeline:
// fetch → extract → assemble → normalize → mirror.
// Every stage except normalization degrades to a usable result; only an
// unparseable model reply fails the whole operation.
type IngestService struct {
	fetcher    domain.ContentFetcher
	extractor  *FieldExtractor
	prices     *PriceNormalizer
	assembler  *DraftAssembler
	normalizer *ProductNormalizer
	mirror     *ImageMirror
}

// NewIngestService creates an ingest service with its stage dependencies
func NewIngestService(
	fetcher domain.ContentFetcher,
	extractor *FieldExtractor,
	prices *PriceNormalizer,
	assembler *DraftAssembler,
	normalizer *ProductNormalizer,
	mirror *ImageMirror,
) *IngestService {
	return &IngestService{
		fetcher:    fetcher,
		extractor:  extractor,
		prices:     prices,
		assembler:  assembler,
		normalizer: normalizer,
		mirror:     mirror,
	}
}

// Ingest runs the pipeline for one marketplace URL. The stages share no
// state across calls, so concurrent ingestions of different URLs are
// independent; cancellation of ctx propagates to whichever external call is
// in flight.
func (s *IngestService) Ingest(ctx context.Context, sourceURL string, marginPercent float64) (*domain.IngestResult, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return nil, domain.ErrInvalidRequest
	}

	fetchResult := s.fetcher.Fetch(ctx, sourceURL)

	var partial domain.RawExtraction
	if fetchResult.OK {
		partial = s.extractor.Extract(fetchResult.Content, fetchResult.Format)
		partial.MinPrice, partial.MaxPrice = s.prices.ExtractPrice(fetchResult.Content)
	}

	raw := s.assembler.Assemble(fetchResult, partial, sourceURL)

	draft, err := s.normalizer.Normalize(ctx, raw, marginPercent)
	if err != nil {
		return nil, err
	}

	mirrored := s.mirror.Mirror(ctx, raw.Images)

	log.Printf("[ingest] completed %s: title=%q price=%d images=%d/%d manual_input=%v",
		sourceURL, draft.Name, draft.Price, len(mirrored), len(raw.Images), raw.ManualInputRequired)

	return &domain.IngestResult{
		Product:  draft,
		Original: raw,
		Mirrored: mirrored,
	}, nil
}
