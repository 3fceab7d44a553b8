package usecase

import (
	"log"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sorashop/backend/internal/domain"
)

const (
	minAssembledTitle       = 5
	minAssembledDescription = 10
)

var (
	fileExtensionRegex = regexp.MustCompile(`\.[a-zA-Z0-9]{1,5}$`)
	trailingItemID     = regexp.MustCompile(`_\d+$`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
)

// DraftAssembler turns a possibly-degraded fetch plus a partial extraction
// into a total RawExtraction: title and description are always non-empty,
// collections are never nil, and a failed fetch yields a URL-derived draft
// flagged for manual completion.
type DraftAssembler struct{}

// NewDraftAssembler creates a draft assembler
func NewDraftAssembler() *DraftAssembler {
	return &DraftAssembler{}
}

// Assemble applies the fallback rules in order. The output satisfies every
// RawExtraction invariant regardless of how little the extractor recovered.
func (a *DraftAssembler) Assemble(fetch domain.FetchResult, extraction domain.RawExtraction, sourceURL string) domain.RawExtraction {
	if !fetch.OK {
		// Designed degraded path: the admin fills the record in by hand.
		log.Printf("[assemble] fetch degraded for %s (%s), building manual-input draft", sourceURL, fetch.Reason)
		title := slugFromURL(sourceURL)
		return domain.RawExtraction{
			Title:               title,
			Description:         title,
			Images:              []string{},
			Specifications:      map[string]string{},
			SourceURL:           sourceURL,
			ManualInputRequired: true,
		}
	}

	out := extraction
	out.SourceURL = sourceURL
	if out.Images == nil {
		out.Images = []string{}
	}
	if out.Specifications == nil {
		out.Specifications = map[string]string{}
	}

	if utf8.RuneCountInString(out.Title) < minAssembledTitle {
		slug := slugFromURL(sourceURL)
		log.Printf("[assemble] extracted title too short for %s, falling back to slug %q", sourceURL, slug)
		out.Title = slug
	}
	if utf8.RuneCountInString(out.Description) < minAssembledDescription {
		out.Description = out.Title
	}

	return out
}

// slugFromURL derives a human-readable title from the last path segment of
// the source URL: extension and trailing numeric item id stripped, hyphens
// and underscores turned into spaces. Deterministic for a given URL.
func slugFromURL(rawURL string) string {
	var segment, host string
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
		if path := strings.Trim(u.Path, "/"); path != "" {
			parts := strings.Split(path, "/")
			segment = parts[len(parts)-1]
			segment = fileExtensionRegex.ReplaceAllString(segment, "")
			segment = trailingItemID.ReplaceAllString(segment, "")
			segment = strings.NewReplacer("-", " ", "_", " ").Replace(segment)
			segment = whitespaceRun.ReplaceAllString(segment, " ")
			segment = strings.TrimSpace(segment)
		}
	}
	if segment == "" {
		segment = host
	}
	if segment == "" {
		segment = "imported product"
	}
	return segment
}
