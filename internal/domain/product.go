package domain

// ContentFormat tags the shape of fetched page content so the extractor
// knows which heuristics apply.
type ContentFormat string

const (
	// FormatReducedText is plain text produced by the reader service.
	FormatReducedText ContentFormat = "reduced_text"
	// FormatRawMarkup is HTML obtained by fetching the page directly.
	FormatRawMarkup ContentFormat = "raw_markup"
)

// FetchResult is the outcome of the layered content fetch. A failed fetch is
// the expected degraded path, not an error: OK is false and Reason records
// why, so callers and tests can observe the fallback.
type FetchResult struct {
	Content string
	Format  ContentFormat
	OK      bool
	Reason  string // populated only when OK is false
}

// RawExtraction is the best-effort data recovered from a marketplace product
// page. Absent data is an empty string / zero / empty collection, never nil —
// downstream consumers (the model prompt, the admin UI) expect concrete
// values for every field.
type RawExtraction struct {
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	MinPrice            float64           `json:"minPrice"`
	MaxPrice            float64           `json:"maxPrice"`
	Images              []string          `json:"images"`
	Specifications      map[string]string `json:"specifications"`
	SourceURL           string            `json:"sourceUrl"`
	ManualInputRequired bool              `json:"manualInputRequired"`
}

// Category is the store's product category. The normalizer coerces anything
// unrecognized to CategoryPersonal.
type Category string

const (
	CategoryPersonal  Category = "personal"
	CategorySmartHome Category = "smart-home"
	CategoryVehicle   Category = "vehicle"
)

// ProductDraft is the normalized, store-ready draft handed back to the admin
// for review. It is never persisted by the pipeline itself.
type ProductDraft struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Category       Category          `json:"category"`
	Tags           []string          `json:"tags"`
	Price          int               `json:"price"`
	Specifications map[string]string `json:"specifications"`

	// Provenance fields, always taken from the extraction, never the model.
	SourceURL   string   `json:"source_url"`
	SourcePrice float64  `json:"source_price"`
	ImageURLs   []string `json:"image_urls"`

	// ManualPriceRequired is set when the source price was unrecoverable and
	// the price below is only a floor the admin must replace.
	ManualPriceRequired bool `json:"manual_price_required,omitempty"`
}

// MirroredImage records one remote image copied into object storage.
type MirroredImage struct {
	StorageKey  string `json:"storageKey"`
	ContentType string `json:"contentType"`
}

// IngestResult is what one ingestion run returns to the delivery layer: the
// normalized draft plus the raw extraction for admin review and audit.
type IngestResult struct {
	Product  ProductDraft
	Original RawExtraction
	Mirrored []MirroredImage
}
