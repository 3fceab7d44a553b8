package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sorashop/backend/internal/domain"
)

// defaultProfitMargin is applied when the request omits profit_margin
const defaultProfitMargin = 100.0

// IngestRunner is the slice of the ingestion usecase the handler needs
type IngestRunner interface {
	Ingest(ctx context.Context, sourceURL string, marginPercent float64) (*domain.IngestResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	ingest IngestRunner
	store  domain.ObjectStore
}

// NewHandler creates a new HTTP handler
func NewHandler(ingest IngestRunner, store domain.ObjectStore) *Handler {
	return &Handler{
		ingest: ingest,
		store:  store,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "sorashop-backend",
		"version": "1.0.0",
	})
}

// importRequest is the body of POST /api/admin/products/import
type importRequest struct {
	SourceURL    string   `json:"source_url" binding:"required"`
	ProfitMargin *float64 `json:"profit_margin"`
}

// importedProduct is the store-ready product body returned to the admin UI
type importedProduct struct {
	Name                string            `json:"name"`
	Description         string            `json:"description"`
	Category            domain.Category   `json:"category"`
	Tags                []string          `json:"tags"`
	Price               int               `json:"price"`
	Specifications      map[string]string `json:"specifications"`
	SourceURL           string            `json:"source_url"`
	SourcePrice         float64           `json:"source_price"`
	ImageURLs           []string          `json:"image_urls"`
	StockStatus         string            `json:"stock_status"`
	ManualPriceRequired bool              `json:"manual_price_required,omitempty"`
}

// ImportProduct runs the ingestion pipeline for a marketplace URL and
// returns the normalized draft plus the raw extraction for admin review.
// Nothing is persisted here; the admin commits the reviewed draft separately.
func (h *Handler) ImportProduct(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "source_url is required")
		return
	}

	margin := defaultProfitMargin
	if req.ProfitMargin != nil && *req.ProfitMargin > 0 {
		margin = *req.ProfitMargin
	}

	result, err := h.ingest.Ingest(c.Request.Context(), req.SourceURL, margin)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrNormalization) {
			// Distinct error: the admin must know the copy was not generated.
			errorResponse(c, http.StatusBadGateway, err.Error())
			return
		}
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	// Prefer mirrored storage keys; fall back to the remote URLs when no
	// image could be mirrored.
	imageURLs := make([]string, 0, len(result.Mirrored))
	for _, img := range result.Mirrored {
		imageURLs = append(imageURLs, img.StorageKey)
	}
	if len(imageURLs) == 0 {
		imageURLs = result.Original.Images
	}

	draft := result.Product
	successResponse(c, gin.H{
		"product": importedProduct{
			Name:                draft.Name,
			Description:         draft.Description,
			Category:            draft.Category,
			Tags:                draft.Tags,
			Price:               draft.Price,
			Specifications:      draft.Specifications,
			SourceURL:           draft.SourceURL,
			SourcePrice:         draft.SourcePrice,
			ImageURLs:           imageURLs,
			StockStatus:         "in_stock",
			ManualPriceRequired: draft.ManualPriceRequired,
		},
		"originalData": result.Original,
	})
}

// GetImage streams a mirrored image back out of object storage
func (h *Handler) GetImage(c *gin.Context) {
	key := c.Param("key")
	data, contentType, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrObjectNotFound) {
			errorResponse(c, http.StatusNotFound, "image not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to load image")
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

// successResponse wraps payloads in the API's success envelope
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// errorResponse wraps failures in the API's error envelope
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}
