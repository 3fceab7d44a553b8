package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sorashop/backend/config"
	"github.com/sorashop/backend/internal/domain"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockIngestRunner is a scriptable IngestRunner
type mockIngestRunner struct {
	result    *domain.IngestResult
	err       error
	gotURL    string
	gotMargin float64
}

func (m *mockIngestRunner) Ingest(ctx context.Context, sourceURL string, marginPercent float64) (*domain.IngestResult, error) {
	m.gotURL = sourceURL
	m.gotMargin = marginPercent
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockObjectStore is an in-memory domain.ObjectStore for handler tests
type mockObjectStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *mockObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *mockObjectStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, "", domain.ErrObjectNotFound
	}
	return data, m.types[key], nil
}

func sampleIngestResult() *domain.IngestResult {
	return &domain.IngestResult{
		Product: domain.ProductDraft{
			Name:           "ワイヤレスドアベルカメラ",
			Description:    "夜間でも鮮明な映像を記録するスマートドアベル。",
			Category:       domain.CategorySmartHome,
			Tags:           []string{"防犯", "カメラ"},
			Price:          3800,
			Specifications: map[string]string{"解像度": "1080P"},
			SourceURL:      "https://example.com/item_1",
			SourcePrice:    12.5,
			ImageURLs:      []string{"https://img.alibaba.com/a.jpg"},
		},
		Original: domain.RawExtraction{
			Title:     "Wireless Doorbell Camera 1080P",
			MinPrice:  12.5,
			MaxPrice:  18,
			Images:    []string{"https://img.alibaba.com/a.jpg"},
			SourceURL: "https://example.com/item_1",
		},
		Mirrored: []domain.MirroredImage{
			{StorageKey: "product-1700000000000-0.jpg", ContentType: "image/jpeg"},
		},
	}
}

func setupTestRouter(ingest IngestRunner, store domain.ObjectStore) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}

	handler := NewHandler(ingest, store)
	return SetupRouter(cfg, handler)
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter(&mockIngestRunner{}, newMockObjectStore())

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "sorashop-backend" {
			t.Errorf("service = %v, want sorashop-backend", response["service"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(&mockIngestRunner{}, newMockObjectStore())

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			req, _ := http.NewRequest(method, "/health", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestImportProductEndpoint tests POST /api/admin/products/import
func TestImportProductEndpoint(t *testing.T) {
	t.Run("returns draft and original data for valid request", func(t *testing.T) {
		ingest := &mockIngestRunner{result: sampleIngestResult()}
		router := setupTestRouter(ingest, newMockObjectStore())

		payload := `{"source_url":"https://example.com/item_1","profit_margin":50}`
		req, _ := http.NewRequest("POST", "/api/admin/products/import", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
		}

		if ingest.gotURL != "https://example.com/item_1" {
			t.Errorf("source URL = %q, want %q", ingest.gotURL, "https://example.com/item_1")
		}
		if ingest.gotMargin != 50 {
			t.Errorf("margin = %v, want 50", ingest.gotMargin)
		}

		var response struct {
			Success bool `json:"success"`
			Data    struct {
				Product struct {
					Name        string   `json:"name"`
					Price       int      `json:"price"`
					ImageURLs   []string `json:"image_urls"`
					StockStatus string   `json:"stock_status"`
				} `json:"product"`
				OriginalData domain.RawExtraction `json:"originalData"`
			} `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if !response.Success {
			t.Error("success = false, want true")
		}
		if response.Data.Product.Name != "ワイヤレスドアベルカメラ" {
			t.Errorf("name = %q", response.Data.Product.Name)
		}
		if response.Data.Product.Price != 3800 {
			t.Errorf("price = %d, want 3800", response.Data.Product.Price)
		}
		if response.Data.Product.StockStatus != "in_stock" {
			t.Errorf("stock_status = %q, want in_stock", response.Data.Product.StockStatus)
		}
		// Mirrored keys win over remote URLs.
		if len(response.Data.Product.ImageURLs) != 1 || response.Data.Product.ImageURLs[0] != "product-1700000000000-0.jpg" {
			t.Errorf("image_urls = %v, want mirrored key", response.Data.Product.ImageURLs)
		}
		if response.Data.OriginalData.Title != "Wireless Doorbell Camera 1080P" {
			t.Errorf("originalData.title = %q", response.Data.OriginalData.Title)
		}
	})

	t.Run("defaults profit margin when omitted", func(t *testing.T) {
		ingest := &mockIngestRunner{result: sampleIngestResult()}
		router := setupTestRouter(ingest, newMockObjectStore())

		payload := `{"source_url":"https://example.com/item_1"}`
		req, _ := http.NewRequest("POST", "/api/admin/products/import", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if ingest.gotMargin != defaultProfitMargin {
			t.Errorf("margin = %v, want %v", ingest.gotMargin, defaultProfitMargin)
		}
	})

	t.Run("falls back to remote URLs when nothing mirrored", func(t *testing.T) {
		result := sampleIngestResult()
		result.Mirrored = nil
		ingest := &mockIngestRunner{result: result}
		router := setupTestRouter(ingest, newMockObjectStore())

		payload := `{"source_url":"https://example.com/item_1"}`
		req, _ := http.NewRequest("POST", "/api/admin/products/import", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		var response struct {
			Data struct {
				Product struct {
					ImageURLs []string `json:"image_urls"`
				} `json:"product"`
			} `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(response.Data.Product.ImageURLs) != 1 || response.Data.Product.ImageURLs[0] != "https://img.alibaba.com/a.jpg" {
			t.Errorf("image_urls = %v, want remote URL fallback", response.Data.Product.ImageURLs)
		}
	})

	t.Run("returns 400 for missing source_url", func(t *testing.T) {
		router := setupTestRouter(&mockIngestRunner{}, newMockObjectStore())

		payload := `{"profit_margin":50}`
		req, _ := http.NewRequest("POST", "/api/admin/products/import", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["success"] != false {
			t.Errorf("success = %v, want false", response["success"])
		}
		if response["error"] == nil {
			t.Error("expected error field in response")
		}
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		router := setupTestRouter(&mockIngestRunner{}, newMockObjectStore())

		req, _ := http.NewRequest("POST", "/api/admin/products/import", strings.NewReader(`{invalid json}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 502 for normalization failure", func(t *testing.T) {
		ingest := &mockIngestRunner{err: domain.ErrNormalization}
		router := setupTestRouter(ingest, newMockObjectStore())

		payload := `{"source_url":"https://example.com/item_1"}`
		req, _ := http.NewRequest("POST", "/api/admin/products/import", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
		}
	})

	t.Run("returns 400 for invalid request error", func(t *testing.T) {
		ingest := &mockIngestRunner{err: domain.ErrInvalidRequest}
		router := setupTestRouter(ingest, newMockObjectStore())

		payload := `{"source_url":"   "}`
		req, _ := http.NewRequest("POST", "/api/admin/products/import", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestGetImageEndpoint tests GET /api/images/:key
func TestGetImageEndpoint(t *testing.T) {
	t.Run("streams a stored image", func(t *testing.T) {
		store := newMockObjectStore()
		_ = store.Put(context.Background(), "product-1-0.jpg", []byte("jpeg-bytes"), "image/jpeg")
		router := setupTestRouter(&mockIngestRunner{}, store)

		req, _ := http.NewRequest("GET", "/api/images/product-1-0.jpg", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if got := w.Header().Get("Content-Type"); got != "image/jpeg" {
			t.Errorf("Content-Type = %q, want image/jpeg", got)
		}
		if w.Body.String() != "jpeg-bytes" {
			t.Errorf("body = %q, want jpeg-bytes", w.Body.String())
		}
	})

	t.Run("returns 404 for unknown key", func(t *testing.T) {
		router := setupTestRouter(&mockIngestRunner{}, newMockObjectStore())

		req, _ := http.NewRequest("GET", "/api/images/missing.jpg", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers from panic without crashing server", func(t *testing.T) {
		router := setupTestRouter(&mockIngestRunner{}, newMockObjectStore())

		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		req, _ := http.NewRequest("GET", "/panic", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}

// TestJSONResponses tests that API responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/admin/products/import"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouter(&mockIngestRunner{result: sampleIngestResult()}, newMockObjectStore())

			req, _ := http.NewRequest(endpoint.method, endpoint.path, nil)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gotContentType := w.Header().Get("Content-Type")
			wantContentType := "application/json; charset=utf-8"
			if gotContentType != wantContentType {
				t.Errorf("Content-Type = %q, want %q", gotContentType, wantContentType)
			}

			var response map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Errorf("Response should be valid JSON, got error: %v", err)
			}
		})
	}
}
