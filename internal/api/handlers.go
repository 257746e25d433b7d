package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harborline/product-import/internal/database"
	"github.com/harborline/product-import/internal/fetcher"
	"github.com/harborline/product-import/internal/models"
	"github.com/harborline/product-import/internal/scraper"
)

// PageFetcher downloads product pages.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// PageScraper extracts a product record from fetched HTML.
type PageScraper interface {
	Scrape(html, sourceURL string) (*models.ProductRecord, error)
}

// Cataloger persists scraped records and records imports that failed.
type Cataloger interface {
	CreateProduct(ctx context.Context, record *models.ProductRecord) (*models.ImportResult, error)
	ReportFailure(ctx context.Context, sourceURL, reason string)
}

// ProductStore reads and updates imported catalog rows.
type ProductStore interface {
	GetBySKU(ctx context.Context, sku string) (*database.ImportedProduct, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status database.ProductStatus) error
	ListBySourceDomain(ctx context.Context, domain string, limit int) ([]*database.ImportedProduct, error)
}

type Handlers struct {
	fetcher PageFetcher
	scraper PageScraper
	catalog Cataloger
	logger  *slog.Logger
}

func NewHandlers(f PageFetcher, s PageScraper, c Cataloger, logger *slog.Logger) *Handlers {
	return &Handlers{
		fetcher: f,
		scraper: s,
		catalog: c,
		logger:  logger,
	}
}

// ScrapeRequest asks for extraction of a single product page.
type ScrapeRequest struct {
	URL string `json:"url"`
}

// ScrapeResponse carries the extracted product record.
type ScrapeResponse struct {
	Product *models.ProductRecord `json:"product,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// ImportRequest asks for a full scrape-and-import of a product page.
type ImportRequest struct {
	URL string `json:"url"`
}

// ImportResponse carries the catalog import outcome.
type ImportResponse struct {
	Result *models.ImportResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// StatusRequest asks for a product's status to change.
type StatusRequest struct {
	Status string `json:"status"`
}

// Scrape extracts a product record without touching the catalog. Useful for
// previewing what an import would pick up.
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	record, err := h.scrapeURL(r.Context(), req.URL)
	if err != nil {
		h.logger.Error("scrape failed", "url", req.URL, "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, scraper.ErrEmptyHTML) || errors.Is(err, fetcher.ErrInvalidURL) {
			status = http.StatusUnprocessableEntity
		}
		h.respondJSON(w, status, ScrapeResponse{Error: err.Error()})
		return
	}

	h.respondJSON(w, http.StatusOK, ScrapeResponse{Product: record})
}

// Import scrapes a product page and creates the catalog entry. Failures on
// either step raise an IMPORT_FAILED event before the error goes back to the
// caller.
func (h *Handlers) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	record, err := h.scrapeURL(r.Context(), req.URL)
	if err != nil {
		h.logger.Error("scrape failed", "url", req.URL, "error", err)
		h.catalog.ReportFailure(r.Context(), req.URL, err.Error())
		h.respondJSON(w, http.StatusBadGateway, ImportResponse{Error: err.Error()})
		return
	}

	result, err := h.catalog.CreateProduct(r.Context(), record)
	if err != nil {
		h.logger.Error("import failed", "url", req.URL, "error", err)
		h.catalog.ReportFailure(r.Context(), req.URL, err.Error())
		h.respondJSON(w, http.StatusInternalServerError, ImportResponse{Error: err.Error()})
		return
	}

	h.respondJSON(w, http.StatusCreated, ImportResponse{Result: result})
}

// GetProduct returns one imported product by SKU.
func (h *Handlers) GetProduct(products ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku := chi.URLParam(r, "sku")
		if sku == "" {
			h.respondError(w, http.StatusBadRequest, "sku is required")
			return
		}

		product, err := products.GetBySKU(r.Context(), sku)
		if err != nil {
			if errors.Is(err, database.ErrProductNotFound) {
				h.respondError(w, http.StatusNotFound, "product not found")
				return
			}
			h.logger.Error("failed to get product", "sku", sku, "error", err)
			h.respondError(w, http.StatusInternalServerError, "failed to get product")
			return
		}

		h.respondJSON(w, http.StatusOK, product)
	}
}

// UpdateProductStatus moves an imported product between draft, published and
// failed, addressed by SKU.
func (h *Handlers) UpdateProductStatus(products ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku := chi.URLParam(r, "sku")
		if sku == "" {
			h.respondError(w, http.StatusBadRequest, "sku is required")
			return
		}

		var req StatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		status := database.ProductStatus(req.Status)
		switch status {
		case database.StatusDraft, database.StatusPublished, database.StatusFailed:
		default:
			h.respondError(w, http.StatusBadRequest, "invalid status")
			return
		}

		product, err := products.GetBySKU(r.Context(), sku)
		if err != nil {
			if errors.Is(err, database.ErrProductNotFound) {
				h.respondError(w, http.StatusNotFound, "product not found")
				return
			}
			h.logger.Error("failed to get product", "sku", sku, "error", err)
			h.respondError(w, http.StatusInternalServerError, "failed to get product")
			return
		}

		if err := products.UpdateStatus(r.Context(), product.ID, status); err != nil {
			h.logger.Error("failed to update status", "sku", sku, "error", err)
			h.respondError(w, http.StatusInternalServerError, "failed to update status")
			return
		}

		h.respondJSON(w, http.StatusOK, map[string]string{"sku": sku, "status": req.Status})
	}
}

// ListProducts returns recent imports for one source storefront, newest
// first. The domain query parameter is required; limit defaults to 50.
func (h *Handlers) ListProducts(products ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain := r.URL.Query().Get("domain")
		if domain == "" {
			h.respondError(w, http.StatusBadRequest, "domain is required")
			return
		}

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 200 {
				h.respondError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = parsed
		}

		list, err := products.ListBySourceDomain(r.Context(), domain, limit)
		if err != nil {
			h.logger.Error("failed to list products", "domain", domain, "error", err)
			h.respondError(w, http.StatusInternalServerError, "failed to list products")
			return
		}

		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"domain":   domain,
			"count":    len(list),
			"products": list,
		})
	}
}

func (h *Handlers) scrapeURL(ctx context.Context, pageURL string) (*models.ProductRecord, error) {
	html, err := h.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return h.scraper.Scrape(html, pageURL)
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
