package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrProductNotFound = errors.New("product not found")

type ProductStatus string

const (
	StatusDraft     ProductStatus = "draft"
	StatusPublished ProductStatus = "published"
	StatusFailed    ProductStatus = "failed"
)

// ImportedProduct is the catalog row created from one scraped product page.
// Images, documents and attributes are stored as JSON: they are read back as
// a unit and never queried field-by-field.
type ImportedProduct struct {
	ID              uuid.UUID       `db:"id"`
	SKU             string          `db:"sku"`
	Title           string          `db:"title"`
	Price           string          `db:"price"`
	GSTApplied      bool            `db:"gst_applied"`
	DescriptionHTML string          `db:"description_html"`
	Images          json.RawMessage `db:"images"`
	PDFs            json.RawMessage `db:"pdfs"`
	AdditionalInfo  json.RawMessage `db:"additional_info"`
	SourceURL       string          `db:"source_url"`
	Status          ProductStatus   `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// ProductRepository persists imported products.
type ProductRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// InsertWithTx writes the product row inside an existing transaction, so the
// catalog insert and its outbox event commit atomically.
func (r *ProductRepository) InsertWithTx(ctx context.Context, tx pgx.Tx, p *ImportedProduct) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}

	query := `
		INSERT INTO imported_products (
			id, sku, title, price, gst_applied, description_html,
			images, pdfs, additional_info, source_url, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING created_at, updated_at`

	err := tx.QueryRow(ctx, query,
		p.ID, p.SKU, p.Title, p.Price, p.GSTApplied, p.DescriptionHTML,
		p.Images, p.PDFs, p.AdditionalInfo, p.SourceURL, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	return nil
}

// SKUExists reports whether any product already claims the SKU.
func (r *ProductRepository) SKUExists(ctx context.Context, sku string) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM imported_products WHERE sku = $1)", sku).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check sku: %w", err)
	}
	return exists, nil
}

// GetBySKU loads one product by SKU.
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*ImportedProduct, error) {
	query := `
		SELECT id, sku, title, price, gst_applied, description_html,
			images, pdfs, additional_info, source_url, status,
			created_at, updated_at
		FROM imported_products
		WHERE sku = $1`

	p := &ImportedProduct{}
	err := r.db.pool.QueryRow(ctx, query, sku).Scan(
		&p.ID, &p.SKU, &p.Title, &p.Price, &p.GSTApplied, &p.DescriptionHTML,
		&p.Images, &p.PDFs, &p.AdditionalInfo, &p.SourceURL, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// UpdateStatus moves a product between draft, published and failed.
func (r *ProductRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status ProductStatus) error {
	result, err := r.db.pool.Exec(ctx,
		"UPDATE imported_products SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2",
		status, id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ListBySourceDomain returns the most recent imports whose source URL
// belongs to the given storefront, newest first.
func (r *ProductRepository) ListBySourceDomain(ctx context.Context, domain string, limit int) ([]*ImportedProduct, error) {
	query := `
		SELECT id, sku, title, price, gst_applied, description_html,
			images, pdfs, additional_info, source_url, status,
			created_at, updated_at
		FROM imported_products
		WHERE source_url LIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.pool.Query(ctx, query, domain, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*ImportedProduct
	for rows.Next() {
		p := &ImportedProduct{}
		err := rows.Scan(
			&p.ID, &p.SKU, &p.Title, &p.Price, &p.GSTApplied, &p.DescriptionHTML,
			&p.Images, &p.PDFs, &p.AdditionalInfo, &p.SourceURL, &p.Status,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}
