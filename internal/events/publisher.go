package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/harborline/product-import/internal/database"
	"github.com/jackc/pgx/v5"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeProductImported is published when a scraped product lands in
	// the catalog.
	EventTypeProductImported EventType = "PRODUCT_IMPORTED"
	// EventTypeImportFailed is published when an import could not complete.
	EventTypeImportFailed EventType = "IMPORT_FAILED"
)

// ProductImportedPayload is the event body for PRODUCT_IMPORTED.
type ProductImportedPayload struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Timestamp  time.Time `json:"timestamp"`
	ProductID  string    `json:"product_id"`
	SKU        string    `json:"sku"`
	Title      string    `json:"title"`
	Price      string    `json:"price,omitempty"`
	GSTApplied bool      `json:"gst_applied"`
	ImageCount int       `json:"image_count"`
	PDFCount   int       `json:"pdf_count"`
	SourceURL  string    `json:"source_url"`
	Source     string    `json:"source"`
}

// ImportFailedPayload is the event body for IMPORT_FAILED.
type ImportFailedPayload struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	SourceURL string    `json:"source_url"`
	Reason    string    `json:"reason"`
	Source    string    `json:"source"`
}

// Publisher handles event publishing using the transactional outbox pattern.
type Publisher struct {
	db     *database.DB
	outbox *database.OutboxRepository
	logger *slog.Logger
}

func NewPublisher(db *database.DB, logger *slog.Logger) *Publisher {
	return &Publisher{
		db:     db,
		outbox: database.NewOutboxRepository(db),
		logger: logger.With("component", "event_publisher"),
	}
}

// PublishProductImportedTx stages a PRODUCT_IMPORTED event inside the caller's
// transaction, committing atomically with the catalog insert.
func (p *Publisher) PublishProductImportedTx(ctx context.Context, tx pgx.Tx, payload *ProductImportedPayload) error {
	fillImportedDefaults(payload)

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	outboxEvent := &database.OutboxEvent{
		AggregateType: "product",
		AggregateID:   payload.SKU,
		EventType:     string(EventTypeProductImported),
		Payload:       data,
		TargetStream:  database.DefaultImportStream,
	}

	if err := p.outbox.InsertWithTx(ctx, tx, outboxEvent); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	p.logger.Info("event staged in outbox",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"sku", payload.SKU,
		"outbox_id", outboxEvent.ID,
	)

	return nil
}

// PublishImportFailed publishes an IMPORT_FAILED event in its own
// transaction.
func (p *Publisher) PublishImportFailed(ctx context.Context, payload *ImportFailedPayload) error {
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	if payload.EventType == "" {
		payload.EventType = string(EventTypeImportFailed)
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}
	if payload.Source == "" {
		payload.Source = "product-import"
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	outboxEvent := &database.OutboxEvent{
		AggregateType: "import",
		AggregateID:   payload.SourceURL,
		EventType:     string(EventTypeImportFailed),
		Payload:       data,
		TargetStream:  database.DefaultImportStream,
	}

	err = p.db.Transaction(ctx, func(tx pgx.Tx) error {
		return p.outbox.InsertWithTx(ctx, tx, outboxEvent)
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("event published to outbox",
		"type", payload.EventType,
		"source_url", payload.SourceURL,
		"outbox_id", outboxEvent.ID,
	)

	return nil
}

func fillImportedDefaults(payload *ProductImportedPayload) {
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	if payload.EventType == "" {
		payload.EventType = string(EventTypeProductImported)
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}
	if payload.Source == "" {
		payload.Source = "product-import"
	}
}
