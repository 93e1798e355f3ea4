// Package shopcat implements the destination catalog port over the commerce
// platform's REST API. Every write passes through a circuit breaker so a
// failing API stops the run early instead of retrying every single record
// against a dead endpoint.
package shopcat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/platform/errors"
	"catalogsync/internal/platform/httpclient"
	"catalogsync/internal/platform/logx"
	"catalogsync/internal/platform/resilience"
)

const pageLimit = 250

// Config holds the catalog API settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Catalog implements ports.DestinationCatalog.
type Catalog struct {
	client  *httpclient.Client
	breaker *resilience.CircuitBreaker
	baseURL string
	token   string
	logger  logx.Logger
}

var _ ports.DestinationCatalog = (*Catalog)(nil)

// New creates the catalog adapter.
func New(cfg Config, logger logx.Logger) *Catalog {
	client := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRetries:   3,
		RetryBackoff: 1 * time.Second,
		RateLimit:    2.0, // the platform throttles at 2 req/s
	}, logger)

	return &Catalog{
		client:  client,
		breaker: resilience.NewCircuitBreaker(5, 60*time.Second, 3),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		logger:  logger.With("adapter", "shopcat"),
	}
}

// wire formats

type recordPage struct {
	Records []record `json:"records"`
	HasMore bool     `json:"has_more"`
}

type record struct {
	ID        string    `json:"id"`
	Handle    string    `json:"handle"`
	Title     string    `json:"title"`
	Tags      string    `json:"tags"` // comma separated
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Variants  []variant `json:"variants"`
}

type variant struct {
	ID              string `json:"id"`
	SKU             string `json:"sku"`
	InventoryItemID string `json:"inventory_item_id"`
	Price           string `json:"price"`
	Inventory       int    `json:"inventory_quantity"`
}

type inventoryLevels struct {
	Levels []struct {
		InventoryItemID string `json:"inventory_item_id"`
		Available       int    `json:"available"`
	} `json:"inventory_levels"`
}

// FetchAll implements ports.DestinationCatalog.
func (c *Catalog) FetchAll(ctx context.Context, fields []string) ([]domain.DestinationRecord, error) {
	var records []domain.DestinationRecord

	for pageNum := 1; ; pageNum++ {
		endpoint := fmt.Sprintf("%s/records?page=%d&limit=%d&fields=%s",
			c.baseURL, pageNum, pageLimit, url.QueryEscape(strings.Join(fields, ",")))

		var p recordPage
		if err := c.call(ctx, http.MethodGet, endpoint, nil, &p); err != nil {
			return nil, errors.Wrapf(err, "records page %d", pageNum)
		}

		for _, r := range p.Records {
			records = append(records, toDomain(r))
		}

		if !p.HasMore || len(p.Records) == 0 {
			break
		}
	}

	c.logger.Info("catalog snapshot fetched", "records", len(records))
	return records, nil
}

// FetchInventoryLevels implements ports.DestinationCatalog. The API caps the
// ids-per-call, so the lookup is chunked.
func (c *Catalog) FetchInventoryLevels(ctx context.Context, itemIDs []string) (map[string]int, error) {
	levels := make(map[string]int, len(itemIDs))

	const chunkSize = 50
	for start := 0; start < len(itemIDs); start += chunkSize {
		end := start + chunkSize
		if end > len(itemIDs) {
			end = len(itemIDs)
		}

		endpoint := fmt.Sprintf("%s/inventory_levels?item_ids=%s",
			c.baseURL, url.QueryEscape(strings.Join(itemIDs[start:end], ",")))

		var out inventoryLevels
		if err := c.call(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
			return nil, errors.Wrap(err, "inventory levels")
		}
		for _, lvl := range out.Levels {
			levels[lvl.InventoryItemID] = lvl.Available
		}
	}

	return levels, nil
}

// SetInventory implements ports.DestinationCatalog.
func (c *Catalog) SetInventory(ctx context.Context, itemID string, qty int) error {
	endpoint := fmt.Sprintf("%s/inventory_levels/%s", c.baseURL, url.PathEscape(itemID))
	body := map[string]int{"available": qty}
	return c.call(ctx, http.MethodPut, endpoint, body, nil)
}

// CreateRecord implements ports.DestinationCatalog.
func (c *Catalog) CreateRecord(ctx context.Context, input ports.RecordInput) (*domain.DestinationRecord, error) {
	endpoint := c.baseURL + "/records"
	body := map[string]any{
		"title":       input.Title,
		"handle":      input.Handle,
		"tags":        strings.Join(input.Tags, ","),
		"status":      string(input.Status),
		"description": input.Description,
		"images":      input.Images,
		"variants": []map[string]any{{
			"sku":                input.Variant.SKU,
			"price":              input.Variant.Price.String(),
			"inventory_quantity": input.Variant.Inventory,
		}},
	}

	var out struct {
		Record record `json:"record"`
	}
	if err := c.call(ctx, http.MethodPost, endpoint, body, &out); err != nil {
		return nil, errors.Wrapf(err, "create record %q", input.Title)
	}

	created := toDomain(out.Record)
	return &created, nil
}

// UpdateStatus implements ports.DestinationCatalog.
func (c *Catalog) UpdateStatus(ctx context.Context, id string, status domain.RecordStatus) error {
	endpoint := fmt.Sprintf("%s/records/%s/status", c.baseURL, url.PathEscape(id))
	body := map[string]string{"status": string(status)}
	return c.call(ctx, http.MethodPut, endpoint, body, nil)
}

// UpdateSKU implements ports.DestinationCatalog.
func (c *Catalog) UpdateSKU(ctx context.Context, variantID, sku string) error {
	endpoint := fmt.Sprintf("%s/variants/%s", c.baseURL, url.PathEscape(variantID))
	body := map[string]string{"sku": sku}
	return c.call(ctx, http.MethodPut, endpoint, body, nil)
}

// Delete implements ports.DestinationCatalog.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/records/%s", c.baseURL, url.PathEscape(id))
	return c.call(ctx, http.MethodDelete, endpoint, nil, nil)
}

// call routes one API call through the circuit breaker.
func (c *Catalog) call(ctx context.Context, method, endpoint string, in, out any) error {
	if !c.breaker.Allow() {
		c.logger.Warn("circuit breaker open, rejecting call", "method", method)
		return errors.Wrap(errors.ErrServiceUnavailable, resilience.ErrCircuitOpen.Error())
	}

	err := c.client.DoJSON(ctx, method, endpoint, in, out, c.headers())
	if err != nil {
		c.breaker.RecordFailure()
		return err
	}
	c.breaker.RecordSuccess()
	return nil
}

func (c *Catalog) headers() map[string]string {
	if c.token == "" {
		return nil
	}
	return map[string]string{"X-Access-Token": c.token}
}

func toDomain(r record) domain.DestinationRecord {
	rec := domain.DestinationRecord{
		ID:        r.ID,
		Handle:    r.Handle,
		Title:     r.Title,
		Status:    domain.RecordStatus(r.Status),
		CreatedAt: r.CreatedAt,
	}
	if r.Tags != "" {
		for _, tag := range strings.Split(r.Tags, ",") {
			rec.Tags = append(rec.Tags, strings.TrimSpace(tag))
		}
	}
	if len(r.Variants) > 0 {
		v := r.Variants[0]
		price, _ := decimal.NewFromString(v.Price)
		rec.Variant = domain.Variant{
			ID:              v.ID,
			SKU:             v.SKU,
			InventoryItemID: v.InventoryItemID,
			Price:           price,
			Inventory:       v.Inventory,
		}
	}
	return rec
}
