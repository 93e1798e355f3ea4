// Package feed implements the supplier feed port over a paged JSON HTTP API.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/platform/errors"
	"catalogsync/internal/platform/httpclient"
	"catalogsync/internal/platform/logx"
	"catalogsync/internal/platform/textnorm"
)

// Config holds the feed endpoint settings.
type Config struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Timeout  time.Duration
}

// Catalog fetches the supplier feed page by page until the server reports no
// more items. It implements ports.SourceCatalog.
type Catalog struct {
	client   *httpclient.Client
	baseURL  string
	apiKey   string
	pageSize int
	logger   logx.Logger
}

var _ ports.SourceCatalog = (*Catalog)(nil)

// New creates the feed catalog.
func New(cfg Config, logger logx.Logger) *Catalog {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 250
	}

	client := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRetries:   3,
		RetryBackoff: 2 * time.Second,
	}, logger)

	return &Catalog{
		client:   client,
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		logger:   logger.With("adapter", "feed"),
	}
}

// wire format of one feed page
type page struct {
	Items   []item `json:"items"`
	HasMore bool   `json:"has_more"`
}

type item struct {
	SKU         string   `json:"sku"`
	Title       string   `json:"title"`
	Inventory   int      `json:"inventory"`
	Price       string   `json:"price"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

// FetchAll implements ports.SourceCatalog.
func (c *Catalog) FetchAll(ctx context.Context) ([]domain.SourceItem, error) {
	var items []domain.SourceItem

	for pageNum := 1; ; pageNum++ {
		url := fmt.Sprintf("%s/products?page=%d&limit=%d", c.baseURL, pageNum, c.pageSize)

		var p page
		if err := c.client.GetJSON(ctx, url, &p, c.headers()); err != nil {
			return nil, errors.Wrapf(err, "feed page %d", pageNum)
		}

		for _, it := range p.Items {
			items = append(items, c.toDomain(it))
		}

		c.logger.Debug("feed page fetched",
			"page", pageNum,
			"items", len(p.Items),
			"total", len(items),
		)

		if !p.HasMore || len(p.Items) == 0 {
			break
		}
	}

	c.logger.Info("feed snapshot fetched", "items", len(items))
	return items, nil
}

func (c *Catalog) toDomain(it item) domain.SourceItem {
	price, err := decimal.NewFromString(it.Price)
	if err != nil && it.Price != "" {
		c.logger.Warn("unparseable price, using zero", "sku", it.SKU, "price", it.Price)
	}

	return domain.SourceItem{
		SKU:             it.SKU,
		Title:           it.Title,
		NormalizedTitle: textnorm.Normalize(it.Title),
		Handle:          textnorm.Handle(it.Title),
		Inventory:       it.Inventory,
		Price:           price,
		Description:     it.Description,
		Images:          it.Images,
	}
}

func (c *Catalog) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}
