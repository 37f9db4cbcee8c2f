package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/storefront-insights/internal/fetch"
	"github.com/JakeFAU/storefront-insights/internal/logging"
	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

// Client pages through the product feed.
type Client struct {
	fetcher   fetch.Fetcher
	pageLimit int
	maxPages  int
	logger    *zap.Logger
}

// NewClient builds a feed client. pageLimit is the feed's per-page size, maxPages bounds the walk.
func NewClient(fetcher fetch.Fetcher, pageLimit, maxPages int, logger *zap.Logger) *Client {
	if pageLimit <= 0 {
		pageLimit = 250
	}
	if maxPages <= 0 {
		maxPages = 1
	}
	return &Client{
		fetcher:   fetcher,
		pageLimit: pageLimit,
		maxPages:  maxPages,
		logger:    logging.OrNop(logger).Named("catalog"),
	}
}

// Products returns the feed entries in source order. A failure on the first page is an error;
// a failure on a later page ends the walk with what was already collected.
func (c *Client) Products(ctx context.Context, origin string) ([]storefront.Product, error) {
	products := []storefront.Product{}
	for page := 1; page <= c.maxPages; page++ {
		feedURL := fmt.Sprintf("%s?limit=%d&page=%d", fetch.JoinPath(origin, "/products.json"), c.pageLimit, page)
		batch, err := c.page(ctx, feedURL, origin)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			c.logger.Warn("product feed page failed", zap.String("url", feedURL), zap.Error(err))
			break
		}
		products = append(products, batch...)
		if len(batch) < c.pageLimit {
			break
		}
	}
	return products, nil
}

func (c *Client) page(ctx context.Context, feedURL, origin string) ([]storefront.Product, error) {
	resp, err := c.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch product feed: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("fetch product feed: status %d", resp.StatusCode)
	}
	res, err := Decode(resp.Body, origin)
	if err != nil {
		return nil, err
	}
	if res.Rejected > 0 {
		c.logger.Debug("rejected feed entries", zap.String("url", feedURL), zap.Int("rejected", res.Rejected))
	}
	return res.Products, nil
}
