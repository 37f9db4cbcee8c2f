// Package memory holds brands and snapshot blobs in-memory for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

type brandRow struct {
	record   storefront.BrandRecord
	products []storefront.Product
	index    map[string]int
}

// BrandStore implements storefront.BrandStore with the same upsert semantics as the Postgres store.
type BrandStore struct {
	mu        sync.RWMutex
	nextID    int64
	brands    map[int64]*brandRow
	byWebsite map[string]int64
	now       func() time.Time
}

// NewBrandStore constructs an empty BrandStore.
func NewBrandStore() *BrandStore {
	return &BrandStore{
		brands:    make(map[int64]*brandRow),
		byWebsite: make(map[string]int64),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SaveProfile upserts the brand by website and merges products by key.
func (s *BrandStore) SaveProfile(_ context.Context, website string, profile *storefront.BrandProfile) (int64, error) {
	if profile == nil {
		return 0, fmt.Errorf("profile is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id, ok := s.byWebsite[website]
	if !ok {
		s.nextID++
		id = s.nextID
		s.byWebsite[website] = id
		s.brands[id] = &brandRow{
			record: storefront.BrandRecord{ID: id, Website: website, CreatedAt: now},
			index:  make(map[string]int),
		}
	}
	row := s.brands[id]
	row.record.Name = profile.Brand
	row.record.About = profile.About.Text
	row.record.UpdatedAt = now
	for _, prod := range profile.ProductCatalog {
		key := prod.Key()
		if i, exists := row.index[key]; exists {
			row.products[i] = prod
			continue
		}
		row.index[key] = len(row.products)
		row.products = append(row.products, prod)
	}
	row.record.ProductCount = len(row.products)
	return id, nil
}

// ListBrands returns brands ordered by id.
func (s *BrandStore) ListBrands(_ context.Context, limit, offset int) ([]storefront.BrandRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.brands))
	for id := range s.brands {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []storefront.BrandRecord{}
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, s.brands[id].record)
	}
	return out, nil
}

// GetBrand returns a copy of the brand and its products.
func (s *BrandStore) GetBrand(_ context.Context, id int64) (storefront.BrandDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.brands[id]
	if !ok {
		return storefront.BrandDetail{}, storefront.ErrBrandNotFound
	}
	return storefront.BrandDetail{
		BrandRecord: row.record,
		Products:    append([]storefront.Product{}, row.products...),
	}, nil
}

// DeleteBrand removes a brand and its products.
func (s *BrandStore) DeleteBrand(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.brands[id]
	if !ok {
		return storefront.ErrBrandNotFound
	}
	delete(s.byWebsite, row.record.Website)
	delete(s.brands, id)
	return nil
}

// Close is a no-op.
func (s *BrandStore) Close() {}
