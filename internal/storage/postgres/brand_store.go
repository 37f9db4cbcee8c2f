// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

// Config controls the Postgres connection pool used for brand rows.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Begin(context.Context) (pgx.Tx, error)
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// BrandStore implements storefront.BrandStore on Postgres.
type BrandStore struct {
	pool pool
}

// NewBrandStore connects a pool using cfg.
func NewBrandStore(ctx context.Context, cfg Config) (*BrandStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &BrandStore{pool: p}, nil
}

// NewBrandStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewBrandStoreWithPool(p pool) (*BrandStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &BrandStore{pool: p}, nil
}

// Close releases the underlying pool resources.
func (s *BrandStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping checks connectivity.
func (s *BrandStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// EnsureSchema creates the brand tables when they are missing.
func (s *BrandStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

const upsertBrandSQL = `
INSERT INTO brands (website, name, domain, platform, about, profile)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (website) DO UPDATE SET
	name = EXCLUDED.name,
	domain = EXCLUDED.domain,
	platform = EXCLUDED.platform,
	about = EXCLUDED.about,
	profile = EXCLUDED.profile,
	updated_at = now()
RETURNING id`

const upsertProductSQL = `
INSERT INTO products (brand_id, product_key, external_id, title, price, url, image, available)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (brand_id, product_key) DO UPDATE SET
	external_id = EXCLUDED.external_id,
	title = EXCLUDED.title,
	price = EXCLUDED.price,
	url = EXCLUDED.url,
	image = EXCLUDED.image,
	available = EXCLUDED.available,
	updated_at = now()`

// SaveProfile upserts the brand keyed by website and each catalog product keyed by its
// identifier, all in one transaction. It returns the brand id.
func (s *BrandStore) SaveProfile(ctx context.Context, website string, profile *storefront.BrandProfile) (int64, error) {
	if profile == nil {
		return 0, fmt.Errorf("profile is required")
	}
	doc, err := json.Marshal(profile)
	if err != nil {
		return 0, fmt.Errorf("marshal profile: %w", err)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	id, err := saveProfileTx(ctx, tx, website, profile, doc)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit profile: %w", err)
	}
	return id, nil
}

func saveProfileTx(
	ctx context.Context,
	tx pgx.Tx,
	website string,
	profile *storefront.BrandProfile,
	doc []byte,
) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, upsertBrandSQL,
		website,
		profile.Brand,
		profile.Domain,
		string(profile.Platform),
		profile.About.Text,
		doc,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert brand: %w", err)
	}
	for _, prod := range profile.ProductCatalog {
		if _, err := tx.Exec(ctx, upsertProductSQL,
			id,
			prod.Key(),
			prod.ID,
			prod.Title,
			prod.Price,
			prod.URL,
			prod.Image,
			prod.Available,
		); err != nil {
			return 0, fmt.Errorf("upsert product %q: %w", prod.Key(), err)
		}
	}
	return id, nil
}

const brandColumns = `
SELECT b.id, b.website, b.name, b.about, count(p.id), b.created_at, b.updated_at
FROM brands b
LEFT JOIN products p ON p.brand_id = b.id`

// ListBrands returns brands ordered by id.
func (s *BrandStore) ListBrands(ctx context.Context, limit, offset int) ([]storefront.BrandRecord, error) {
	rows, err := s.pool.Query(ctx, brandColumns+`
GROUP BY b.id
ORDER BY b.id
LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	brands := []storefront.BrandRecord{}
	for rows.Next() {
		rec, err := scanBrand(rows)
		if err != nil {
			return nil, err
		}
		brands = append(brands, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brands: %w", err)
	}
	return brands, nil
}

// GetBrand returns a brand with its products, or storefront.ErrBrandNotFound.
func (s *BrandStore) GetBrand(ctx context.Context, id int64) (storefront.BrandDetail, error) {
	row := s.pool.QueryRow(ctx, brandColumns+`
WHERE b.id = $1
GROUP BY b.id`, id)
	rec, err := scanBrand(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storefront.BrandDetail{}, storefront.ErrBrandNotFound
		}
		return storefront.BrandDetail{}, err
	}

	rows, err := s.pool.Query(ctx, `
SELECT external_id, title, price, url, image, available
FROM products
WHERE brand_id = $1
ORDER BY id`, id)
	if err != nil {
		return storefront.BrandDetail{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	detail := storefront.BrandDetail{BrandRecord: rec, Products: []storefront.Product{}}
	for rows.Next() {
		var prod storefront.Product
		if err := rows.Scan(&prod.ID, &prod.Title, &prod.Price, &prod.URL, &prod.Image, &prod.Available); err != nil {
			return storefront.BrandDetail{}, fmt.Errorf("scan product: %w", err)
		}
		detail.Products = append(detail.Products, prod)
	}
	if err := rows.Err(); err != nil {
		return storefront.BrandDetail{}, fmt.Errorf("iterate products: %w", err)
	}
	return detail, nil
}

// DeleteBrand removes a brand and, by cascade, its products.
func (s *BrandStore) DeleteBrand(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storefront.ErrBrandNotFound
	}
	return nil
}

func scanBrand(row pgx.Row) (storefront.BrandRecord, error) {
	var rec storefront.BrandRecord
	var count int64
	err := row.Scan(&rec.ID, &rec.Website, &rec.Name, &rec.About, &count, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan brand: %w", err)
	}
	rec.ProductCount = int(count)
	return rec, nil
}
