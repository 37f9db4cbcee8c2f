package storefront

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrBrandNotFound is returned by BrandStore lookups for unknown ids.
var ErrBrandNotFound = errors.New("brand not found")

// BrandStore persists generated profiles.
type BrandStore interface {
	SaveProfile(ctx context.Context, website string, profile *BrandProfile) (int64, error)
	ListBrands(ctx context.Context, limit, offset int) ([]BrandRecord, error)
	GetBrand(ctx context.Context, id int64) (BrandDetail, error)
	DeleteBrand(ctx context.Context, id int64) error
	Close()
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, body io.Reader) (string, error)
}

// Publisher pushes profile events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// ProfileCache keeps recently generated profiles keyed by normalized URL.
type ProfileCache interface {
	Get(ctx context.Context, key string) (*BrandProfile, bool, error)
	Set(ctx context.Context, key string, profile *BrandProfile, ttl time.Duration) error
}

// Hasher computes digests for snapshot naming.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
