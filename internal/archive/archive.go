// Package archive snapshots generated profiles to blob storage and announces them.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/storefront-insights/internal/hash/sha256"
	"github.com/JakeFAU/storefront-insights/internal/logging"
	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

const contentType = "application/json"

// Config controls Archiver behavior.
type Config struct {
	Prefix string
	Topic  string
}

// Event is published after a snapshot is stored.
type Event struct {
	Domain      string    `json:"domain"`
	Brand       string    `json:"brand"`
	SnapshotURI string    `json:"snapshot_uri"`
	Hash        string    `json:"hash"`
	Products    int       `json:"products"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Attributes tags the message with the storefront domain.
func (e Event) Attributes() map[string]string {
	return map[string]string{"domain": e.Domain}
}

// Result describes a stored snapshot.
type Result struct {
	URI       string
	Hash      string
	MessageID string
}

// Archiver writes profile snapshots and publishes an Event per snapshot.
type Archiver struct {
	blobs     storefront.BlobStore
	publisher storefront.Publisher
	hasher    storefront.Hasher
	clock     storefront.Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs an Archiver. publisher may be nil, in which case nothing is announced.
func New(
	blobs storefront.BlobStore,
	publisher storefront.Publisher,
	hasher storefront.Hasher,
	clock storefront.Clock,
	cfg Config,
	logger *zap.Logger,
) *Archiver {
	return &Archiver{
		blobs:     blobs,
		publisher: publisher,
		hasher:    hasher,
		clock:     clock,
		cfg:       cfg,
		logger:    logging.OrNop(logger).Named("archive"),
	}
}

// Archive stores profile as JSON under prefix/<domain>/<unix>-<hash12>.json and, when a topic is
// configured, publishes the snapshot Event.
func (a *Archiver) Archive(ctx context.Context, profile *storefront.BrandProfile) (Result, error) {
	if profile == nil {
		return Result{}, fmt.Errorf("profile is required")
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return Result{}, fmt.Errorf("marshal profile: %w", err)
	}
	digest, err := a.hasher.Hash(data)
	if err != nil {
		return Result{}, fmt.Errorf("hash profile: %w", err)
	}

	now := a.clock.Now()
	path := a.objectPath(profile.Domain, now, digest)
	uri, err := a.blobs.PutObject(ctx, path, contentType, bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("put object: %w", err)
	}
	res := Result{URI: uri, Hash: digest}

	if a.cfg.Topic == "" || a.publisher == nil {
		return res, nil
	}
	event := Event{
		Domain:      profile.Domain,
		Brand:       profile.Brand,
		SnapshotURI: uri,
		Hash:        digest,
		Products:    len(profile.ProductCatalog),
		GeneratedAt: profile.Timestamp,
	}
	id, err := a.publisher.Publish(ctx, a.cfg.Topic, event)
	if err != nil {
		return res, fmt.Errorf("publish snapshot event: %w", err)
	}
	res.MessageID = id
	a.logger.Info("snapshot published",
		zap.String("domain", profile.Domain),
		zap.String("uri", uri),
		zap.String("hash", digest),
		zap.String("message_id", id),
	)
	return res, nil
}

func (a *Archiver) objectPath(domain string, at time.Time, digest string) string {
	if domain == "" {
		domain = "unknown"
	}
	name := fmt.Sprintf("%s/%d-%s.json", domain, at.Unix(), sha256.Short(digest, 12))
	prefix := strings.Trim(a.cfg.Prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
