package geocoder

import (
	"context"
	"lifeline/pkg/logger"
	"time"

	"github.com/mmcloughlin/geohash"
)

const (
	// geohashPrecision 9 is a ~5m cell, close to what zoom=18 resolves to.
	geohashPrecision = 9
)

// CacheStore persists resolved addresses keyed by geohash cell.
type CacheStore interface {
	// GetAddress returns ("", false, nil) when nothing valid is cached.
	GetAddress(ctx context.Context, cell string) (string, bool, error)
	SetAddress(ctx context.Context, cell, address string, ttl time.Duration) error
}

// CachedReverser wraps a Reverser with a cache. Public Nominatim allows one
// request per second, and a driver re-polls the same dispatch every few seconds.
type CachedReverser struct {
	inner Reverser
	store CacheStore
	ttl   time.Duration
	log   logger.ILogger
}

func NewCachedReverser(inner Reverser, store CacheStore, ttl time.Duration, log logger.ILogger) *CachedReverser {
	return &CachedReverser{inner: inner, store: store, ttl: ttl, log: log}
}

func (c *CachedReverser) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	cell := Cell(lat, lon)

	addr, found, err := c.store.GetAddress(ctx, cell)
	if err != nil {
		c.log.Warning("geocode cache read failed", logger.String("cell", cell), logger.Error(err))
	}
	if found {
		return addr, nil
	}

	addr, err = c.inner.Reverse(ctx, lat, lon)
	if err != nil {
		return "", err
	}

	// empty answers are not cached so the next dispatch at that spot retries
	if addr != "" {
		if err := c.store.SetAddress(ctx, cell, addr, c.ttl); err != nil {
			c.log.Warning("geocode cache write failed", logger.String("cell", cell), logger.Error(err))
		}
	}
	return addr, nil
}

// Cell returns the cache key of a coordinate.
func Cell(lat, lon float64) string {
	return geohash.EncodeWithPrecision(lat, lon, geohashPrecision)
}
