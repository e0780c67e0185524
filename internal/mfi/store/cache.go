package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"grameengo/internal/mfi/metrics"
	"grameengo/internal/mfi/models"
	id "grameengo/pkg/domain"
	"grameengo/pkg/platform/circuit"
)

// Backend is the authoritative catalog store behind the cache.
type Backend interface {
	List(ctx context.Context) ([]*models.MFI, error)
	FindByID(ctx context.Context, mfiID id.MFIID) (*models.MFI, error)
	Create(ctx context.Context, m *models.MFI) error
	ListProducts(ctx context.Context, mfiID *id.MFIID) ([]*models.LoanProduct, error)
	CreateProduct(ctx context.Context, p *models.LoanProduct) error
}

const (
	keyPrefix   = "grameengo:catalog:"
	keyMFIList  = keyPrefix + "mfis"
	keyProducts = keyPrefix + "products:"
)

func mfiKey(mfiID id.MFIID) string { return keyPrefix + "mfi:" + mfiID.String() }

func productsKey(mfiID *id.MFIID) string {
	if mfiID == nil {
		return keyProducts + "all"
	}
	return keyProducts + mfiID.String()
}

// Cached is a redis read-through cache in front of a Backend. Concurrent
// misses for one key share a single backend load. When redis keeps failing
// the circuit opens and reads go straight to the backend.
type Cached struct {
	backend Backend
	client  redis.UniversalClient
	ttl     time.Duration
	group   singleflight.Group
	breaker *circuit.Breaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type CacheOption func(*Cached)

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *Cached) { c.metrics = m }
}

func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cached) { c.logger = l }
}

func WithBreaker(b *circuit.Breaker) CacheOption {
	return func(c *Cached) { c.breaker = b }
}

func NewCached(backend Backend, client redis.UniversalClient, ttl time.Duration, opts ...CacheOption) *Cached {
	c := &Cached{
		backend: backend,
		client:  client,
		ttl:     ttl,
		breaker: circuit.New("catalog-cache"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cached) List(ctx context.Context) ([]*models.MFI, error) {
	return readThrough(ctx, c, keyMFIList, c.backend.List)
}

func (c *Cached) FindByID(ctx context.Context, mfiID id.MFIID) (*models.MFI, error) {
	start := time.Now()
	defer c.metrics.ObserveLookup(start)
	return readThrough(ctx, c, mfiKey(mfiID), func(ctx context.Context) (*models.MFI, error) {
		return c.backend.FindByID(ctx, mfiID)
	})
}

func (c *Cached) ListProducts(ctx context.Context, mfiID *id.MFIID) ([]*models.LoanProduct, error) {
	return readThrough(ctx, c, productsKey(mfiID), func(ctx context.Context) ([]*models.LoanProduct, error) {
		return c.backend.ListProducts(ctx, mfiID)
	})
}

// Create writes through and drops the list entry.
func (c *Cached) Create(ctx context.Context, m *models.MFI) error {
	if err := c.backend.Create(ctx, m); err != nil {
		return err
	}
	c.invalidate(ctx, keyMFIList, mfiKey(m.ID))
	return nil
}

func (c *Cached) CreateProduct(ctx context.Context, p *models.LoanProduct) error {
	if err := c.backend.CreateProduct(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, productsKey(nil), productsKey(&p.MFIID))
	return nil
}

func (c *Cached) invalidate(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.recordFailure(ctx, err)
		return
	}
	c.recordSuccess()
}

func readThrough[T any](ctx context.Context, c *Cached, key string, load func(context.Context) (T, error)) (T, error) {
	if !c.breaker.Allow() {
		c.metrics.IncrementCacheLookup(metrics.CacheBypass)
		return load(ctx)
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if jerr := json.Unmarshal(raw, &v); jerr == nil {
			c.recordSuccess()
			c.metrics.IncrementCacheLookup(metrics.CacheHit)
			return v, nil
		}
		// A stale encoding is treated as a miss and overwritten below.
	case errors.Is(err, redis.Nil):
		c.recordSuccess()
	default:
		c.recordFailure(ctx, err)
		c.metrics.IncrementCacheLookup(metrics.CacheError)
		return load(ctx)
	}

	c.metrics.IncrementCacheLookup(metrics.CacheMiss)
	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		if payload, jerr := json.Marshal(v); jerr == nil {
			if serr := c.client.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
				c.recordFailure(ctx, serr)
			}
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *Cached) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.metrics.SetCacheOpen(false)
		c.logger.Info("catalog cache circuit closed", "breaker", c.breaker.Name())
	}
}

func (c *Cached) recordFailure(ctx context.Context, err error) {
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.metrics.SetCacheOpen(true)
		c.logger.WarnContext(ctx, "catalog cache circuit opened, reading from backend",
			"breaker", c.breaker.Name(),
			"error", err,
		)
		return
	}
	c.logger.DebugContext(ctx, "catalog cache error", "error", err)
}
