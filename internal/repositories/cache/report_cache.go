package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	keyPrefix = "ledger:report"

	// InvalidationChannel receives "<companyID>:<version>" whenever a company's reports are invalidated.
	InvalidationChannel = "ledger.report.bump"

	// defaultBuildTimeout bounds a shared report build once it is detached from its callers.
	defaultBuildTimeout = 30 * time.Second
)

// ReportCache caches built reports in Redis under a per-company version.
// Invalidation bumps the version so stale keys are never read again and
// simply expire with their TTL. A nil client disables caching.
type ReportCache struct {
	client       *redis.Client
	ttl          time.Duration
	buildTimeout time.Duration
	group        singleflight.Group
}

var _ portsrepo.ReportCache = (*ReportCache)(nil)

// NewReportCache returns a cache backed by client. client may be nil.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl, buildTimeout: defaultBuildTimeout}
}

func versionKey(companyID string) string {
	return fmt.Sprintf("%s:version:%s", keyPrefix, companyID)
}

// Version returns the company's current cache version, zero when never bumped.
func (c *ReportCache) Version(ctx context.Context, companyID string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey(companyID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return ver, err
}

// BuildKey composes the cache key of a report under the company's current version.
func (c *ReportCache) BuildKey(ctx context.Context, companyID, key string) (string, error) {
	ver, err := c.Version(ctx, companyID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%s:v%d", keyPrefix, companyID, key, ver), nil
}

// Fetch loads a cached report into dest or builds it with loader. Concurrent
// misses on the same key share one build. The shared build keeps the first
// caller's context values but not its cancellation; each caller stops waiting
// when its own ctx is done. Redis failures degrade to building the report directly.
func (c *ReportCache) Fetch(ctx context.Context, companyID, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return loadInto(ctx, dest, loader)
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	fullKey, err := c.BuildKey(ctx, companyID, key)
	if err != nil {
		logger.WarnContext(ctx, "report cache unavailable, building directly", "error", err)
		return loadInto(ctx, dest, loader)
	}

	payload, err := c.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		logger.DebugContext(ctx, "report cache hit", "key", fullKey)
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		logger.WarnContext(ctx, "report cache read failed, building directly", "key", fullKey, "error", err)
		return loadInto(ctx, dest, loader)
	}

	resultChan := c.group.DoChan(fullKey, func() (any, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.buildTimeout)
		defer cancel()

		value, err := loader(buildCtx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(buildCtx, fullKey, raw, c.ttl).Err(); err != nil {
			logger.WarnContext(ctx, "report cache write failed", "key", fullKey, "error", err)
		}
		return raw, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return res.Err
		}
		logger.DebugContext(ctx, "report cache miss", "key", fullKey, "shared", res.Shared)
		return json.Unmarshal(res.Val.([]byte), dest)
	}
}

// Invalidate makes every cached report of the company unreachable and announces the new version.
func (c *ReportCache) Invalidate(ctx context.Context, companyID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, versionKey(companyID)).Result()
	if err != nil {
		return fmt.Errorf("cache: bump version for company %s: %w", companyID, err)
	}
	return c.client.Publish(ctx, InvalidationChannel, fmt.Sprintf("%s:%d", companyID, ver)).Err()
}

// loadInto runs loader and copies its result into dest through JSON, so callers
// observe the same shape whether or not the cache is enabled.
func loadInto(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
