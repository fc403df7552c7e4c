package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bhavya-jpg/proofora-backend/internal/logger"
)

// VerifyCache fronts the ledger's read views. Existence hits are cached only
// when positive: the registry is append-only, so a registered hash can never
// become unregistered. Stats are cached for a short window.
type VerifyCache interface {
	GetExists(ctx context.Context, designHash string) (found bool, ok bool)
	SetExists(ctx context.Context, designHash string)
	GetStats(ctx context.Context) (*LedgerStats, bool)
	SetStats(ctx context.Context, stats *LedgerStats)
	Close() error
}

const (
	existsKeyPrefix = "proofora:verified:"
	statsKey        = "proofora:ledger_stats"
	statsTTL        = 30 * time.Second
)

type verifyCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

// NewVerifyCache returns (nil, nil) when addr is blank; the cache is an
// optional accelerator, not a dependency.
func NewVerifyCache(log *logger.Logger, addr string) (VerifyCache, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return &verifyCache{
		log: log.With("service", "VerifyCache"),
		rdb: rdb,
	}, nil
}

func (c *verifyCache) GetExists(ctx context.Context, designHash string) (bool, bool) {
	val, err := c.rdb.Get(ctx, existsKeyPrefix+designHash).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Cache read failed", "error", err)
		}
		return false, false
	}
	return val == "1", true
}

func (c *verifyCache) SetExists(ctx context.Context, designHash string) {
	if err := c.rdb.Set(ctx, existsKeyPrefix+designHash, "1", 0).Err(); err != nil {
		c.log.Warn("Cache write failed", "error", err)
	}
}

func (c *verifyCache) GetStats(ctx context.Context) (*LedgerStats, bool) {
	raw, err := c.rdb.Get(ctx, statsKey).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Cache read failed", "error", err)
		}
		return nil, false
	}
	var stats LedgerStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

func (c *verifyCache) SetStats(ctx context.Context, stats *LedgerStats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, statsKey, raw, statsTTL).Err(); err != nil {
		c.log.Warn("Cache write failed", "error", err)
	}
}

func (c *verifyCache) Close() error {
	return c.rdb.Close()
}
