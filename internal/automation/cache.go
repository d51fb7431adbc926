package automation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agency_crm_backend/internal/leads/domain"

	"github.com/redis/go-redis/v9"
)

const (
	forecastCachePrefix   = "automation:forecast"
	forecastGenerationKey = forecastCachePrefix + ":generation"
)

// ForecastCache stores rendered roster forecasts in Redis. Entries are
// scoped to a generation counter; bumping it orphans every cached forecast,
// which then expires through its TTL.
//
// Days in status are counted in whole 24h periods, so a forecast can change
// at any instant. Keys are bucketed by hour and the TTL bounds the remaining
// lag; edits to the sequences file change the key through its fingerprint.
type ForecastCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewForecastCache returns nil when rdb is nil or ttl is not positive, which
// disables caching.
func NewForecastCache(rdb redis.UniversalClient, ttl time.Duration) *ForecastCache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &ForecastCache{rdb: rdb, ttl: ttl}
}

// ForecastKey identifies one cached roster forecast.
type ForecastKey struct {
	// Hour is the planning instant truncated to the hour in the automation location.
	Hour        time.Time
	HorizonDays int
	// Sequences is the SequencesFingerprint of the definitions planned against.
	Sequences string
}

// NewForecastKey buckets now into its hour in loc.
func NewForecastKey(now time.Time, loc *time.Location, horizonDays int, seqs []domain.DripSequence) (ForecastKey, error) {
	fingerprint, err := SequencesFingerprint(seqs)
	if err != nil {
		return ForecastKey{}, err
	}
	local := now.In(loc)
	return ForecastKey{
		Hour:        time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc),
		HorizonDays: horizonDays,
		Sequences:   fingerprint,
	}, nil
}

// SequencesFingerprint hashes the sequence definitions so that any change
// to them yields a new value.
func SequencesFingerprint(seqs []domain.DripSequence) (string, error) {
	data, err := json.Marshal(seqs)
	if err != nil {
		return "", fmt.Errorf("fingerprint sequences: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8]), nil
}

// Get returns the cached payload for key, if any.
func (c *ForecastCache) Get(ctx context.Context, key ForecastKey) ([]byte, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	redisKey, err := c.redisKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	payload, err := c.rdb.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached forecast: %w", err)
	}
	return payload, true, nil
}

// Set stores payload for key under the current generation.
func (c *ForecastCache) Set(ctx context.Context, key ForecastKey, payload []byte) error {
	if c == nil {
		return nil
	}
	redisKey, err := c.redisKey(ctx, key)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, redisKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("store cached forecast: %w", err)
	}
	return nil
}

// Invalidate starts a new generation.
func (c *ForecastCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.rdb.Incr(ctx, forecastGenerationKey).Err(); err != nil {
		return fmt.Errorf("bump forecast generation: %w", err)
	}
	return nil
}

func (c *ForecastCache) redisKey(ctx context.Context, key ForecastKey) (string, error) {
	generation, err := c.rdb.Get(ctx, forecastGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("read forecast generation: %w", err)
	}
	return fmt.Sprintf("%s:%d:%s:%s:%d", forecastCachePrefix, generation, key.Sequences,
		key.Hour.Format("2006-01-02T15Z07"), key.HorizonDays), nil
}
