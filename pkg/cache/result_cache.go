package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lineupforge/lineup-engine/internal/portfolio"
	"github.com/lineupforge/lineup-engine/internal/simulator"
)

// ResultCacheService caches generated portfolios and score results so a
// repeated request against the same slate version skips the solve.
type ResultCacheService struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewResultCacheService creates a new result cache service
func NewResultCacheService(client *redis.Client, logger *logrus.Logger) *ResultCacheService {
	return &ResultCacheService{
		client: client,
		logger: logger,
	}
}

// PortfolioKey derives a cache key from the slate version and request shape.
func PortfolioKey(slateVersion, count, uniqueness, salaryCap int) string {
	return fmt.Sprintf("v%d:c%d:u%d:cap%d", slateVersion, count, uniqueness, salaryCap)
}

// SetPortfolio stores a portfolio result in cache
func (c *ResultCacheService) SetPortfolio(ctx context.Context, key string, result *portfolio.Result, expiration time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal portfolio result: %w", err)
	}

	fullKey := fmt.Sprintf("portfolio:%s", key)
	if err := c.client.Set(ctx, fullKey, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set portfolio result in cache: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":     fullKey,
		"expiration":    expiration,
		"lineups_count": result.GeneratedCount,
	}).Debug("Cached portfolio result")

	return nil
}

// GetPortfolio retrieves a portfolio result from cache
func (c *ResultCacheService) GetPortfolio(ctx context.Context, key string) (*portfolio.Result, error) {
	fullKey := fmt.Sprintf("portfolio:%s", key)
	data, err := c.client.Get(ctx, fullKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("portfolio result not found in cache")
		}
		return nil, fmt.Errorf("failed to get portfolio result from cache: %w", err)
	}

	var result portfolio.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal portfolio result: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":     fullKey,
		"lineups_count": result.GeneratedCount,
	}).Debug("Retrieved portfolio result from cache")

	return &result, nil
}

// SetScores stores simulation score results in cache
func (c *ResultCacheService) SetScores(ctx context.Context, key string, results []simulator.ScoreResult, expiration time.Duration) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal score results: %w", err)
	}

	fullKey := fmt.Sprintf("scores:%s", key)
	if err := c.client.Set(ctx, fullKey, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set score results in cache: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":  fullKey,
		"expiration": expiration,
		"results":    len(results),
	}).Debug("Cached score results")

	return nil
}

// GetScores retrieves simulation score results from cache
func (c *ResultCacheService) GetScores(ctx context.Context, key string) ([]simulator.ScoreResult, error) {
	fullKey := fmt.Sprintf("scores:%s", key)
	data, err := c.client.Get(ctx, fullKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("score results not found in cache")
		}
		return nil, fmt.Errorf("failed to get score results from cache: %w", err)
	}

	var results []simulator.ScoreResult
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal score results: %w", err)
	}

	return results, nil
}

// InvalidateSlate drops every cached result derived from a slate version.
func (c *ResultCacheService) InvalidateSlate(ctx context.Context, slateVersion int) error {
	patterns := []string{
		fmt.Sprintf("portfolio:v%d:*", slateVersion),
		fmt.Sprintf("scores:v%d:*", slateVersion),
	}
	for _, pattern := range patterns {
		iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("failed to delete cache key %s: %w", iter.Val(), err)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
	}
	return nil
}
