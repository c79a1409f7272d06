package promotion

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"promotion/internal/repository"
	"promotion/pkg/utils"
)

// UsageProvider supplies the per-user daily aggregates consumed by the limit
// chain. Implementations must treat an unknown user as zero usage.
type UsageProvider interface {
	// DailyUsageCount the user's uses of one activity during the given day
	DailyUsageCount(ctx context.Context, userID, activityID uint64, day time.Time) (int, error)

	// DailyDiscountUsed the user's total discount amount used during the given day
	DailyDiscountUsed(ctx context.Context, userID uint64, day time.Time) (float64, error)
}

// UsageRecorder records usage after order placement; callers invoke it
// outside the discount calculation path
type UsageRecorder interface {
	RecordUsage(ctx context.Context, userID, activityID uint64, discountAmount float64, day time.Time) error
}

// zeroUsageProvider the default provider, always reports zero usage
type zeroUsageProvider struct{}

// NewZeroUsageProvider returns a provider reporting zero usage for everyone
func NewZeroUsageProvider() UsageProvider {
	return zeroUsageProvider{}
}

func (zeroUsageProvider) DailyUsageCount(ctx context.Context, userID, activityID uint64, day time.Time) (int, error) {
	return 0, nil
}

func (zeroUsageProvider) DailyDiscountUsed(ctx context.Context, userID uint64, day time.Time) (float64, error) {
	return 0, nil
}

// redisUsageProvider fast-path counters keyed per day, expiring after two days
type redisUsageProvider struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisUsageProvider creates a redis-backed usage provider
func NewRedisUsageProvider(client *redis.Client) *redisUsageProvider {
	return &redisUsageProvider{
		client: client,
		ttl:    48 * time.Hour,
	}
}

func usageCountKey(userID, activityID uint64, day time.Time) string {
	return fmt.Sprintf("promo:usage:count:%s:%d:%d", utils.FormatDate(day), userID, activityID)
}

func usageAmountKey(userID uint64, day time.Time) string {
	return fmt.Sprintf("promo:usage:amount:%s:%d", utils.FormatDate(day), userID)
}

// DailyUsageCount reads the per-activity counter, 0 when absent
func (p *redisUsageProvider) DailyUsageCount(ctx context.Context, userID, activityID uint64, day time.Time) (int, error) {
	count, err := p.client.Get(ctx, usageCountKey(userID, activityID, day)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DailyDiscountUsed reads the per-user amount counter, 0 when absent
func (p *redisUsageProvider) DailyDiscountUsed(ctx context.Context, userID uint64, day time.Time) (float64, error) {
	used, err := p.client.Get(ctx, usageAmountKey(userID, day)).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return used, nil
}

// RecordUsage bumps both counters in one pipeline
func (p *redisUsageProvider) RecordUsage(ctx context.Context, userID, activityID uint64, discountAmount float64, day time.Time) error {
	pipe := p.client.TxPipeline()
	countKey := usageCountKey(userID, activityID, day)
	amountKey := usageAmountKey(userID, day)

	pipe.Incr(ctx, countKey)
	pipe.Expire(ctx, countKey, p.ttl)
	pipe.IncrByFloat(ctx, amountKey, discountAmount)
	pipe.Expire(ctx, amountKey, p.ttl)

	_, err := pipe.Exec(ctx)
	return err
}

// ledgerUsageProvider reads the persisted daily aggregate
type ledgerUsageProvider struct {
	repo repository.UsageRepository
}

// NewLedgerUsageProvider creates a provider backed by the usage ledger table
func NewLedgerUsageProvider(repo repository.UsageRepository) *ledgerUsageProvider {
	return &ledgerUsageProvider{repo: repo}
}

func (p *ledgerUsageProvider) DailyUsageCount(ctx context.Context, userID, activityID uint64, day time.Time) (int, error) {
	return p.repo.DailyCount(ctx, userID, activityID, day)
}

func (p *ledgerUsageProvider) DailyDiscountUsed(ctx context.Context, userID uint64, day time.Time) (float64, error) {
	return p.repo.DailyDiscountTotal(ctx, userID, day)
}

func (p *ledgerUsageProvider) RecordUsage(ctx context.Context, userID, activityID uint64, discountAmount float64, day time.Time) error {
	return p.repo.IncrementUsage(ctx, userID, activityID, discountAmount, day)
}
