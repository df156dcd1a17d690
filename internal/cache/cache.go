package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rosterline-dev/rosterline/backend/internal/config"
	"github.com/rosterline-dev/rosterline/backend/internal/domain"
)

// ShiftViewCache 用 redis 缓存按周的班次读视图
// 缓存永远只是加速，读不到或写失败都回退到数据库
type ShiftViewCache struct {
	cfg      *config.Config
	client   *redis.Client
	location *time.Location
}

func NewShiftViewCache(cfg *config.Config, client *redis.Client, location *time.Location) *ShiftViewCache {
	return &ShiftViewCache{
		cfg:      cfg,
		client:   client,
		location: location,
	}
}

// WeekStart 返回 t 所在周的周一 00:00（本地时间），作为缓存键的一部分
func (c *ShiftViewCache) WeekStart(t time.Time) time.Time {
	local := t.In(c.location)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.location)
	delta := (int(day.Weekday()) - int(time.Monday) + 7) % 7
	return day.AddDate(0, 0, -delta)
}

func (c *ShiftViewCache) key(locationID int64, weekStart time.Time) string {
	return fmt.Sprintf("shift_view_%d_%s", locationID, weekStart.Format("2006-01-02"))
}

// Get 读取某个门店某一周的缓存视图，未命中时返回 false
func (c *ShiftViewCache) Get(ctx context.Context, locationID int64, weekStart time.Time) ([]*domain.Shift, bool) {
	payload, err := c.client.Get(ctx, c.key(locationID, weekStart)).Bytes()
	if err != nil {
		return nil, false
	}

	var shifts []*domain.Shift
	if err := json.Unmarshal(payload, &shifts); err != nil {
		return nil, false
	}
	return shifts, true
}

// Set 写入某一周的视图，过期时间由配置决定
func (c *ShiftViewCache) Set(ctx context.Context, locationID int64, weekStart time.Time, shifts []*domain.Shift) error {
	payload, err := json.Marshal(shifts)
	if err != nil {
		return err
	}

	expiration := time.Duration(c.cfg.Cache.ShiftViewExpiration) * time.Second
	return c.client.Set(ctx, c.key(locationID, weekStart), payload, expiration).Err()
}

// InvalidateShiftViews 删除 [from, to] 覆盖到的所有周视图缓存
// 实现了 optimistic.CacheInvalidator
func (c *ShiftViewCache) InvalidateShiftViews(ctx context.Context, locationID int64, from, to time.Time) error {
	keys := make([]string, 0, 2)
	for week := c.WeekStart(from); !week.After(to); week = week.AddDate(0, 0, 7) {
		keys = append(keys, c.key(locationID, week))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
