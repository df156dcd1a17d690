package optimistic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rosterline-dev/rosterline/backend/internal/config"
	"github.com/rosterline-dev/rosterline/backend/internal/domain"
)

var ErrShiftNotFound = errors.New("班次不存在")

// ShiftStore 是持久化层的窄接口，任何失败都按"变更失败，回滚"处理
type ShiftStore interface {
	CreateShift(ctx context.Context, shift *domain.Shift) (*domain.Shift, error)
	UpdateShift(ctx context.Context, id int64, patch *domain.ShiftPatch) (*domain.Shift, error)
	DeleteShift(ctx context.Context, id int64) error
}

// CacheInvalidator 负责让缓存的读视图失效，尽力而为
type CacheInvalidator interface {
	InvalidateShiftViews(ctx context.Context, locationID int64, from, to time.Time) error
}

// Mutator 包装对班次存储的三种变更操作
// 每个操作都先把变更乐观地应用到可见集合，再发起持久化写入，
// 成功后用权威结果对账，失败则回滚
type Mutator struct {
	store       ShiftStore
	collection  *Collection
	invalidator CacheInvalidator
	tolerance   time.Duration // 乐观创建对账时允许的时间误差，用于容忍服务端取整
	tempID      atomic.Int64
}

func NewMutator(store ShiftStore, collection *Collection, invalidator CacheInvalidator, tolerance time.Duration) *Mutator {
	return &Mutator{
		store:       store,
		collection:  collection,
		invalidator: invalidator,
		tolerance:   tolerance,
	}
}

// NewMutatorFromConfig 使用门店配置里的对账容差（SCHEDULE_MATCH_TOLERANCE_MS）构造 Mutator
func NewMutatorFromConfig(store ShiftStore, collection *Collection, invalidator CacheInvalidator, cfg *config.Config) *Mutator {
	tolerance := time.Duration(cfg.Schedule.MatchToleranceMS) * time.Millisecond
	return NewMutator(store, collection, invalidator, tolerance)
}

// nextTempID 生成本地唯一的临时 ID，用负数和真实 ID 区分
func (m *Mutator) nextTempID() int64 {
	return -m.tempID.Add(1)
}

// Create 先把临时班次插入可见集合，再发起持久化创建
func (m *Mutator) Create(ctx context.Context, draft domain.Shift) (*domain.Shift, error) {
	tentative := draft
	tentative.ID = m.nextTempID()
	tentative.Optimistic = true
	if tentative.Status == "" {
		tentative.Status = domain.ShiftStatusDraft
	}

	m.collection.insert(&tentative)
	m.collection.markPending(tentative.ID)

	real, err := m.store.CreateShift(ctx, &draft)
	if err != nil {
		// 回滚：把临时班次从集合中移除
		m.collection.remove(tentative.ID)
		m.collection.clearPending(tentative.ID)
		return nil, fmt.Errorf("创建班次失败: %w", err)
	}

	if m.matches(&tentative, real) {
		// 原地替换，渲染层不会看到闪烁
		m.collection.swap(tentative.ID, real)
	} else {
		// 对账失败是小概率事件，接受一次可见的闪烁
		m.collection.remove(tentative.ID)
		m.collection.insert(real)
	}
	m.collection.clearPending(tentative.ID)

	m.invalidateAsync(real.LocationID, real.StartTime, real.EndTime)
	return real, nil
}

// Update 要求班次当前存在于可见集合中，否则返回 ErrShiftNotFound
func (m *Mutator) Update(ctx context.Context, id int64, patch *domain.ShiftPatch) (*domain.Shift, error) {
	current, ok := m.collection.Get(id)
	if !ok {
		return nil, ErrShiftNotFound
	}

	tentative := patch.Apply(*current)
	tentative.Optimistic = true
	m.collection.insert(&tentative)
	m.collection.markPending(id)

	real, err := m.store.UpdateShift(ctx, id, patch)
	if err != nil {
		// 回滚：恢复变更前的值
		m.collection.insert(current)
		m.collection.clearPending(id)
		return nil, fmt.Errorf("更新班次失败: %w", err)
	}

	m.collection.insert(real)
	m.collection.clearPending(id)

	m.invalidateAsync(real.LocationID, real.StartTime, real.EndTime)
	return real, nil
}

// Delete 先把班次从可见集合移除，持久化删除失败时再放回去
func (m *Mutator) Delete(ctx context.Context, id int64) error {
	current, ok := m.collection.Get(id)
	if !ok {
		return ErrShiftNotFound
	}

	m.collection.remove(id)
	m.collection.markPending(id)

	if err := m.store.DeleteShift(ctx, id); err != nil {
		m.collection.insert(current)
		m.collection.clearPending(id)
		return fmt.Errorf("删除班次失败: %w", err)
	}

	m.collection.clearPending(id)
	m.invalidateAsync(current.LocationID, current.StartTime, current.EndTime)
	return nil
}

// matches 按 (员工, 门店, 起止时间) 在容差内匹配临时班次和落库结果
func (m *Mutator) matches(tentative, real *domain.Shift) bool {
	if tentative.StaffID != real.StaffID || tentative.LocationID != real.LocationID {
		return false
	}
	return absDuration(tentative.StartTime.Sub(real.StartTime)) <= m.tolerance &&
		absDuration(tentative.EndTime.Sub(real.EndTime)) <= m.tolerance
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// invalidateAsync 异步地让缓存的读视图失效
// 失败只记日志不上报，乐观值已经反映了这次编辑
func (m *Mutator) invalidateAsync(locationID int64, from, to time.Time) {
	if m.invalidator == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := m.invalidator.InvalidateShiftViews(ctx, locationID, from, to); err != nil {
			slog.Warn("缓存失效失败", "locationID", locationID, "error", err)
		}
	}()
}
