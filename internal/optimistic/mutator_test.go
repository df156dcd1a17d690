package optimistic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rosterline-dev/rosterline/backend/internal/config"
	"github.com/rosterline-dev/rosterline/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	createFn func(ctx context.Context, shift *domain.Shift) (*domain.Shift, error)
	updateFn func(ctx context.Context, id int64, patch *domain.ShiftPatch) (*domain.Shift, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (s *stubStore) CreateShift(ctx context.Context, shift *domain.Shift) (*domain.Shift, error) {
	return s.createFn(ctx, shift)
}

func (s *stubStore) UpdateShift(ctx context.Context, id int64, patch *domain.ShiftPatch) (*domain.Shift, error) {
	return s.updateFn(ctx, id, patch)
}

func (s *stubStore) DeleteShift(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

type recordingInvalidator struct {
	calls chan int64
}

func newRecordingInvalidator() *recordingInvalidator {
	return &recordingInvalidator{calls: make(chan int64, 16)}
}

func (r *recordingInvalidator) InvalidateShiftViews(_ context.Context, locationID int64, _, _ time.Time) error {
	r.calls <- locationID
	return nil
}

func draftShift(start, end time.Time) domain.Shift {
	return domain.Shift{
		StaffID:    1,
		LocationID: 10,
		StartTime:  start,
		EndTime:    end,
		Status:     domain.ShiftStatusDraft,
	}
}

func TestCreateReconcilesTentativeInPlace(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	store := &stubStore{
		createFn: func(_ context.Context, shift *domain.Shift) (*domain.Shift, error) {
			real := *shift
			real.ID = 100
			// 模拟服务端把秒数取整
			real.StartTime = shift.StartTime.Truncate(time.Minute)
			return &real, nil
		},
	}
	invalidator := newRecordingInvalidator()
	collection := NewCollection()
	mutator := NewMutator(store, collection, invalidator, time.Second)

	created, err := mutator.Create(context.Background(), draftShift(start.Add(200*time.Millisecond), end))
	require.NoError(t, err)
	assert.Equal(t, int64(100), created.ID)

	// 临时班次已经被真实班次原地替换
	all := collection.All()
	require.Len(t, all, 1)
	assert.Equal(t, int64(100), all[0].ID)
	assert.False(t, all[0].Optimistic)
	assert.False(t, collection.isPending(created.ID))

	// 缓存失效被异步触发
	select {
	case locationID := <-invalidator.calls:
		assert.Equal(t, int64(10), locationID)
	case <-time.After(time.Second):
		t.Fatal("缓存失效没有被触发")
	}
}

func TestCreateAppendsWhenReconcileMisses(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	store := &stubStore{
		createFn: func(_ context.Context, shift *domain.Shift) (*domain.Shift, error) {
			real := *shift
			real.ID = 100
			// 服务端返回了超出容差的时间，对账必然失败
			real.StartTime = shift.StartTime.Add(10 * time.Minute)
			return &real, nil
		},
	}
	collection := NewCollection()
	mutator := NewMutator(store, collection, nil, time.Second)

	created, err := mutator.Create(context.Background(), draftShift(start, end))
	require.NoError(t, err)

	// 临时班次被移除，权威结果被追加，接受一次闪烁
	all := collection.All()
	require.Len(t, all, 1)
	assert.Equal(t, created.ID, all[0].ID)
}

func TestNewMutatorFromConfigUsesConfiguredTolerance(t *testing.T) {
	cfg := &config.Config{}
	cfg.Schedule.MatchToleranceMS = 250

	mutator := NewMutatorFromConfig(&stubStore{}, NewCollection(), nil, cfg)
	assert.Equal(t, 250*time.Millisecond, mutator.tolerance)

	// 服务端偏移 400ms，超出配置的容差时对账不能匹配
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tentative := draftShift(start, start.Add(8*time.Hour))
	real := draftShift(start.Add(400*time.Millisecond), start.Add(8*time.Hour))
	assert.False(t, mutator.matches(&tentative, &real))

	cfg.Schedule.MatchToleranceMS = 1000
	mutator = NewMutatorFromConfig(&stubStore{}, NewCollection(), nil, cfg)
	assert.True(t, mutator.matches(&tentative, &real))
}

func TestCreateRollsBackOnFailure(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	store := &stubStore{
		createFn: func(_ context.Context, _ *domain.Shift) (*domain.Shift, error) {
			return nil, errors.New("网络错误")
		},
	}
	collection := NewCollection()
	mutator := NewMutator(store, collection, nil, time.Second)

	_, err := mutator.Create(context.Background(), draftShift(start, start.Add(8*time.Hour)))
	require.Error(t, err)

	// 失败后集合里不能残留临时班次
	assert.Empty(t, collection.All())
}

func TestCreateShowsTentativeWhilePending(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	release := make(chan struct{})
	entered := make(chan struct{})

	store := &stubStore{
		createFn: func(_ context.Context, shift *domain.Shift) (*domain.Shift, error) {
			close(entered)
			<-release
			real := *shift
			real.ID = 100
			return &real, nil
		},
	}
	collection := NewCollection()
	mutator := NewMutator(store, collection, nil, time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := mutator.Create(context.Background(), draftShift(start, start.Add(8*time.Hour)))
		assert.NoError(t, err)
	}()

	<-entered
	// 持久化写入还没返回，临时班次已经立即可见
	all := collection.All()
	require.Len(t, all, 1)
	assert.True(t, all[0].Optimistic)
	assert.Negative(t, all[0].ID)

	close(release)
	<-done
}

func TestUpdateRequiresExistingShift(t *testing.T) {
	mutator := NewMutator(&stubStore{}, NewCollection(), nil, time.Second)

	newNote := "改备注"
	_, err := mutator.Update(context.Background(), 42, &domain.ShiftPatch{Note: &newNote})
	assert.ErrorIs(t, err, ErrShiftNotFound)
}

func TestUpdateSwapsInAuthoritativeResult(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	existing := &domain.Shift{ID: 5, StaffID: 1, LocationID: 10, StartTime: start, EndTime: start.Add(4 * time.Hour), Version: 1}

	store := &stubStore{
		updateFn: func(_ context.Context, id int64, patch *domain.ShiftPatch) (*domain.Shift, error) {
			updated := patch.Apply(*existing)
			updated.Version = 2
			return &updated, nil
		},
	}
	collection := NewCollection()
	collection.Replace([]*domain.Shift{existing})
	mutator := NewMutator(store, collection, nil, time.Second)

	newEnd := start.Add(6 * time.Hour)
	updated, err := mutator.Update(context.Background(), 5, &domain.ShiftPatch{EndTime: &newEnd})
	require.NoError(t, err)
	assert.Equal(t, int32(2), updated.Version)

	got, ok := collection.Get(5)
	require.True(t, ok)
	assert.True(t, got.EndTime.Equal(newEnd))
	assert.False(t, got.Optimistic)
}

func TestUpdateRestoresPreviousValueOnFailure(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	existing := &domain.Shift{ID: 5, StaffID: 1, LocationID: 10, StartTime: start, EndTime: start.Add(4 * time.Hour)}

	store := &stubStore{
		updateFn: func(_ context.Context, _ int64, _ *domain.ShiftPatch) (*domain.Shift, error) {
			return nil, errors.New("校验失败")
		},
	}
	collection := NewCollection()
	collection.Replace([]*domain.Shift{existing})
	mutator := NewMutator(store, collection, nil, time.Second)

	newEnd := start.Add(6 * time.Hour)
	_, err := mutator.Update(context.Background(), 5, &domain.ShiftPatch{EndTime: &newEnd})
	require.Error(t, err)

	got, ok := collection.Get(5)
	require.True(t, ok)
	assert.True(t, got.EndTime.Equal(existing.EndTime))
	assert.False(t, got.Optimistic)
}

func TestPendingUpdateWinsOverStaleRefresh(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	existing := &domain.Shift{ID: 5, StaffID: 1, LocationID: 10, StartTime: start, EndTime: start.Add(4 * time.Hour)}

	release := make(chan struct{})
	entered := make(chan struct{})
	store := &stubStore{
		updateFn: func(_ context.Context, _ int64, patch *domain.ShiftPatch) (*domain.Shift, error) {
			close(entered)
			<-release
			updated := patch.Apply(*existing)
			return &updated, nil
		},
	}
	collection := NewCollection()
	collection.Replace([]*domain.Shift{existing})
	mutator := NewMutator(store, collection, nil, time.Second)

	newEnd := start.Add(6 * time.Hour)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := mutator.Update(context.Background(), 5, &domain.ShiftPatch{EndTime: &newEnd})
		assert.NoError(t, err)
	}()

	<-entered
	// 后台刷新带着旧数据回来，未决的乐观值不能被覆盖
	stale := *existing
	collection.ApplyRefresh([]*domain.Shift{&stale})

	got, ok := collection.Get(5)
	require.True(t, ok)
	assert.True(t, got.EndTime.Equal(newEnd))
	assert.True(t, got.Optimistic)

	close(release)
	<-done

	got, ok = collection.Get(5)
	require.True(t, ok)
	assert.True(t, got.EndTime.Equal(newEnd))
	assert.False(t, got.Optimistic)
}

func TestDeleteRemovesImmediatelyAndRollsBackOnFailure(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	existing := &domain.Shift{ID: 5, StaffID: 1, LocationID: 10, StartTime: start, EndTime: start.Add(4 * time.Hour)}

	store := &stubStore{
		deleteFn: func(_ context.Context, _ int64) error {
			return errors.New("不可达")
		},
	}
	collection := NewCollection()
	collection.Replace([]*domain.Shift{existing})
	mutator := NewMutator(store, collection, nil, time.Second)

	err := mutator.Delete(context.Background(), 5)
	require.Error(t, err)

	// 删除失败后原值被放回集合
	got, ok := collection.Get(5)
	require.True(t, ok)
	assert.True(t, got.EndTime.Equal(existing.EndTime))
}

func TestDeleteSuccess(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	existing := &domain.Shift{ID: 5, StaffID: 1, LocationID: 10, StartTime: start, EndTime: start.Add(4 * time.Hour)}

	store := &stubStore{
		deleteFn: func(_ context.Context, _ int64) error { return nil },
	}
	collection := NewCollection()
	collection.Replace([]*domain.Shift{existing})
	mutator := NewMutator(store, collection, nil, time.Second)

	require.NoError(t, mutator.Delete(context.Background(), 5))
	assert.Empty(t, collection.All())

	assert.ErrorIs(t, mutator.Delete(context.Background(), 5), ErrShiftNotFound)
}

func TestApplyRefreshDropsVanishedShifts(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	a := &domain.Shift{ID: 1, StaffID: 1, StartTime: start, EndTime: start.Add(time.Hour)}
	b := &domain.Shift{ID: 2, StaffID: 1, StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour)}

	collection := NewCollection()
	collection.Replace([]*domain.Shift{a, b})

	// 刷新结果里没有 b，b 被移除
	collection.ApplyRefresh([]*domain.Shift{a})
	_, ok := collection.Get(2)
	assert.False(t, ok)

	all := collection.All()
	require.Len(t, all, 1)
	assert.Equal(t, int64(1), all[0].ID)
}
