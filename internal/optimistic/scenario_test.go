package optimistic

import (
	"context"
	"testing"
	"time"

	"github.com/rosterline-dev/rosterline/backend/internal/config"
	"github.com/rosterline-dev/rosterline/backend/internal/domain"
	"github.com/rosterline-dev/rosterline/backend/internal/gesture"
	"github.com/rosterline-dev/rosterline/backend/internal/paycycle"
	"github.com/rosterline-dev/rosterline/backend/internal/policy"
	"github.com/rosterline-dev/rosterline/backend/internal/timegrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 从拖拽创建班次到成本预估的完整链路：
// 手势提交 09:00-17:00，落库后补上 30 分钟休息，按 12 元/小时计费应该是 7.5 小时 90 元
func TestCreateShiftEndToEndCostPreview(t *testing.T) {
	cfg := &config.Config{}
	cfg.Schedule.Timezone = "Asia/Shanghai"
	cfg.Schedule.SlotMinutes = 15
	cfg.Schedule.DayStartHour = 0
	cfg.Schedule.MinShiftMinutes = 15
	cfg.Schedule.SnapEnabled = true
	cfg.Schedule.MatchToleranceMS = 1000

	grid, err := timegrid.NewGrid(cfg)
	require.NoError(t, err)

	collection := NewCollection()
	controller := gesture.NewController(grid, policy.NewChecker(grid), collection.ForStaff)

	// 拖拽画出 09:00 到 17:00 的班次
	dayStart, err := time.ParseInLocation("2006-01-02 15:04:05", "2025-03-10 09:00:00", grid.Location())
	require.NoError(t, err)
	dayEnd := dayStart.Add(8 * time.Hour)

	require.True(t, controller.StartCreate(1, dayStart))
	controller.Update(gesture.PointerSample{SlotOffset: grid.TimeToOffset(dayEnd), StaffID: 1})

	preview := controller.Frame()
	require.NotNil(t, preview)
	assert.True(t, preview.Valid)

	commit, err := controller.Commit()
	require.NoError(t, err)
	assert.Equal(t, gesture.CommitCreate, commit.Kind)
	assert.True(t, commit.Start.Equal(dayStart))
	assert.True(t, commit.End.Equal(dayEnd))

	// 乐观创建，服务端分配真实 ID
	store := &stubStore{
		createFn: func(_ context.Context, shift *domain.Shift) (*domain.Shift, error) {
			real := *shift
			real.ID = 501
			return &real, nil
		},
	}
	mutator := NewMutatorFromConfig(store, collection, nil, cfg)

	created, err := mutator.Create(context.Background(), domain.Shift{
		StaffID:      commit.StaffID,
		LocationID:   1,
		StartTime:    commit.Start,
		EndTime:      commit.End,
		BreakMinutes: 30,
		Status:       domain.ShiftStatusDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(501), created.ID)
	assert.InDelta(t, 7.5, created.Hours(), 1e-9)

	// 没有加班配置的员工按纯时薪计费
	rate := []*domain.RateHistoryEntry{
		{StaffID: 1, HourlyRate: 12, EffectiveDate: dayStart.AddDate(0, -1, 0)},
	}

	engine := paycycle.NewEngine(grid.Location())
	breakdowns := engine.CostShifts(collection.All(), nil, map[int64][]*domain.RateHistoryEntry{1: rate})

	breakdown, ok := breakdowns[created.ID]
	require.True(t, ok)
	assert.InDelta(t, 7.5, breakdown.RegularHours, 1e-9)
	assert.InDelta(t, 90.0, breakdown.TotalCost, 1e-9)
	assert.False(t, breakdown.HasOvertime)
	assert.False(t, breakdown.RateMissing)
}
