package gesture

import (
	"testing"
	"time"

	"github.com/rosterline-dev/rosterline/backend/internal/config"
	"github.com/rosterline-dev/rosterline/backend/internal/domain"
	"github.com/rosterline-dev/rosterline/backend/internal/policy"
	"github.com/rosterline-dev/rosterline/backend/internal/timegrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	grid       *timegrid.Grid
	controller *Controller
	shifts     map[int64][]*domain.Shift
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.Schedule.Timezone = "Asia/Shanghai"
	cfg.Schedule.SlotMinutes = 15
	cfg.Schedule.DayStartHour = 0
	cfg.Schedule.MinShiftMinutes = 15
	cfg.Schedule.SnapEnabled = true

	grid, err := timegrid.NewGrid(cfg)
	require.NoError(t, err)

	f := &fixture{
		grid:   grid,
		shifts: make(map[int64][]*domain.Shift),
	}
	f.controller = NewController(grid, policy.NewChecker(grid), func(staffID int64) []*domain.Shift {
		return f.shifts[staffID]
	})
	return f
}

func (f *fixture) at(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", value, f.grid.Location())
	require.NoError(t, err)
	return parsed
}

func (f *fixture) offsetOf(t *testing.T, value string) float64 {
	return f.grid.TimeToOffset(f.at(t, value))
}

func TestStartCreateTransitionsFromIdle(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, KindIdle, f.controller.Kind())
	assert.True(t, f.controller.StartCreate(1, f.at(t, "2025-03-10 09:00:00")))
	assert.Equal(t, KindCreating, f.controller.Kind())
}

func TestGesturesAreMutuallyExclusive(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.controller.StartCreate(1, f.at(t, "2025-03-10 09:00:00")))

	// 手势进行中时新手势一律拒绝，不排队
	assert.False(t, f.controller.StartDrag(1, 0, 1, f.at(t, "2025-03-10 09:00:00"), f.at(t, "2025-03-10 12:00:00")))
	assert.False(t, f.controller.StartResize(1, EdgeEnd, 0, 1, f.at(t, "2025-03-10 09:00:00"), f.at(t, "2025-03-10 12:00:00")))
	assert.False(t, f.controller.StartCreate(2, f.at(t, "2025-03-10 10:00:00")))
	assert.Equal(t, KindCreating, f.controller.Kind())

	f.controller.Cancel()
	assert.True(t, f.controller.StartDrag(1, 0, 1, f.at(t, "2025-03-10 09:00:00"), f.at(t, "2025-03-10 12:00:00")))
}

func TestCreatePreviewFollowsPointer(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.controller.StartCreate(1, f.at(t, "2025-03-10 09:00:00")))
	f.controller.Update(PointerSample{SlotOffset: f.offsetOf(t, "2025-03-10 12:00:00"), StaffID: 1})

	preview := f.controller.Frame()
	require.NotNil(t, preview)
	assert.True(t, preview.Start.Equal(f.at(t, "2025-03-10 09:00:00")))
	assert.True(t, preview.End.Equal(f.at(t, "2025-03-10 12:00:00")))
	assert.True(t, preview.Valid)
}

func TestCreatePreviewAllowsDrawingBackwards(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.controller.StartCreate(1, f.at(t, "2025-03-10 12:00:00")))
	f.controller.Update(PointerSample{SlotOffset: f.offsetOf(t, "2025-03-10 09:00:00"), StaffID: 1})

	preview := f.controller.Frame()
	require.NotNil(t, preview)
	assert.True(t, preview.Start.Equal(f.at(t, "2025-03-10 09:00:00")))
	assert.True(t, preview.End.Equal(f.at(t, "2025-03-10 12:00:00")))
}

func TestFrameCoalescesPointerBursts(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.controller.StartCreate(1, f.at(t, "2025-03-10 09:00:00")))

	// 一帧之内的多次采样只有最后一次生效
	f.controller.Update(PointerSample{SlotOffset: f.offsetOf(t, "2025-03-10 10:00:00"), StaffID: 1})
	f.controller.Update(PointerSample{SlotOffset: f.offsetOf(t, "2025-03-10 11:00:00"), StaffID: 1})
	f.controller.Update(PointerSample{SlotOffset: f.offsetOf(t, "2025-03-10 13:00:00"), StaffID: 1})

	preview := f.controller.Frame()
	require.NotNil(t, preview)
	assert.True(t, preview.End.Equal(f.at(t, "2025-03-10 13:00:00")))

	// 没有新采样时返回上一帧的同一个结果，不重复计算
	assert.Same(t, preview, f.controller.Frame())
}

func TestDragKeepsOriginalStaffWithoutModifier(t *testing.T) {
	f := newFixture(t)

	start, end := f.at(t, "2025-03-10 09:00:00"), f.at(t, "2025-03-10 12:00:00")
	origin := f.grid.TimeToOffset(start)
	require.True(t, f.controller.StartDrag(7, origin, 1, start, end))

	// 指针滑到了别的员工行，但没按修饰键，员工保持不变
	f.controller.Update(PointerSample{SlotOffset: origin + 4, StaffID: 2})
	preview := f.controller.Frame()
	require.NotNil(t, preview)
	assert.Equal(t, int64(1), preview.StaffID)
	assert.True(t, preview.Start.Equal(f.at(t, "2025-03-10 10:00:00")))
	assert.True(t, preview.End.Equal(f.at(t, "2025-03-10 13:00:00")))
}

func TestDragReassignsStaffWithModifier(t *testing.T) {
	f := newFixture(t)

	start, end := f.at(t, "2025-03-10 09:00:00"), f.at(t, "2025-03-10 12:00:00")
	origin := f.grid.TimeToOffset(start)
	require.True(t, f.controller.StartDrag(7, origin, 1, start, end))

	f.controller.Update(PointerSample{SlotOffset: origin, StaffID: 2, Modifier: true})
	preview := f.controller.Frame()
	require.NotNil(t, preview)
	assert.Equal(t, int64(2), preview.StaffID)
}

func TestDragAcrossMidnightClipsToOriginDay(t *testing.T) {
	f := newFixture(t)

	start, end := f.at(t, "2025-03-10 20:00:00"), f.at(t, "2025-03-10 23:00:00")
	origin := f.grid.TimeToOffset(start)
	require.True(t, f.controller.StartDrag(7, origin, 1, start, end))

	// 往右拖 3 小时会越过午夜
	f.controller.Update(PointerSample{SlotOffset: origin + 12, StaffID: 1})
	preview := f.controller.Frame()
	require.NotNil(t, preview)

	dayEnd := f.grid.DayEnd(start)
	assert.True(t, preview.End.Equal(dayEnd), "end = %v", preview.End)
	// 时长保持不变，不会卷到第二天
	assert.Equal(t, end.Sub(start), preview.End.Sub(preview.Start))
	assert.Equal(t, 10, preview.End.In(f.grid.Location()).Day())
}

func TestResizeStartPastEndEnforcesMinimumDuration(t *testing.T) {
	f := newFixture(t)

	start, end := f.at(t, "2025-03-10 09:00:00"), f.at(t, "2025-03-10 12:00:00")
	require.True(t, f.controller.StartResize(7, EdgeStart, f.grid.TimeToOffset(start), 1, start, end))

	// 把开始边拖过结束边
	f.controller.Update(PointerSample{SlotOffset: f.offsetOf(t, "2025-03-10 14:00:00")})
	preview := f.controller.Frame()
	require.NotNil(t, preview)

	// 锚定在没有被拖动的结束边上，保住最小时长
	assert.True(t, preview.End.Equal(end))
	assert.True(t, preview.Start.Equal(end.Add(-15*time.Minute)))
}

func TestResizeEndClampsAtMidnight(t *testing.T) {
	f := newFixture(t)

	start, end := f.at(t, "2025-03-10 20:00:00"), f.at(t, "2025-03-10 22:00:00")
	require.True(t, f.controller.StartResize(7, EdgeEnd, f.grid.TimeToOffset(end), 1, start, end))

	f.controller.Update(PointerSample{SlotOffset: f.grid.TimeToOffset(end) + 20})
	preview := f.controller.Frame()
	require.NotNil(t, preview)
	assert.True(t, preview.Start.Equal(start))
	assert.True(t, preview.End.Equal(f.grid.DayEnd(start)))
}

func TestCommitMoveReturnsPayloadAndResetsToIdle(t *testing.T) {
	f := newFixture(t)

	start, end := f.at(t, "2025-03-10 09:00:00"), f.at(t, "2025-03-10 12:00:00")
	origin := f.grid.TimeToOffset(start)
	require.True(t, f.controller.StartDrag(7, origin, 1, start, end))
	f.controller.Update(PointerSample{SlotOffset: origin + 4, StaffID: 1})

	commit, err := f.controller.Commit()
	require.NoError(t, err)
	assert.Equal(t, CommitMove, commit.Kind)
	assert.Equal(t, int64(7), commit.ShiftID)
	assert.Equal(t, int64(1), commit.StaffID)
	assert.True(t, commit.Start.Equal(f.at(t, "2025-03-10 10:00:00")))
	assert.True(t, commit.End.Equal(f.at(t, "2025-03-10 13:00:00")))
	assert.Equal(t, KindIdle, f.controller.Kind())
}

func TestCommitRejectsInvalidPreview(t *testing.T) {
	f := newFixture(t)

	f.shifts[1] = []*domain.Shift{
		{
			ID:        2,
			StaffID:   1,
			StartTime: f.at(t, "2025-03-10 10:00:00"),
			EndTime:   f.at(t, "2025-03-10 14:00:00"),
			Status:    domain.ShiftStatusPublished,
		},
	}

	require.True(t, f.controller.StartCreate(1, f.at(t, "2025-03-10 09:00:00")))
	f.controller.Update(PointerSample{SlotOffset: f.offsetOf(t, "2025-03-10 12:00:00"), StaffID: 1})

	commit, err := f.controller.Commit()
	assert.Nil(t, commit)
	assert.ErrorIs(t, err, ErrInvalidPlacement)
	// 提交失败后手势也要完全复位
	assert.Equal(t, KindIdle, f.controller.Kind())
}

func TestCommitWithoutGesture(t *testing.T) {
	f := newFixture(t)

	commit, err := f.controller.Commit()
	assert.Nil(t, commit)
	assert.ErrorIs(t, err, ErrNoActiveGesture)
}

func TestCancelDiscardsEverything(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.controller.StartCreate(1, f.at(t, "2025-03-10 09:00:00")))
	f.controller.Update(PointerSample{SlotOffset: f.offsetOf(t, "2025-03-10 12:00:00"), StaffID: 1})
	require.NotNil(t, f.controller.Frame())

	f.controller.Cancel()
	assert.Equal(t, KindIdle, f.controller.Kind())
	assert.Nil(t, f.controller.Frame())
}

func TestSelectionIsSuppressedDuringGesture(t *testing.T) {
	f := newFixture(t)

	f.controller.Select(1)
	assert.Equal(t, []int64{1}, f.controller.Selected())

	require.True(t, f.controller.StartCreate(1, f.at(t, "2025-03-10 09:00:00")))
	f.controller.Select(2)
	f.controller.ToggleSelect(3)
	f.controller.ClearSelection()
	assert.Equal(t, []int64{1}, f.controller.Selected())

	f.controller.Cancel()
	f.controller.ToggleSelect(3)
	assert.Equal(t, []int64{1, 3}, f.controller.Selected())
	f.controller.ToggleSelect(1)
	assert.Equal(t, []int64{3}, f.controller.Selected())
	f.controller.ClearSelection()
	assert.Empty(t, f.controller.Selected())
}
