package gesture

import (
	"errors"
	"fmt"
	"time"

	"github.com/rosterline-dev/rosterline/backend/internal/domain"
	"github.com/rosterline-dev/rosterline/backend/internal/policy"
	"github.com/rosterline-dev/rosterline/backend/internal/timegrid"
)

var (
	ErrNoActiveGesture  = errors.New("没有正在进行的手势")
	ErrInvalidPlacement = errors.New("班次摆放不合法")
)

// ShiftLookup 返回某个员工当前可见的班次，用于冲突检查
type ShiftLookup func(staffID int64) []*domain.Shift

// Controller 持有正在进行的指针手势，状态不属于任何渲染层
// 同一时间最多只有一个手势，另一个手势进行中时新的手势会被直接拒绝
type Controller struct {
	grid    *timegrid.Grid
	checker *policy.Checker
	shifts  ShiftLookup

	state     gestureState
	latest    PointerSample
	hasSample bool
	dirty     bool
	preview   *Preview

	selection map[int64]struct{}
}

func NewController(grid *timegrid.Grid, checker *policy.Checker, shifts ShiftLookup) *Controller {
	return &Controller{
		grid:      grid,
		checker:   checker,
		shifts:    shifts,
		state:     idleState{},
		selection: make(map[int64]struct{}),
	}
}

func (c *Controller) Kind() Kind {
	return c.state.kind()
}

func (c *Controller) Active() bool {
	return c.state.kind() != KindIdle
}

// StartCreate 开始一个画新班次的手势，非空闲状态下直接拒绝
func (c *Controller) StartCreate(staffID int64, originTime time.Time) bool {
	if c.Active() {
		return false
	}

	anchor := c.grid.SnapToGrid(originTime)
	c.state = createState{staffID: staffID, anchor: anchor}
	c.latest = PointerSample{SlotOffset: c.grid.TimeToOffset(anchor), StaffID: staffID}
	c.hasSample = true
	c.dirty = true
	return true
}

// StartDrag 开始拖动一个已有班次
func (c *Controller) StartDrag(shiftID int64, originOffset float64, originalStaffID int64, originalStart, originalEnd time.Time) bool {
	if c.Active() {
		return false
	}

	c.state = dragState{
		shiftID:         shiftID,
		originalStaffID: originalStaffID,
		originalStart:   originalStart,
		originalEnd:     originalEnd,
		originOffset:    originOffset,
	}
	c.latest = PointerSample{SlotOffset: originOffset, StaffID: originalStaffID}
	c.hasSample = true
	c.dirty = true
	return true
}

// StartResize 开始拉伸一个已有班次的某条边
func (c *Controller) StartResize(shiftID int64, edge Edge, originOffset float64, staffID int64, originalStart, originalEnd time.Time) bool {
	if c.Active() {
		return false
	}

	c.state = resizeState{
		shiftID:       shiftID,
		edge:          edge,
		staffID:       staffID,
		originalStart: originalStart,
		originalEnd:   originalEnd,
		originOffset:  originOffset,
	}
	c.latest = PointerSample{SlotOffset: originOffset}
	c.hasSample = true
	c.dirty = true
	return true
}

// Update 记录最新的指针采样，只做合并不做计算
// 真正的预览计算在 Frame 里按帧执行，指针事件再密集每帧也只算一次
func (c *Controller) Update(sample PointerSample) {
	if !c.Active() {
		return
	}
	c.latest = sample
	c.dirty = true
}

// Frame 在每个渲染帧调用一次，用最新的采样重算预览
// 没有新采样时直接返回上一帧的结果
func (c *Controller) Frame() *Preview {
	if !c.Active() {
		return nil
	}
	if !c.dirty {
		return c.preview
	}

	c.preview = c.computePreview()
	c.dirty = false
	return c.preview
}

// Commit 用最终的预览结束手势并回到空闲状态
// 预览不合法时返回 ErrInvalidPlacement，调用方此时不允许再调用变更层
func (c *Controller) Commit() (*Commit, error) {
	if !c.Active() {
		return nil, ErrNoActiveGesture
	}

	preview := c.Frame()
	kind := c.state.kind()
	var shiftID int64
	switch state := c.state.(type) {
	case dragState:
		shiftID = state.shiftID
	case resizeState:
		shiftID = state.shiftID
	}

	c.reset()

	if !preview.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlacement, preview.Reason)
	}

	commit := &Commit{
		ShiftID: shiftID,
		StaffID: preview.StaffID,
		Start:   preview.Start,
		End:     preview.End,
	}
	switch kind {
	case KindCreating:
		commit.Kind = CommitCreate
	case KindDragging:
		commit.Kind = CommitMove
	case KindResizing:
		commit.Kind = CommitResize
	}

	return commit, nil
}

// Cancel 立即丢弃手势状态，不产生任何提交
func (c *Controller) Cancel() {
	c.reset()
}

func (c *Controller) reset() {
	c.state = idleState{}
	c.preview = nil
	c.hasSample = false
	c.dirty = false
}

func (c *Controller) computePreview() *Preview {
	switch state := c.state.(type) {
	case createState:
		return c.previewCreate(state)
	case dragState:
		return c.previewDrag(state)
	case resizeState:
		return c.previewResize(state)
	default:
		return nil
	}
}

func (c *Controller) previewCreate(state createState) *Preview {
	cursorRaw := c.grid.OffsetToTime(c.latest.SlotOffset, state.anchor)
	cursor := c.grid.SnapToGrid(cursorRaw)

	// 允许从锚点往任意方向画
	start, end := state.anchor, cursor
	anchorEnd := false
	if end.Before(start) {
		start, end = end, start
		anchorEnd = true
	}

	// 锚点不动，只把游标这一侧截断在当天范围内
	if dayEnd := c.grid.DayEnd(state.anchor); end.After(dayEnd) {
		end = dayEnd
	}
	if dayStart := c.grid.DayStart(state.anchor); start.Before(dayStart) {
		start = dayStart
	}
	start, end = c.grid.EnforceMinDuration(start, end, anchorEnd)

	preview := &Preview{StaffID: state.staffID, Start: start, End: end}
	if !cursor.Equal(cursorRaw) {
		preview.SnapIndicator = &cursor
	}
	c.validate(preview, 0)
	return preview
}

func (c *Controller) previewDrag(state dragState) *Preview {
	// 把格子偏移差换算成时间差
	delta := c.grid.OffsetDelta(c.latest.SlotOffset - state.originOffset)

	duration := state.originalEnd.Sub(state.originalStart)
	rawStart := state.originalStart.Add(delta)
	start := c.grid.SnapToGrid(rawStart)
	end := start.Add(duration)

	// 拖动不能跨过当天的午夜
	start, end = c.grid.ClampToDay(state.originalStart, start, end)

	// 只有按住修饰键时才允许换员工行，防止误操作改派
	staffID := state.originalStaffID
	if c.latest.Modifier && c.latest.StaffID != 0 {
		staffID = c.latest.StaffID
	}

	preview := &Preview{StaffID: staffID, Start: start, End: end}
	if !start.Equal(rawStart) {
		preview.SnapIndicator = &start
	}
	c.validate(preview, state.shiftID)
	return preview
}

func (c *Controller) previewResize(state resizeState) *Preview {
	cursorRaw := c.grid.OffsetToTime(c.latest.SlotOffset, state.originalStart)
	cursor := c.grid.SnapToGrid(cursorRaw)

	start, end := state.originalStart, state.originalEnd
	switch state.edge {
	case EdgeStart:
		// 拉伸开始边时结束边是锚，最小时长不足时把开始边推回去
		start = cursor
		if dayStart := c.grid.DayStart(state.originalStart); start.Before(dayStart) {
			start = dayStart
		}
		start, end = c.grid.EnforceMinDuration(start, end, true)
	case EdgeEnd:
		end = cursor
		if dayEnd := c.grid.DayEnd(state.originalStart); end.After(dayEnd) {
			end = dayEnd
		}
		start, end = c.grid.EnforceMinDuration(start, end, false)
	}

	// 拉伸不会改变班次所属的员工
	preview := &Preview{StaffID: state.staffID, Start: start, End: end}
	if !cursor.Equal(cursorRaw) {
		preview.SnapIndicator = &cursor
	}
	c.validate(preview, state.shiftID)
	return preview
}

func (c *Controller) validate(preview *Preview, excludeID int64) {
	result := c.checker.Validate(c.shifts(preview.StaffID), preview.Start, preview.End, excludeID)
	preview.Valid = result.Valid
	preview.Reason = result.Reason
}
