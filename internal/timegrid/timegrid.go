package timegrid

import (
	"fmt"
	"time"

	"github.com/rosterline-dev/rosterline/backend/internal/config"
	"github.com/rosterline-dev/rosterline/backend/internal/domain"
)

// Grid 负责把绝对时刻和排班画布上的一维格子坐标互相转换
// 所有计算都基于门店配置时区的本地挂钟时间，而不是 UTC 偏移
type Grid struct {
	location     *time.Location
	slotMinutes  int
	dayStartHour int
	minDuration  time.Duration
	snapEnabled  bool
}

func NewGrid(cfg *config.Config) (*Grid, error) {
	location, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("无法加载时区 %s: %w", cfg.Schedule.Timezone, err)
	}

	return &Grid{
		location:     location,
		slotMinutes:  cfg.Schedule.SlotMinutes,
		dayStartHour: cfg.Schedule.DayStartHour,
		minDuration:  time.Duration(cfg.Schedule.MinShiftMinutes) * time.Minute,
		snapEnabled:  cfg.Schedule.SnapEnabled,
	}, nil
}

func (g *Grid) Location() *time.Location {
	return g.location
}

func (g *Grid) MinDuration() time.Duration {
	return g.minDuration
}

func (g *Grid) slotsPerDay() float64 {
	return float64((24-g.dayStartHour)*60) / float64(g.slotMinutes)
}

// TimeToOffset 把绝对时刻转换成从当天起始小时开始数的格子数
func (g *Grid) TimeToOffset(t time.Time) float64 {
	local := t.In(g.location)
	minutes := (local.Hour()-g.dayStartHour)*60 + local.Minute()
	return float64(minutes) / float64(g.slotMinutes)
}

// OffsetToTime 是 TimeToOffset 的逆映射，refDate 决定落在哪一个本地日
// 超出可见格子范围的 offset 会被钳制
func (g *Grid) OffsetToTime(offset float64, refDate time.Time) time.Time {
	if offset < 0 {
		offset = 0
	}
	if max := g.slotsPerDay(); offset > max {
		offset = max
	}

	local := refDate.In(g.location)
	minutes := int(offset * float64(g.slotMinutes))
	return time.Date(local.Year(), local.Month(), local.Day(), g.dayStartHour, minutes, 0, 0, g.location)
}

// OffsetDelta 把格子数的差值换算成时间差
func (g *Grid) OffsetDelta(slots float64) time.Duration {
	return time.Duration(slots * float64(g.slotMinutes) * float64(time.Minute))
}

// SnapToGrid 把本地时间的分钟数四舍五入到最近的格子边界，关闭吸附时原样返回
func (g *Grid) SnapToGrid(t time.Time) time.Time {
	if !g.snapEnabled {
		return t
	}

	local := t.In(g.location)
	minutes := local.Hour()*60 + local.Minute()
	snapped := ((minutes + g.slotMinutes/2) / g.slotMinutes) * g.slotMinutes
	dayOffset := 0
	if snapped >= 24*60 {
		// 23:59 附近向上取整会越过午夜
		snapped -= 24 * 60
		dayOffset = 1
	}
	return time.Date(local.Year(), local.Month(), local.Day()+dayOffset, snapped/60, snapped%60, 0, 0, g.location)
}

// DayStart 返回 t 所在本地日的 00:00:00
func (g *Grid) DayStart(t time.Time) time.Time {
	local := t.In(g.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.location)
}

// DayEnd 返回 t 所在本地日的 23:59:59.999
func (g *Grid) DayEnd(t time.Time) time.Time {
	local := t.In(g.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999000000, g.location)
}

// ClampToDay 把候选区间限制在 day 所在的本地日内
// 优先保持时长不变，只有在区间比一整天还长时才收缩时长
func (g *Grid) ClampToDay(day, start, end time.Time) (time.Time, time.Time) {
	dayStart := g.DayStart(day)
	dayEnd := g.DayEnd(day)
	duration := end.Sub(start)

	if end.After(dayEnd) {
		end = dayEnd
		start = end.Add(-duration)
	}
	if start.Before(dayStart) {
		start = dayStart
		if candidate := start.Add(duration); candidate.Before(dayEnd) {
			end = candidate
		} else {
			end = dayEnd
		}
	}

	return start, end
}

// EnforceMinDuration 保证区间不短于最小班次时长
// anchorEnd 为 true 时固定结束边，把开始边往前推，否则固定开始边
func (g *Grid) EnforceMinDuration(start, end time.Time, anchorEnd bool) (time.Time, time.Time) {
	if end.Sub(start) >= g.minDuration {
		return start, end
	}
	if anchorEnd {
		return end.Add(-g.minDuration), end
	}
	return start, start.Add(g.minDuration)
}

type OverlapResult struct {
	Overlaps        bool
	Reason          string
	ConflictShiftID int64
}

// HasOverlap 检查候选区间是否和该员工已有的班次冲突
// 采用左闭右开语义，恰好首尾相接的班次不算冲突，已取消的班次不参与判断
func (g *Grid) HasOverlap(staffShifts []*domain.Shift, candidateStart, candidateEnd time.Time, excludeID int64) OverlapResult {
	for _, shift := range staffShifts {
		if shift.ID == excludeID {
			continue
		}
		if shift.Status == domain.ShiftStatusCancelled {
			continue
		}
		if candidateStart.Before(shift.EndTime) && shift.StartTime.Before(candidateEnd) {
			return OverlapResult{
				Overlaps: true,
				Reason: fmt.Sprintf("与已有班次 %s-%s 冲突",
					shift.StartTime.In(g.location).Format("15:04"),
					shift.EndTime.In(g.location).Format("15:04")),
				ConflictShiftID: shift.ID,
			}
		}
	}

	return OverlapResult{}
}
