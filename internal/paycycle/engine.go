package paycycle

import (
	"errors"
	"sort"
	"time"

	"github.com/rosterline-dev/rosterline/backend/internal/domain"
)

// Engine 把可见班次集合折算成每个班次的成本拆分，供渲染层做成本浮层
// 班次集合或加班、时薪配置变化之后重新调用 CostShifts 即可
type Engine struct {
	location *time.Location
}

func NewEngine(location *time.Location) *Engine {
	return &Engine{location: location}
}

// CostShifts 计算每个班次的成本拆分，返回 shiftID 到拆分结果的映射
// 已取消的班次不产生成本条目
func (e *Engine) CostShifts(shifts []*domain.Shift, configs map[int64]*domain.OvertimeConfig, rates map[int64][]*domain.RateHistoryEntry) map[int64]domain.CostBreakdown {
	byStaff := make(map[int64][]*domain.Shift)
	for _, shift := range shifts {
		if shift.Status == domain.ShiftStatusCancelled {
			continue
		}
		byStaff[shift.StaffID] = append(byStaff[shift.StaffID], shift)
	}

	result := make(map[int64]domain.CostBreakdown, len(shifts))
	for staffID, staffShifts := range byStaff {
		// 累计工时要求班次按开始时间升序处理，这里统一排好
		sort.Slice(staffShifts, func(i, j int) bool {
			return staffShifts[i].StartTime.Before(staffShifts[j].StartTime)
		})
		e.costStaffShifts(staffShifts, configs[staffID], rates[staffID], result)
	}

	return result
}

func (e *Engine) costStaffShifts(shifts []*domain.Shift, cfg *domain.OvertimeConfig, history []*domain.RateHistoryEntry, result map[int64]domain.CostBreakdown) {
	// 完全没有加班配置的员工跳过周期和阈值机制，直接按时薪计费
	if cfg == nil || !cfg.OvertimeEnabled {
		for _, shift := range shifts {
			rate := ResolveRate(history, shift.StartTime)
			result[shift.ID] = SplitShiftCost(shift, 0, nil, rate, cfg)
		}
		return
	}

	threshold := ContractedThreshold(cfg.ContractedWeeklyHours, cfg.PayFrequency)

	var windowStart, windowEnd time.Time
	haveWindow := false
	running := 0.0

	for _, shift := range shifts {
		rate := ResolveRate(history, shift.StartTime)

		if !haveWindow || !shift.StartTime.Before(windowEnd) {
			start, end, err := ResolveWindow(shift.StartTime, cfg, e.location)
			if err != nil {
				if errors.Is(err, ErrMissingFortnightAnchor) {
					// 配置缺口：该员工整体退化成只按正常工时计费
					for _, s := range shifts {
						result[s.ID] = SplitShiftCost(s, 0, nil, ResolveRate(history, s.StartTime), nil)
					}
					return
				}
				continue
			}
			windowStart, windowEnd = start, end
			haveWindow = true
			running = 0
		}

		result[shift.ID] = SplitShiftCost(shift, running, threshold, rate, cfg)
		if !shift.StartTime.Before(windowStart) && shift.StartTime.Before(windowEnd) {
			running += shift.Hours()
		}
	}
}
