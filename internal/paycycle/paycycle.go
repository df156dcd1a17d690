package paycycle

import (
	"errors"
	"time"

	"github.com/rosterline-dev/rosterline/backend/internal/domain"
)

var ErrMissingFortnightAnchor = errors.New("双周薪酬周期缺少锚点日期")

// ResolveWindow 求参考时刻所在的薪酬周期 [start, end)，边界按门店本地时间计算
func ResolveWindow(ref time.Time, cfg *domain.OvertimeConfig, location *time.Location) (time.Time, time.Time, error) {
	local := ref.In(location)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, location)

	switch cfg.PayFrequency {
	case domain.PayFrequencyWeekly:
		// 周起始日可配置
		delta := (int(day.Weekday()) - int(cfg.WeekStartDay) + 7) % 7
		start := day.AddDate(0, 0, -delta)
		return start, start.AddDate(0, 0, 7), nil

	case domain.PayFrequencyFortnightly:
		// 双周周期必须有显式的锚点，缺失时该员工的加班计算要整体跳过
		if cfg.FortnightAnchor == nil {
			return time.Time{}, time.Time{}, ErrMissingFortnightAnchor
		}
		anchorLocal := cfg.FortnightAnchor.In(location)
		anchor := time.Date(anchorLocal.Year(), anchorLocal.Month(), anchorLocal.Day(), 0, 0, 0, 0, location)
		days := civilDaysBetween(anchor, day)
		periods := days / 14
		if days < 0 && days%14 != 0 {
			periods--
		}
		start := anchor.AddDate(0, 0, periods*14)
		return start, start.AddDate(0, 0, 14), nil

	case domain.PayFrequencyMonthly:
		start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, location)
		return start, start.AddDate(0, 1, 0), nil

	default:
		// 未知频率按周处理
		delta := (int(day.Weekday()) - int(cfg.WeekStartDay) + 7) % 7
		start := day.AddDate(0, 0, -delta)
		return start, start.AddDate(0, 0, 7), nil
	}
}

// civilDaysBetween 按日历日计算 from 到 to 相隔的天数
// 夏令时会让一天的挂钟时长不是 24 小时，所以不能直接用时刻差除以 24 小时
func civilDaysBetween(from, to time.Time) int {
	fromDate := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDate := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDate.Sub(fromDate).Hours() / 24)
}

// ContractedThreshold 把合同周工时换算成当前周期的加班阈值
// 月周期固定乘 4，不按当月实际天数折算，这是有意的简化
func ContractedThreshold(weeklyHours *float64, frequency domain.PayFrequency) *float64 {
	if weeklyHours == nil {
		return nil
	}

	threshold := *weeklyHours
	switch frequency {
	case domain.PayFrequencyFortnightly:
		threshold *= 2
	case domain.PayFrequencyMonthly:
		threshold *= 4
	}
	return &threshold
}

// CumulativeHoursBefore 计算每个班次开始前已经累计的工时
// shifts 必须按开始时间升序排列，这是硬性前置条件
// 开始时间落在窗口内的班次推进累计值，窗口外的班次只拿到当前累计值不推进
func CumulativeHoursBefore(shifts []*domain.Shift, windowStart, windowEnd time.Time) map[int64]float64 {
	result := make(map[int64]float64, len(shifts))
	running := 0.0

	for _, shift := range shifts {
		result[shift.ID] = running
		if shift.Status == domain.ShiftStatusCancelled {
			continue
		}
		if !shift.StartTime.Before(windowStart) && shift.StartTime.Before(windowEnd) {
			running += shift.Hours()
		}
	}

	return result
}

// ResolveRate 取生效日期不晚于 date 的最新一条时薪记录
func ResolveRate(history []*domain.RateHistoryEntry, date time.Time) *float64 {
	var best *domain.RateHistoryEntry
	for _, entry := range history {
		if entry.EffectiveDate.After(date) {
			continue
		}
		if best == nil || entry.EffectiveDate.After(best.EffectiveDate) {
			best = entry
		}
	}
	if best == nil {
		return nil
	}
	rate := best.HourlyRate
	return &rate
}

// SplitShiftCost 把一个班次的工时和成本拆分成正常与加班两部分
//
// 成本模型是"所有工时先按基础时薪计费，加班部分再额外加一笔附加费"：
// multiplier 规则的附加费是 overtimeHours × rate × multiplier（注意不是 multiplier−1，
// 这是沿用下来的产品行为，改动前需要产品确认）；flat_extra 规则的附加费是
// overtimeHours × flatExtraPerHour
func SplitShiftCost(shift *domain.Shift, cumulativeBefore float64, threshold *float64, rate *float64, cfg *domain.OvertimeConfig) domain.CostBreakdown {
	breakdown := domain.CostBreakdown{ShiftID: shift.ID}
	hours := shift.Hours()

	// 缺时薪和真正的零成本必须能区分开
	if rate == nil || *rate <= 0 {
		breakdown.RegularHours = hours
		breakdown.RateMissing = true
		return breakdown
	}

	overtimeEnabled := cfg != nil && cfg.OvertimeEnabled
	if !overtimeEnabled || threshold == nil || cumulativeBefore+hours <= *threshold {
		breakdown.RegularHours = hours
		breakdown.RegularCost = hours * *rate
		breakdown.TotalCost = breakdown.RegularCost
		return breakdown
	}

	var regularHours, overtimeHours float64
	if cumulativeBefore >= *threshold {
		overtimeHours = hours
	} else {
		regularHours = *threshold - cumulativeBefore
		overtimeHours = hours - regularHours
	}

	var surcharge float64
	switch cfg.RuleType {
	case domain.OvertimeRuleMultiplier:
		if cfg.Multiplier == nil || *cfg.Multiplier <= 0 {
			// 规则参数缺失时按没有加班处理，而不是报错
			breakdown.RegularHours = hours
			breakdown.RegularCost = hours * *rate
			breakdown.TotalCost = breakdown.RegularCost
			return breakdown
		}
		surcharge = overtimeHours * *rate * *cfg.Multiplier
	case domain.OvertimeRuleFlatExtra:
		if cfg.FlatExtraPerHour == nil || *cfg.FlatExtraPerHour <= 0 {
			breakdown.RegularHours = hours
			breakdown.RegularCost = hours * *rate
			breakdown.TotalCost = breakdown.RegularCost
			return breakdown
		}
		surcharge = overtimeHours * *cfg.FlatExtraPerHour
	default:
		breakdown.RegularHours = hours
		breakdown.RegularCost = hours * *rate
		breakdown.TotalCost = breakdown.RegularCost
		return breakdown
	}

	breakdown.RegularHours = regularHours
	breakdown.OvertimeHours = overtimeHours
	breakdown.RegularCost = hours * *rate // 全部工时的基础工资，包括加班的那部分
	breakdown.OvertimeCost = surcharge
	breakdown.TotalCost = breakdown.RegularCost + breakdown.OvertimeCost
	breakdown.HasOvertime = overtimeHours > 0
	return breakdown
}
