package domain

import "time"

type OvertimeRuleType string

const (
	OvertimeRuleMultiplier OvertimeRuleType = "multiplier"
	OvertimeRuleFlatExtra  OvertimeRuleType = "flat_extra"
)

type PayFrequency string

const (
	PayFrequencyWeekly      PayFrequency = "weekly"
	PayFrequencyFortnightly PayFrequency = "fortnightly"
	PayFrequencyMonthly     PayFrequency = "monthly"
)

// OvertimeConfig 是某个员工的加班配置，由排班核心只读使用
// 缺失的字段一律按"只按正常工时计算"降级处理，预览计算不允许因配置不完整而失败
type OvertimeConfig struct {
	StaffID               int64            `json:"staffID"`
	ContractedWeeklyHours *float64         `json:"contractedWeeklyHours"`
	OvertimeEnabled       bool             `json:"overtimeEnabled"`
	RuleType              OvertimeRuleType `json:"ruleType"`
	Multiplier            *float64         `json:"multiplier"`
	FlatExtraPerHour      *float64         `json:"flatExtraPerHour"`
	PayFrequency          PayFrequency     `json:"payFrequency"`
	WeekStartDay          time.Weekday     `json:"weekStartDay"`
	FortnightAnchor       *time.Time       `json:"fortnightAnchor"` // 双周周期必须有锚点日期，否则跳过加班计算
	Version               int32            `json:"-"`
}

// RateHistoryEntry 记录某个员工在某一天开始生效的时薪
type RateHistoryEntry struct {
	ID            int64     `json:"id"`
	StaffID       int64     `json:"staffID"`
	HourlyRate    float64   `json:"hourlyRate"`
	EffectiveDate time.Time `json:"effectiveDate"`
}
