package domain

// CostBreakdown 是单个班次的人力成本拆分结果
// RateMissing 为 true 时所有金额都是 0，调用方应该显示"缺少时薪"而不是 ￥0.00
type CostBreakdown struct {
	ShiftID       int64   `json:"shiftID"`
	RegularHours  float64 `json:"regularHours"`
	OvertimeHours float64 `json:"overtimeHours"`
	RegularCost   float64 `json:"regularCost"`
	OvertimeCost  float64 `json:"overtimeCost"`
	TotalCost     float64 `json:"totalCost"`
	HasOvertime   bool    `json:"hasOvertime"`
	RateMissing   bool    `json:"rateMissing"`
}
