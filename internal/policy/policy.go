package policy

import (
	"time"

	"github.com/rosterline-dev/rosterline/backend/internal/domain"
	"github.com/rosterline-dev/rosterline/backend/internal/timegrid"
)

type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Checker 判断一个候选的班次摆放是否合法
// 它故意独立于手势状态机，后续新增规则（每日最大工时、休息间隔等）时不需要改动手势逻辑
type Checker struct {
	grid *timegrid.Grid
}

func NewChecker(grid *timegrid.Grid) *Checker {
	return &Checker{grid: grid}
}

// Validate 检查 (staffID, start, end) 的摆放是否合法，excludeID 是正在编辑的班次
// staffShifts 应该只包含该员工的班次
func (c *Checker) Validate(staffShifts []*domain.Shift, start, end time.Time, excludeID int64) Result {
	if !end.After(start) {
		return Result{Valid: false, Reason: "结束时间必须晚于开始时间"}
	}

	if overlap := c.grid.HasOverlap(staffShifts, start, end, excludeID); overlap.Overlaps {
		return Result{Valid: false, Reason: overlap.Reason}
	}

	return Result{Valid: true}
}
