package utils

import (
	"errors"
	"time"
)

// ValidateShiftWindow 检查班次的基本时间约束：结束晚于开始、休息时间短于班次时长
func ValidateShiftWindow(start, end time.Time, breakMinutes int32) error {
	if !end.After(start) {
		return errors.New("结束时间必须晚于开始时间")
	}

	if breakMinutes < 0 {
		return errors.New("休息时间不能为负数")
	}

	if float64(breakMinutes) >= end.Sub(start).Minutes() {
		return errors.New("休息时间不能超过班次时长")
	}

	return nil
}
