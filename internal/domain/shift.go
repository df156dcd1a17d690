package domain

import "time"

type ShiftStatus string

const (
	ShiftStatusDraft     ShiftStatus = "draft"
	ShiftStatusPublished ShiftStatus = "published"
	ShiftStatusConfirmed ShiftStatus = "confirmed"
	ShiftStatusCancelled ShiftStatus = "cancelled"
)

// Shift 是排班的基本单位，开始和结束时间都是 UTC 时刻
// ID 为负数时表示这是一个尚未落库的临时班次（见 optimistic 包）
type Shift struct {
	ID           int64       `json:"id"`
	StaffID      int64       `json:"staffID"`
	LocationID   int64       `json:"locationID"`
	RoleID       *int64      `json:"roleID"`
	StartTime    time.Time   `json:"startTime"`
	EndTime      time.Time   `json:"endTime"`
	BreakMinutes int32       `json:"breakMinutes"`
	Status       ShiftStatus `json:"status"`
	Note         string      `json:"note"`
	Optimistic   bool        `json:"optimistic"` // 仅存在于内存中，不会被持久化
	CreatedAt    time.Time   `json:"createdAt"`
	Version      int32       `json:"-"`
}

// Hours 返回扣除休息时间后的工时
func (s *Shift) Hours() float64 {
	hours := s.EndTime.Sub(s.StartTime).Hours() - float64(s.BreakMinutes)/60
	if hours < 0 {
		return 0
	}
	return hours
}

// ShiftPatch 表示对班次的部分更新，nil 字段表示不修改
type ShiftPatch struct {
	StaffID      *int64       `json:"staffID"`
	StartTime    *time.Time   `json:"startTime"`
	EndTime      *time.Time   `json:"endTime"`
	BreakMinutes *int32       `json:"breakMinutes"`
	Status       *ShiftStatus `json:"status"`
	Note         *string      `json:"note"`
}

// Apply 把补丁合并到班次的副本上
func (p *ShiftPatch) Apply(s Shift) Shift {
	if p.StaffID != nil {
		s.StaffID = *p.StaffID
	}
	if p.StartTime != nil {
		s.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		s.EndTime = *p.EndTime
	}
	if p.BreakMinutes != nil {
		s.BreakMinutes = *p.BreakMinutes
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Note != nil {
		s.Note = *p.Note
	}
	return s
}
