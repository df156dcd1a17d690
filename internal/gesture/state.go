package gesture

import "time"

type Kind string

const (
	KindIdle     Kind = "idle"
	KindCreating Kind = "creating"
	KindDragging Kind = "dragging"
	KindResizing Kind = "resizing"
)

type Edge string

const (
	EdgeStart Edge = "start"
	EdgeEnd   Edge = "end"
)

// 手势状态用带标签的联合类型表示，每种状态只携带自己需要的字段
type gestureState interface {
	kind() Kind
}

type idleState struct{}

func (idleState) kind() Kind { return KindIdle }

type createState struct {
	staffID int64
	anchor  time.Time // 手势起点对应的时刻，已对齐到格子
}

func (createState) kind() Kind { return KindCreating }

type dragState struct {
	shiftID         int64
	originalStaffID int64
	originalStart   time.Time
	originalEnd     time.Time
	originOffset    float64 // 按下指针时的格子偏移
}

func (dragState) kind() Kind { return KindDragging }

type resizeState struct {
	shiftID       int64
	edge          Edge
	staffID       int64
	originalStart time.Time
	originalEnd   time.Time
	originOffset  float64
}

func (resizeState) kind() Kind { return KindResizing }

// PointerSample 是视图层换算好的一次指针采样
// SlotOffset 是指针在时间轴方向上的格子偏移，StaffID 是指针所在的员工行
type PointerSample struct {
	SlotOffset float64
	StaffID    int64
	Modifier   bool
}

// Preview 是某一帧的手势投影，只用于渲染，手势自身的延续只依赖内部状态
type Preview struct {
	StaffID       int64      `json:"staffID"`
	Start         time.Time  `json:"start"`
	End           time.Time  `json:"end"`
	Valid         bool       `json:"valid"`
	Reason        string     `json:"reason,omitempty"`
	SnapIndicator *time.Time `json:"snapIndicator,omitempty"`
}

type CommitKind string

const (
	CommitCreate CommitKind = "create"
	CommitMove   CommitKind = "move"
	CommitResize CommitKind = "resize"
)

// Commit 描述手势结束后应该持久化的变更
type Commit struct {
	Kind    CommitKind `json:"kind"`
	ShiftID int64      `json:"shiftID,omitempty"` // create 时为 0
	StaffID int64      `json:"staffID"`
	Start   time.Time  `json:"start"`
	End     time.Time  `json:"end"`
}
