package optimistic

import (
	"sort"
	"sync"

	"github.com/rosterline-dev/rosterline/backend/internal/domain"
)

// Collection 是画布和成本引擎共用的可见班次集合
// 所有写入都经过 Mutator 或 ApplyRefresh，未决的乐观值优先于后台刷新回来的旧值
type Collection struct {
	mu      sync.RWMutex
	shifts  map[int64]*domain.Shift
	pending map[int64]struct{}
}

func NewCollection() *Collection {
	return &Collection{
		shifts:  make(map[int64]*domain.Shift),
		pending: make(map[int64]struct{}),
	}
}

// Replace 用权威数据整体替换集合，用于初始加载
func (c *Collection) Replace(shifts []*domain.Shift) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shifts = make(map[int64]*domain.Shift, len(shifts))
	for _, shift := range shifts {
		c.shifts[shift.ID] = shift
	}
}

// ApplyRefresh 合并一次后台刷新的结果
// 正在进行乐观变更的班次保持本地的未决值，不会被刷新回来的旧数据覆盖
func (c *Collection) ApplyRefresh(shifts []*domain.Shift) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[int64]*domain.Shift, len(shifts))
	for _, shift := range shifts {
		if _, isPending := c.pending[shift.ID]; isPending {
			continue
		}
		next[shift.ID] = shift
	}
	// 未决的乐观值（包括临时创建和未决删除留下的空缺）原样保留
	for id := range c.pending {
		if current, ok := c.shifts[id]; ok {
			next[id] = current
		}
	}
	c.shifts = next
}

func (c *Collection) Get(id int64) (*domain.Shift, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	shift, ok := c.shifts[id]
	return shift, ok
}

// All 返回按开始时间升序排列的全部班次
func (c *Collection) All() []*domain.Shift {
	c.mu.RLock()
	defer c.mu.RUnlock()

	shifts := make([]*domain.Shift, 0, len(c.shifts))
	for _, shift := range c.shifts {
		shifts = append(shifts, shift)
	}
	sort.Slice(shifts, func(i, j int) bool {
		return shifts[i].StartTime.Before(shifts[j].StartTime)
	})
	return shifts
}

// ForStaff 返回某个员工的班次，按开始时间升序
func (c *Collection) ForStaff(staffID int64) []*domain.Shift {
	c.mu.RLock()
	defer c.mu.RUnlock()

	shifts := make([]*domain.Shift, 0)
	for _, shift := range c.shifts {
		if shift.StaffID == staffID {
			shifts = append(shifts, shift)
		}
	}
	sort.Slice(shifts, func(i, j int) bool {
		return shifts[i].StartTime.Before(shifts[j].StartTime)
	})
	return shifts
}

func (c *Collection) insert(shift *domain.Shift) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shifts[shift.ID] = shift
}

func (c *Collection) remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.shifts, id)
}

// swap 原子地把临时班次换成落库后的真实班次，避免中间出现空档
func (c *Collection) swap(tempID int64, real *domain.Shift) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.shifts, tempID)
	c.shifts[real.ID] = real
}

func (c *Collection) markPending(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[id] = struct{}{}
}

func (c *Collection) clearPending(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

func (c *Collection) isPending(id int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.pending[id]
	return ok
}
