package gesture

import "sort"

// 选中集合是独立于手势的一层，手势进行中时所有选中操作都会被忽略

// Select 单选，替换整个选中集合
func (c *Controller) Select(shiftID int64) {
	if c.Active() {
		return
	}
	c.selection = map[int64]struct{}{shiftID: {}}
}

// ToggleSelect 按住修饰键的加选，切换单个班次的选中状态
func (c *Controller) ToggleSelect(shiftID int64) {
	if c.Active() {
		return
	}
	if _, ok := c.selection[shiftID]; ok {
		delete(c.selection, shiftID)
	} else {
		c.selection[shiftID] = struct{}{}
	}
}

// ClearSelection 点击空白画布时清空选中集合
func (c *Controller) ClearSelection() {
	if c.Active() {
		return
	}
	c.selection = make(map[int64]struct{})
}

func (c *Controller) IsSelected(shiftID int64) bool {
	_, ok := c.selection[shiftID]
	return ok
}

func (c *Controller) Selected() []int64 {
	ids := make([]int64, 0, len(c.selection))
	for id := range c.selection {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
