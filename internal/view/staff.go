package view

import (
	"github.com/myfan-dev/myfan/console/internal/domain"
)

// StaffSelection 记录日视图中选中的员工，顺序始终与员工名单一致
type StaffSelection struct {
	roster   []domain.Staff
	selected map[int64]bool
}

// NewStaffSelection 根据 staff 参数构造选择状态，名单中不存在的 ID 被忽略
func NewStaffSelection(roster []domain.Staff, ids []int64) StaffSelection {
	s := StaffSelection{roster: roster, selected: make(map[int64]bool)}
	for _, id := range ids {
		if s.inRoster(id) {
			s.selected[id] = true
		}
	}
	return s
}

func (s StaffSelection) inRoster(id int64) bool {
	for _, st := range s.roster {
		if st.ID == id {
			return true
		}
	}
	return false
}

func (s StaffSelection) with(selected map[int64]bool) StaffSelection {
	return StaffSelection{roster: s.roster, selected: selected}
}

func (s StaffSelection) clone() map[int64]bool {
	m := make(map[int64]bool, len(s.selected))
	for id := range s.selected {
		m[id] = true
	}
	return m
}

func (s StaffSelection) Roster() []domain.Staff {
	return s.roster
}

func (s StaffSelection) IsSelected(id int64) bool {
	return s.selected[id]
}

func (s StaffSelection) Count() int {
	return len(s.selected)
}

// Toggle 切换单个员工的选中状态
func (s StaffSelection) Toggle(id int64) StaffSelection {
	if !s.inRoster(id) {
		return s
	}
	m := s.clone()
	if m[id] {
		delete(m, id)
	} else {
		m[id] = true
	}
	return s.with(m)
}

// AllSelected 与全选复选框的勾选状态一致，名单为空时也视为全选
func (s StaffSelection) AllSelected() bool {
	return len(s.selected) == len(s.roster)
}

func (s StaffSelection) Indeterminate() bool {
	return len(s.selected) > 0 && len(s.selected) < len(s.roster)
}

// ToggleAll 已经全选时全部取消，否则选中所有员工
func (s StaffSelection) ToggleAll() StaffSelection {
	if s.AllSelected() {
		return s.with(make(map[int64]bool))
	}
	m := make(map[int64]bool, len(s.roster))
	for _, st := range s.roster {
		m[st.ID] = true
	}
	return s.with(m)
}

func (s StaffSelection) Selected() []domain.Staff {
	var staffs []domain.Staff
	for _, st := range s.roster {
		if s.selected[st.ID] {
			staffs = append(staffs, st)
		}
	}
	return staffs
}

func (s StaffSelection) IDs() []int64 {
	var ids []int64
	for _, st := range s.roster {
		if s.selected[st.ID] {
			ids = append(ids, st.ID)
		}
	}
	return ids
}
