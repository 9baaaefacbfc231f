package domain

import "time"

type RosterTemplate struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	Type             string            `json:"type"` // 自由标签，例如 weekly、four_shift
	MinStaffPerShift int32             `json:"minStaffPerShift"`
	IdealTeamSize    int32             `json:"idealTeamSize"`
	ShiftDefinitions []ShiftDefinition `json:"shiftDefinitions"`
	// 一个完整轮换周期内每天的班次名称，允许重复出现，
	// 例如 ["早班","早班","中班","夜班","夜班","OFF","OFF"]
	RotationCycle []string  `json:"rotationCycle"`
	CreatedAt     time.Time `json:"createdAt"`
	Version       int32     `json:"-"`
}

// CycleLength 返回轮换周期的天数
func (rt *RosterTemplate) CycleLength() int {
	return len(rt.RotationCycle)
}

// FindShiftDefinition 按名称查找模板引用的班次定义
func (rt *RosterTemplate) FindShiftDefinition(name string) *ShiftDefinition {
	for i := range rt.ShiftDefinitions {
		if rt.ShiftDefinitions[i].Name == name {
			return &rt.ShiftDefinitions[i]
		}
	}
	return nil
}
