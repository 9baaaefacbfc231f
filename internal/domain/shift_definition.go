package domain

import "time"

// RestShiftName 为轮换周期中表示休息日的保留名称，不会产生任何值班记录
const RestShiftName = "OFF"

type ShiftDefinition struct {
	ID            int64   `json:"id"`
	UnitID        int64   `json:"unitID"`
	Name          string  `json:"name"` // 在单位内唯一
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime"`
	DurationHours float64 `json:"durationHours"`
	Color         string  `json:"color"` // 仅用于前端展示
	CreatedAt     time.Time `json:"createdAt"`
	Version       int32     `json:"-"`
}

// IsRest 表示这个班次是否实际上是休息（时长为 0 的班次和 OFF 等价）
func (sd *ShiftDefinition) IsRest() bool {
	return sd.Name == RestShiftName || sd.DurationHours == 0
}
