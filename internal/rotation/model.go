package rotation

import "time"

// Team: 一次生成请求中的一个班组。
// 班组不是持久化实体，只在生成请求中临时存在。
type Team struct {
	Name       string  `json:"name"`
	MemberIDs  []int64 `json:"memberIDs"`
	OffsetDays int32   `json:"offsetDays"` // 班组在轮换周期中的相位偏移
}

// ProposedEntry: 引擎产出的一条待定值班记录。
// 班次的起止时间在生成时就从班次定义中复制出来，
// 之后修改班次定义不会影响已生成的记录。
type ProposedEntry struct {
	DutyDate          time.Time `json:"dutyDate"`
	UserID            int64     `json:"userID"`
	ShiftDefinitionID *int64    `json:"shiftDefinitionID"`
	ShiftName         string    `json:"shiftName"`
	ShiftStartTime    string    `json:"shiftStartTime"`
	ShiftEndTime      string    `json:"shiftEndTime"`
}
