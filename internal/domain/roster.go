package domain

import "time"

type RosterStatus string

const (
	RosterStatusDraft           RosterStatus = "draft"
	RosterStatusPendingApproval RosterStatus = "pending_approval"
	RosterStatusApproved        RosterStatus = "approved"
	RosterStatusActive          RosterStatus = "active"
)

// 值班表状态只能单向推进，active 之后没有任何后续状态，
// 也不存在回到 draft 的路径
var rosterStatusTransitions = map[RosterStatus]RosterStatus{
	RosterStatusDraft:           RosterStatusPendingApproval,
	RosterStatusPendingApproval: RosterStatusApproved,
	RosterStatusApproved:        RosterStatusActive,
}

// CanTransitionTo 检查状态能否从当前状态推进到 target
func (s RosterStatus) CanTransitionTo(target RosterStatus) bool {
	next, ok := rosterStatusTransitions[s]
	return ok && next == target
}

type EntryApprovalStatus string

const (
	EntryStatusScheduled EntryApprovalStatus = "scheduled"
	EntryStatusConfirmed EntryApprovalStatus = "confirmed"
	EntryStatusSwapped   EntryApprovalStatus = "swapped"
	EntryStatusCompleted EntryApprovalStatus = "completed"
)

type Roster struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	StartDate    time.Time    `json:"startDate"`
	EndDate      time.Time    `json:"endDate"` // 闭区间
	UnitID       *int64       `json:"unitID"`
	DepartmentID *int64       `json:"departmentID"`
	Status       RosterStatus `json:"status"`
	Notes        string       `json:"notes"`
	Entries      []RosterEntry `json:"entries,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	Version      int32         `json:"-"`
}

// RosterEntry 是某个员工在某一天的一条值班记录。
// 班次的起止时间在生成/创建时就固定写入记录本身，
// shiftDefinitionID 仅作为来源引用，之后修改班次定义不影响已有记录。
type RosterEntry struct {
	ID                int64     `json:"id"`
	RosterID          int64     `json:"rosterID"`
	UserID            int64     `json:"userID"`
	DutyDate          time.Time `json:"dutyDate"`
	ShiftDefinitionID *int64    `json:"shiftDefinitionID"` // 为空表示临时自定义班次
	ShiftName         string    `json:"shiftName"`
	ShiftStartTime    string    `json:"shiftStartTime"`
	ShiftEndTime      string    `json:"shiftEndTime"`
	DutyPosition      string    `json:"dutyPosition"`
	DutyLocation      string    `json:"dutyLocation"`
	TerminalID        *int64    `json:"terminalID"`

	// 以下考勤字段由考勤系统在事后写入，本服务只读
	CheckedInAt           *time.Time `json:"checkedInAt"`
	CheckedOutAt          *time.Time `json:"checkedOutAt"`
	AttendanceStatus      *string    `json:"attendanceStatus"`
	LateMinutes           int32      `json:"lateMinutes"`
	EarlyDepartureMinutes int32      `json:"earlyDepartureMinutes"`

	ApprovalStatus EntryApprovalStatus `json:"approvalStatus"`
	CreatedAt      time.Time           `json:"createdAt"`
	Version        int32               `json:"-"`
}
