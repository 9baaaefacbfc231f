package repository

import (
	"fmt"
	"time"
)

// ErrDutyConflict 表示违反了同一值班表内 (员工, 日期) 的唯一性约束。
// 携带冲突的员工和日期，便于调用方提示具体是谁在哪一天冲突了。
type ErrDutyConflict struct {
	UserID   int64
	DutyDate time.Time
}

func (e *ErrDutyConflict) Error() string {
	return fmt.Sprintf("员工 %d 在 %s 当天已有值班记录", e.UserID, e.DutyDate.Format("2006-01-02"))
}
