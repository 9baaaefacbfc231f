package utils

import (
	"fmt"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
)

const timeOfDayLayout = "15:04"

// ParseTimeOfDay 解析 HH:MM 格式的时刻
func ParseTimeOfDay(value string) (time.Time, error) {
	t, err := time.Parse(timeOfDayLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("时刻 %q 不符合 HH:MM 格式", value)
	}
	return t, nil
}

// ComputeShiftDurationHours 计算班次时长。
// 结束时刻不晚于开始时刻时视为跨天班次（例如夜班 22:00-06:00）。
func ComputeShiftDurationHours(startTime, endTime string) (float64, error) {
	start, err := ParseTimeOfDay(startTime)
	if err != nil {
		return 0, err
	}
	end, err := ParseTimeOfDay(endTime)
	if err != nil {
		return 0, err
	}

	duration := end.Sub(start).Hours()
	if duration <= 0 {
		duration += 24
	}
	return duration, nil
}

// ValidateRotationCycle 检查轮换周期中的每个名称都能在班次定义中找到。
// 保留名称 OFF 表示休息日，不需要对应的定义。
func ValidateRotationCycle(cycle []string, definitions []domain.ShiftDefinition) error {
	if len(cycle) == 0 {
		return fmt.Errorf("轮换周期不能为空")
	}

	for i, name := range cycle {
		if name == domain.RestShiftName {
			continue
		}

		found := false
		for j := range definitions {
			if definitions[j].Name == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("轮换周期第 %d 天的班次 %q 没有对应的班次定义", i+1, name)
		}
	}

	return nil
}

// ValidateRosterDates 检查值班表的日期范围
func ValidateRosterDates(startDate, endDate time.Time) error {
	if startDate.After(endDate) {
		return fmt.Errorf("开始日期不能晚于结束日期")
	}
	return nil
}

// ValidateRosterScope 检查值班表至少关联到一个单位或部门，
// 不允许存在不属于任何范围的值班表
func ValidateRosterScope(unitID, departmentID *int64) error {
	if unitID == nil && departmentID == nil {
		return fmt.Errorf("值班表必须至少关联一个单位或部门")
	}
	return nil
}
