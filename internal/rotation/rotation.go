package rotation

import (
	"fmt"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
)

// cycleSlot: 轮换周期中的一天。
// definition 为 nil 时表示休息日，不会产生任何值班记录。
// 周期在构造引擎时解析一次，生成阶段不再做任何名称比较。
type cycleSlot struct {
	shiftName  string
	definition *domain.ShiftDefinition
}

type Engine struct {
	slots     []cycleSlot
	teams     []Team
	startDate time.Time
	endDate   time.Time
}

// New 校验输入并解析轮换周期。
// 校验失败时整个调用失败，不会产生部分结果。
func New(template *domain.RosterTemplate, teams []Team, startDate, endDate time.Time) (*Engine, error) {
	if template == nil {
		return nil, fmt.Errorf("模板不能为空")
	}
	if len(template.RotationCycle) == 0 {
		return nil, fmt.Errorf("模板的轮换周期不能为空")
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("至少需要一个班组")
	}
	for i, team := range teams {
		if len(team.MemberIDs) == 0 {
			return nil, fmt.Errorf("第 %d 个班组没有任何成员", i+1)
		}
		if team.OffsetDays < 0 {
			return nil, fmt.Errorf("第 %d 个班组的相位偏移不能为负数", i+1)
		}
	}

	startDate = truncateToDate(startDate)
	endDate = truncateToDate(endDate)
	if startDate.After(endDate) {
		return nil, fmt.Errorf("开始日期不能晚于结束日期")
	}

	// 解析轮换周期：每个名称要么是保留的休息日名称，要么必须能在模板中找到定义
	slots := make([]cycleSlot, 0, len(template.RotationCycle))
	for i, name := range template.RotationCycle {
		if name == domain.RestShiftName {
			slots = append(slots, cycleSlot{shiftName: name})
			continue
		}

		sd := template.FindShiftDefinition(name)
		if sd == nil {
			return nil, fmt.Errorf("轮换周期第 %d 天的班次 %q 在模板中不存在", i+1, name)
		}
		if sd.IsRest() {
			// 时长为 0 的班次视作休息日
			slots = append(slots, cycleSlot{shiftName: name})
			continue
		}

		slots = append(slots, cycleSlot{shiftName: name, definition: sd})
	}

	return &Engine{
		slots:     slots,
		teams:     teams,
		startDate: startDate,
		endDate:   endDate,
	}, nil
}

// Generate 生成日期范围内所有班组成员的值班记录。
// 这是一个纯计算：不修改任何输入，相同输入总是产生完全相同的结果，
// 产出顺序固定为（日期，班组顺序，成员顺序）。
func (e *Engine) Generate() []ProposedEntry {
	cycleLength := len(e.slots)
	entries := make([]ProposedEntry, 0)

	for d := e.startDate; !d.After(e.endDate); d = d.AddDate(0, 0, 1) {
		dayIndex := daysBetween(e.startDate, d)

		for _, team := range e.teams {
			// 偏移大于周期长度时直接回绕
			cyclePos := (dayIndex + int(team.OffsetDays)) % cycleLength
			slot := e.slots[cyclePos]

			if slot.definition == nil {
				// 休息日
				continue
			}

			for _, memberID := range team.MemberIDs {
				definitionID := slot.definition.ID
				entries = append(entries, ProposedEntry{
					DutyDate:          d,
					UserID:            memberID,
					ShiftDefinitionID: &definitionID,
					ShiftName:         slot.shiftName,
					ShiftStartTime:    slot.definition.StartTime,
					ShiftEndTime:      slot.definition.EndTime,
				})
			}
		}
	}

	return entries
}
