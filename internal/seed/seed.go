package seed

import (
	"log/slog"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
	"github.com/airport-ops-dev/roster-manager/backend/internal/repository"
	"github.com/airport-ops-dev/roster-manager/backend/internal/rotation"
	"github.com/airport-ops-dev/roster-manager/backend/internal/utils"
)

// SeedDemoData 插入一套可以直接演示的数据：
// 一个单位、三班倒的班次定义、一个轮换模板、八名员工分成两个班组，
// 并用轮换引擎生成一张从今天开始为期四周的值班表，直接推进到已启用状态。
func SeedDemoData(r *repository.Repository, userPassword string, emailDomain string) {
	// 单位
	terminalID := int64(2)
	unit := &domain.Unit{
		Name:                 "值机服务科",
		TerminalID:           &terminalID,
		RequiresSwapApproval: true,
	}
	if err := r.CreateUnit(unit); err != nil {
		slog.Error("插入单位失败", "error", err)
		return
	}

	// 班次定义
	shiftDefinitions := []domain.ShiftDefinition{}
	for _, sd := range utils.GenerateStandardShiftDefinitions(unit.ID) {
		if err := r.CreateShiftDefinition(sd); err != nil {
			slog.Error("插入班次定义失败", "error", err, "name", sd.Name)
			return
		}
		shiftDefinitions = append(shiftDefinitions, *sd)
	}

	// 轮换模板：早-早-中-夜-夜-休-休
	template := &domain.RosterTemplate{
		Name:             "值机科标准轮换",
		Type:             "rotating",
		MinStaffPerShift: 2,
		IdealTeamSize:    4,
		ShiftDefinitions: shiftDefinitions,
		RotationCycle:    []string{"早班", "早班", "中班", "夜班", "夜班", domain.RestShiftName, domain.RestShiftName},
	}
	if err := r.CreateRosterTemplate(template); err != nil {
		slog.Error("插入轮换模板失败", "error", err)
		return
	}

	// 两个班组，各四人
	teams := []rotation.Team{
		{Name: "甲组", OffsetDays: 0},
		{Name: "乙组", OffsetDays: 3},
	}
	for i := range teams {
		for j := 0; j < 4; j++ {
			user, err := utils.GenerateRandomUser(userPassword, emailDomain)
			if err != nil {
				slog.Error("生成随机员工失败", "error", err)
				return
			}
			user.Role = domain.RoleStaff

			if err := r.CreateUser(user); err != nil {
				slog.Error("插入员工失败", "error", err)
				return
			}
			teams[i].MemberIDs = append(teams[i].MemberIDs, user.ID)
		}
	}

	// 用轮换引擎生成四周的值班表
	startDate := time.Now()
	endDate := startDate.AddDate(0, 0, 27)

	engine, err := rotation.New(template, teams, startDate, endDate)
	if err != nil {
		slog.Error("创建轮换引擎失败", "error", err)
		return
	}

	roster := &domain.Roster{
		Name:      "值机科演示值班表",
		StartDate: startDate,
		EndDate:   endDate,
		UnitID:    &unit.ID,
		Status:    domain.RosterStatusDraft,
		Notes:     "演示数据",
	}

	if err := r.CommitGeneratedEntries(roster, engine.Generate()); err != nil {
		slog.Error("写入值班记录失败", "error", err)
		return
	}

	// 依次推进到已启用状态
	for _, status := range []domain.RosterStatus{
		domain.RosterStatusPendingApproval,
		domain.RosterStatusApproved,
		domain.RosterStatusActive,
	} {
		roster.Status = status
		if err := r.UpdateRosterStatus(roster); err != nil {
			slog.Error("推进值班表状态失败", "error", err, "status", status)
			return
		}
	}

	slog.Info("插入演示数据完成", "unit_id", unit.ID, "roster_id", roster.ID, "entries", len(roster.Entries))
}
