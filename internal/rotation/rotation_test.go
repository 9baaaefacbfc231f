package rotation

import (
	"reflect"
	"testing"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fourShiftTemplate() *domain.RosterTemplate {
	return &domain.RosterTemplate{
		ID:   1,
		Name: "三班倒测试模板",
		Type: "four_shift",
		ShiftDefinitions: []domain.ShiftDefinition{
			{ID: 11, UnitID: 1, Name: "早班", StartTime: "06:00", EndTime: "14:00", DurationHours: 8},
			{ID: 12, UnitID: 1, Name: "中班", StartTime: "14:00", EndTime: "22:00", DurationHours: 8},
			{ID: 13, UnitID: 1, Name: "夜班", StartTime: "22:00", EndTime: "06:00", DurationHours: 8},
		},
		RotationCycle: []string{"早班", "中班", "夜班", "OFF"},
	}
}

// TestNew_Validation 检查非法输入会被整体拒绝
func TestNew_Validation(t *testing.T) {
	template := fourShiftTemplate()
	teams := []Team{{Name: "A", MemberIDs: []int64{1}, OffsetDays: 0}}

	tests := []struct {
		name     string
		template *domain.RosterTemplate
		teams    []Team
		start    time.Time
		end      time.Time
	}{
		{"空模板", nil, teams, date(2024, 1, 1), date(2024, 1, 4)},
		{"空轮换周期", &domain.RosterTemplate{}, teams, date(2024, 1, 1), date(2024, 1, 4)},
		{"没有班组", template, nil, date(2024, 1, 1), date(2024, 1, 4)},
		{"班组没有成员", template, []Team{{Name: "A"}}, date(2024, 1, 1), date(2024, 1, 4)},
		{"负偏移", template, []Team{{Name: "A", MemberIDs: []int64{1}, OffsetDays: -1}}, date(2024, 1, 1), date(2024, 1, 4)},
		{"日期颠倒", template, teams, date(2024, 1, 4), date(2024, 1, 1)},
		{
			"未知班次名",
			&domain.RosterTemplate{RotationCycle: []string{"不存在的班次"}},
			teams, date(2024, 1, 1), date(2024, 1, 4),
		},
	}

	for _, tt := range tests {
		if _, err := New(tt.template, tt.teams, tt.start, tt.end); err == nil {
			t.Errorf("%s: 期望校验失败，但没有返回错误", tt.name)
		}
	}
}

// TestGenerate_ExampleScenario 对应四天单班组的完整轮换：
// 早班、中班、夜班各一天，第四天休息
func TestGenerate_ExampleScenario(t *testing.T) {
	engine, err := New(
		fourShiftTemplate(),
		[]Team{{Name: "A", MemberIDs: []int64{100}, OffsetDays: 0}},
		date(2024, 1, 1),
		date(2024, 1, 4),
	)
	if err != nil {
		t.Fatalf("构造引擎失败: %v", err)
	}

	entries := engine.Generate()
	if len(entries) != 3 {
		t.Fatalf("期望 3 条记录，实际 %d 条", len(entries))
	}

	expected := []struct {
		day   int
		shift string
		start string
	}{
		{1, "早班", "06:00"},
		{2, "中班", "14:00"},
		{3, "夜班", "22:00"},
	}

	for i, want := range expected {
		got := entries[i]
		if got.DutyDate.Day() != want.day {
			t.Errorf("第 %d 条记录: 期望日期 2024-01-%02d，实际 %s", i, want.day, got.DutyDate.Format("2006-01-02"))
		}
		if got.ShiftName != want.shift {
			t.Errorf("第 %d 条记录: 期望班次 %q，实际 %q", i, want.shift, got.ShiftName)
		}
		if got.ShiftStartTime != want.start {
			t.Errorf("第 %d 条记录: 期望开始时间 %q，实际 %q", i, want.start, got.ShiftStartTime)
		}
		if got.UserID != 100 {
			t.Errorf("第 %d 条记录: 期望员工 100，实际 %d", i, got.UserID)
		}
	}
}

// TestGenerate_RestDays 检查 ["早班","OFF"] 周期在 4 天内只产生第 0、2 天的记录
func TestGenerate_RestDays(t *testing.T) {
	template := &domain.RosterTemplate{
		ShiftDefinitions: []domain.ShiftDefinition{
			{ID: 11, Name: "早班", StartTime: "06:00", EndTime: "14:00", DurationHours: 8},
		},
		RotationCycle: []string{"早班", "OFF"},
	}

	engine, err := New(template, []Team{{Name: "A", MemberIDs: []int64{1}}}, date(2024, 3, 10), date(2024, 3, 13))
	if err != nil {
		t.Fatalf("构造引擎失败: %v", err)
	}

	entries := engine.Generate()
	if len(entries) != 2 {
		t.Fatalf("期望 2 条记录，实际 %d 条", len(entries))
	}
	if entries[0].DutyDate.Day() != 10 || entries[1].DutyDate.Day() != 12 {
		t.Errorf("期望记录落在第 10、12 天，实际 %d、%d", entries[0].DutyDate.Day(), entries[1].DutyDate.Day())
	}
}

// TestGenerate_ZeroDurationShiftIsRest 检查时长为 0 的班次与 OFF 等价
func TestGenerate_ZeroDurationShiftIsRest(t *testing.T) {
	template := &domain.RosterTemplate{
		ShiftDefinitions: []domain.ShiftDefinition{
			{ID: 11, Name: "早班", StartTime: "06:00", EndTime: "14:00", DurationHours: 8},
			{ID: 12, Name: "轮休", StartTime: "00:00", EndTime: "00:00", DurationHours: 0},
		},
		RotationCycle: []string{"早班", "轮休"},
	}

	engine, err := New(template, []Team{{Name: "A", MemberIDs: []int64{1}}}, date(2024, 3, 10), date(2024, 3, 13))
	if err != nil {
		t.Fatalf("构造引擎失败: %v", err)
	}

	entries := engine.Generate()
	if len(entries) != 2 {
		t.Fatalf("期望 2 条记录，实际 %d 条", len(entries))
	}
	for _, entry := range entries {
		if entry.ShiftName != "早班" {
			t.Errorf("期望只产生早班记录，实际出现 %q", entry.ShiftName)
		}
	}
}

// TestGenerate_TeamOffsets 对应两个班组错相的场景：
// A 组偏移 0、B 组偏移 2，同一天 A 在早班而 B 在夜班
func TestGenerate_TeamOffsets(t *testing.T) {
	engine, err := New(
		fourShiftTemplate(),
		[]Team{
			{Name: "A", MemberIDs: []int64{1}, OffsetDays: 0},
			{Name: "B", MemberIDs: []int64{2}, OffsetDays: 2},
		},
		date(2024, 1, 1),
		date(2024, 1, 1),
	)
	if err != nil {
		t.Fatalf("构造引擎失败: %v", err)
	}

	entries := engine.Generate()
	if len(entries) != 2 {
		t.Fatalf("期望 2 条记录，实际 %d 条", len(entries))
	}
	if entries[0].ShiftName != "早班" || entries[0].UserID != 1 {
		t.Errorf("期望 A 组成员 1 在早班，实际 %q / %d", entries[0].ShiftName, entries[0].UserID)
	}
	if entries[1].ShiftName != "夜班" || entries[1].UserID != 2 {
		t.Errorf("期望 B 组成员 2 在夜班，实际 %q / %d", entries[1].ShiftName, entries[1].UserID)
	}
}

// TestGenerate_OffsetsOutOfPhase 检查偏移不同的两个班组在任何一天都不会落在同一个周期位置
func TestGenerate_OffsetsOutOfPhase(t *testing.T) {
	template := fourShiftTemplate()
	cycleLength := template.CycleLength()

	for dayIndex := 0; dayIndex < 14; dayIndex++ {
		posA := (dayIndex + 0) % cycleLength
		posB := (dayIndex + 1) % cycleLength
		if posA == posB {
			t.Errorf("第 %d 天两个班组落在了同一个周期位置 %d", dayIndex, posA)
		}
	}
}

// TestGenerate_OffsetWrapsAroundCycle 检查大于周期长度的偏移会回绕
func TestGenerate_OffsetWrapsAroundCycle(t *testing.T) {
	build := func(offset int32) []ProposedEntry {
		engine, err := New(
			fourShiftTemplate(),
			[]Team{{Name: "A", MemberIDs: []int64{1}, OffsetDays: offset}},
			date(2024, 1, 1),
			date(2024, 1, 8),
		)
		if err != nil {
			t.Fatalf("构造引擎失败: %v", err)
		}
		return engine.Generate()
	}

	if !reflect.DeepEqual(build(1), build(5)) {
		t.Error("偏移 1 和偏移 5 在长度为 4 的周期下应当产生完全相同的结果")
	}
}

// TestGenerate_Deterministic 检查相同输入重复生成结果完全一致
func TestGenerate_Deterministic(t *testing.T) {
	template := fourShiftTemplate()
	teams := []Team{
		{Name: "A", MemberIDs: []int64{1, 2, 3}, OffsetDays: 0},
		{Name: "B", MemberIDs: []int64{4, 5}, OffsetDays: 2},
	}

	engine1, err := New(template, teams, date(2024, 1, 1), date(2024, 1, 31))
	if err != nil {
		t.Fatalf("构造引擎失败: %v", err)
	}
	engine2, err := New(template, teams, date(2024, 1, 1), date(2024, 1, 31))
	if err != nil {
		t.Fatalf("构造引擎失败: %v", err)
	}

	if !reflect.DeepEqual(engine1.Generate(), engine2.Generate()) {
		t.Error("相同输入的两次生成结果不一致")
	}

	// 同一个引擎重复调用也必须一致
	if !reflect.DeepEqual(engine1.Generate(), engine1.Generate()) {
		t.Error("同一个引擎的两次生成结果不一致")
	}
}

// TestGenerate_DoesNotMutateInputs 检查生成不会修改模板和班组
func TestGenerate_DoesNotMutateInputs(t *testing.T) {
	template := fourShiftTemplate()
	teams := []Team{{Name: "A", MemberIDs: []int64{1, 2}, OffsetDays: 1}}

	cycleBefore := append([]string{}, template.RotationCycle...)
	membersBefore := append([]int64{}, teams[0].MemberIDs...)

	engine, err := New(template, teams, date(2024, 1, 1), date(2024, 1, 10))
	if err != nil {
		t.Fatalf("构造引擎失败: %v", err)
	}
	engine.Generate()

	if !reflect.DeepEqual(template.RotationCycle, cycleBefore) {
		t.Error("生成修改了模板的轮换周期")
	}
	if !reflect.DeepEqual(teams[0].MemberIDs, membersBefore) {
		t.Error("生成修改了班组成员")
	}
}

// TestGenerate_OrderIsDateTeamMember 检查产出顺序固定为（日期，班组，成员）
func TestGenerate_OrderIsDateTeamMember(t *testing.T) {
	template := &domain.RosterTemplate{
		ShiftDefinitions: []domain.ShiftDefinition{
			{ID: 11, Name: "早班", StartTime: "06:00", EndTime: "14:00", DurationHours: 8},
		},
		RotationCycle: []string{"早班"},
	}
	teams := []Team{
		{Name: "A", MemberIDs: []int64{2, 1}},
		{Name: "B", MemberIDs: []int64{3}},
	}

	engine, err := New(template, teams, date(2024, 1, 1), date(2024, 1, 2))
	if err != nil {
		t.Fatalf("构造引擎失败: %v", err)
	}

	entries := engine.Generate()
	wantUserOrder := []int64{2, 1, 3, 2, 1, 3}
	if len(entries) != len(wantUserOrder) {
		t.Fatalf("期望 %d 条记录，实际 %d 条", len(wantUserOrder), len(entries))
	}
	for i, want := range wantUserOrder {
		if entries[i].UserID != want {
			t.Errorf("第 %d 条记录: 期望员工 %d，实际 %d", i, want, entries[i].UserID)
		}
	}
}
