package utils

import (
	"testing"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
)

func TestComputeShiftDurationHours(t *testing.T) {
	tests := []struct {
		start   string
		end     string
		want    float64
		wantErr bool
	}{
		{"06:00", "14:00", 8, false},
		{"14:00", "22:00", 8, false},
		{"22:00", "06:00", 8, false}, // 跨天夜班
		{"08:30", "17:00", 8.5, false},
		{"6点", "14:00", 0, true},
		{"06:00", "下午", 0, true},
	}

	for _, tt := range tests {
		got, err := ComputeShiftDurationHours(tt.start, tt.end)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ComputeShiftDurationHours(%q, %q): 期望返回错误", tt.start, tt.end)
			}
			continue
		}
		if err != nil {
			t.Errorf("ComputeShiftDurationHours(%q, %q): 意外错误: %v", tt.start, tt.end, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ComputeShiftDurationHours(%q, %q): 期望 %v，实际 %v", tt.start, tt.end, tt.want, got)
		}
	}
}

func TestValidateRotationCycle(t *testing.T) {
	definitions := []domain.ShiftDefinition{
		{Name: "早班"},
		{Name: "夜班"},
	}

	tests := []struct {
		name    string
		cycle   []string
		wantErr bool
	}{
		{"合法周期", []string{"早班", "夜班", "OFF"}, false},
		{"允许重复", []string{"早班", "早班", "夜班", "OFF", "OFF"}, false},
		{"空周期", []string{}, true},
		{"未知班次", []string{"早班", "中班"}, true},
	}

	for _, tt := range tests {
		err := ValidateRotationCycle(tt.cycle, definitions)
		if tt.wantErr && err == nil {
			t.Errorf("%s: 期望校验失败", tt.name)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: 意外错误: %v", tt.name, err)
		}
	}
}

func TestValidateRosterDates(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	if err := ValidateRosterDates(start, end); err != nil {
		t.Errorf("合法范围: 意外错误: %v", err)
	}
	if err := ValidateRosterDates(start, start); err != nil {
		t.Errorf("单日范围: 意外错误: %v", err)
	}
	if err := ValidateRosterDates(end, start); err == nil {
		t.Error("颠倒范围: 期望校验失败")
	}
}

func TestValidateRosterScope(t *testing.T) {
	unitID := int64(1)
	departmentID := int64(2)

	tests := []struct {
		name         string
		unitID       *int64
		departmentID *int64
		wantErr      bool
	}{
		{"只关联单位", &unitID, nil, false},
		{"只关联部门", nil, &departmentID, false},
		{"同时关联", &unitID, &departmentID, false},
		{"无任何关联", nil, nil, true},
	}

	for _, tt := range tests {
		err := ValidateRosterScope(tt.unitID, tt.departmentID)
		if tt.wantErr && err == nil {
			t.Errorf("%s: 期望校验失败", tt.name)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: 意外错误: %v", tt.name, err)
		}
	}
}
