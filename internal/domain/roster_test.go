package domain

import "testing"

func TestRosterStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   RosterStatus
		to     RosterStatus
		expect bool
	}{
		{"草稿可以提交审批", RosterStatusDraft, RosterStatusPendingApproval, true},
		{"待审批可以通过", RosterStatusPendingApproval, RosterStatusApproved, true},
		{"已批准可以启用", RosterStatusApproved, RosterStatusActive, true},
		{"草稿不能直接启用", RosterStatusDraft, RosterStatusActive, false},
		{"草稿不能直接批准", RosterStatusDraft, RosterStatusApproved, false},
		{"不能回到草稿", RosterStatusPendingApproval, RosterStatusDraft, false},
		{"已启用没有后续状态", RosterStatusActive, RosterStatusDraft, false},
		{"已启用不能再启用", RosterStatusActive, RosterStatusActive, false},
		{"不能原地跳转", RosterStatusDraft, RosterStatusDraft, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.expect {
			t.Errorf("%s: %s -> %s 期望 %v，实际 %v", tt.name, tt.from, tt.to, tt.expect, got)
		}
	}
}
