package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/config"
	"github.com/airport-ops-dev/roster-manager/backend/internal/repository"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	h, err := NewHandler(&config.Config{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("构造 Handler 失败: %v", err)
	}
	return h
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	return resp
}

// 未关联单位和部门的值班表必须在进库前被拒绝
func TestCreateRosterRequiresScope(t *testing.T) {
	h := newTestHandler(t)

	body := `{"name":"一月值班表","startDate":"2024-01-01","endDate":"2024-01-31"}`
	r := httptest.NewRequest(http.MethodPost, "/rosters", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.CreateRoster(w, r)

	resp := decodeResponse(t, w)
	if resp.Success {
		t.Fatal("缺少单位和部门的值班表不应创建成功")
	}
	if !strings.Contains(resp.Message, "单位或部门") {
		t.Errorf("错误信息应提示关联范围，实际为 %q", resp.Message)
	}
}

func TestGenerateRosterSaveRequiresScope(t *testing.T) {
	h := newTestHandler(t)

	body := `{
		"name": "一月值班表",
		"templateID": 1,
		"startDate": "2024-01-01",
		"endDate": "2024-01-31",
		"teams": [{"name": "甲组", "memberIDs": [1, 2, 3]}],
		"save": true
	}`
	r := httptest.NewRequest(http.MethodPost, "/rosters/generate", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.GenerateRoster(w, r)

	resp := decodeResponse(t, w)
	if resp.Success {
		t.Fatal("缺少单位和部门的生成请求不应保存成功")
	}
	if !strings.Contains(resp.Message, "单位或部门") {
		t.Errorf("错误信息应提示关联范围，实际为 %q", resp.Message)
	}
}

func TestDutyConflictResponse(t *testing.T) {
	h := newTestHandler(t)

	conflict := &repository.ErrDutyConflict{
		UserID:   42,
		DutyDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	r := httptest.NewRequest(http.MethodPost, "/rosters/generate", nil)
	w := httptest.NewRecorder()
	h.dutyConflict(w, r, conflict)

	resp := decodeResponse(t, w)
	if resp.Success {
		t.Fatal("冲突响应不应标记为成功")
	}
	if !strings.Contains(resp.Message, "42") || !strings.Contains(resp.Message, "2024-01-15") {
		t.Errorf("错误信息应包含冲突的员工和日期，实际为 %q", resp.Message)
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data 应为对象，实际为 %T", resp.Data)
	}
	if data["userID"] != float64(42) {
		t.Errorf("data.userID 期望 42，实际 %v", data["userID"])
	}
	if data["dutyDate"] != "2024-01-15" {
		t.Errorf("data.dutyDate 期望 2024-01-15，实际 %v", data["dutyDate"])
	}
}

func TestDefaultMyRosterRange(t *testing.T) {
	start, end := defaultMyRosterRange()

	if h, m, s := start.Clock(); h != 0 || m != 0 || s != 0 {
		t.Errorf("默认起始日期应为零点，实际 %v", start)
	}

	now := time.Now()
	if start.Year() != now.Year() || start.Month() != now.Month() || start.Day() != now.Day() {
		t.Errorf("默认起始日期应为今天，实际 %v", start)
	}

	if !start.Before(end) && !start.Equal(end) {
		t.Errorf("结束日期应不早于起始日期: %v / %v", start, end)
	}
	if got := start.AddDate(0, 1, 0); !end.Equal(got) {
		t.Errorf("默认范围应为一个月，期望 %v，实际 %v", got, end)
	}
}
