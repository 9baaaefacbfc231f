package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/airport-ops-dev/roster-manager/backend/internal/config"
	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
	"github.com/airport-ops-dev/roster-manager/backend/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// setupIntegrationHandler 启动 PostgreSQL 容器并构造带真实仓库的 Handler。
// 未设置 TEST_INTEGRATION 时跳过。
func setupIntegrationHandler(t *testing.T) (*Handler, *repository.Repository) {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("跳过集成测试：未设置 TEST_INTEGRATION")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("roster_test"),
		postgres.WithUsername("roster"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("启动 PostgreSQL 容器失败: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("停止容器失败: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("获取连接串失败: %v", err)
	}

	dbpool, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("连接数据库失败: %v", err)
	}
	t.Cleanup(func() { dbpool.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "schema.sql"))
	if err != nil {
		t.Fatalf("读取数据库结构失败: %v", err)
	}
	if _, err := dbpool.ExecContext(ctx, string(schema)); err != nil {
		t.Fatalf("导入数据库结构失败: %v", err)
	}

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 10

	repo := repository.NewRepository(cfg, dbpool)
	h, err := NewHandler(cfg, repo, nil, nil)
	if err != nil {
		t.Fatalf("构造 Handler 失败: %v", err)
	}
	return h, repo
}

// 单位不要求审批的换班在对方接受时就已生效，
// 值班主管不能再通过审批接口改写结果
func TestReviewSwapRejectsUnitWithoutApproval(t *testing.T) {
	h, repo := setupIntegrationHandler(t)

	requester := &domain.User{Username: "zhangsan", PasswordHash: "测试用哈希", FullName: "张三", Email: "zhangsan@example.com", Role: domain.RoleStaff}
	target := &domain.User{Username: "lisi", PasswordHash: "测试用哈希", FullName: "李四", Email: "lisi@example.com", Role: domain.RoleStaff}
	for _, u := range []*domain.User{requester, target} {
		if err := repo.CreateUser(u); err != nil {
			t.Fatalf("创建员工失败: %v", err)
		}
	}

	unit := &domain.Unit{Name: "值机服务科", RequiresSwapApproval: false}
	if err := repo.CreateUnit(unit); err != nil {
		t.Fatalf("创建单位失败: %v", err)
	}

	roster := &domain.Roster{
		Name:      "三月值班表",
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		UnitID:    &unit.ID,
		Status:    domain.RosterStatusDraft,
	}
	if err := repo.CreateRoster(roster); err != nil {
		t.Fatalf("创建值班表失败: %v", err)
	}
	roster.Status = domain.RosterStatusActive
	if err := repo.UpdateRosterStatus(roster); err != nil {
		t.Fatalf("启用值班表失败: %v", err)
	}

	give := &domain.RosterEntry{
		RosterID:       roster.ID,
		UserID:         requester.ID,
		DutyDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ShiftName:      "早班",
		ShiftStartTime: "06:00",
		ShiftEndTime:   "14:00",
		ApprovalStatus: domain.EntryStatusScheduled,
	}
	if err := repo.InsertRosterEntry(give); err != nil {
		t.Fatalf("插入值班记录失败: %v", err)
	}

	swap := &domain.ShiftSwapRequest{
		RequesterID:   requester.ID,
		TargetUserID:  target.ID,
		EntryToGiveID: give.ID,
		Reason:        "调休",
		Status:        domain.SwapStatusPending,
	}
	if err := repo.CreateSwapRequest(swap); err != nil {
		t.Fatalf("创建换班请求失败: %v", err)
	}

	// 对方接受，单位不要求审批，交换立即生效
	if err := repo.ExchangeEntries(swap, domain.SwapStatusAccepted); err != nil {
		t.Fatalf("交换失败: %v", err)
	}

	body := strings.NewReader(`{"approve": false}`)
	r := httptest.NewRequest(http.MethodPost, "/shift-swaps/1/review", body)
	r = r.WithContext(context.WithValue(r.Context(), ShiftSwapRequestCtx, swap))
	w := httptest.NewRecorder()

	h.ReviewSwap(w, r)

	resp := decodeResponse(t, w)
	if resp.Success {
		t.Fatal("不需要审批的换班请求不应被审批接口处理")
	}
	if !strings.Contains(resp.Message, "无需值班主管审批") {
		t.Errorf("错误信息应说明无需审批，实际为 %q", resp.Message)
	}

	stored, err := repo.GetSwapRequestByID(swap.ID)
	if err != nil {
		t.Fatalf("读取换班请求失败: %v", err)
	}
	if stored.Status != domain.SwapStatusAccepted {
		t.Errorf("已生效的请求状态不应被改写，期望 accepted，实际 %s", stored.Status)
	}

	entry, err := repo.GetRosterEntryByID(give.ID)
	if err != nil {
		t.Fatalf("读取值班记录失败: %v", err)
	}
	if entry.UserID != target.ID {
		t.Errorf("已完成的交换不应被回退，记录应仍归属 %d，实际 %d", target.ID, entry.UserID)
	}
}
