package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/airport-ops-dev/roster-manager/backend/internal/config"
	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
	"github.com/airport-ops-dev/roster-manager/backend/internal/rotation"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// setupTestRepository 启动 PostgreSQL 容器并导入数据库结构。
// 未设置 TEST_INTEGRATION 时跳过。
func setupTestRepository(t *testing.T) *Repository {
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

	return NewRepository(cfg, dbpool)
}

func createTestUser(t *testing.T, r *Repository, username string) *domain.User {
	t.Helper()

	user := &domain.User{
		Username:     username,
		PasswordHash: "测试用哈希",
		FullName:     "测试员工" + username,
		Email:        username + "@example.com",
		Role:         domain.RoleStaff,
	}
	if err := r.CreateUser(user); err != nil {
		t.Fatalf("创建员工 %s 失败: %v", username, err)
	}
	return user
}

func createActiveRoster(t *testing.T, r *Repository, name string, unitID *int64) *domain.Roster {
	t.Helper()

	roster := &domain.Roster{
		Name:      name,
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		UnitID:    unitID,
		Status:    domain.RosterStatusDraft,
	}
	if err := r.CreateRoster(roster); err != nil {
		t.Fatalf("创建值班表失败: %v", err)
	}

	roster.Status = domain.RosterStatusActive
	if err := r.UpdateRosterStatus(roster); err != nil {
		t.Fatalf("启用值班表失败: %v", err)
	}
	return roster
}

func insertTestEntry(t *testing.T, r *Repository, rosterID, userID int64, dutyDate time.Time) *domain.RosterEntry {
	t.Helper()

	entry := &domain.RosterEntry{
		RosterID:       rosterID,
		UserID:         userID,
		DutyDate:       dutyDate,
		ShiftName:      "早班",
		ShiftStartTime: "06:00",
		ShiftEndTime:   "14:00",
		ApprovalStatus: domain.EntryStatusScheduled,
	}
	if err := r.InsertRosterEntry(entry); err != nil {
		t.Fatalf("插入值班记录失败: %v", err)
	}
	return entry
}

func countRows(t *testing.T, r *Repository, table string) int {
	t.Helper()

	var count int
	if err := r.dbpool.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("统计 %s 行数失败: %v", table, err)
	}
	return count
}

func TestCommitGeneratedEntriesPersistsAll(t *testing.T) {
	r := setupTestRepository(t)

	u1 := createTestUser(t, r, "zhangsan")
	u2 := createTestUser(t, r, "lisi")

	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	proposed := []rotation.ProposedEntry{
		{DutyDate: day1, UserID: u1.ID, ShiftName: "早班", ShiftStartTime: "06:00", ShiftEndTime: "14:00"},
		{DutyDate: day1, UserID: u2.ID, ShiftName: "中班", ShiftStartTime: "14:00", ShiftEndTime: "22:00"},
		{DutyDate: day2, UserID: u1.ID, ShiftName: "夜班", ShiftStartTime: "22:00", ShiftEndTime: "06:00"},
		{DutyDate: day2, UserID: u2.ID, ShiftName: "早班", ShiftStartTime: "06:00", ShiftEndTime: "14:00"},
	}

	roster := &domain.Roster{
		Name:      "三月值班表",
		StartDate: day1,
		EndDate:   day2,
		Status:    domain.RosterStatusDraft,
	}
	if err := r.CommitGeneratedEntries(roster, proposed); err != nil {
		t.Fatalf("提交生成结果失败: %v", err)
	}
	if roster.ID == 0 {
		t.Fatal("提交后应当拿到值班表 ID")
	}
	if len(roster.Entries) != len(proposed) {
		t.Fatalf("期望写入 %d 条记录，实际 %d", len(proposed), len(roster.Entries))
	}

	full, err := r.GetRosterWithEntries(roster.ID)
	if err != nil {
		t.Fatalf("读取值班表失败: %v", err)
	}
	if len(full.Entries) != len(proposed) {
		t.Errorf("数据库中期望 %d 条记录，实际 %d", len(proposed), len(full.Entries))
	}
	for _, e := range full.Entries {
		if e.ApprovalStatus != domain.EntryStatusScheduled {
			t.Errorf("新写入的记录状态应为 scheduled，实际 %s", e.ApprovalStatus)
		}
	}
}

// 同一批产出内部撞上 (员工, 日期) 时整个事务必须回滚，
// 连同事务内创建的值班表一起消失
func TestCommitGeneratedEntriesConflictRollsBack(t *testing.T) {
	r := setupTestRepository(t)

	u1 := createTestUser(t, r, "zhangsan")
	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	proposed := []rotation.ProposedEntry{
		{DutyDate: day1, UserID: u1.ID, ShiftName: "早班", ShiftStartTime: "06:00", ShiftEndTime: "14:00"},
		{DutyDate: day1, UserID: u1.ID, ShiftName: "夜班", ShiftStartTime: "22:00", ShiftEndTime: "06:00"},
	}

	roster := &domain.Roster{
		Name:      "冲突值班表",
		StartDate: day1,
		EndDate:   day1,
		Status:    domain.RosterStatusDraft,
	}

	err := r.CommitGeneratedEntries(roster, proposed)
	var conflictErr *ErrDutyConflict
	if !errors.As(err, &conflictErr) {
		t.Fatalf("期望 ErrDutyConflict，实际 %v", err)
	}
	if conflictErr.UserID != u1.ID || !conflictErr.DutyDate.Equal(day1) {
		t.Errorf("冲突信息不对: %+v", conflictErr)
	}

	if got := countRows(t, r, "rosters"); got != 0 {
		t.Errorf("回滚后 rosters 应为空，实际 %d 行", got)
	}
	if got := countRows(t, r, "roster_entries"); got != 0 {
		t.Errorf("回滚后 roster_entries 应为空，实际 %d 行", got)
	}
}

// 与已有记录冲突时，之前写入的记录保持原样
func TestCommitGeneratedEntriesKeepsExistingOnConflict(t *testing.T) {
	r := setupTestRepository(t)

	u1 := createTestUser(t, r, "zhangsan")
	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	roster := createActiveRoster(t, r, "已有值班表", nil)
	existing := insertTestEntry(t, r, roster.ID, u1.ID, day1)

	proposed := []rotation.ProposedEntry{
		{DutyDate: day1, UserID: u1.ID, ShiftName: "夜班", ShiftStartTime: "22:00", ShiftEndTime: "06:00"},
	}

	err := r.CommitGeneratedEntries(roster, proposed)
	var conflictErr *ErrDutyConflict
	if !errors.As(err, &conflictErr) {
		t.Fatalf("期望 ErrDutyConflict，实际 %v", err)
	}

	got, err := r.GetRosterEntryByID(existing.ID)
	if err != nil {
		t.Fatalf("读取已有记录失败: %v", err)
	}
	if got.ShiftName != "早班" || got.UserID != u1.ID {
		t.Errorf("已有记录不应被改动: %+v", got)
	}
	if count := countRows(t, r, "roster_entries"); count != 1 {
		t.Errorf("roster_entries 应只有已有的 1 条，实际 %d", count)
	}
}

func TestExchangeEntriesSwapsOwnership(t *testing.T) {
	r := setupTestRepository(t)

	u1 := createTestUser(t, r, "zhangsan")
	u2 := createTestUser(t, r, "lisi")
	roster := createActiveRoster(t, r, "三月值班表", nil)

	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	give := insertTestEntry(t, r, roster.ID, u1.ID, day1)
	receive := insertTestEntry(t, r, roster.ID, u2.ID, day2)

	swap := &domain.ShiftSwapRequest{
		RequesterID:      u1.ID,
		TargetUserID:     u2.ID,
		EntryToGiveID:    give.ID,
		EntryToReceiveID: &receive.ID,
		Reason:           "家里有事",
		Status:           domain.SwapStatusPending,
	}
	if err := r.CreateSwapRequest(swap); err != nil {
		t.Fatalf("创建换班请求失败: %v", err)
	}

	if err := r.ExchangeEntries(swap, domain.SwapStatusApproved); err != nil {
		t.Fatalf("交换失败: %v", err)
	}
	if swap.Status != domain.SwapStatusApproved {
		t.Errorf("交换后请求状态期望 approved，实际 %s", swap.Status)
	}

	gotGive, _ := r.GetRosterEntryByID(give.ID)
	gotReceive, _ := r.GetRosterEntryByID(receive.ID)
	if gotGive.UserID != u2.ID {
		t.Errorf("让出的记录应归属对方，实际 %d", gotGive.UserID)
	}
	if gotReceive.UserID != u1.ID {
		t.Errorf("换来的记录应归属发起人，实际 %d", gotReceive.UserID)
	}
	if gotGive.ApprovalStatus != domain.EntryStatusSwapped || gotReceive.ApprovalStatus != domain.EntryStatusSwapped {
		t.Error("交换双方的记录状态都应为 swapped")
	}

	stored, err := r.GetSwapRequestByID(swap.ID)
	if err != nil {
		t.Fatalf("读取换班请求失败: %v", err)
	}
	if stored.Status != domain.SwapStatusApproved {
		t.Errorf("数据库中请求状态期望 approved，实际 %s", stored.Status)
	}
}

// 交换会让对方当天出现两条记录时必须整体失败，什么都不改
func TestExchangeEntriesConflictLeavesStateUntouched(t *testing.T) {
	r := setupTestRepository(t)

	u1 := createTestUser(t, r, "zhangsan")
	u2 := createTestUser(t, r, "lisi")
	roster := createActiveRoster(t, r, "三月值班表", nil)

	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	give := insertTestEntry(t, r, roster.ID, u1.ID, day1)
	receive := insertTestEntry(t, r, roster.ID, u2.ID, day2)
	// 对方在 day1 已有值班，换过来就会撞唯一性约束
	insertTestEntry(t, r, roster.ID, u2.ID, day1)

	swap := &domain.ShiftSwapRequest{
		RequesterID:      u1.ID,
		TargetUserID:     u2.ID,
		EntryToGiveID:    give.ID,
		EntryToReceiveID: &receive.ID,
		Reason:           "调休",
		Status:           domain.SwapStatusAccepted,
	}
	if err := r.CreateSwapRequest(swap); err != nil {
		t.Fatalf("创建换班请求失败: %v", err)
	}

	err := r.ExchangeEntries(swap, domain.SwapStatusApproved)
	var conflictErr *ErrDutyConflict
	if !errors.As(err, &conflictErr) {
		t.Fatalf("期望 ErrDutyConflict，实际 %v", err)
	}
	if conflictErr.UserID != u2.ID || !conflictErr.DutyDate.Equal(day1) {
		t.Errorf("冲突信息不对: %+v", conflictErr)
	}

	gotGive, _ := r.GetRosterEntryByID(give.ID)
	gotReceive, _ := r.GetRosterEntryByID(receive.ID)
	if gotGive.UserID != u1.ID || gotReceive.UserID != u2.ID {
		t.Error("失败的交换不应改变任何记录的归属")
	}
	if gotGive.ApprovalStatus != domain.EntryStatusScheduled || gotReceive.ApprovalStatus != domain.EntryStatusScheduled {
		t.Error("失败的交换不应改变记录状态")
	}

	stored, err := r.GetSwapRequestByID(swap.ID)
	if err != nil {
		t.Fatalf("读取换班请求失败: %v", err)
	}
	if stored.Status != domain.SwapStatusAccepted {
		t.Errorf("失败的交换不应推进请求状态，期望 accepted，实际 %s", stored.Status)
	}
}

func TestExchangeEntriesOneWayGiveAway(t *testing.T) {
	r := setupTestRepository(t)

	u1 := createTestUser(t, r, "zhangsan")
	u2 := createTestUser(t, r, "lisi")
	roster := createActiveRoster(t, r, "三月值班表", nil)

	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	give := insertTestEntry(t, r, roster.ID, u1.ID, day1)

	swap := &domain.ShiftSwapRequest{
		RequesterID:   u1.ID,
		TargetUserID:  u2.ID,
		EntryToGiveID: give.ID,
		Reason:        "临时请假",
		Status:        domain.SwapStatusPending,
	}
	if err := r.CreateSwapRequest(swap); err != nil {
		t.Fatalf("创建换班请求失败: %v", err)
	}

	if err := r.ExchangeEntries(swap, domain.SwapStatusAccepted); err != nil {
		t.Fatalf("转让失败: %v", err)
	}

	got, _ := r.GetRosterEntryByID(give.ID)
	if got.UserID != u2.ID {
		t.Errorf("转让后记录应归属对方，实际 %d", got.UserID)
	}
	if got.ApprovalStatus != domain.EntryStatusSwapped {
		t.Errorf("转让后记录状态期望 swapped，实际 %s", got.ApprovalStatus)
	}
}

// 记录归属在请求创建后发生变化时交换必须拒绝执行
func TestExchangeEntriesDetectsChangedOwnership(t *testing.T) {
	r := setupTestRepository(t)

	u1 := createTestUser(t, r, "zhangsan")
	u2 := createTestUser(t, r, "lisi")
	u3 := createTestUser(t, r, "wangwu")
	roster := createActiveRoster(t, r, "三月值班表", nil)

	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	give := insertTestEntry(t, r, roster.ID, u1.ID, day1)

	swap := &domain.ShiftSwapRequest{
		RequesterID:   u1.ID,
		TargetUserID:  u2.ID,
		EntryToGiveID: give.ID,
		Reason:        "调休",
		Status:        domain.SwapStatusPending,
	}
	if err := r.CreateSwapRequest(swap); err != nil {
		t.Fatalf("创建换班请求失败: %v", err)
	}

	// 请求创建后记录被改派给了别人
	give.UserID = u3.ID
	if err := r.UpdateRosterEntry(give); err != nil {
		t.Fatalf("改派记录失败: %v", err)
	}

	if err := r.ExchangeEntries(swap, domain.SwapStatusAccepted); !errors.Is(err, ErrSwapEntriesChanged) {
		t.Fatalf("期望 ErrSwapEntriesChanged，实际 %v", err)
	}

	stored, err := r.GetSwapRequestByID(swap.ID)
	if err != nil {
		t.Fatalf("读取换班请求失败: %v", err)
	}
	if stored.Status != domain.SwapStatusPending {
		t.Errorf("失败的交换不应推进请求状态，期望 pending，实际 %s", stored.Status)
	}
}

// 日期范围查询按天比较，从今天零点起查必须包含今天的记录
func TestGetUserRosterEntriesIncludesToday(t *testing.T) {
	r := setupTestRepository(t)

	u1 := createTestUser(t, r, "zhangsan")

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	roster := &domain.Roster{
		Name:      "当期值班表",
		StartDate: today,
		EndDate:   today.AddDate(0, 1, 0),
		Status:    domain.RosterStatusDraft,
	}
	if err := r.CreateRoster(roster); err != nil {
		t.Fatalf("创建值班表失败: %v", err)
	}
	roster.Status = domain.RosterStatusActive
	if err := r.UpdateRosterStatus(roster); err != nil {
		t.Fatalf("启用值班表失败: %v", err)
	}

	insertTestEntry(t, r, roster.ID, u1.ID, today)

	entries, err := r.GetUserRosterEntries(u1.ID, today, today.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("查询个人值班记录失败: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("从今天零点起查应包含今天的记录，期望 1 条，实际 %d", len(entries))
	}
}
