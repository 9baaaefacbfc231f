package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
	"github.com/airport-ops-dev/roster-manager/backend/internal/repository"
	"github.com/airport-ops-dev/roster-manager/backend/internal/rotation"
	"github.com/airport-ops-dev/roster-manager/backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const dateLayout = "2006-01-02"

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期 %q 不符合 YYYY-MM-DD 格式", value)
	}
	return t, nil
}

func (h *Handler) CreateRoster(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name" validate:"required"`
		StartDate    string `json:"startDate" validate:"required"`
		EndDate      string `json:"endDate" validate:"required"`
		UnitID       *int64 `json:"unitID"`
		DepartmentID *int64 `json:"departmentID"`
		Notes        string `json:"notes"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := utils.ValidateRosterDates(startDate, endDate); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := utils.ValidateRosterScope(req.UnitID, req.DepartmentID); err != nil {
		h.badRequest(w, r, err)
		return
	}

	roster := &domain.Roster{
		Name:         req.Name,
		StartDate:    startDate,
		EndDate:      endDate,
		UnitID:       req.UnitID,
		DepartmentID: req.DepartmentID,
		Status:       domain.RosterStatusDraft,
		Notes:        req.Notes,
	}

	if err := h.repository.CreateRoster(roster); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建值班表成功", roster)
}

// GenerateRoster 用轮换模板批量生成值班记录。
// save 为 false 时只返回预览，不写入任何数据；
// save 为 true 时在一个事务内创建草稿值班表并写入全部记录，
// 与已有记录冲突时整体失败并指出冲突的员工和日期。
func (h *Handler) GenerateRoster(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name" validate:"required"`
		TemplateID int64  `json:"templateID" validate:"required"`
		StartDate  string `json:"startDate" validate:"required"`
		EndDate    string `json:"endDate" validate:"required"`
		Teams      []struct {
			Name       string  `json:"name" validate:"required"`
			MemberIDs  []int64 `json:"memberIDs" validate:"required,min=1"`
			OffsetDays int32   `json:"offsetDays" validate:"min=0"`
		} `json:"teams" validate:"required,min=1,dive"`
		UnitID       *int64 `json:"unitID"`
		DepartmentID *int64 `json:"departmentID"`
		Notes        string `json:"notes"`
		Save         bool   `json:"save"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Save {
		if err := utils.ValidateRosterScope(req.UnitID, req.DepartmentID); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}

	template, err := h.repository.GetRosterTemplateByID(req.TemplateID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "模板不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	teams := make([]rotation.Team, 0, len(req.Teams))
	for _, t := range req.Teams {
		teams = append(teams, rotation.Team{
			Name:       t.Name,
			MemberIDs:  t.MemberIDs,
			OffsetDays: t.OffsetDays,
		})
	}

	engine, err := rotation.New(template, teams, startDate, endDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	proposed := engine.Generate()

	if !req.Save {
		h.successResponse(w, r, "生成预览成功", proposed)
		return
	}

	roster := &domain.Roster{
		Name:         req.Name,
		StartDate:    startDate,
		EndDate:      endDate,
		UnitID:       req.UnitID,
		DepartmentID: req.DepartmentID,
		Status:       domain.RosterStatusDraft,
		Notes:        req.Notes,
	}

	if err := h.repository.CommitGeneratedEntries(roster, proposed); err != nil {
		var conflictErr *repository.ErrDutyConflict
		switch {
		case errors.As(err, &conflictErr):
			h.dutyConflict(w, r, conflictErr)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "生成值班表成功", roster)
}

func (h *Handler) GetAllRosters(w http.ResponseWriter, r *http.Request) {
	var unitID, departmentID *int64
	var status *domain.RosterStatus

	if param := r.URL.Query().Get("unitID"); param != "" {
		id, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "单位ID无效")
			return
		}
		unitID = &id
	}
	if param := r.URL.Query().Get("departmentID"); param != "" {
		id, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "部门ID无效")
			return
		}
		departmentID = &id
	}
	if param := r.URL.Query().Get("status"); param != "" {
		s := domain.RosterStatus(param)
		status = &s
	}

	rosters, err := h.repository.GetAllRosters(unitID, departmentID, status)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取值班表列表成功", rosters)
}

func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	roster := r.Context().Value(RosterCtx).(*domain.Roster)

	full, err := h.repository.GetRosterWithEntries(roster.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取值班表成功", full)
}

// 日期列按天比较，默认范围要从今天零点开始，否则会漏掉今天的记录
func defaultMyRosterRange() (time.Time, time.Time) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// GetMyRoster 返回当前用户在已启用值班表中的值班记录，
// 不传日期时默认返回从今天开始一个月内的记录
func (h *Handler) GetMyRoster(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	startDate, endDate := defaultMyRosterRange()

	if param := r.URL.Query().Get("startDate"); param != "" {
		parsed, err := parseDate(param)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		startDate = parsed
	}
	if param := r.URL.Query().Get("endDate"); param != "" {
		parsed, err := parseDate(param)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		endDate = parsed
	}

	entries, err := h.repository.GetUserRosterEntries(myInfo.ID, startDate, endDate)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取个人值班记录成功", entries)
}

func (h *Handler) GetTodayRoster(w http.ResponseWriter, r *http.Request) {
	var unitID *int64
	if param := r.URL.Query().Get("unitID"); param != "" {
		id, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "单位ID无效")
			return
		}
		unitID = &id
	}

	entries, err := h.repository.GetTodayRosterEntries(unitID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取今日值班记录成功", entries)
}

func (h *Handler) UpdateRoster(w http.ResponseWriter, r *http.Request) {
	roster := r.Context().Value(RosterCtx).(*domain.Roster)

	// 提交审批之后基础信息就不允许再改了
	if roster.Status != domain.RosterStatusDraft {
		h.errorResponse(w, r, "只有草稿状态的值班表才能修改")
		return
	}

	var req struct {
		Name      *string `json:"name"`
		StartDate *string `json:"startDate"`
		EndDate   *string `json:"endDate"`
		Notes     *string `json:"notes"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Name != nil {
		roster.Name = *req.Name
	}
	if req.StartDate != nil {
		parsed, err := parseDate(*req.StartDate)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		roster.StartDate = parsed
	}
	if req.EndDate != nil {
		parsed, err := parseDate(*req.EndDate)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		roster.EndDate = parsed
	}
	if req.Notes != nil {
		roster.Notes = *req.Notes
	}

	if err := utils.ValidateRosterDates(roster.StartDate, roster.EndDate); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.UpdateRoster(roster); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新值班表失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新值班表成功", roster)
}

func (h *Handler) DeleteRoster(w http.ResponseWriter, r *http.Request) {
	roster := r.Context().Value(RosterCtx).(*domain.Roster)

	if roster.Status != domain.RosterStatusDraft {
		h.errorResponse(w, r, "只有草稿状态的值班表才能删除")
		return
	}

	if err := h.repository.DeleteRoster(roster.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除值班表成功", nil)
}

// 状态只能沿 draft -> pending_approval -> approved -> active 单向推进
func (h *Handler) transitionRoster(w http.ResponseWriter, r *http.Request, target domain.RosterStatus, successMsg string) {
	roster := r.Context().Value(RosterCtx).(*domain.Roster)

	if !roster.Status.CanTransitionTo(target) {
		h.errorResponse(w, r, fmt.Sprintf("值班表当前状态为 %s，无法变更为 %s", roster.Status, target))
		return
	}

	roster.Status = target
	if err := h.repository.UpdateRosterStatus(roster); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "值班表状态已被其他人变更，请刷新后重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, successMsg, roster)
}

func (h *Handler) SubmitRoster(w http.ResponseWriter, r *http.Request) {
	h.transitionRoster(w, r, domain.RosterStatusPendingApproval, "值班表已提交审批")
}

func (h *Handler) ApproveRoster(w http.ResponseWriter, r *http.Request) {
	h.transitionRoster(w, r, domain.RosterStatusApproved, "值班表审批通过")
}

func (h *Handler) ActivateRoster(w http.ResponseWriter, r *http.Request) {
	h.transitionRoster(w, r, domain.RosterStatusActive, "值班表已启用")
}

func (h *Handler) AddRosterEntry(w http.ResponseWriter, r *http.Request) {
	roster := r.Context().Value(RosterCtx).(*domain.Roster)

	var req struct {
		UserID            int64  `json:"userID" validate:"required"`
		DutyDate          string `json:"dutyDate" validate:"required"`
		ShiftDefinitionID *int64 `json:"shiftDefinitionID"`
		ShiftName         string `json:"shiftName"`
		ShiftStartTime    string `json:"shiftStartTime"`
		ShiftEndTime      string `json:"shiftEndTime"`
		DutyPosition      string `json:"dutyPosition"`
		DutyLocation      string `json:"dutyLocation"`
		TerminalID        *int64 `json:"terminalID"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	dutyDate, err := parseDate(req.DutyDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	entry := &domain.RosterEntry{
		RosterID:          roster.ID,
		UserID:            req.UserID,
		DutyDate:          dutyDate,
		ShiftDefinitionID: req.ShiftDefinitionID,
		ShiftName:         req.ShiftName,
		ShiftStartTime:    req.ShiftStartTime,
		ShiftEndTime:      req.ShiftEndTime,
		DutyPosition:      req.DutyPosition,
		DutyLocation:      req.DutyLocation,
		TerminalID:        req.TerminalID,
		ApprovalStatus:    domain.EntryStatusScheduled,
	}

	// 引用了班次定义时把定义的名称和起止时刻固定写入记录，
	// 之后修改定义不会影响这条记录
	if req.ShiftDefinitionID != nil {
		sd, err := h.repository.GetShiftDefinitionByID(*req.ShiftDefinitionID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "班次定义不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		entry.ShiftName = sd.Name
		entry.ShiftStartTime = sd.StartTime
		entry.ShiftEndTime = sd.EndTime
	} else if req.ShiftName == "" || req.ShiftStartTime == "" || req.ShiftEndTime == "" {
		h.errorResponse(w, r, "自定义班次必须提供名称和起止时刻")
		return
	}

	if err := h.repository.InsertRosterEntry(entry); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "roster_entries_roster_id_user_id_duty_date_key":
			h.errorResponse(w, r, fmt.Sprintf("员工 %d 在 %s 当天已有值班记录", req.UserID, dutyDate.Format(dateLayout)))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "添加值班记录成功", entry)
}

func (h *Handler) UpdateRosterEntry(w http.ResponseWriter, r *http.Request) {
	roster := r.Context().Value(RosterCtx).(*domain.Roster)

	entryIDParam := chi.URLParam(r, "entryID")
	entryID, err := strconv.ParseInt(entryIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "值班记录ID无效")
		return
	}

	entry, err := h.repository.GetRosterEntryByID(entryID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "值班记录不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if entry.RosterID != roster.ID {
		h.errorResponse(w, r, "值班记录不属于该值班表")
		return
	}

	var req struct {
		UserID         *int64  `json:"userID"`
		DutyDate       *string `json:"dutyDate"`
		DutyPosition   *string `json:"dutyPosition"`
		DutyLocation   *string `json:"dutyLocation"`
		TerminalID     *int64  `json:"terminalID"`
		ApprovalStatus *string `json:"approvalStatus" validate:"omitempty,oneof=scheduled confirmed swapped completed"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.UserID != nil {
		entry.UserID = *req.UserID
	}
	if req.DutyDate != nil {
		parsed, err := parseDate(*req.DutyDate)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		entry.DutyDate = parsed
	}
	if req.DutyPosition != nil {
		entry.DutyPosition = *req.DutyPosition
	}
	if req.DutyLocation != nil {
		entry.DutyLocation = *req.DutyLocation
	}
	if req.TerminalID != nil {
		entry.TerminalID = req.TerminalID
	}
	if req.ApprovalStatus != nil {
		entry.ApprovalStatus = domain.EntryApprovalStatus(*req.ApprovalStatus)
	}

	if err := h.repository.UpdateRosterEntry(entry); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "roster_entries_roster_id_user_id_duty_date_key":
			h.errorResponse(w, r, fmt.Sprintf("员工 %d 在 %s 当天已有值班记录", entry.UserID, entry.DutyDate.Format(dateLayout)))
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新值班记录失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新值班记录成功", entry)
}

func (h *Handler) DeleteRosterEntry(w http.ResponseWriter, r *http.Request) {
	roster := r.Context().Value(RosterCtx).(*domain.Roster)

	entryIDParam := chi.URLParam(r, "entryID")
	entryID, err := strconv.ParseInt(entryIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "值班记录ID无效")
		return
	}

	if err := h.repository.DeleteRosterEntry(roster.ID, entryID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "值班记录不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除值班记录成功", nil)
}
