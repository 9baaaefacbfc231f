package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
	"github.com/airport-ops-dev/roster-manager/backend/internal/utils"
	"github.com/jackc/pgx/v5/pgconn"
)

func (h *Handler) CreateRosterTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name               string   `json:"name" validate:"required"`
		Type               string   `json:"type" validate:"required"`
		MinStaffPerShift   int32    `json:"minStaffPerShift" validate:"required,min=1"`
		IdealTeamSize      int32    `json:"idealTeamSize" validate:"required,min=1"`
		ShiftDefinitionIDs []int64  `json:"shiftDefinitionIDs" validate:"required,min=1"`
		RotationCycle      []string `json:"rotationCycle" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 加载模板引用的班次定义
	shiftDefinitions := make([]domain.ShiftDefinition, 0, len(req.ShiftDefinitionIDs))
	for _, sdID := range req.ShiftDefinitionIDs {
		sd, err := h.repository.GetShiftDefinitionByID(sdID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, fmt.Sprintf("班次定义 %d 不存在", sdID))
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		shiftDefinitions = append(shiftDefinitions, *sd)
	}

	// 轮换周期中除 OFF 外的每个名称都必须能找到对应的班次定义
	if err := utils.ValidateRotationCycle(req.RotationCycle, shiftDefinitions); err != nil {
		h.badRequest(w, r, err)
		return
	}

	rt := &domain.RosterTemplate{
		Name:             req.Name,
		Type:             req.Type,
		MinStaffPerShift: req.MinStaffPerShift,
		IdealTeamSize:    req.IdealTeamSize,
		ShiftDefinitions: shiftDefinitions,
		RotationCycle:    req.RotationCycle,
	}

	if err := h.repository.CreateRosterTemplate(rt); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "roster_templates_name_key":
			h.badRequest(w, r, errors.New("模板名称已存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建模板成功", rt)
}

func (h *Handler) GetAllRosterTemplates(w http.ResponseWriter, r *http.Request) {
	rts, err := h.repository.GetAllRosterTemplates()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取模板列表成功", rts)
}

func (h *Handler) GetRosterTemplate(w http.ResponseWriter, r *http.Request) {
	rt := r.Context().Value(RosterTemplateCtx).(*domain.RosterTemplate)
	h.successResponse(w, r, "获取模板成功", rt)
}

func (h *Handler) UpdateRosterTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name             *string `json:"name"`
		Type             *string `json:"type"`
		MinStaffPerShift *int32  `json:"minStaffPerShift" validate:"omitempty,min=1"`
		IdealTeamSize    *int32  `json:"idealTeamSize" validate:"omitempty,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	rt := r.Context().Value(RosterTemplateCtx).(*domain.RosterTemplate)

	if req.Name != nil {
		rt.Name = *req.Name
	}
	if req.Type != nil {
		rt.Type = *req.Type
	}
	if req.MinStaffPerShift != nil {
		rt.MinStaffPerShift = *req.MinStaffPerShift
	}
	if req.IdealTeamSize != nil {
		rt.IdealTeamSize = *req.IdealTeamSize
	}

	if err := h.repository.UpdateRosterTemplate(rt); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "roster_templates_name_key":
			h.badRequest(w, r, errors.New("模板名称已存在"))
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新模板失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新模板成功", rt)
}

func (h *Handler) DeleteRosterTemplate(w http.ResponseWriter, r *http.Request) {
	rt := r.Context().Value(RosterTemplateCtx).(*domain.RosterTemplate)

	if err := h.repository.DeleteRosterTemplate(rt.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除模板成功", nil)
}
