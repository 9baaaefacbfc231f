package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
	"github.com/airport-ops-dev/roster-manager/backend/internal/utils"
	"github.com/jackc/pgx/v5/pgconn"
)

func (h *Handler) CreateShiftDefinition(w http.ResponseWriter, r *http.Request) {
	unit := r.Context().Value(UnitCtx).(*domain.Unit)

	var req struct {
		Name      string `json:"name" validate:"required"`
		StartTime string `json:"startTime" validate:"required"`
		EndTime   string `json:"endTime" validate:"required"`
		Color     string `json:"color"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// OFF 是轮换周期中表示休息日的保留名称
	if req.Name == domain.RestShiftName {
		h.errorResponse(w, r, "班次名称不能使用保留名称 OFF")
		return
	}

	// 时长由起止时刻推出，跨天班次会自动处理
	duration, err := utils.ComputeShiftDurationHours(req.StartTime, req.EndTime)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	sd := &domain.ShiftDefinition{
		UnitID:        unit.ID,
		Name:          req.Name,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		DurationHours: duration,
		Color:         req.Color,
	}

	if err := h.repository.CreateShiftDefinition(sd); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "shift_definitions_unit_id_name_key":
			h.badRequest(w, r, errors.New("该单位下已存在同名班次"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建班次定义成功", sd)
}

func (h *Handler) GetShiftDefinition(w http.ResponseWriter, r *http.Request) {
	sd := r.Context().Value(ShiftDefinitionCtx).(*domain.ShiftDefinition)
	h.successResponse(w, r, "获取班次定义成功", sd)
}

func (h *Handler) UpdateShiftDefinition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      *string `json:"name"`
		StartTime *string `json:"startTime"`
		EndTime   *string `json:"endTime"`
		Color     *string `json:"color"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	sd := r.Context().Value(ShiftDefinitionCtx).(*domain.ShiftDefinition)

	if req.Name != nil {
		if *req.Name == domain.RestShiftName {
			h.errorResponse(w, r, "班次名称不能使用保留名称 OFF")
			return
		}
		sd.Name = *req.Name
	}
	if req.StartTime != nil {
		sd.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		sd.EndTime = *req.EndTime
	}
	if req.Color != nil {
		sd.Color = *req.Color
	}

	// 起止时刻变化后重新计算时长。
	// 已经生成的值班记录保存的是自己的起止时刻，不受这里的修改影响
	duration, err := utils.ComputeShiftDurationHours(sd.StartTime, sd.EndTime)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	sd.DurationHours = duration

	if err := h.repository.UpdateShiftDefinition(sd); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "shift_definitions_unit_id_name_key":
			h.badRequest(w, r, errors.New("该单位下已存在同名班次"))
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新班次定义失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新班次定义成功", sd)
}

func (h *Handler) DeleteShiftDefinition(w http.ResponseWriter, r *http.Request) {
	sd := r.Context().Value(ShiftDefinitionCtx).(*domain.ShiftDefinition)

	if err := h.repository.DeleteShiftDefinition(sd.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除班次定义成功", nil)
}
