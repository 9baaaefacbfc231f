package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                 string `json:"name" validate:"required"`
		TerminalID           *int64 `json:"terminalID"`
		RequiresSwapApproval bool   `json:"requiresSwapApproval"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	unit := &domain.Unit{
		Name:                 req.Name,
		TerminalID:           req.TerminalID,
		RequiresSwapApproval: req.RequiresSwapApproval,
	}

	if err := h.repository.CreateUnit(unit); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "units_name_key":
			h.badRequest(w, r, errors.New("单位名称已存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建单位成功", unit)
}

func (h *Handler) GetAllUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.repository.GetAllUnits()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取单位列表成功", units)
}

func (h *Handler) GetUnit(w http.ResponseWriter, r *http.Request) {
	unit := r.Context().Value(UnitCtx).(*domain.Unit)
	h.successResponse(w, r, "获取单位信息成功", unit)
}

func (h *Handler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                 *string `json:"name"`
		TerminalID           *int64  `json:"terminalID"`
		RequiresSwapApproval *bool   `json:"requiresSwapApproval"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	unit := r.Context().Value(UnitCtx).(*domain.Unit)

	if req.Name != nil {
		unit.Name = *req.Name
	}
	if req.TerminalID != nil {
		unit.TerminalID = req.TerminalID
	}
	if req.RequiresSwapApproval != nil {
		unit.RequiresSwapApproval = *req.RequiresSwapApproval
	}

	if err := h.repository.UpdateUnit(unit); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "units_name_key":
			h.badRequest(w, r, errors.New("单位名称已存在"))
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新单位信息失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新单位信息成功", unit)
}

func (h *Handler) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	unit := r.Context().Value(UnitCtx).(*domain.Unit)

	if err := h.repository.DeleteUnit(unit.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除单位成功", nil)
}

func (h *Handler) GetUnitShiftDefinitions(w http.ResponseWriter, r *http.Request) {
	unit := r.Context().Value(UnitCtx).(*domain.Unit)

	sds, err := h.repository.GetShiftDefinitionsByUnitID(unit.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班次定义列表成功", sds)
}
