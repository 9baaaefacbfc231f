package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
	"github.com/airport-ops-dev/roster-manager/backend/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

func (h *Handler) publishMailMessage(msg domain.MailMessage) error {
	mailData, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.mailChannel.PublishWithContext(
		ctx,
		"",
		"email_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	)
}

func (h *Handler) RequestSwap(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		TargetUserID     int64  `json:"targetUserID" validate:"required"`
		EntryToGiveID    int64  `json:"entryToGiveID" validate:"required"`
		EntryToReceiveID *int64 `json:"entryToReceiveID"`
		Reason           string `json:"reason" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.TargetUserID == myInfo.ID {
		h.errorResponse(w, r, "不能和自己换班")
		return
	}

	target, err := h.repository.GetUserByID(req.TargetUserID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "目标员工不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if !target.IsActive {
		h.errorResponse(w, r, "目标员工已离职")
		return
	}

	// 要让出的记录必须属于发起人
	giveEntry, err := h.repository.GetRosterEntryByID(req.EntryToGiveID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "值班记录不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if giveEntry.UserID != myInfo.ID {
		h.errorResponse(w, r, "只能让出自己的值班记录")
		return
	}

	// 只有已启用的值班表才允许换班
	giveRoster, err := h.repository.GetRosterByID(giveEntry.RosterID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if giveRoster.Status != domain.RosterStatusActive {
		h.errorResponse(w, r, "只有已启用值班表中的记录才能换班")
		return
	}

	// 双向互换时要交换过来的记录必须属于目标员工
	if req.EntryToReceiveID != nil {
		receiveEntry, err := h.repository.GetRosterEntryByID(*req.EntryToReceiveID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "值班记录不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		if receiveEntry.UserID != req.TargetUserID {
			h.errorResponse(w, r, "要交换的记录不属于目标员工")
			return
		}
	}

	swap := &domain.ShiftSwapRequest{
		RequesterID:      myInfo.ID,
		TargetUserID:     req.TargetUserID,
		EntryToGiveID:    req.EntryToGiveID,
		EntryToReceiveID: req.EntryToReceiveID,
		Reason:           req.Reason,
		Status:           domain.SwapStatusPending,
	}

	if err := h.repository.CreateSwapRequest(swap); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 通知目标员工
	if err := h.publishMailMessage(domain.MailMessage{
		Type: "swap_requested",
		To:   target.Email,
		Data: domain.SwapRequestedMailData{
			TargetName:    target.FullName,
			RequesterName: myInfo.FullName,
			DutyDate:      giveEntry.DutyDate.Format(dateLayout),
			ShiftName:     giveEntry.ShiftName,
			Reason:        req.Reason,
		},
	}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "换班请求已发送", swap)
}

func (h *Handler) GetMySwapRequests(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	swaps, err := h.repository.GetSwapRequestsByUserID(myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取换班请求列表成功", swaps)
}

func (h *Handler) GetSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	swap := r.Context().Value(ShiftSwapRequestCtx).(*domain.ShiftSwapRequest)

	isParticipant := swap.RequesterID == myInfo.ID || swap.TargetUserID == myInfo.ID
	isManager := slices.Contains([]domain.Role{domain.RoleSupervisor, domain.RoleAdmin}, myInfo.Role)
	if !isParticipant && !isManager {
		h.errorResponse(w, r, "权限不足")
		return
	}

	h.successResponse(w, r, "获取换班请求成功", swap)
}

// 查出换班涉及的单位是否要求值班主管审批。
// 值班表没有关联单位时视为不需要审批
func (h *Handler) swapNeedsApproval(swap *domain.ShiftSwapRequest) (bool, error) {
	entry, err := h.repository.GetRosterEntryByID(swap.EntryToGiveID)
	if err != nil {
		return false, err
	}

	roster, err := h.repository.GetRosterByID(entry.RosterID)
	if err != nil {
		return false, err
	}
	if roster.UnitID == nil {
		return false, nil
	}

	unit, err := h.repository.GetUnitByID(*roster.UnitID)
	if err != nil {
		return false, err
	}

	return unit.RequiresSwapApproval, nil
}

func (h *Handler) notifySwapResolved(swap *domain.ShiftSwapRequest, result string) error {
	requester, err := h.repository.GetUserByID(swap.RequesterID)
	if err != nil {
		return err
	}
	target, err := h.repository.GetUserByID(swap.TargetUserID)
	if err != nil {
		return err
	}
	entry, err := h.repository.GetRosterEntryByID(swap.EntryToGiveID)
	if err != nil {
		return err
	}

	return h.publishMailMessage(domain.MailMessage{
		Type: "swap_resolved",
		To:   requester.Email,
		Data: domain.SwapResolvedMailData{
			RequesterName: requester.FullName,
			TargetName:    target.FullName,
			DutyDate:      entry.DutyDate.Format(dateLayout),
			ShiftName:     entry.ShiftName,
			Result:        result,
		},
	})
}

// RespondToSwap 由换班请求的目标员工接受或拒绝请求。
// 接受后如果单位不要求值班主管审批，交换立即生效；
// 否则请求停在 accepted 状态等待审批。
func (h *Handler) RespondToSwap(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	swap := r.Context().Value(ShiftSwapRequestCtx).(*domain.ShiftSwapRequest)

	if swap.TargetUserID != myInfo.ID {
		h.errorResponse(w, r, "只有换班请求的目标员工才能回应")
		return
	}
	if !swap.CanPeerRespond() {
		h.errorResponse(w, r, "该换班请求已被处理")
		return
	}

	var req struct {
		Accept *bool `json:"accept" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if !*req.Accept {
		swap.Status = domain.SwapStatusRejected
		if err := h.repository.UpdateSwapRequestStatus(swap); err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "该换班请求已被处理，请刷新后重试")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		if err := h.notifySwapResolved(swap, "已被对方拒绝"); err != nil {
			h.internalServerError(w, r, err)
			return
		}

		h.successResponse(w, r, "已拒绝换班请求", swap)
		return
	}

	needsApproval, err := h.swapNeedsApproval(swap)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if needsApproval {
		swap.Status = domain.SwapStatusAccepted
		if err := h.repository.UpdateSwapRequestStatus(swap); err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "该换班请求已被处理，请刷新后重试")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		h.successResponse(w, r, "已接受换班请求，等待值班主管审批", swap)
		return
	}

	// 不需要审批，接受即生效
	if err := h.repository.ExchangeEntries(swap, domain.SwapStatusAccepted); err != nil {
		var conflictErr *repository.ErrDutyConflict
		switch {
		case errors.As(err, &conflictErr):
			h.dutyConflict(w, r, conflictErr)
		case errors.Is(err, repository.ErrSwapEntriesChanged):
			h.errorResponse(w, r, "换班请求涉及的值班记录已发生变化，请重新发起")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.notifySwapResolved(swap, "已完成"); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "换班成功", swap)
}

// ReviewSwap 由值班主管审批一个已被对方接受的换班请求
func (h *Handler) ReviewSwap(w http.ResponseWriter, r *http.Request) {
	swap := r.Context().Value(ShiftSwapRequestCtx).(*domain.ShiftSwapRequest)

	if !swap.CanSupervisorReview() {
		h.errorResponse(w, r, "该换班请求不在等待审批状态")
		return
	}

	// 单位不要求审批的请求在对方接受时就已生效，不能再被审批改写
	needsApproval, err := h.swapNeedsApproval(swap)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !needsApproval {
		h.errorResponse(w, r, "该单位的换班请求无需值班主管审批")
		return
	}

	var req struct {
		Approve *bool `json:"approve" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if !*req.Approve {
		swap.Status = domain.SwapStatusRejected
		if err := h.repository.UpdateSwapRequestStatus(swap); err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "该换班请求已被处理，请刷新后重试")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		if err := h.notifySwapResolved(swap, "未通过值班主管审批"); err != nil {
			h.internalServerError(w, r, err)
			return
		}

		h.successResponse(w, r, "已驳回换班请求", swap)
		return
	}

	if err := h.repository.ExchangeEntries(swap, domain.SwapStatusApproved); err != nil {
		var conflictErr *repository.ErrDutyConflict
		switch {
		case errors.As(err, &conflictErr):
			h.dutyConflict(w, r, conflictErr)
		case errors.Is(err, repository.ErrSwapEntriesChanged):
			h.errorResponse(w, r, "换班请求涉及的值班记录已发生变化，请重新发起")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.notifySwapResolved(swap, "已完成"); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "审批通过，换班成功", swap)
}
