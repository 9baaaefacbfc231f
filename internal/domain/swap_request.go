package domain

import "time"

type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "pending"
	SwapStatusAccepted SwapStatus = "accepted"
	SwapStatusRejected SwapStatus = "rejected"
	SwapStatusApproved SwapStatus = "approved"
)

// ShiftSwapRequest 表示一次换班请求。
// entryToReceiveID 为空时表示单向转让，等待对方接受即可；
// 否则为双向互换，双方的记录会交换归属。
type ShiftSwapRequest struct {
	ID               int64      `json:"id"`
	RequesterID      int64      `json:"requesterID"`
	TargetUserID     int64      `json:"targetUserID"`
	EntryToGiveID    int64      `json:"entryToGiveID"`
	EntryToReceiveID *int64     `json:"entryToReceiveID"`
	Reason           string     `json:"reason"`
	Status           SwapStatus `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	Version          int32      `json:"-"`
}

// CanPeerRespond 表示请求是否还在等待对方回应
func (s *ShiftSwapRequest) CanPeerRespond() bool {
	return s.Status == SwapStatusPending
}

// CanSupervisorReview 表示请求是否处于等待值班主管审批的状态
func (s *ShiftSwapRequest) CanSupervisorReview() bool {
	return s.Status == SwapStatusAccepted
}
