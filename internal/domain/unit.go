package domain

import "time"

type Unit struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	TerminalID *int64 `json:"terminalID"` // 航站楼由外部系统维护，这里只保存引用
	// 该单位的换班请求在对方接受后是否还需要值班主管审批
	RequiresSwapApproval bool      `json:"requiresSwapApproval"`
	CreatedAt            time.Time `json:"createdAt"`
	Version              int32     `json:"-"`
}
