package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
)

// ErrSwapEntriesChanged 表示换班涉及的记录在请求创建之后归属已经变了
var ErrSwapEntriesChanged = errors.New("换班请求涉及的值班记录归属已发生变化")

func (r *Repository) CreateSwapRequest(swap *domain.ShiftSwapRequest) error {
	query := `
		INSERT INTO shift_swap_requests (requester_id, target_user_id, entry_to_give_id, entry_to_receive_id, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{swap.RequesterID, swap.TargetUserID, swap.EntryToGiveID, swap.EntryToReceiveID, swap.Reason, swap.Status}
	dst := []any{&swap.ID, &swap.CreatedAt, &swap.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetSwapRequestByID(id int64) (*domain.ShiftSwapRequest, error) {
	query := `
		SELECT requester_id, target_user_id, entry_to_give_id, entry_to_receive_id, reason, status, created_at, version
		FROM shift_swap_requests WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	swap := &domain.ShiftSwapRequest{
		ID: id,
	}

	dst := []any{&swap.RequesterID, &swap.TargetUserID, &swap.EntryToGiveID, &swap.EntryToReceiveID, &swap.Reason, &swap.Status, &swap.CreatedAt, &swap.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return swap, nil
}

// GetSwapRequestsByUserID 返回某个员工作为发起方或接收方的所有换班请求
func (r *Repository) GetSwapRequestsByUserID(userID int64) ([]*domain.ShiftSwapRequest, error) {
	query := `
		SELECT id, requester_id, target_user_id, entry_to_give_id, entry_to_receive_id, reason, status, created_at, version
		FROM shift_swap_requests
		WHERE requester_id = $1 OR target_user_id = $1
		ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	swaps := []*domain.ShiftSwapRequest{}
	for rows.Next() {
		var swap domain.ShiftSwapRequest
		dst := []any{&swap.ID, &swap.RequesterID, &swap.TargetUserID, &swap.EntryToGiveID, &swap.EntryToReceiveID, &swap.Reason, &swap.Status, &swap.CreatedAt, &swap.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		swaps = append(swaps, &swap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return swaps, nil
}

// UpdateSwapRequestStatus 只更新状态，用于不触发交换的转移（例如拒绝）
func (r *Repository) UpdateSwapRequestStatus(swap *domain.ShiftSwapRequest) error {
	query := `
		UPDATE shift_swap_requests
		SET
			status = $1,
			version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{swap.Status, swap.ID, swap.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&swap.Version); err != nil {
		return err
	}

	return nil
}

// ExchangeEntries 在一个事务内完成换班：
// 锁定涉及的值班记录，重新校验新归属方在当天没有其他记录，
// 然后交换（或转移）归属并把请求推进到最终状态。
// 任何一步失败整个事务回滚，请求保持原状态。
func (r *Repository) ExchangeEntries(swap *domain.ShiftSwapRequest, finalStatus domain.SwapStatus) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	lockQuery := `
		SELECT roster_id, user_id, duty_date FROM roster_entries
		WHERE id = $1
		FOR UPDATE
	`

	var give struct {
		RosterID int64
		UserID   int64
		DutyDate time.Time
	}
	if err := tx.QueryRowContext(ctx, lockQuery, swap.EntryToGiveID).Scan(&give.RosterID, &give.UserID, &give.DutyDate); err != nil {
		return err
	}
	if give.UserID != swap.RequesterID {
		return ErrSwapEntriesChanged
	}

	conflictQuery := `
		SELECT EXISTS(
			SELECT 1 FROM roster_entries
			WHERE roster_id = $1 AND user_id = $2 AND duty_date = $3 AND id != ALL($4::bigint[])
		)
	`

	if swap.EntryToReceiveID != nil {
		// 双向互换
		var receive struct {
			RosterID int64
			UserID   int64
			DutyDate time.Time
		}
		if err := tx.QueryRowContext(ctx, lockQuery, *swap.EntryToReceiveID).Scan(&receive.RosterID, &receive.UserID, &receive.DutyDate); err != nil {
			return err
		}
		if receive.UserID != swap.TargetUserID {
			return ErrSwapEntriesChanged
		}

		excluded := []int64{swap.EntryToGiveID, *swap.EntryToReceiveID}

		var exists bool
		if err := tx.QueryRowContext(ctx, conflictQuery, give.RosterID, swap.TargetUserID, give.DutyDate, excluded).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return &ErrDutyConflict{UserID: swap.TargetUserID, DutyDate: give.DutyDate}
		}

		if err := tx.QueryRowContext(ctx, conflictQuery, receive.RosterID, swap.RequesterID, receive.DutyDate, excluded).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return &ErrDutyConflict{UserID: swap.RequesterID, DutyDate: receive.DutyDate}
		}

		// 在单条语句中交换双方的归属，
		// 避免中间状态触碰 (roster_id, user_id, duty_date) 的唯一性约束
		exchangeQuery := `
			UPDATE roster_entries
			SET
				user_id = CASE id WHEN $1 THEN $2::bigint WHEN $3 THEN $4::bigint END,
				approval_status = $5,
				version = version + 1
			WHERE id IN ($1, $3)
		`
		args := []any{swap.EntryToGiveID, swap.TargetUserID, *swap.EntryToReceiveID, swap.RequesterID, domain.EntryStatusSwapped}
		if _, err := tx.ExecContext(ctx, exchangeQuery, args...); err != nil {
			return err
		}
	} else {
		// 单向转让
		var exists bool
		if err := tx.QueryRowContext(ctx, conflictQuery, give.RosterID, swap.TargetUserID, give.DutyDate, []int64{swap.EntryToGiveID}).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return &ErrDutyConflict{UserID: swap.TargetUserID, DutyDate: give.DutyDate}
		}

		giveQuery := `
			UPDATE roster_entries
			SET
				user_id = $1,
				approval_status = $2,
				version = version + 1
			WHERE id = $3
		`
		if _, err := tx.ExecContext(ctx, giveQuery, swap.TargetUserID, domain.EntryStatusSwapped, swap.EntryToGiveID); err != nil {
			return err
		}
	}

	// 请求状态的推进和交换必须处于同一个事务
	statusQuery := `
		UPDATE shift_swap_requests
		SET
			status = $1,
			version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`
	if err := tx.QueryRowContext(ctx, statusQuery, finalStatus, swap.ID, swap.Version).Scan(&swap.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSwapEntriesChanged
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	swap.Status = finalStatus
	return nil
}
