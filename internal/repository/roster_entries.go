package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
	"github.com/airport-ops-dev/roster-manager/backend/internal/rotation"
)

const rosterEntryColumns = `
	id,
	roster_id,
	user_id,
	duty_date,
	shift_definition_id,
	shift_name,
	shift_start_time,
	shift_end_time,
	duty_position,
	duty_location,
	terminal_id,
	checked_in_at,
	checked_out_at,
	attendance_status,
	late_minutes,
	early_departure_minutes,
	approval_status,
	created_at,
	version
`

type rowScanner interface {
	Scan(dst ...any) error
}

func scanRosterEntry(row rowScanner, entry *domain.RosterEntry) error {
	dst := []any{
		&entry.ID,
		&entry.RosterID,
		&entry.UserID,
		&entry.DutyDate,
		&entry.ShiftDefinitionID,
		&entry.ShiftName,
		&entry.ShiftStartTime,
		&entry.ShiftEndTime,
		&entry.DutyPosition,
		&entry.DutyLocation,
		&entry.TerminalID,
		&entry.CheckedInAt,
		&entry.CheckedOutAt,
		&entry.AttendanceStatus,
		&entry.LateMinutes,
		&entry.EarlyDepartureMinutes,
		&entry.ApprovalStatus,
		&entry.CreatedAt,
		&entry.Version,
	}
	return row.Scan(dst...)
}

func (r *Repository) InsertRosterEntry(entry *domain.RosterEntry) error {
	query := `
		INSERT INTO roster_entries (
			roster_id,
			user_id,
			duty_date,
			shift_definition_id,
			shift_name,
			shift_start_time,
			shift_end_time,
			duty_position,
			duty_location,
			terminal_id,
			approval_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{
		entry.RosterID,
		entry.UserID,
		entry.DutyDate,
		entry.ShiftDefinitionID,
		entry.ShiftName,
		entry.ShiftStartTime,
		entry.ShiftEndTime,
		entry.DutyPosition,
		entry.DutyLocation,
		entry.TerminalID,
		entry.ApprovalStatus,
	}
	dst := []any{&entry.ID, &entry.CreatedAt, &entry.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetRosterEntryByID(id int64) (*domain.RosterEntry, error) {
	query := `
		SELECT ` + rosterEntryColumns + `
		FROM roster_entries WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	entry := &domain.RosterEntry{}
	if err := scanRosterEntry(r.dbpool.QueryRowContext(ctx, query, id), entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (r *Repository) UpdateRosterEntry(entry *domain.RosterEntry) error {
	query := `
		UPDATE roster_entries
		SET
			user_id = $1,
			duty_date = $2,
			shift_definition_id = $3,
			shift_name = $4,
			shift_start_time = $5,
			shift_end_time = $6,
			duty_position = $7,
			duty_location = $8,
			terminal_id = $9,
			approval_status = $10,
			version = version + 1
		WHERE id = $11 AND version = $12
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{
		entry.UserID,
		entry.DutyDate,
		entry.ShiftDefinitionID,
		entry.ShiftName,
		entry.ShiftStartTime,
		entry.ShiftEndTime,
		entry.DutyPosition,
		entry.DutyLocation,
		entry.TerminalID,
		entry.ApprovalStatus,
		entry.ID,
		entry.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&entry.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteRosterEntry(rosterID int64, entryID int64) error {
	query := `
		DELETE FROM roster_entries WHERE id = $1 AND roster_id = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, entryID, rosterID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// CommitGeneratedEntries 在一个事务内把引擎的产出写入值班表。
// 任何一条记录与已有的 (员工, 日期) 冲突时整个事务回滚，
// 返回的 ErrDutyConflict 会指出是谁在哪一天冲突了。
// roster.ID 为 0 时在同一个事务内先创建值班表。
func (r *Repository) CommitGeneratedEntries(roster *domain.Roster, proposed []rotation.ProposedEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if roster.ID == 0 {
		query := `
			INSERT INTO rosters (name, start_date, end_date, unit_id, department_id, status, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at, version
		`
		args := []any{roster.Name, roster.StartDate, roster.EndDate, roster.UnitID, roster.DepartmentID, roster.Status, roster.Notes}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&roster.ID, &roster.CreatedAt, &roster.Version); err != nil {
			return err
		}
	}

	roster.Entries = make([]domain.RosterEntry, 0, len(proposed))

	for _, pe := range proposed {
		// ON CONFLICT DO NOTHING 之后扫不到返回行，
		// 就说明这条记录撞上了唯一性约束（包括同一批产出内部的重复）
		query := `
			INSERT INTO roster_entries (
				roster_id, user_id, duty_date,
				shift_definition_id, shift_name, shift_start_time, shift_end_time,
				approval_status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (roster_id, user_id, duty_date) DO NOTHING
			RETURNING id, created_at, version
		`

		entry := domain.RosterEntry{
			RosterID:          roster.ID,
			UserID:            pe.UserID,
			DutyDate:          pe.DutyDate,
			ShiftDefinitionID: pe.ShiftDefinitionID,
			ShiftName:         pe.ShiftName,
			ShiftStartTime:    pe.ShiftStartTime,
			ShiftEndTime:      pe.ShiftEndTime,
			ApprovalStatus:    domain.EntryStatusScheduled,
		}

		args := []any{
			entry.RosterID,
			entry.UserID,
			entry.DutyDate,
			entry.ShiftDefinitionID,
			entry.ShiftName,
			entry.ShiftStartTime,
			entry.ShiftEndTime,
			entry.ApprovalStatus,
		}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &entry.CreatedAt, &entry.Version); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &ErrDutyConflict{UserID: pe.UserID, DutyDate: pe.DutyDate}
			}
			return err
		}

		roster.Entries = append(roster.Entries, entry)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// GetUserRosterEntries 返回某个员工在日期范围内所有已启用值班表中的记录
func (r *Repository) GetUserRosterEntries(userID int64, startDate, endDate time.Time) ([]*domain.RosterEntry, error) {
	query := `
		SELECT ` + entryColumnsWithPrefix("re") + `
		FROM roster_entries re
		JOIN rosters ro ON re.roster_id = ro.id
		WHERE re.user_id = $1
			AND ro.status = $2
			AND re.duty_date BETWEEN $3 AND $4
		ORDER BY re.duty_date, re.id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID, domain.RosterStatusActive, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRosterEntries(rows)
}

// GetTodayRosterEntries 返回今天所有已启用值班表中的记录，可按单位过滤
func (r *Repository) GetTodayRosterEntries(unitID *int64) ([]*domain.RosterEntry, error) {
	query := `
		SELECT ` + entryColumnsWithPrefix("re") + `
		FROM roster_entries re
		JOIN rosters ro ON re.roster_id = ro.id
		WHERE ro.status = $1
			AND re.duty_date = CURRENT_DATE
	`

	args := []any{domain.RosterStatusActive}
	if unitID != nil {
		args = append(args, *unitID)
		query += " AND ro.unit_id = $2"
	}
	query += " ORDER BY re.shift_start_time, re.user_id"

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRosterEntries(rows)
}

func collectRosterEntries(rows *sql.Rows) ([]*domain.RosterEntry, error) {
	entries := []*domain.RosterEntry{}
	for rows.Next() {
		var entry domain.RosterEntry
		if err := scanRosterEntry(rows, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func entryColumnsWithPrefix(prefix string) string {
	return prefix + `.id,
		` + prefix + `.roster_id,
		` + prefix + `.user_id,
		` + prefix + `.duty_date,
		` + prefix + `.shift_definition_id,
		` + prefix + `.shift_name,
		` + prefix + `.shift_start_time,
		` + prefix + `.shift_end_time,
		` + prefix + `.duty_position,
		` + prefix + `.duty_location,
		` + prefix + `.terminal_id,
		` + prefix + `.checked_in_at,
		` + prefix + `.checked_out_at,
		` + prefix + `.attendance_status,
		` + prefix + `.late_minutes,
		` + prefix + `.early_departure_minutes,
		` + prefix + `.approval_status,
		` + prefix + `.created_at,
		` + prefix + `.version`
}
