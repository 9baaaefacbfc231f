package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
)

func (r *Repository) CreateRoster(roster *domain.Roster) error {
	query := `
		INSERT INTO rosters (name, start_date, end_date, unit_id, department_id, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{roster.Name, roster.StartDate, roster.EndDate, roster.UnitID, roster.DepartmentID, roster.Status, roster.Notes}
	dst := []any{&roster.ID, &roster.CreatedAt, &roster.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetRosterByID(id int64) (*domain.Roster, error) {
	query := `
		SELECT name, start_date, end_date, unit_id, department_id, status, notes, created_at, version
		FROM rosters WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	roster := &domain.Roster{
		ID: id,
	}

	dst := []any{
		&roster.Name,
		&roster.StartDate,
		&roster.EndDate,
		&roster.UnitID,
		&roster.DepartmentID,
		&roster.Status,
		&roster.Notes,
		&roster.CreatedAt,
		&roster.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return roster, nil
}

// GetRosterWithEntries 返回值班表及其全部值班记录
func (r *Repository) GetRosterWithEntries(id int64) (*domain.Roster, error) {
	roster, err := r.GetRosterByID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT ` + rosterEntryColumns + `
		FROM roster_entries
		WHERE roster_id = $1
		ORDER BY duty_date, user_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roster.Entries = make([]domain.RosterEntry, 0)
	for rows.Next() {
		var entry domain.RosterEntry
		if err := scanRosterEntry(rows, &entry); err != nil {
			return nil, err
		}
		roster.Entries = append(roster.Entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return roster, nil
}

// GetAllRosters 按单位、部门和状态过滤（任意条件可为空）
func (r *Repository) GetAllRosters(unitID *int64, departmentID *int64, status *domain.RosterStatus) ([]*domain.Roster, error) {
	query := `
		SELECT id, name, start_date, end_date, unit_id, department_id, status, notes, created_at, version
		FROM rosters
		WHERE 1 = 1
	`

	args := []any{}
	if unitID != nil {
		args = append(args, *unitID)
		query += fmt.Sprintf(" AND unit_id = $%d", len(args))
	}
	if departmentID != nil {
		args = append(args, *departmentID)
		query += fmt.Sprintf(" AND department_id = $%d", len(args))
	}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY id"

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rosters := []*domain.Roster{}
	for rows.Next() {
		var roster domain.Roster
		dst := []any{
			&roster.ID,
			&roster.Name,
			&roster.StartDate,
			&roster.EndDate,
			&roster.UnitID,
			&roster.DepartmentID,
			&roster.Status,
			&roster.Notes,
			&roster.CreatedAt,
			&roster.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		rosters = append(rosters, &roster)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rosters, nil
}

func (r *Repository) UpdateRoster(roster *domain.Roster) error {
	query := `
		UPDATE rosters
		SET
			name = $1,
			start_date = $2,
			end_date = $3,
			notes = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{roster.Name, roster.StartDate, roster.EndDate, roster.Notes, roster.ID, roster.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&roster.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateRosterStatus(roster *domain.Roster) error {
	query := `
		UPDATE rosters
		SET
			status = $1,
			version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{roster.Status, roster.ID, roster.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&roster.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteRoster(id int64) error {
	query := `
		DELETE FROM rosters WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
