package repository

import (
	"context"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
)

func (r *Repository) CreateUnit(unit *domain.Unit) error {
	query := `
		INSERT INTO units (name, terminal_id, requires_swap_approval)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{unit.Name, unit.TerminalID, unit.RequiresSwapApproval}
	dst := []any{&unit.ID, &unit.CreatedAt, &unit.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetUnitByID(id int64) (*domain.Unit, error) {
	query := `
		SELECT name, terminal_id, requires_swap_approval, created_at, version
		FROM units WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	unit := &domain.Unit{
		ID: id,
	}

	dst := []any{&unit.Name, &unit.TerminalID, &unit.RequiresSwapApproval, &unit.CreatedAt, &unit.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return unit, nil
}

func (r *Repository) GetAllUnits() ([]*domain.Unit, error) {
	query := `
		SELECT id, name, terminal_id, requires_swap_approval, created_at, version FROM units
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := []*domain.Unit{}
	for rows.Next() {
		var unit domain.Unit
		dst := []any{&unit.ID, &unit.Name, &unit.TerminalID, &unit.RequiresSwapApproval, &unit.CreatedAt, &unit.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		units = append(units, &unit)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return units, nil
}

func (r *Repository) UpdateUnit(unit *domain.Unit) error {
	query := `
		UPDATE units
		SET
			name = $1,
			terminal_id = $2,
			requires_swap_approval = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{unit.Name, unit.TerminalID, unit.RequiresSwapApproval, unit.ID, unit.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&unit.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteUnit(id int64) error {
	query := `
		DELETE FROM units WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
