package repository

import (
	"context"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
)

func (r *Repository) CreateShiftDefinition(sd *domain.ShiftDefinition) error {
	query := `
		INSERT INTO shift_definitions (unit_id, name, start_time, end_time, duration_hours, color)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{sd.UnitID, sd.Name, sd.StartTime, sd.EndTime, sd.DurationHours, sd.Color}
	dst := []any{&sd.ID, &sd.CreatedAt, &sd.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetShiftDefinitionByID(id int64) (*domain.ShiftDefinition, error) {
	query := `
		SELECT unit_id, name, start_time, end_time, duration_hours, color, created_at, version
		FROM shift_definitions WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	sd := &domain.ShiftDefinition{
		ID: id,
	}

	dst := []any{&sd.UnitID, &sd.Name, &sd.StartTime, &sd.EndTime, &sd.DurationHours, &sd.Color, &sd.CreatedAt, &sd.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return sd, nil
}

func (r *Repository) GetShiftDefinitionsByUnitID(unitID int64) ([]*domain.ShiftDefinition, error) {
	query := `
		SELECT id, unit_id, name, start_time, end_time, duration_hours, color, created_at, version
		FROM shift_definitions
		WHERE unit_id = $1
		ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sds := []*domain.ShiftDefinition{}
	for rows.Next() {
		var sd domain.ShiftDefinition
		dst := []any{&sd.ID, &sd.UnitID, &sd.Name, &sd.StartTime, &sd.EndTime, &sd.DurationHours, &sd.Color, &sd.CreatedAt, &sd.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		sds = append(sds, &sd)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sds, nil
}

// UpdateShiftDefinition 只影响之后的生成，已提交的值班记录保存的是当时的副本
func (r *Repository) UpdateShiftDefinition(sd *domain.ShiftDefinition) error {
	query := `
		UPDATE shift_definitions
		SET
			name = $1,
			start_time = $2,
			end_time = $3,
			duration_hours = $4,
			color = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{sd.Name, sd.StartTime, sd.EndTime, sd.DurationHours, sd.Color, sd.ID, sd.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&sd.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteShiftDefinition(id int64) error {
	query := `
		DELETE FROM shift_definitions WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
