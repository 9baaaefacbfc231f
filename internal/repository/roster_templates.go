package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
)

func (r *Repository) CreateRosterTemplate(rt *domain.RosterTemplate) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO roster_templates (name, type, min_staff_per_shift, ideal_team_size)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`
	args := []any{rt.Name, rt.Type, rt.MinStaffPerShift, rt.IdealTeamSize}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&rt.ID, &rt.CreatedAt, &rt.Version); err != nil {
		return err
	}

	for _, sd := range rt.ShiftDefinitions {
		query = `
			INSERT INTO roster_template_shifts (template_id, shift_definition_id)
			VALUES ($1, $2)
		`
		if _, err := tx.ExecContext(ctx, query, rt.ID, sd.ID); err != nil {
			return err
		}
	}

	// 轮换周期按位置逐天保存，position 保证读取时的顺序
	for position, shiftName := range rt.RotationCycle {
		query = `
			INSERT INTO roster_template_cycle_days (template_id, position, shift_name)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, query, rt.ID, position, shiftName); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetRosterTemplateByID(id int64) (*domain.RosterTemplate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			rt.name,
			rt.type,
			rt.min_staff_per_shift,
			rt.ideal_team_size,
			rt.created_at,
			rt.version,
			sd.id,
			sd.unit_id,
			sd.name,
			sd.start_time,
			sd.end_time,
			sd.duration_hours,
			sd.color
		FROM roster_templates rt
		LEFT JOIN roster_template_shifts rts ON rt.id = rts.template_id
		LEFT JOIN shift_definitions sd ON rts.shift_definition_id = sd.id
		WHERE rt.id = $1
		ORDER BY sd.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rt := &domain.RosterTemplate{
		ID:               id,
		ShiftDefinitions: make([]domain.ShiftDefinition, 0),
	}
	found := false

	for rows.Next() {
		var row struct {
			Name             string
			Type             string
			MinStaffPerShift int32
			IdealTeamSize    int32
			CreatedAt        time.Time
			Version          int32

			ShiftID       sql.NullInt64
			UnitID        sql.NullInt64
			ShiftName     sql.NullString
			StartTime     sql.NullString
			EndTime       sql.NullString
			DurationHours sql.NullFloat64
			Color         sql.NullString
		}

		dst := []any{
			&row.Name,
			&row.Type,
			&row.MinStaffPerShift,
			&row.IdealTeamSize,
			&row.CreatedAt,
			&row.Version,
			&row.ShiftID,
			&row.UnitID,
			&row.ShiftName,
			&row.StartTime,
			&row.EndTime,
			&row.DurationHours,
			&row.Color,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if !found {
			// 说明此时是第一次查到这个模板，需要初始化这个模板
			rt.Name = row.Name
			rt.Type = row.Type
			rt.MinStaffPerShift = row.MinStaffPerShift
			rt.IdealTeamSize = row.IdealTeamSize
			rt.CreatedAt = row.CreatedAt
			rt.Version = row.Version
			found = true
		}

		if !row.ShiftID.Valid {
			// 说明该模板没有关联任何班次定义
			continue
		}

		rt.ShiftDefinitions = append(rt.ShiftDefinitions, domain.ShiftDefinition{
			ID:            row.ShiftID.Int64,
			UnitID:        row.UnitID.Int64,
			Name:          row.ShiftName.String,
			StartTime:     row.StartTime.String,
			EndTime:       row.EndTime.String,
			DurationHours: row.DurationHours.Float64,
			Color:         row.Color.String,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !found {
		return nil, sql.ErrNoRows
	}

	// 单独读取轮换周期，保证按 position 排序
	cycle, err := r.getTemplateCycle(ctx, id)
	if err != nil {
		return nil, err
	}
	rt.RotationCycle = cycle

	return rt, nil
}

func (r *Repository) getTemplateCycle(ctx context.Context, templateID int64) ([]string, error) {
	query := `
		SELECT shift_name FROM roster_template_cycle_days
		WHERE template_id = $1
		ORDER BY position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cycle := []string{}
	for rows.Next() {
		var shiftName string
		if err := rows.Scan(&shiftName); err != nil {
			return nil, err
		}
		cycle = append(cycle, shiftName)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cycle, nil
}

func (r *Repository) GetAllRosterTemplates() ([]*domain.RosterTemplate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, name, type, min_staff_per_shift, ideal_team_size, created_at, version
		FROM roster_templates
		ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*domain.RosterTemplate{}
	for rows.Next() {
		var rt domain.RosterTemplate
		dst := []any{&rt.ID, &rt.Name, &rt.Type, &rt.MinStaffPerShift, &rt.IdealTeamSize, &rt.CreatedAt, &rt.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		templates = append(templates, &rt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rt := range templates {
		cycle, err := r.getTemplateCycle(ctx, rt.ID)
		if err != nil {
			return nil, err
		}
		rt.RotationCycle = cycle
	}

	return templates, nil
}

// UpdateRosterTemplate 不允许修改轮换周期和班次关联，
// 否则已提交的值班表与模板之间会出现难以解释的偏差
func (r *Repository) UpdateRosterTemplate(rt *domain.RosterTemplate) error {
	query := `
		UPDATE roster_templates
		SET
			name = $1,
			type = $2,
			min_staff_per_shift = $3,
			ideal_team_size = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{rt.Name, rt.Type, rt.MinStaffPerShift, rt.IdealTeamSize, rt.ID, rt.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&rt.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteRosterTemplate(id int64) error {
	query := `
		DELETE FROM roster_templates WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
