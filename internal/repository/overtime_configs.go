package repository

import (
	"context"
	"time"

	"github.com/rosterline-dev/rosterline/backend/internal/domain"
)

func (r *Repository) UpsertOvertimeConfig(cfg *domain.OvertimeConfig) error {
	query := `
		INSERT INTO overtime_configs (
			staff_id,
			contracted_weekly_hours,
			overtime_enabled,
			rule_type,
			multiplier,
			flat_extra_per_hour,
			pay_frequency,
			week_start_day,
			fortnight_anchor
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (staff_id) DO UPDATE
		SET
			contracted_weekly_hours = EXCLUDED.contracted_weekly_hours,
			overtime_enabled = EXCLUDED.overtime_enabled,
			rule_type = EXCLUDED.rule_type,
			multiplier = EXCLUDED.multiplier,
			flat_extra_per_hour = EXCLUDED.flat_extra_per_hour,
			pay_frequency = EXCLUDED.pay_frequency,
			week_start_day = EXCLUDED.week_start_day,
			fortnight_anchor = EXCLUDED.fortnight_anchor,
			version = overtime_configs.version + 1
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{
		cfg.StaffID,
		cfg.ContractedWeeklyHours,
		cfg.OvertimeEnabled,
		cfg.RuleType,
		cfg.Multiplier,
		cfg.FlatExtraPerHour,
		cfg.PayFrequency,
		int(cfg.WeekStartDay),
		cfg.FortnightAnchor,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&cfg.Version); err != nil {
		return err
	}

	return nil
}

// GetOvertimeConfigs 取一组员工的加班配置，没有配置的员工不会出现在结果里
func (r *Repository) GetOvertimeConfigs(ctx context.Context, staffIDs []int64) (map[int64]*domain.OvertimeConfig, error) {
	query := `
		SELECT
			staff_id,
			contracted_weekly_hours,
			overtime_enabled,
			rule_type,
			multiplier,
			flat_extra_per_hour,
			pay_frequency,
			week_start_day,
			fortnight_anchor,
			version
		FROM overtime_configs
		WHERE staff_id = ANY($1)
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, staffIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make(map[int64]*domain.OvertimeConfig)
	for rows.Next() {
		cfg := &domain.OvertimeConfig{}
		var weekStartDay int
		dst := []any{
			&cfg.StaffID,
			&cfg.ContractedWeeklyHours,
			&cfg.OvertimeEnabled,
			&cfg.RuleType,
			&cfg.Multiplier,
			&cfg.FlatExtraPerHour,
			&cfg.PayFrequency,
			&weekStartDay,
			&cfg.FortnightAnchor,
			&cfg.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		cfg.WeekStartDay = time.Weekday(weekStartDay)
		configs[cfg.StaffID] = cfg
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return configs, nil
}
