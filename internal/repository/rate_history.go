package repository

import (
	"context"
	"time"

	"github.com/rosterline-dev/rosterline/backend/internal/domain"
)

func (r *Repository) CreateRateHistoryEntry(entry *domain.RateHistoryEntry) error {
	query := `
		INSERT INTO rate_history (staff_id, hourly_rate, effective_date)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{entry.StaffID, entry.HourlyRate, entry.EffectiveDate}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&entry.ID); err != nil {
		return err
	}

	return nil
}

// GetRateHistories 批量取一组员工在 upTo 之前的时薪历史，按生效日期升序
func (r *Repository) GetRateHistories(ctx context.Context, staffIDs []int64, upTo time.Time) (map[int64][]*domain.RateHistoryEntry, error) {
	query := `
		SELECT id, staff_id, hourly_rate, effective_date
		FROM rate_history
		WHERE staff_id = ANY($1) AND effective_date <= $2
		ORDER BY staff_id, effective_date ASC
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, staffIDs, upTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	histories := make(map[int64][]*domain.RateHistoryEntry)
	for rows.Next() {
		entry := &domain.RateHistoryEntry{}
		dst := []any{&entry.ID, &entry.StaffID, &entry.HourlyRate, &entry.EffectiveDate}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		histories[entry.StaffID] = append(histories[entry.StaffID], entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return histories, nil
}

func (r *Repository) GetRateHistoryByStaff(staffID int64) ([]*domain.RateHistoryEntry, error) {
	query := `
		SELECT id, staff_id, hourly_rate, effective_date
		FROM rate_history
		WHERE staff_id = $1
		ORDER BY effective_date ASC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.RateHistoryEntry, 0)
	for rows.Next() {
		entry := &domain.RateHistoryEntry{}
		dst := []any{&entry.ID, &entry.StaffID, &entry.HourlyRate, &entry.EffectiveDate}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
