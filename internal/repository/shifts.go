package repository

import (
	"context"
	"time"

	"github.com/rosterline-dev/rosterline/backend/internal/domain"
)

// 班次的持久化读写，实现了 optimistic.ShiftStore

func (r *Repository) CreateShift(ctx context.Context, shift *domain.Shift) (*domain.Shift, error) {
	query := `
		INSERT INTO shifts (staff_id, location_id, role_id, start_time, end_time, break_minutes, status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, staff_id, location_id, role_id, start_time, end_time, break_minutes, status, note, created_at, version
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	status := shift.Status
	if status == "" {
		status = domain.ShiftStatusDraft
	}

	args := []any{shift.StaffID, shift.LocationID, shift.RoleID, shift.StartTime, shift.EndTime, shift.BreakMinutes, status, shift.Note}

	created := &domain.Shift{}
	dst := []any{&created.ID, &created.StaffID, &created.LocationID, &created.RoleID, &created.StartTime, &created.EndTime, &created.BreakMinutes, &created.Status, &created.Note, &created.CreatedAt, &created.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return nil, err
	}

	return created, nil
}

func (r *Repository) GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error) {
	query := `
		SELECT staff_id, location_id, role_id, start_time, end_time, break_minutes, status, note, created_at, version
		FROM shifts WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	shift := &domain.Shift{
		ID: id,
	}

	dst := []any{&shift.StaffID, &shift.LocationID, &shift.RoleID, &shift.StartTime, &shift.EndTime, &shift.BreakMinutes, &shift.Status, &shift.Note, &shift.CreatedAt, &shift.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return shift, nil
}

func (r *Repository) UpdateShift(ctx context.Context, id int64, patch *domain.ShiftPatch) (*domain.Shift, error) {
	current, err := r.GetShiftByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := patch.Apply(*current)

	query := `
		UPDATE shifts
		SET
			staff_id = $1,
			start_time = $2,
			end_time = $3,
			break_minutes = $4,
			status = $5,
			note = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{updated.StaffID, updated.StartTime, updated.EndTime, updated.BreakMinutes, updated.Status, updated.Note, updated.ID, updated.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&updated.Version); err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeleteShift 只对草稿做物理删除，已发布的班次改成已取消，
// 这样薪酬侧引用过的班次不会凭空消失
func (r *Repository) DeleteShift(ctx context.Context, id int64) error {
	current, err := r.GetShiftByID(ctx, id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if current.Status == domain.ShiftStatusDraft {
		_, err = r.dbpool.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id)
		return err
	}

	_, err = r.dbpool.ExecContext(ctx, `UPDATE shifts SET status = $1, version = version + 1 WHERE id = $2`, domain.ShiftStatusCancelled, id)
	return err
}

// GetShiftsByRange 返回某个门店和 [from, to) 有交集的班次，按开始时间升序
func (r *Repository) GetShiftsByRange(ctx context.Context, locationID int64, from, to time.Time) ([]*domain.Shift, error) {
	query := `
		SELECT id, staff_id, location_id, role_id, start_time, end_time, break_minutes, status, note, created_at, version
		FROM shifts
		WHERE location_id = $1 AND start_time < $2 AND end_time > $3
		ORDER BY start_time ASC
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, locationID, to, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		shift := &domain.Shift{}
		dst := []any{&shift.ID, &shift.StaffID, &shift.LocationID, &shift.RoleID, &shift.StartTime, &shift.EndTime, &shift.BreakMinutes, &shift.Status, &shift.Note, &shift.CreatedAt, &shift.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

// GetShiftsByStaff 返回某个员工在 [from, to) 内的班次，按开始时间升序
func (r *Repository) GetShiftsByStaff(ctx context.Context, staffID int64, from, to time.Time) ([]*domain.Shift, error) {
	query := `
		SELECT id, staff_id, location_id, role_id, start_time, end_time, break_minutes, status, note, created_at, version
		FROM shifts
		WHERE staff_id = $1 AND start_time < $2 AND end_time > $3
		ORDER BY start_time ASC
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, staffID, to, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		shift := &domain.Shift{}
		dst := []any{&shift.ID, &shift.StaffID, &shift.LocationID, &shift.RoleID, &shift.StartTime, &shift.EndTime, &shift.BreakMinutes, &shift.Status, &shift.Note, &shift.CreatedAt, &shift.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}
