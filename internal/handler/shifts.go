package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rosterline-dev/rosterline/backend/internal/domain"
	"github.com/rosterline-dev/rosterline/backend/internal/policy"
	"github.com/rosterline-dev/rosterline/backend/internal/utils"
)

// parseRangeParams 解析 locationID、from、to 三个查询参数，时间使用 RFC3339 格式
func (h *Handler) parseRangeParams(r *http.Request) (locationID int64, from, to time.Time, err error) {
	locationID, err = strconv.ParseInt(r.URL.Query().Get("locationID"), 10, 64)
	if err != nil {
		return 0, time.Time{}, time.Time{}, errors.New("门店ID无效")
	}

	from, err = time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		return 0, time.Time{}, time.Time{}, errors.New("开始时间格式错误")
	}

	to, err = time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		return 0, time.Time{}, time.Time{}, errors.New("结束时间格式错误")
	}

	if !to.After(from) {
		return 0, time.Time{}, time.Time{}, errors.New("结束时间必须晚于开始时间")
	}

	return locationID, from, to, nil
}

// validatePlacement 检查 (staffID, start, end) 的摆放是否和该员工已有的班次冲突
func (h *Handler) validatePlacement(ctx context.Context, staffID int64, start, end time.Time, excludeID int64) (policy.Result, error) {
	staffShifts, err := h.repository.GetShiftsByStaff(ctx, staffID, h.grid.DayStart(start), h.grid.DayEnd(end))
	if err != nil {
		return policy.Result{}, err
	}

	return h.checker.Validate(staffShifts, start, end, excludeID), nil
}

// invalidateShiftViews 删除 [from, to] 覆盖到的周视图缓存
// 缓存只是加速，删除失败时只记录日志，不影响主流程
func (h *Handler) invalidateShiftViews(locationID int64, from, to time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	if err := h.shiftView.InvalidateShiftViews(ctx, locationID, from, to); err != nil {
		slog.Warn("班次缓存失效失败", "locationID", locationID, "error", err)
	}
}

func (h *Handler) GetShifts(w http.ResponseWriter, r *http.Request) {
	locationID, from, to, err := h.parseRangeParams(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	// 查询范围刚好是一个自然周时走缓存
	weekStart := h.shiftView.WeekStart(from)
	wholeWeek := from.Equal(weekStart) && to.Equal(weekStart.AddDate(0, 0, 7))

	if wholeWeek {
		if shifts, ok := h.shiftView.Get(r.Context(), locationID, weekStart); ok {
			h.successResponse(w, r, "获取班次成功", shifts)
			return
		}
	}

	shifts, err := h.repository.GetShiftsByRange(r.Context(), locationID, from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if wholeWeek {
		if err := h.shiftView.Set(r.Context(), locationID, weekStart, shifts); err != nil {
			slog.Warn("写入班次缓存失败", "locationID", locationID, "error", err)
		}
	}

	h.successResponse(w, r, "获取班次成功", shifts)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)
	h.successResponse(w, r, "获取班次成功", shift)
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StaffID      int64     `json:"staffID" validate:"required"`
		LocationID   int64     `json:"locationID" validate:"required"`
		RoleID       *int64    `json:"roleID"`
		StartTime    time.Time `json:"startTime" validate:"required"`
		EndTime      time.Time `json:"endTime" validate:"required"`
		BreakMinutes int32     `json:"breakMinutes" validate:"gte=0"`
		Note         string    `json:"note"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	start := h.grid.SnapToGrid(req.StartTime)
	end := h.grid.SnapToGrid(req.EndTime)

	if err := utils.ValidateShiftWindow(start, end, req.BreakMinutes); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	result, err := h.validatePlacement(r.Context(), req.StaffID, start, end, 0)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !result.Valid {
		h.errorResponse(w, r, result.Reason)
		return
	}

	shift := &domain.Shift{
		StaffID:      req.StaffID,
		LocationID:   req.LocationID,
		RoleID:       req.RoleID,
		StartTime:    start,
		EndTime:      end,
		BreakMinutes: req.BreakMinutes,
		Status:       domain.ShiftStatusDraft,
		Note:         req.Note,
	}

	created, err := h.repository.CreateShift(r.Context(), shift)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.invalidateShiftViews(created.LocationID, created.StartTime, created.EndTime)

	h.successResponse(w, r, "创建班次成功", created)
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	patch := &domain.ShiftPatch{}
	if err := h.readJSON(r, patch); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if patch.StartTime != nil {
		snapped := h.grid.SnapToGrid(*patch.StartTime)
		patch.StartTime = &snapped
	}
	if patch.EndTime != nil {
		snapped := h.grid.SnapToGrid(*patch.EndTime)
		patch.EndTime = &snapped
	}

	candidate := patch.Apply(*shift)

	if err := utils.ValidateShiftWindow(candidate.StartTime, candidate.EndTime, candidate.BreakMinutes); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	// 改成已取消的班次不再占用时间，不需要做冲突检查
	if candidate.Status != domain.ShiftStatusCancelled {
		result, err := h.validatePlacement(r.Context(), candidate.StaffID, candidate.StartTime, candidate.EndTime, shift.ID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		if !result.Valid {
			h.errorResponse(w, r, result.Reason)
			return
		}
	}

	updated, err := h.repository.UpdateShift(r.Context(), shift.ID, patch)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "班次已被其他人修改，请刷新后重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 移动班次时新旧两个时间段的缓存都要失效
	from := shift.StartTime
	if updated.StartTime.Before(from) {
		from = updated.StartTime
	}
	to := shift.EndTime
	if updated.EndTime.After(to) {
		to = updated.EndTime
	}
	h.invalidateShiftViews(updated.LocationID, from, to)

	h.successResponse(w, r, "更新班次成功", updated)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	if err := h.repository.DeleteShift(r.Context(), shift.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.invalidateShiftViews(shift.LocationID, shift.StartTime, shift.EndTime)

	h.successResponse(w, r, "删除班次成功", nil)
}

func (h *Handler) ValidateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StaffID   int64     `json:"staffID" validate:"required"`
		StartTime time.Time `json:"startTime" validate:"required"`
		EndTime   time.Time `json:"endTime" validate:"required"`
		ExcludeID int64     `json:"excludeID"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	start := h.grid.SnapToGrid(req.StartTime)
	end := h.grid.SnapToGrid(req.EndTime)

	result, err := h.validatePlacement(r.Context(), req.StaffID, start, end, req.ExcludeID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "校验完成", result)
}

func (h *Handler) PublishShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	if shift.Status != domain.ShiftStatusDraft {
		h.errorResponse(w, r, "只有草稿班次可以发布")
		return
	}

	status := domain.ShiftStatusPublished
	updated, err := h.repository.UpdateShift(r.Context(), shift.ID, &domain.ShiftPatch{Status: &status})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "班次已被其他人修改，请刷新后重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	staff, err := h.repository.GetStaffByID(updated.StaffID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 准备通知邮件，时间转换成门店本地时间展示
	mailMessage := domain.MailMessage{
		Type: "shift_published",
		To:   staff.Email,
		Data: domain.ShiftPublishedMailData{
			FullName:  staff.FullName,
			StartTime: updated.StartTime.In(h.grid.Location()).Format("2006-01-02 15:04"),
			EndTime:   updated.EndTime.In(h.grid.Location()).Format("2006-01-02 15:04"),
			Note:      updated.Note,
		},
	}

	mailData, err := json.Marshal(mailMessage)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.mailChannel.PublishWithContext(
		ctx,
		"",
		"notify_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.invalidateShiftViews(updated.LocationID, updated.StartTime, updated.EndTime)

	h.successResponse(w, r, "发布班次成功", updated)
}
