package handler

import (
	"net/http"

	"github.com/rosterline-dev/rosterline/backend/internal/domain"
)

type costPreview struct {
	Shifts       []domain.CostBreakdown `json:"shifts"`
	RegularCost  float64                `json:"regularCost"`
	OvertimeCost float64                `json:"overtimeCost"`
	TotalCost    float64                `json:"totalCost"`
}

// GetCostPreview 返回某个门店在一段时间内的人力成本预估
// 计算本身在 paycycle 包里，这里只负责凑齐班次、加班配置和时薪历史
func (h *Handler) GetCostPreview(w http.ResponseWriter, r *http.Request) {
	locationID, from, to, err := h.parseRangeParams(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	shifts, err := h.repository.GetShiftsByRange(r.Context(), locationID, from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	seen := make(map[int64]bool)
	staffIDs := make([]int64, 0)
	for _, shift := range shifts {
		if !seen[shift.StaffID] {
			seen[shift.StaffID] = true
			staffIDs = append(staffIDs, shift.StaffID)
		}
	}

	configs, err := h.repository.GetOvertimeConfigs(r.Context(), staffIDs)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	rates, err := h.repository.GetRateHistories(r.Context(), staffIDs, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	breakdowns := h.engine.CostShifts(shifts, configs, rates)

	preview := costPreview{
		Shifts: make([]domain.CostBreakdown, 0, len(breakdowns)),
	}
	for _, shift := range shifts {
		breakdown, ok := breakdowns[shift.ID]
		if !ok {
			continue
		}
		preview.Shifts = append(preview.Shifts, breakdown)
		preview.RegularCost += breakdown.RegularCost
		preview.OvertimeCost += breakdown.OvertimeCost
		preview.TotalCost += breakdown.TotalCost
	}

	h.successResponse(w, r, "获取成本预估成功", preview)
}
