package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rosterline-dev/rosterline/backend/internal/domain"
	"github.com/rosterline-dev/rosterline/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	myStaff := r.Context().Value(MyStaffCtx).(*domain.Staff)
	h.successResponse(w, r, "获取个人信息成功", myStaff)
}

func (h *Handler) GetAllStaffInfo(w http.ResponseWriter, r *http.Request) {
	staffList, err := h.repository.GetAllStaff()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取员工列表成功", staffList)
}

func (h *Handler) GetStaffInfo(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffInfoCtx).(*domain.Staff)
	h.successResponse(w, r, "获取员工信息成功", staff)
}

func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required,oneof=员工 店长"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 生成随机密码
	password := utils.GenerateRandomPassword(h.config.NewStaff.PasswordLength)

	// 对密码进行哈希
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 插入员工到数据库中
	staff := &domain.Staff{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         domain.Role(req.Role),
	}

	if err := h.repository.CreateStaff(staff); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "staff_username_key":
				h.badRequest(w, r, errors.New("用户名已存在"))
			case pgErr.ConstraintName == "staff_email_key":
				h.badRequest(w, r, errors.New("邮箱已存在"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 准备邮件
	mailMessage := domain.MailMessage{
		Type: "create_staff",
		To:   staff.Email,
		Data: domain.CreateStaffMailData{
			FullName: req.FullName,
			Username: req.Username,
			Password: password,
		},
	}

	// 对邮件进行序列化
	emailData, err := json.Marshal(mailMessage)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 将邮件发送到消息队列
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
			Body:        emailData,
		},
	); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 成功响应
	h.successResponse(w, r, "员工创建成功", staff)
}

func (h *Handler) GetStaffRates(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffInfoCtx).(*domain.Staff)

	entries, err := h.repository.GetRateHistoryByStaff(staff.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取时薪历史成功", entries)
}

func (h *Handler) CreateStaffRate(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffInfoCtx).(*domain.Staff)

	var req struct {
		HourlyRate    float64 `json:"hourlyRate" validate:"required,gt=0"`
		EffectiveDate string  `json:"effectiveDate" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 生效日期按门店本地时区的零点记录
	effectiveDate, err := time.ParseInLocation("2006-01-02", req.EffectiveDate, h.grid.Location())
	if err != nil {
		h.badRequest(w, r, errors.New("生效日期格式错误"))
		return
	}

	entry := &domain.RateHistoryEntry{
		StaffID:       staff.ID,
		HourlyRate:    req.HourlyRate,
		EffectiveDate: effectiveDate,
	}

	if err := h.repository.CreateRateHistoryEntry(entry); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "添加时薪记录成功", entry)
}

func (h *Handler) GetOvertimeConfig(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffInfoCtx).(*domain.Staff)

	configs, err := h.repository.GetOvertimeConfigs(r.Context(), []int64{staff.ID})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	cfg, ok := configs[staff.ID]
	if !ok {
		h.successResponse(w, r, "该员工尚未配置加班规则", nil)
		return
	}

	h.successResponse(w, r, "获取加班配置成功", cfg)
}

func (h *Handler) UpsertOvertimeConfig(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffInfoCtx).(*domain.Staff)

	var req struct {
		ContractedWeeklyHours *float64 `json:"contractedWeeklyHours" validate:"omitempty,gt=0"`
		OvertimeEnabled       bool     `json:"overtimeEnabled"`
		RuleType              string   `json:"ruleType" validate:"required,oneof=multiplier flat_extra"`
		Multiplier            *float64 `json:"multiplier" validate:"omitempty,gt=0"`
		FlatExtraPerHour      *float64 `json:"flatExtraPerHour" validate:"omitempty,gt=0"`
		PayFrequency          string   `json:"payFrequency" validate:"required,oneof=weekly fortnightly monthly"`
		WeekStartDay          int      `json:"weekStartDay" validate:"gte=0,lte=6"`
		FortnightAnchor       *string  `json:"fortnightAnchor"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	cfg := &domain.OvertimeConfig{
		StaffID:               staff.ID,
		ContractedWeeklyHours: req.ContractedWeeklyHours,
		OvertimeEnabled:       req.OvertimeEnabled,
		RuleType:              domain.OvertimeRuleType(req.RuleType),
		Multiplier:            req.Multiplier,
		FlatExtraPerHour:      req.FlatExtraPerHour,
		PayFrequency:          domain.PayFrequency(req.PayFrequency),
		WeekStartDay:          time.Weekday(req.WeekStartDay),
	}

	if req.FortnightAnchor != nil {
		anchor, err := time.ParseInLocation("2006-01-02", *req.FortnightAnchor, h.grid.Location())
		if err != nil {
			h.badRequest(w, r, errors.New("双周锚点日期格式错误"))
			return
		}
		cfg.FortnightAnchor = &anchor
	}

	if err := h.repository.UpsertOvertimeConfig(cfg); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "保存加班配置成功", cfg)
}
