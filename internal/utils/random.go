package utils

import (
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/rosterline-dev/rosterline/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomStaff(password string, emailDomainName string) (*domain.Staff, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	staff := &domain.Staff{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleStaff,
	}

	return staff, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

var breakOptions = []int32{0, 0, 30, 30, 45, 60}

// GenerateRandomShift 生成某员工在 day 当天的一个随机班次
// 开始时间落在 8 点到 16 点之间，时长 2 到 8 小时，全部对齐到 15 分钟
func GenerateRandomShift(staffID int64, locationID int64, day time.Time, location *time.Location) *domain.Shift {
	local := day.In(location)
	startQuarter := rand.Intn(33)         // 8:00 起，每 15 分钟一档
	durationQuarters := rand.Intn(25) + 8 // 2 到 8 小时
	start := time.Date(local.Year(), local.Month(), local.Day(), 8, 0, 0, 0, location).
		Add(time.Duration(startQuarter) * 15 * time.Minute)
	end := start.Add(time.Duration(durationQuarters) * 15 * time.Minute)

	// 不超出当天
	dayEnd := time.Date(local.Year(), local.Month(), local.Day(), 23, 45, 0, 0, location)
	if end.After(dayEnd) {
		end = dayEnd
	}

	breakMinutes := breakOptions[rand.Intn(len(breakOptions))]
	if float64(breakMinutes) >= end.Sub(start).Minutes() {
		breakMinutes = 0
	}

	return &domain.Shift{
		StaffID:      staffID,
		LocationID:   locationID,
		StartTime:    start.UTC(),
		EndTime:      end.UTC(),
		BreakMinutes: breakMinutes,
		Status:       domain.ShiftStatusDraft,
	}
}

var payFrequencies = []domain.PayFrequency{
	domain.PayFrequencyWeekly,
	domain.PayFrequencyFortnightly,
	domain.PayFrequencyMonthly,
}

// GenerateRandomOvertimeConfig 生成一份随机的加班配置
func GenerateRandomOvertimeConfig(staffID int64, location *time.Location) *domain.OvertimeConfig {
	contracted := float64(rand.Intn(4)*5 + 25) // 25 到 40 小时
	cfg := &domain.OvertimeConfig{
		StaffID:               staffID,
		ContractedWeeklyHours: &contracted,
		OvertimeEnabled:       rand.Intn(4) != 0, // 少数员工不开加班
		PayFrequency:          payFrequencies[rand.Intn(len(payFrequencies))],
		WeekStartDay:          time.Monday,
	}

	if rand.Intn(2) == 0 {
		cfg.RuleType = domain.OvertimeRuleMultiplier
		multiplier := 1.5
		cfg.Multiplier = &multiplier
	} else {
		cfg.RuleType = domain.OvertimeRuleFlatExtra
		extra := float64(rand.Intn(10) + 5)
		cfg.FlatExtraPerHour = &extra
	}

	if cfg.PayFrequency == domain.PayFrequencyFortnightly {
		now := time.Now().In(location)
		anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, location)
		cfg.FortnightAnchor = &anchor
	}

	return cfg
}

// GenerateRandomRateHistory 生成 n 条逐步上涨的时薪记录，最早的一条在一年前生效
func GenerateRandomRateHistory(staffID int64, n int, location *time.Location) []*domain.RateHistoryEntry {
	entries := make([]*domain.RateHistoryEntry, 0, n)
	rate := float64(rand.Intn(15) + 15)
	effective := time.Now().In(location).AddDate(-1, 0, 0)
	effective = time.Date(effective.Year(), effective.Month(), effective.Day(), 0, 0, 0, 0, location)

	for i := 0; i < n; i++ {
		entries = append(entries, &domain.RateHistoryEntry{
			StaffID:       staffID,
			HourlyRate:    rate,
			EffectiveDate: effective,
		})
		rate += float64(rand.Intn(3) + 1)
		effective = effective.AddDate(0, rand.Intn(4)+2, 0)
	}

	return entries
}
