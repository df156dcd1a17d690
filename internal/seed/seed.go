package seed

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/rosterline-dev/rosterline/backend/internal/config"
	"github.com/rosterline-dev/rosterline/backend/internal/repository"
	"github.com/rosterline-dev/rosterline/backend/internal/timegrid"
	"github.com/rosterline-dev/rosterline/backend/internal/utils"
)

// SeedStaff 插入 n 个随机员工，并为每个员工生成加班配置和时薪历史
func SeedStaff(repo *repository.Repository, cfg *config.Config, n int) {
	location, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		slog.Error("无法加载门店时区", "error", err)
		return
	}

	cnt := 0
	for i := 0; i < n; i++ {
		staff, err := utils.GenerateRandomStaff(cfg.Seed.Staff.Password, cfg.Email.StaffDomain)
		if err != nil {
			slog.Error("无法生成随机员工", slog.String("error", err.Error()))
			continue
		}

		if err := repo.CreateStaff(staff); err != nil {
			slog.Error("无法插入员工", slog.String("error", err.Error()))
			continue
		}

		overtimeCfg := utils.GenerateRandomOvertimeConfig(staff.ID, location)
		if err := repo.UpsertOvertimeConfig(overtimeCfg); err != nil {
			slog.Error("无法插入加班配置", slog.String("error", err.Error()))
			continue
		}

		for _, entry := range utils.GenerateRandomRateHistory(staff.ID, rand.Intn(3)+1, location) {
			if err := repo.CreateRateHistoryEntry(entry); err != nil {
				slog.Error("无法插入时薪记录", slog.String("error", err.Error()))
			}
		}

		cnt++
	}

	slog.Info("插入员工成功", slog.Int("count", cnt))
}

// SeedShifts 为所有员工生成从下周一开始一周的随机班次
func SeedShifts(repo *repository.Repository, cfg *config.Config, locationID int64) {
	grid, err := timegrid.NewGrid(cfg)
	if err != nil {
		slog.Error("无法创建时间网格", "error", err)
		return
	}

	staffList, err := repo.GetAllStaff()
	if err != nil {
		slog.Error("无法获取员工列表", slog.String("error", err.Error()))
		return
	}

	// 下周一的零点
	now := time.Now().In(grid.Location())
	weekStart := grid.DayStart(now).AddDate(0, 0, 7-((int(now.Weekday())-int(time.Monday)+7)%7))

	cnt := 0
	for _, staff := range staffList {
		for day := 0; day < 7; day++ {
			// 不是每个人每天都有班
			if rand.Intn(10) < 4 {
				continue
			}

			shift := utils.GenerateRandomShift(staff.ID, locationID, weekStart.AddDate(0, 0, day), grid.Location())
			if _, err := repo.CreateShift(context.Background(), shift); err != nil {
				slog.Error("无法插入班次", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}
	}

	slog.Info("插入班次成功", slog.Int("count", cnt))
}
