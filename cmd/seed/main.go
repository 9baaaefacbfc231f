package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/airport-ops-dev/roster-manager/backend/internal/config"
	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
	"github.com/airport-ops-dev/roster-manager/backend/internal/repository"
	"github.com/airport-ops-dev/roster-manager/backend/internal/seed"
	"github.com/airport-ops-dev/roster-manager/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机单位及班次定义, 3: 插入随机轮换模板, 4: 插入演示数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(user); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入用户成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的单位数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				unit := utils.GenerateRandomUnit()
				if err := repo.CreateUnit(unit); err != nil {
					slog.Error("无法插入单位", slog.String("error", err.Error()))
					continue
				}

				for _, sd := range utils.GenerateStandardShiftDefinitions(unit.ID) {
					if err := repo.CreateShiftDefinition(sd); err != nil {
						slog.Error("无法插入班次定义", slog.String("error", err.Error()))
					}
				}

				cnt--
			}

			slog.Info("插入单位成功", slog.Int("count", n-cnt))
		}
	case 3:
		if n <= 0 {
			slog.Error("请输入合法的模板数量")
		} else {
			// 先获取所有单位，模板的班次定义从随机单位中取
			units, err := repo.GetAllUnits()
			if err != nil {
				slog.Error("无法获取单位列表", slog.String("error", err.Error()))
				return
			}
			if len(units) == 0 {
				slog.Error("数据库中没有单位，请先执行 -op 2")
				return
			}

			cnt := n
			for i := 0; i < n; i++ {
				unit := units[i%len(units)]
				sds, err := repo.GetShiftDefinitionsByUnitID(unit.ID)
				if err != nil || len(sds) == 0 {
					slog.Error("无法获取班次定义", slog.Int64("unit_id", unit.ID))
					continue
				}

				shiftDefinitions := make([]domain.ShiftDefinition, 0, len(sds))
				for _, sd := range sds {
					shiftDefinitions = append(shiftDefinitions, *sd)
				}

				rt := utils.GenerateRandomRosterTemplate(shiftDefinitions)
				if err := repo.CreateRosterTemplate(rt); err != nil {
					slog.Error("无法插入模板", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入模板成功", slog.Int("count", n-cnt))
		}
	case 4:
		seed.SeedDemoData(repo, cfg.Seed.User.Password, cfg.Email.UserDomain)
	default:
		slog.Error("指定的操作非法")
	}
}
