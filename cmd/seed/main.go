package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/myfan-dev/myfan/console/internal/apiclient"
	"github.com/myfan-dev/myfan/console/internal/config"
	"github.com/myfan-dev/myfan/console/internal/seed"
)

func main() {
	var op int
	var n int
	var storeID int64
	var date string
	var emailDomain string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机患者, 2: 插入随机预约)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Int64Var(&storeID, "store", 0, "插入数据的店铺 ID")
	flag.StringVar(&date, "date", "", "插入预约的日期 (YYYY-MM-DD)，默认为今天")
	flag.StringVar(&emailDomain, "domain", "example.com", "随机患者邮箱使用的域名")
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.Seed.Email == "" || cfg.Seed.Password == "" {
		logger.Error("请设置 SEED_EMAIL 和 SEED_PASSWORD")
		os.Exit(1)
	}
	if storeID <= 0 {
		logger.Error("请输入合法的店铺 ID")
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("无法加载时区", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	api := apiclient.NewClient(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.Key,
		Timeout: time.Duration(cfg.API.Timeout) * time.Second,
	})
	s, err := seed.Login(ctx, api, cfg.Seed.Email, cfg.Seed.Password)
	if err != nil {
		logger.Error("无法登录后端", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		cnt, err := s.SeedCustomers(ctx, storeID, n, emailDomain)
		if err != nil {
			slog.Error("插入患者失败", slog.String("error", err.Error()))
		}
		slog.Info("插入患者成功", slog.Int("count", cnt))
	case 2:
		day := time.Now().In(loc)
		if date != "" {
			day, err = time.ParseInLocation("2006-01-02", date, loc)
			if err != nil {
				slog.Error("请输入合法的日期", slog.String("date", date))
				return
			}
		}

		cnt, err := s.SeedBookings(ctx, storeID, day, n)
		if err != nil {
			slog.Error("插入预约失败", slog.String("error", err.Error()))
		}
		slog.Info("插入预约成功", slog.Int("count", cnt))

		bookings, err := s.Bookings(ctx, storeID, day)
		if err != nil {
			slog.Error("无法获取预约", slog.String("error", err.Error()))
			return
		}
		slog.Info("当天的预约", slog.String("date", day.Format("2006-01-02")), slog.Int("count", len(bookings)))
	default:
		slog.Error("指定的操作非法")
	}
}
