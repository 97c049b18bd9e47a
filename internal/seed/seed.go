// Package seed 通过后端 API 向指定店铺插入随机的患者和预约，用于本地开发和演示
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/myfan-dev/myfan/console/internal/apiclient"
	"github.com/myfan-dev/myfan/console/internal/domain"
	"github.com/myfan-dev/myfan/console/internal/utils"
)

var (
	ErrNoStaff    = errors.New("店铺没有登记员工")
	ErrNoCustomer = errors.New("店铺没有登记患者")
)

type Seeder struct {
	api *apiclient.Client
}

// Login 使用 email 和 password 登录后端，返回带 token 的 Seeder
func Login(ctx context.Context, api *apiclient.Client, email, password string) (*Seeder, error) {
	token, err := api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return &Seeder{api: api.WithToken(token.AccessToken)}, nil
}

// SeedCustomers 插入 n 个随机患者，返回成功插入的数量
func (s *Seeder) SeedCustomers(ctx context.Context, storeID int64, n int, emailDomain string) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("非法的患者数量: %d", n)
	}

	cnt := 0
	for i := 0; i < n; i++ {
		c, err := s.api.CreateCustomer(ctx, storeID, utils.GenerateRandomCustomer(emailDomain))
		if err != nil {
			if apiclient.IsUnauthorized(err) {
				return cnt, err
			}
			slog.Error("无法插入患者", "error", err)
			continue
		}
		slog.Debug("插入患者", "id", c.ID)
		cnt++
	}

	return cnt, nil
}

// SeedBookings 在 day 当天插入 n 个随机预约，患者和员工从店铺现有的数据中随机选择
func (s *Seeder) SeedBookings(ctx context.Context, storeID int64, day time.Time, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("非法的预约数量: %d", n)
	}

	staffs, err := s.api.ListStaffs(ctx, storeID)
	if err != nil {
		return 0, err
	}
	if len(staffs) == 0 {
		return 0, ErrNoStaff
	}
	staffIDs := make([]int64, 0, len(staffs))
	for _, st := range staffs {
		staffIDs = append(staffIDs, st.ID)
	}

	customers, err := s.api.ListCustomers(ctx, storeID, "")
	if err != nil {
		return 0, err
	}
	if len(customers) == 0 {
		return 0, ErrNoCustomer
	}

	cnt := 0
	for i := 0; i < n; i++ {
		customer := customers[rand.Intn(len(customers))]
		req := utils.GenerateRandomBooking(day, customer.ID, staffIDs)
		if _, err := s.api.CreateBooking(ctx, storeID, req); err != nil {
			if apiclient.IsUnauthorized(err) {
				return cnt, err
			}
			// 和已有预约重叠时后端会拒绝，跳过即可
			slog.Warn("无法插入预约", "customer", customer.ID, "error", err)
			continue
		}
		cnt++
	}

	return cnt, nil
}

// Bookings 列出 day 当天的预约，用于插入后确认结果
func (s *Seeder) Bookings(ctx context.Context, storeID int64, day time.Time) ([]domain.Booking, error) {
	all, err := s.api.ListBookings(ctx, storeID)
	if err != nil {
		return nil, err
	}
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var out []domain.Booking
	for _, b := range all {
		if b.FromAt.Before(end) && b.ToAt.After(start) {
			out = append(out, b)
		}
	}
	return out, nil
}
