package view

import (
	"strings"

	"github.com/myfan-dev/myfan/console/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// fold 统一全角、半角字符，使「ﾔﾏﾀﾞ」和「ヤマダ」、「ＡＢＣ」和「ABC」能互相匹配
func fold(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// Contains 判断 haystack 中是否包含 needle，needle 为空时总是匹配
func Contains(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(fold(haystack), fold(needle))
}

func FilterStores(stores []domain.Store, q string) []domain.Store {
	filtered := []domain.Store{}
	for _, s := range stores {
		if Contains(s.Name, q) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// FilterCustomers 按姓名或读音过滤顾客
func FilterCustomers(customers []domain.Customer, q string) []domain.Customer {
	filtered := []domain.Customer{}
	for i := range customers {
		attr := customers[i].Attribute()
		if Contains(attr.Name, q) || Contains(attr.NameRuby, q) {
			filtered = append(filtered, customers[i])
		}
	}
	return filtered
}

// BookingRow 是列表视图中的一行
type BookingRow struct {
	Booking      domain.Booking
	CustomerName string
}

// FilterBookings 按顾客姓名过滤预约，找不到顾客时按「名前がありません」匹配
func FilterBookings(bookings []domain.Booking, customers map[int64]*domain.Customer, q string) []BookingRow {
	rows := []BookingRow{}
	for _, b := range bookings {
		name := domain.NoName
		if c, ok := customers[b.CustomerID]; ok {
			name = c.DisplayName()
		}
		if Contains(name, q) {
			rows = append(rows, BookingRow{Booking: b, CustomerName: name})
		}
	}
	return rows
}
