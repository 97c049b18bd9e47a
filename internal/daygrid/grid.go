package daygrid

import (
	"fmt"
	"time"

	"github.com/myfan-dev/myfan/console/internal/domain"
)

// 没有选择员工时显示的提示
const Placeholder = "表示したいスタッフを選択してください。"

type Row struct {
	Index     int
	HourLabel string
	Heavy     bool
	Light     bool
}

type Column struct {
	Staff      domain.Staff
	Title      string
	Date       time.Time
	Placements []Placement
}

type Grid struct {
	Date        time.Time
	Rows        []Row
	Columns     []Column
	Unplaced    []Unplaced
	Empty       bool
	Placeholder string
	HeightPx    int
}

// Rows 生成 96 行的背景格子，整点行使用粗线并在左侧显示小时
func Rows() []Row {
	rows := make([]Row, SlotsPerDay)
	for i := range rows {
		rows[i] = Row{Index: i}
		if i%SlotsPerHour == 0 {
			rows[i].Heavy = true
			if i != 0 {
				rows[i].HourLabel = fmt.Sprintf("%d時", i/SlotsPerHour)
			}
		} else if i%2 == 0 {
			rows[i].Light = true
		}
	}
	return rows
}

// Build 为每位选中的员工生成一列，列的顺序与 selected 相同
func Build(day time.Time, selected []domain.Staff, bookings []domain.Booking) *Grid {
	g := &Grid{
		Date:     day,
		Rows:     Rows(),
		HeightPx: SlotsPerDay * SlotHeightPx,
	}

	if len(selected) == 0 {
		g.Empty = true
		g.Placeholder = Placeholder
		return g
	}

	seen := make(map[int64]bool)
	for _, staff := range selected {
		result := Place(day, staff.ID, bookings)
		g.Columns = append(g.Columns, Column{
			Staff:      staff,
			Title:      staff.DisplayName(),
			Date:       day,
			Placements: result.Placements,
		})
		for _, u := range result.Unplaced {
			if !seen[u.Booking.ID] {
				seen[u.Booking.ID] = true
				g.Unplaced = append(g.Unplaced, u)
			}
		}
	}

	return g
}

// WeekStart 返回 day 所在周的星期日 0 点
func WeekStart(day time.Time) time.Time {
	y, m, d := day.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// BuildWeek 生成一周七天的列，每列包含分配给任一选中员工的预约，
// 同一个预约即使分配给多位选中的员工也只画一次
func BuildWeek(day time.Time, selected []domain.Staff, bookings []domain.Booking) *Grid {
	start := WeekStart(day)
	g := &Grid{
		Date:     start,
		Rows:     Rows(),
		HeightPx: SlotsPerDay * SlotHeightPx,
	}

	if len(selected) == 0 {
		g.Empty = true
		g.Placeholder = Placeholder
		return g
	}

	ids := make(map[int64]bool, len(selected))
	for _, s := range selected {
		ids[s.ID] = true
	}
	match := func(b *domain.Booking) bool {
		for _, id := range b.AssignedStaffIDs() {
			if ids[id] {
				return true
			}
		}
		return false
	}

	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i)
		result := place(date, bookings, match)
		g.Columns = append(g.Columns, Column{
			Title:      weekdayTitle(date),
			Date:       date,
			Placements: result.Placements,
		})
		g.Unplaced = append(g.Unplaced, result.Unplaced...)
	}

	return g
}

var weekdayNames = [...]string{"日", "月", "火", "水", "木", "金", "土"}

func weekdayTitle(t time.Time) string {
	return fmt.Sprintf("%d/%d(%s)", t.Month(), t.Day(), weekdayNames[t.Weekday()])
}

// Placed 统计布局中画出的预约数
func (g *Grid) Placed() int {
	n := 0
	for _, c := range g.Columns {
		n += len(c.Placements)
	}
	return n
}
