package daygrid

import (
	"time"

	"github.com/myfan-dev/myfan/console/internal/domain"
)

type Placement struct {
	Booking   *domain.Booking
	StartSlot int
	EndSlot   int
	TopPx     float64
	HeightPx  int
}

// Top 返回块相对于整个时间格顶部的位置
func (p Placement) Top() float64 {
	return float64(p.StartSlot*SlotHeightPx) + p.TopPx
}

// Unplaced 是属于当天但无法画出的预约：结束时间在另一天，
// 或者结束格子不晚于开始格子
type Unplaced struct {
	Booking *domain.Booking
	Reason  string
}

type Result struct {
	Placements []Placement
	Unplaced   []Unplaced
}

const (
	ReasonCrossesMidnight = "日付をまたぐ予約"
	ReasonNoSpan          = "終了時刻が開始時刻と同じ枠以前の予約"
)

// Place 计算某位员工在 day 当天的预约布局。
// 只考虑分配给 staffID 且开始日期（按 day 的时区）等于 day 的预约
func Place(day time.Time, staffID int64, bookings []domain.Booking) Result {
	return place(day, bookings, func(b *domain.Booking) bool {
		return b.HasStaff(staffID)
	})
}

func place(day time.Time, bookings []domain.Booking, match func(*domain.Booking) bool) Result {
	loc := day.Location()

	type candidate struct {
		booking *domain.Booking
		from    time.Time
		to      time.Time
	}

	var (
		candidates []candidate
		result     Result
	)
	for i := range bookings {
		b := &bookings[i]
		if !match(b) {
			continue
		}
		from := b.FromAt.In(loc)
		if !sameDate(from, day) {
			continue
		}
		to := b.ToAt.In(loc)
		switch {
		case !sameDate(to, day):
			result.Unplaced = append(result.Unplaced, Unplaced{Booking: b, Reason: ReasonCrossesMidnight})
		case SlotOf(to) <= SlotOf(from):
			result.Unplaced = append(result.Unplaced, Unplaced{Booking: b, Reason: ReasonNoSpan})
		default:
			candidates = append(candidates, candidate{booking: b, from: from, to: to})
		}
	}

	// 每个预约只会在 i == startSlot 的那一行出现一次
	for i := 0; i < SlotsPerDay; i++ {
		for _, c := range candidates {
			startSlot := SlotOf(c.from)
			if i != startSlot {
				continue
			}
			endSlot := SlotOf(c.to)
			result.Placements = append(result.Placements, Placement{
				Booking:   c.booking,
				StartSlot: startSlot,
				EndSlot:   endSlot,
				TopPx:     OffsetPx(c.from),
				HeightPx:  (endSlot - startSlot) * SlotHeightPx,
			})
		}
	}

	return result
}
