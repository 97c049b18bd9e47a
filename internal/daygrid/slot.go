// Package daygrid 负责日视图和周视图时间格的布局计算。
//
// 一天被分成 96 个 15 分钟的格子。预约从开始时间所在的格子画起，
// 在格子内按剩余的分钟数向下偏移，一直延伸到结束时间所在的格子。
package daygrid

import "time"

const (
	SlotsPerDay  = 96
	SlotMinutes  = 15
	SlotsPerHour = 60 / SlotMinutes
	SlotHeightPx = 20
)

// SlotOf 返回 t 的时分所在的格子，日期部分被忽略
func SlotOf(t time.Time) int {
	return (t.Hour()*60 + t.Minute()) / SlotMinutes
}

// OffsetPx 返回 t 在所在格子内的纵向偏移
func OffsetPx(t time.Time) float64 {
	return float64(t.Minute()%SlotMinutes) / SlotMinutes * SlotHeightPx
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
