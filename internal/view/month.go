package view

import "time"

type MonthDay struct {
	Date     time.Time
	InMonth  bool
	Selected bool
	Today    bool
}

// Month 是侧边栏的小月历
type Month struct {
	Year     int
	Month    time.Month
	Weeks    [][]MonthDay
	Selected time.Time
}

// NewMonth 生成 selected 所在月份的 6 行 7 列月历，每行从星期日开始
func NewMonth(selected, today time.Time) Month {
	selected = Midnight(selected)
	today = Midnight(today.In(selected.Location()))

	first := time.Date(selected.Year(), selected.Month(), 1, 0, 0, 0, 0, selected.Location())
	start := first.AddDate(0, 0, -int(first.Weekday()))

	m := Month{Year: selected.Year(), Month: selected.Month(), Selected: selected}
	for w := 0; w < 6; w++ {
		week := make([]MonthDay, 7)
		for d := range week {
			date := start.AddDate(0, 0, w*7+d)
			week[d] = MonthDay{
				Date:     date,
				InMonth:  date.Month() == selected.Month(),
				Selected: date.Equal(selected),
				Today:    date.Equal(today),
			}
		}
		m.Weeks = append(m.Weeks, week)
	}
	return m
}

// SetMonth 跳到同一年的另一个月，日期超过该月天数时取月末
func SetMonth(date time.Time, month time.Month) time.Time {
	return clampDate(date.Year(), month, date.Day(), date.Location())
}

func SetYear(date time.Time, year int) time.Time {
	return clampDate(year, date.Month(), date.Day(), date.Location())
}

func AddMonths(date time.Time, n int) time.Time {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location()).AddDate(0, n, 0)
	return clampDate(first.Year(), first.Month(), date.Day(), date.Location())
}

func clampDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func (m Month) PrevMonth() time.Time {
	return AddMonths(m.Selected, -1)
}

func (m Month) NextMonth() time.Time {
	return AddMonths(m.Selected, 1)
}

// YearOptions 返回年份选择器中的 12 个年份
func (m Month) YearOptions() []int {
	years := make([]int, 12)
	for i := range years {
		years[i] = m.Year - 6 + i
	}
	return years
}

func (m Month) MonthOptions() []time.Month {
	months := make([]time.Month, 12)
	for i := range months {
		months[i] = time.Month(i + 1)
	}
	return months
}
