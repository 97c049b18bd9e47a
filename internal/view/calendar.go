package view

import (
	"time"
)

type Mode string

const (
	ModeList Mode = "list"
	ModeDay  Mode = "day"
	ModeWeek Mode = "week"
)

// ParseMode 解析 view 参数，无法识别时使用列表视图
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeDay, ModeWeek:
		return Mode(s)
	default:
		return ModeList
	}
}

func (m Mode) Label() string {
	switch m {
	case ModeDay:
		return "日"
	case ModeWeek:
		return "週"
	default:
		return "リスト"
	}
}

const DateLayout = "2006-01-02"

// Calendar 是预约页面的两个互相独立的状态：视图模式和选中的日期
type Calendar struct {
	Mode Mode
	Date time.Time
}

func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func NewCalendar(mode Mode, date time.Time) Calendar {
	return Calendar{Mode: mode, Date: Midnight(date)}
}

// ParseDate 按 loc 解析 date 参数，参数为空或非法时返回 now 当天
func ParseDate(s string, now time.Time) time.Time {
	if s != "" {
		if t, err := time.ParseInLocation(DateLayout, s, now.Location()); err == nil {
			return t
		}
	}
	return Midnight(now)
}

func (c Calendar) step() int {
	if c.Mode == ModeDay {
		return 1
	}
	return 7
}

func (c Calendar) Prev() Calendar {
	return Calendar{Mode: c.Mode, Date: c.Date.AddDate(0, 0, -c.step())}
}

func (c Calendar) Next() Calendar {
	return Calendar{Mode: c.Mode, Date: c.Date.AddDate(0, 0, c.step())}
}

func (c Calendar) Today(now time.Time) Calendar {
	return Calendar{Mode: c.Mode, Date: Midnight(now.In(c.Date.Location()))}
}

func (c Calendar) Pick(date time.Time) Calendar {
	return Calendar{Mode: c.Mode, Date: Midnight(date.In(c.Date.Location()))}
}

// WithMode 切换视图模式，不会重置选中的日期
func (c Calendar) WithMode(m Mode) Calendar {
	return Calendar{Mode: m, Date: c.Date}
}

func (c Calendar) DateParam() string {
	return c.Date.Format(DateLayout)
}

var weekdayLabels = [...]string{"日曜日", "月曜日", "火曜日", "水曜日", "木曜日", "金曜日", "土曜日"}

// Heading 返回工具栏上显示的日期，日视图显示完整日期，周视图只显示年月
func (c Calendar) Heading() string {
	if c.Mode == ModeDay {
		return c.Date.Format("2006年1月2日") + weekdayLabels[c.Date.Weekday()]
	}
	return c.Date.Format("2006年1月")
}
