package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/myfan-dev/myfan/console/internal/view"
)

// bookingsQuery 是预约页面的全部状态，全部保存在 URL 中，
// 刷新或分享链接都能还原同一个页面
type bookingsQuery struct {
	StoreID        int64
	Calendar       view.Calendar
	StaffIDs       []int64
	Query          string
	Dialog         view.Dialog
	NextCustomerID int64
	NextQuery      string
}

func parseIDs(values []string) []int64 {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err == nil && id > 0 {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (h *Handler) parseBookingsQuery(r *http.Request, storeID int64) bookingsQuery {
	q := r.URL.Query()
	now := h.now().In(h.location)

	bookingID, _ := strconv.ParseInt(q.Get("booking"), 10, 64)
	nextCustomerID, _ := strconv.ParseInt(q.Get("nc"), 10, 64)

	return bookingsQuery{
		StoreID:        storeID,
		Calendar:       view.NewCalendar(view.ParseMode(q.Get("view")), view.ParseDate(q.Get("date"), now)),
		StaffIDs:       parseIDs(q["staff"]),
		Query:          strings.TrimSpace(q.Get("q")),
		Dialog:         view.NewDialog(bookingID, view.ParseModal(q.Get("modal"))),
		NextCustomerID: nextCustomerID,
		NextQuery:      strings.TrimSpace(q.Get("nq")),
	}
}

func (bq bookingsQuery) values() url.Values {
	v := url.Values{}
	v.Set("view", string(bq.Calendar.Mode))
	v.Set("date", bq.Calendar.DateParam())
	for _, id := range bq.StaffIDs {
		v.Add("staff", strconv.FormatInt(id, 10))
	}
	if bq.Query != "" {
		v.Set("q", bq.Query)
	}
	if bq.Dialog.IsOpen() {
		v.Set("booking", strconv.FormatInt(bq.Dialog.BookingID, 10))
		if m := bq.Dialog.Modal.String(); m != "" {
			v.Set("modal", m)
		}
		// 只有次回予約对话框使用这两个参数
		if bq.Dialog.Is(view.ModalCreatingNext) {
			if bq.NextCustomerID > 0 {
				v.Set("nc", strconv.FormatInt(bq.NextCustomerID, 10))
			}
			if bq.NextQuery != "" {
				v.Set("nq", bq.NextQuery)
			}
		}
	}
	return v
}

func (bq bookingsQuery) URL() string {
	return fmt.Sprintf("/stores/%d/bookings?%s", bq.StoreID, bq.values().Encode())
}

type hiddenField struct {
	Name  string
	Value string
}

// Hidden 把当前状态展开成 GET 表单的隐藏字段，skip 中的参数由表单自己提交
func (bq bookingsQuery) Hidden(skip ...string) []hiddenField {
	v := bq.values()
	for _, name := range skip {
		v.Del(name)
	}

	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	slices.Sort(names)

	fields := []hiddenField{}
	for _, name := range names {
		for _, value := range v[name] {
			fields = append(fields, hiddenField{Name: name, Value: value})
		}
	}
	return fields
}

func (bq bookingsQuery) WithCalendar(c view.Calendar) bookingsQuery {
	bq.Calendar = c
	return bq
}

func (bq bookingsQuery) WithDate(t time.Time) bookingsQuery {
	bq.Calendar = bq.Calendar.Pick(t)
	return bq
}

func (bq bookingsQuery) WithStaff(ids []int64) bookingsQuery {
	bq.StaffIDs = ids
	return bq
}

func (bq bookingsQuery) WithDialog(d view.Dialog) bookingsQuery {
	bq.Dialog = d
	if !d.Is(view.ModalCreatingNext) {
		bq.NextCustomerID = 0
		bq.NextQuery = ""
	}
	return bq
}

func (bq bookingsQuery) WithNextCustomer(id int64) bookingsQuery {
	bq.NextCustomerID = id
	bq.NextQuery = ""
	return bq
}

// navLink 是工具栏、月历等处的链接
type navLink struct {
	Label  string
	URL    string
	Active bool
}

type staffToggle struct {
	ID       int64
	Name     string
	Selected bool
	URL      string
}

type monthCell struct {
	view.MonthDay
	URL string
}

type bookingsLinks struct {
	Prev       string
	Next       string
	Today      string
	Modes      []navLink
	PrevMonth  string
	NextMonth  string
	Years      []navLink
	Months     []navLink
	MonthCells [][]monthCell
	ToggleAll  string
	Staff      []staffToggle
}

func (h *Handler) buildLinks(bq bookingsQuery, sel view.StaffSelection) bookingsLinks {
	now := h.now().In(h.location)
	cal := bq.Calendar
	// 切换日期、视图和员工时关闭对话框
	base := bq.WithDialog(view.Dialog{})

	links := bookingsLinks{
		Prev:      base.WithCalendar(cal.Prev()).URL(),
		Next:      base.WithCalendar(cal.Next()).URL(),
		Today:     base.WithCalendar(cal.Today(now)).URL(),
		ToggleAll: base.WithStaff(sel.ToggleAll().IDs()).URL(),
	}

	for _, m := range []view.Mode{view.ModeList, view.ModeDay, view.ModeWeek} {
		links.Modes = append(links.Modes, navLink{
			Label:  m.Label(),
			URL:    base.WithCalendar(cal.WithMode(m)).URL(),
			Active: cal.Mode == m,
		})
	}

	month := view.NewMonth(cal.Date, now)
	links.PrevMonth = base.WithDate(month.PrevMonth()).URL()
	links.NextMonth = base.WithDate(month.NextMonth()).URL()
	for _, y := range month.YearOptions() {
		links.Years = append(links.Years, navLink{
			Label:  fmt.Sprintf("%d年", y),
			URL:    base.WithDate(view.SetYear(cal.Date, y)).URL(),
			Active: y == month.Year,
		})
	}
	for _, m := range month.MonthOptions() {
		links.Months = append(links.Months, navLink{
			Label:  fmt.Sprintf("%d月", int(m)),
			URL:    base.WithDate(view.SetMonth(cal.Date, m)).URL(),
			Active: m == month.Month,
		})
	}
	for _, week := range month.Weeks {
		cells := make([]monthCell, len(week))
		for i, d := range week {
			cells[i] = monthCell{MonthDay: d, URL: base.WithDate(d.Date).URL()}
		}
		links.MonthCells = append(links.MonthCells, cells)
	}

	for _, s := range sel.Roster() {
		links.Staff = append(links.Staff, staffToggle{
			ID:       s.ID,
			Name:     s.DisplayName(),
			Selected: sel.IsSelected(s.ID),
			URL:      base.WithStaff(sel.Toggle(s.ID).IDs()).URL(),
		})
	}

	return links
}
