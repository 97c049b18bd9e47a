package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/myfan-dev/myfan/console/internal/domain"
	"github.com/myfan-dev/myfan/console/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookingFormValues(extra url.Values) url.Values {
	form := url.Values{
		"customer_id": {"5"},
		"title":       {"初診"},
		"date":        {"2024-05-02"},
		"time":        {"10:00"},
		"duration":    {"30"},
		"staff":       {"10"},
	}
	for k, v := range extra {
		form[k] = v
	}
	return form
}

func TestGetBookings_DayView(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)

	rr := env.do(http.MethodGet, "/stores/1/bookings?view=day&date=2024-05-01&staff=10&staff=11", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "佐藤 一郎")
	assert.Contains(t, body, "鈴木 二郎")
	assert.Contains(t, body, "山田 花子")
	// 10:00〜10:30 从第 40 格开始占两格
	assert.Contains(t, body, "top: 800.00px; height: 40px")
	// 14:15〜15:00 从第 57 格开始占三格
	assert.Contains(t, body, "top: 1140.00px; height: 60px")
	// 跨过午夜的预约不画在时间格上
	assert.NotContains(t, body, "夜間")
	assert.Contains(t, body, "/stores/1/bookings?booking=100")
}

func TestGetBookings_NoStaffSelected(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)

	rr := env.do(http.MethodGet, "/stores/1/bookings?view=day&date=2024-05-01", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "表示したいスタッフを選択してください。")
	assert.NotContains(t, rr.Body.String(), "初診")
}

func TestGetBookings_UnknownStaffIgnored(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)

	rr := env.do(http.MethodGet, "/stores/1/bookings?view=day&date=2024-05-01&staff=99", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "表示したいスタッフを選択してください。")
}

func TestGetBookings_WeekView(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)

	rr := env.do(http.MethodGet, "/stores/1/bookings?view=week&date=2024-05-01&staff=10,11", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	// 周从星期日开始
	assert.Contains(t, body, "4/28(日)")
	assert.Contains(t, body, "5/4(土)")
	assert.Contains(t, body, "初診")
	assert.Contains(t, body, "再診")
}

func TestGetBookings_ListView(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)

	rr := env.do(http.MethodGet, "/stores/1/bookings?view=list&q=%E5%B1%B1%E7%94%B0", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "初診")
	assert.Contains(t, body, "夜間")
	assert.NotContains(t, body, "再診")
	assert.Contains(t, body, "2 / 3 件")
}

func TestGetBookings_DefaultsToToday(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)

	rr := env.do(http.MethodGet, "/stores/1/bookings", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	// 默认是列表视图，日期为今天
	assert.Contains(t, rr.Body.String(), "date=2024-05-01")
	assert.Contains(t, rr.Body.String(), "初診")
}

func TestGetBookings_PartialFailure(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)
	env.api.fail(http.MethodGet, "/stores/1/customers", http.StatusInternalServerError)

	rr := env.do(http.MethodGet, "/stores/1/bookings?view=day&date=2024-05-01&staff=10", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "患者の取得に失敗しました")
	assert.Contains(t, body, "初診")
	assert.Contains(t, body, domain.NoName)
}

func TestGetBookings_StaffFailureKeepsSelection(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)
	env.api.fail(http.MethodGet, "/stores/1/staffs", http.StatusBadGateway)

	rr := env.do(http.MethodGet, "/stores/1/bookings?view=day&date=2024-05-01&staff=10", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "スタッフの取得に失敗しました")
	assert.Contains(t, body, "staff=10")
}

func TestGetBookings_Unauthorized(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)
	env.api.fail(http.MethodGet, "/stores/1/bookings", http.StatusUnauthorized)

	rr := env.do(http.MethodGet, "/stores/1/bookings?view=day", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth/login?expired=1", rr.Header().Get("Location"))
}

func TestGetBookings_Detail(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)

	rr := env.do(http.MethodGet, "/stores/1/bookings?view=day&date=2024-05-01&staff=10&booking=100", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `role="dialog"`)
	assert.Contains(t, body, "次回予約の作成")
	assert.Contains(t, body, "modal=cancel")
	assert.Contains(t, body, "/stores/1/customers/5")
}

func TestGetBookings_EditModal(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)

	rr := env.do(http.MethodGet, "/stores/1/bookings?view=day&date=2024-05-01&staff=10&booking=100&modal=edit", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `action="/stores/1/bookings/100/edit"`)
	assert.Contains(t, body, `value="2024-05-01"`)
	assert.Contains(t, body, `value="10:00"`)
	assert.Contains(t, body, `value="30"`)
}

func TestGetBookings_NextModal(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)

	rr := env.do(http.MethodGet, "/stores/1/bookings?view=day&date=2024-05-01&staff=10&booking=100&modal=next&nq=%E7%94%B0%E4%B8%AD", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `action="/stores/1/bookings/100/next"`)
	// 默认是当前患者
	assert.Contains(t, body, "患者：山田 花子")
	assert.Contains(t, body, "田中 太郎（患者ID: 6）")
	assert.Contains(t, body, "nc=6")
	// 默认时长为 15 分钟
	assert.Contains(t, body, `value="15"`)
}

func TestGetBookings_EventMissing(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)

	rr := env.do(http.MethodGet, "/stores/1/bookings?view=day&date=2024-05-01&staff=10&booking=999", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "予約詳細の取得に失敗しました")
	assert.NotContains(t, rr.Body.String(), `role="dialog"`)
}

func TestGetBookingGrid(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)

	rr := env.do(http.MethodGet, "/stores/1/bookings/grid?date=2024-05-01&staff=10", nil, cookie, "Accept", "application/json")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool
		Data    struct {
			Columns []struct {
				Title      string
				Placements []struct {
					StartSlot int
					EndSlot   int
					HeightPx  int
				}
			}
			Unplaced []struct {
				Reason string
			}
		}
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.Columns, 1)
	assert.Equal(t, "佐藤 一郎", resp.Data.Columns[0].Title)
	require.Len(t, resp.Data.Columns[0].Placements, 1)
	assert.Equal(t, 40, resp.Data.Columns[0].Placements[0].StartSlot)
	assert.Equal(t, 42, resp.Data.Columns[0].Placements[0].EndSlot)
	require.Len(t, resp.Data.Unplaced, 1)
}

func TestNewBookingPage(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)

	rr := env.do(http.MethodGet, "/stores/1/bookings/new?customer=6&date=2024-05-03", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `<option value="6" selected>`)
	assert.Contains(t, body, `value="2024-05-03"`)
	assert.Contains(t, body, "佐藤 一郎")
}

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)
	cookie, state := env.login(t)

	rr := env.do(http.MethodPost, "/stores/1/bookings/new", bookingFormValues(url.Values{"notify": {"1"}}), cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/stores/1/bookings?view=day&date=2024-05-02", rr.Header().Get("Location"))

	req, ok := env.api.find(http.MethodPost, "/stores/1/bookings")
	require.True(t, ok)
	var sent domain.BookingRequest
	require.NoError(t, json.Unmarshal([]byte(req.Body), &sent))
	assert.Equal(t, int64(5), sent.CustomerID)
	assert.True(t, sent.FromAt.Equal(time.Date(2024, 5, 2, 10, 0, 0, 0, jst)))
	assert.True(t, sent.ToAt.Equal(time.Date(2024, 5, 2, 10, 30, 0, 0, jst)))
	assert.Equal(t, 30, sent.DurationByMinutes)
	assert.Equal(t, []int64{10}, sent.StaffIDs)
	assert.Equal(t, domain.BookingStatusActive, sent.Status)

	// 后端要求必须带上 details
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(req.Body), &raw))
	require.Contains(t, raw, "details")
	assert.JSONEq(t, `{"overview":""}`, string(raw["details"]))

	require.Len(t, env.mail.messages, 1)
	assert.Equal(t, "email_queue", env.mail.keys[0])
	var msg struct {
		Type string                 `json:"type"`
		To   string                 `json:"to"`
		Data domain.BookingMailData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.mail.messages[0].Body, &msg))
	assert.Equal(t, "booking_created", msg.Type)
	assert.Equal(t, "hanako@example.com", msg.To)
	assert.Equal(t, "2024年5月2日（木）", msg.Data.Date)
	assert.Equal(t, "10:00〜10:30", msg.Data.Time)
	assert.Equal(t, "渋谷院", msg.Data.StoreName)

	assert.Equal(t, "予約を作成しました（患者さまに通知しました）", env.flash(t, state))
}

func TestCreateBooking_Validation(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"没有员工", bookingFormValues(url.Values{"staff": nil}), "スタッフ"},
		{"时长太短", bookingFormValues(url.Values{"duration": {"3"}}), "診療時間"},
		{"日期格式错误", bookingFormValues(url.Values{"date": {"2024/05/02"}}), "予約日"},
		{"不属于店铺的员工", bookingFormValues(url.Values{"staff": {"99"}}), "スタッフ 99 はこの店舗に所属していません"},
		{"重复的员工", bookingFormValues(url.Values{"staff": {"10", "10"}}), "スタッフ 10 が重複しています"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			cookie, _ := env.login(t)

			rr := env.do(http.MethodPost, "/stores/1/bookings/new", tt.form, cookie)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.want)

			_, called := env.api.find(http.MethodPost, "/stores/1/bookings")
			assert.False(t, called)
		})
	}
}

func TestUpdateBooking_KeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	cookie, state := env.login(t)

	back := "/stores/1/bookings?booking=100&date=2024-05-01&modal=edit&view=day"
	done := "/stores/1/bookings?booking=100&date=2024-05-01&view=day"
	rr := env.do(http.MethodPost, "/stores/1/bookings/100/edit", bookingFormValues(url.Values{
		"time":   {"11:15"},
		"return": {done},
		"back":   {back},
	}), cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, done, rr.Header().Get("Location"))

	req, ok := env.api.find(http.MethodPut, "/stores/1/bookings/100")
	require.True(t, ok)
	var sent domain.BookingRequest
	require.NoError(t, json.Unmarshal([]byte(req.Body), &sent))
	assert.Equal(t, domain.BookingStatusActive, sent.Status)
	assert.True(t, sent.FromAt.Equal(time.Date(2024, 5, 2, 11, 15, 0, 0, jst)))

	assert.Equal(t, "予約を変更しました", env.flash(t, state))
	assert.Empty(t, env.mail.messages)
}

func TestUpdateBooking_InvalidGoesBack(t *testing.T) {
	env := newTestEnv(t)
	cookie, state := env.login(t)

	back := "/stores/1/bookings?booking=100&modal=edit"
	rr := env.do(http.MethodPost, "/stores/1/bookings/100/edit", bookingFormValues(url.Values{
		"staff": nil,
		"back":  {back},
	}), cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, back, rr.Header().Get("Location"))
	assert.Contains(t, env.flash(t, state), "スタッフ")

	_, called := env.api.find(http.MethodPut, "/stores/1/bookings/100")
	assert.False(t, called)
}

func TestBookingMutation_RejectsExternalReturn(t *testing.T) {
	for _, target := range []string{"https://evil.example.com/", "//evil.example.com/stores/1", "/stores/1//evil", `/stores/1\evil`} {
		env := newTestEnv(t)
		cookie, _ := env.login(t)

		rr := env.do(http.MethodPost, "/stores/1/bookings/100/delete", url.Values{"return": {target}}, cookie)
		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/stores/1/bookings", rr.Header().Get("Location"), target)
	}
}

func TestCancelBooking_Notify(t *testing.T) {
	env := newTestEnv(t)
	cookie, state := env.login(t)

	done := "/stores/1/bookings?date=2024-05-01&view=day"
	rr := env.do(http.MethodPost, "/stores/1/bookings/100/cancel", url.Values{"notify": {"1"}, "return": {done}}, cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, done, rr.Header().Get("Location"))

	req, ok := env.api.find(http.MethodPut, "/stores/1/bookings/100")
	require.True(t, ok)
	var sent domain.BookingRequest
	require.NoError(t, json.Unmarshal([]byte(req.Body), &sent))
	assert.Equal(t, domain.BookingStatusCanceled, sent.Status)
	// 取消不会改动其他字段，events 返回的员工也会保留
	assert.Equal(t, "初診", sent.Title)
	assert.Equal(t, []int64{10}, sent.StaffIDs)

	require.Len(t, env.mail.messages, 1)
	var msg domain.MailMessage
	require.NoError(t, json.Unmarshal(env.mail.messages[0].Body, &msg))
	assert.Equal(t, domain.MailBookingCanceled, msg.Type)
	assert.Equal(t, "hanako@example.com", msg.To)

	assert.Equal(t, "予約をキャンセルしました（患者さまに通知しました）", env.flash(t, state))
}

func TestCancelBooking_WithoutNotify(t *testing.T) {
	env := newTestEnv(t)
	cookie, state := env.login(t)

	rr := env.do(http.MethodPost, "/stores/1/bookings/100/cancel", url.Values{}, cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Empty(t, env.mail.messages)
	assert.Equal(t, "予約をキャンセルしました", env.flash(t, state))
}

func TestCancelBooking_MailQueueDown(t *testing.T) {
	env := newTestEnv(t)
	cookie, state := env.login(t)
	env.mail.err = errors.New("channel closed")

	rr := env.do(http.MethodPost, "/stores/1/bookings/100/cancel", url.Values{"notify": {"1"}}, cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "予約をキャンセルしました（通知メールを送信できませんでした）", env.flash(t, state))
}

func TestCancelBooking_APIError(t *testing.T) {
	env := newTestEnv(t)
	cookie, state := env.login(t)
	env.api.fail(http.MethodPut, "/stores/1/bookings/100", http.StatusConflict)

	back := "/stores/1/bookings?booking=100&modal=cancel"
	rr := env.do(http.MethodPost, "/stores/1/bookings/100/cancel", url.Values{"notify": {"1"}, "back": {back}}, cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, back, rr.Header().Get("Location"))
	assert.Equal(t, "予約のキャンセルに失敗しました：予約が重複しています", env.flash(t, state))
	assert.Empty(t, env.mail.messages)
}

func TestDeleteBooking(t *testing.T) {
	env := newTestEnv(t)
	cookie, state := env.login(t)

	rr := env.do(http.MethodPost, "/stores/1/bookings/100/delete", url.Values{}, cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	_, called := env.api.find(http.MethodDelete, "/stores/1/bookings/100")
	assert.True(t, called)
	assert.Equal(t, "予約を削除しました", env.flash(t, state))
}

func TestDeleteBooking_NotFound(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.login(t)

	rr := env.do(http.MethodPost, "/stores/1/bookings/999/delete", url.Values{}, cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateNextBooking(t *testing.T) {
	env := newTestEnv(t)
	cookie, state := env.login(t)

	rr := env.do(http.MethodPost, "/stores/1/bookings/100/next", bookingFormValues(url.Values{
		"customer_id": {"6"},
		"duration":    {"15"},
		"notify":      {"1"},
	}), cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	req, ok := env.api.find(http.MethodPost, "/stores/1/bookings")
	require.True(t, ok)
	var sent domain.BookingRequest
	require.NoError(t, json.Unmarshal([]byte(req.Body), &sent))
	assert.Equal(t, int64(6), sent.CustomerID)
	assert.Equal(t, 15, sent.DurationByMinutes)
	assert.Contains(t, req.Body, `"details":{"overview":""}`)

	// 田中さん没有登记邮箱
	assert.Empty(t, env.mail.messages)
	assert.Equal(t, "次回予約を作成しました（メールアドレスが登録されていないため通知していません）", env.flash(t, state))
}

func TestBookingsQuery_URL(t *testing.T) {
	env := newTestEnv(t)
	r := httptest.NewRequest(http.MethodGet, "/stores/1/bookings?view=day&date=2024-05-01&staff=10,11&booking=100&modal=next&nc=6&nq=%E7%94%B0", nil)

	bq := env.h.parseBookingsQuery(r, 1)
	assert.Equal(t, view.ModeDay, bq.Calendar.Mode)
	assert.Equal(t, []int64{10, 11}, bq.StaffIDs)
	assert.True(t, bq.Dialog.Is(view.ModalCreatingNext))
	assert.Equal(t, int64(6), bq.NextCustomerID)

	u, err := url.Parse(bq.URL())
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "/stores/1/bookings", u.Path)
	assert.Equal(t, []string{"10", "11"}, q["staff"])
	assert.Equal(t, "next", q.Get("modal"))
	assert.Equal(t, "6", q.Get("nc"))

	// 关闭子对话框时丢弃次回予約的参数
	closed := bq.WithDialog(bq.Dialog.Back())
	q, _ = url.ParseQuery(closed.URL()[len("/stores/1/bookings?"):])
	assert.Equal(t, "100", q.Get("booking"))
	assert.Empty(t, q.Get("modal"))
	assert.Empty(t, q.Get("nc"))
	assert.Empty(t, q.Get("nq"))

	hidden := bq.Hidden("nq")
	for _, f := range hidden {
		assert.NotEqual(t, "nq", f.Name)
	}
	assert.Contains(t, hidden, hiddenField{Name: "modal", Value: "next"})
}

func TestBuildLinks_ClosesDialog(t *testing.T) {
	env := newTestEnv(t)
	r := httptest.NewRequest(http.MethodGet, "/stores/1/bookings?view=day&date=2024-05-31&booking=100", nil)
	bq := env.h.parseBookingsQuery(r, 1)

	links := env.h.buildLinks(bq, view.NewStaffSelection(nil, nil))

	next, err := url.Parse(links.NextMonth)
	require.NoError(t, err)
	// 5 月 31 日的下一个月落在 6 月 30 日
	assert.Equal(t, "2024-06-30", next.Query().Get("date"))
	assert.Empty(t, next.Query().Get("booking"))
	require.Len(t, links.Modes, 3)
	assert.True(t, links.Modes[1].Active)
}
