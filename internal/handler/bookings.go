package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/myfan-dev/myfan/console/internal/apiclient"
	"github.com/myfan-dev/myfan/console/internal/daygrid"
	"github.com/myfan-dev/myfan/console/internal/domain"
	"github.com/myfan-dev/myfan/console/internal/repository"
	"github.com/myfan-dev/myfan/console/internal/utils"
	"github.com/myfan-dev/myfan/console/internal/view"
	"golang.org/x/sync/errgroup"
)

// 没有员工信息时显示的名字
const noStaffInfo = "スタッフ情報がありません"

type bookingDetail struct {
	Booking      *domain.Booking
	Customer     *domain.Customer
	CustomerName string
	CustomerURL  string
	StaffNames   []string
	Dialog       view.Dialog

	CloseURL  string
	BackURL   string
	EditURL   string
	CancelURL string
	DeleteURL string
	NextURL   string

	CancelAction string
	DeleteAction string
	SearchAction string

	// 提交成功后回到关闭对话框的页面，失败时回到当前对话框
	ReturnURL string
	SelfURL   string

	Form *bookingFormData

	NextCustomerName string
	NextQuery        string
	Candidates       []navLink
	SearchFields     []hiddenField
}

func (d *bookingDetail) ShowsDetail() bool  { return d.Dialog.ShowsDetail() }
func (d *bookingDetail) Editing() bool      { return d.Dialog.Is(view.ModalEditing) }
func (d *bookingDetail) Cancelling() bool   { return d.Dialog.Is(view.ModalCancelling) }
func (d *bookingDetail) Deleting() bool     { return d.Dialog.Is(view.ModalDeleting) }
func (d *bookingDetail) CreatingNext() bool { return d.Dialog.Is(view.ModalCreatingNext) }

type bookingsData struct {
	Query     bookingsQuery
	Calendar  view.Calendar
	Heading   string
	Month     view.Month
	Staff     view.StaffSelection
	Links     bookingsLinks
	Grid      *daygrid.Grid
	Rows      []view.BookingRow
	Total     int
	Detail    *bookingDetail
	NewURL    string
	customers map[int64]*domain.Customer
	query     bookingsQuery
}

// OpenURL 返回打开某个预约详情的链接
func (d *bookingsData) OpenURL(bookingID int64) string {
	return d.query.WithDialog(view.NewDialog(bookingID, view.ModalNone)).URL()
}

func (d *bookingsData) CustomerName(customerID int64) string {
	return d.customers[customerID].DisplayName()
}

func (h *Handler) logFetchFailure(r *http.Request, what string, err error) {
	slog.Warn("获取数据失败", "what", what, "request_id", requestIDFrom(r), "status", apiclient.StatusCode(err), "error", err)
}

// handleUnauthorized 在后端返回 401 时清除会话，返回是否已经处理
func (h *Handler) handleUnauthorized(w http.ResponseWriter, r *http.Request, errs ...error) bool {
	for _, err := range errs {
		if apiclient.IsUnauthorized(err) {
			h.sessionExpired(w, r)
			return true
		}
	}
	return false
}

func (h *Handler) reportUnplaced(r *http.Request, grid *daygrid.Grid) {
	if len(grid.Unplaced) == 0 {
		return
	}
	h.metrics.ObserveUnplaced(len(grid.Unplaced))
	for _, u := range grid.Unplaced {
		slog.Warn("预约无法画在时间格上", "booking", u.Booking.ID, "from", u.Booking.FromAt.Time, "to", u.Booking.ToAt.Time, "reason", u.Reason, "request_id", requestIDFrom(r))
	}
}

func (h *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r)
	client := clientFrom(r)
	bq := h.parseBookingsQuery(r, store.ID)
	ctx := r.Context()

	// 预约、患者和员工并发获取，离开页面时请求随 context 一起取消
	var (
		g             errgroup.Group
		bookings      []domain.Booking
		customers     []domain.Customer
		staffs        []domain.Staff
		event         *domain.Booking
		candidates    []domain.Customer
		bookingsErr   error
		customersErr  error
		staffsErr     error
		eventErr      error
		candidatesErr error
	)

	g.Go(func() error {
		bookings, bookingsErr = client.ListBookings(ctx, store.ID)
		return bookingsErr
	})
	g.Go(func() error {
		customers, customersErr = client.ListCustomers(ctx, store.ID, "")
		return customersErr
	})
	g.Go(func() error {
		staffs, staffsErr = client.ListStaffs(ctx, store.ID)
		return staffsErr
	})
	if bq.Dialog.IsOpen() {
		g.Go(func() error {
			event, eventErr = client.GetEvent(ctx, store.ID, bq.Dialog.BookingID)
			return eventErr
		})
	}
	if bq.Dialog.Is(view.ModalCreatingNext) && bq.NextQuery != "" {
		g.Go(func() error {
			candidates, candidatesErr = client.ListCustomers(ctx, store.ID, bq.NextQuery)
			return candidatesErr
		})
	}
	_ = g.Wait()

	if h.handleUnauthorized(w, r, bookingsErr, customersErr, staffsErr, eventErr, candidatesErr) {
		return
	}

	p := &page{Title: "予約"}
	for _, f := range []struct {
		err  error
		what string
		msg  string
	}{
		{bookingsErr, "bookings", "予約の取得に失敗しました"},
		{customersErr, "customers", "患者の取得に失敗しました"},
		{staffsErr, "staffs", "スタッフの取得に失敗しました"},
		{eventErr, "event", "予約詳細の取得に失敗しました"},
		{candidatesErr, "candidates", "患者の検索に失敗しました"},
	} {
		if f.err != nil {
			h.logFetchFailure(r, f.what, f.err)
			p.Warnings = append(p.Warnings, f.msg)
		}
	}

	sel := view.NewStaffSelection(staffs, bq.StaffIDs)
	// 员工列表获取失败时保留原来的选择，避免链接中丢失 staff 参数
	if staffsErr == nil {
		bq.StaffIDs = sel.IDs()
	}
	if eventErr != nil {
		bq = bq.WithDialog(view.Dialog{})
	}

	byID := domain.CustomersByID(customers)
	data := &bookingsData{
		Query:     bq,
		Calendar:  bq.Calendar,
		Heading:   bq.Calendar.Heading(),
		Month:     view.NewMonth(bq.Calendar.Date, h.now().In(h.location)),
		Staff:     sel,
		Links:     h.buildLinks(bq, sel),
		Total:     len(bookings),
		NewURL:    fmt.Sprintf("/stores/%d/bookings/new?date=%s", store.ID, bq.Calendar.DateParam()),
		customers: byID,
		query:     bq,
	}

	switch bq.Calendar.Mode {
	case view.ModeDay:
		data.Grid = daygrid.Build(bq.Calendar.Date, sel.Selected(), bookings)
	case view.ModeWeek:
		data.Grid = daygrid.BuildWeek(bq.Calendar.Date, sel.Selected(), bookings)
	default:
		data.Rows = view.FilterBookings(bookings, byID, bq.Query)
	}
	if data.Grid != nil {
		h.reportUnplaced(r, data.Grid)
	}

	if event != nil && bq.Dialog.IsOpen() {
		data.Detail = h.buildDetail(bq, event, byID, staffs, candidates)
	}

	p.Data = data
	h.render(w, r, http.StatusOK, "bookings.html", p)
}

func (h *Handler) buildDetail(bq bookingsQuery, event *domain.Booking, byID map[int64]*domain.Customer, roster []domain.Staff, candidates []domain.Customer) *bookingDetail {
	detail := &bookingDetail{
		Booking:      event,
		Customer:     byID[event.CustomerID],
		CustomerName: byID[event.CustomerID].DisplayName(),
		CustomerURL:  fmt.Sprintf("/stores/%d/customers/%d", bq.StoreID, event.CustomerID),
		Dialog:       bq.Dialog,
		CloseURL:     bq.WithDialog(bq.Dialog.Close()).URL(),
		BackURL:      bq.WithDialog(bq.Dialog.Back()).URL(),
		EditURL:      bq.WithDialog(bq.Dialog.Open(view.ModalEditing)).URL(),
		CancelURL:    bq.WithDialog(bq.Dialog.Open(view.ModalCancelling)).URL(),
		DeleteURL:    bq.WithDialog(bq.Dialog.Open(view.ModalDeleting)).URL(),
		NextURL:      bq.WithDialog(bq.Dialog.Open(view.ModalCreatingNext)).URL(),
		ReturnURL:    bq.WithDialog(bq.Dialog.Close()).URL(),
		SelfURL:      bq.URL(),
	}

	for _, s := range event.Staffs {
		name := s.Attribute().Name
		if name == "" {
			name = noStaffInfo
		}
		detail.StaffNames = append(detail.StaffNames, name)
	}
	if len(detail.StaffNames) == 0 {
		detail.StaffNames = []string{noStaffInfo}
	}

	action := func(name string) string {
		return fmt.Sprintf("/stores/%d/bookings/%d/%s", bq.StoreID, event.ID, name)
	}

	detail.CancelAction = action("cancel")
	detail.DeleteAction = action("delete")
	detail.SearchAction = h.bookingsURL(bq.StoreID)

	switch bq.Dialog.Modal {
	case view.ModalEditing:
		detail.Form = newBookingFormData(h.location, action("edit"), event, roster)
	case view.ModalCreatingNext:
		nextCustomerID := bq.NextCustomerID
		if nextCustomerID <= 0 {
			nextCustomerID = event.CustomerID
		}
		next := &domain.Booking{
			CustomerID:        nextCustomerID,
			Title:             event.Title,
			DurationByMinutes: domain.DefaultBookingDuration,
			StaffIDs:          event.AssignedStaffIDs(),
		}
		detail.Form = newBookingFormData(h.location, action("next"), next, roster)
		detail.Form.Date = ""
		detail.Form.Time = ""

		detail.NextCustomerName = byID[nextCustomerID].DisplayName()
		for i := range candidates {
			if candidates[i].ID == nextCustomerID {
				detail.NextCustomerName = candidates[i].DisplayName()
			}
		}
		detail.NextQuery = bq.NextQuery
		detail.SearchFields = bq.Hidden("nq")
		for i := range candidates {
			detail.Candidates = append(detail.Candidates, navLink{
				Label:  fmt.Sprintf("%s（患者ID: %d）", candidates[i].DisplayName(), candidates[i].ID),
				URL:    bq.WithNextCustomer(candidates[i].ID).URL(),
				Active: candidates[i].ID == nextCustomerID,
			})
		}
	}

	return detail
}

// GetBookingGrid 以 JSON 返回某一天的时间格布局
func (h *Handler) GetBookingGrid(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r)
	client := clientFrom(r)
	bq := h.parseBookingsQuery(r, store.ID)
	ctx := r.Context()

	var (
		g        errgroup.Group
		bookings []domain.Booking
		staffs   []domain.Staff
	)
	g.Go(func() error {
		var err error
		bookings, err = client.ListBookings(ctx, store.ID)
		return err
	})
	g.Go(func() error {
		var err error
		staffs, err = client.ListStaffs(ctx, store.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.apiFailure(w, r, err)
		return
	}

	sel := view.NewStaffSelection(staffs, bq.StaffIDs)
	var grid *daygrid.Grid
	if bq.Calendar.Mode == view.ModeWeek {
		grid = daygrid.BuildWeek(bq.Calendar.Date, sel.Selected(), bookings)
	} else {
		grid = daygrid.Build(bq.Calendar.Date, sel.Selected(), bookings)
	}
	h.reportUnplaced(r, grid)

	h.successResponse(w, r, "取得しました", grid)
}

// bookingForm 是新建、修改和次回予約表单提交的内容
type bookingForm struct {
	CustomerID int64   `validate:"required,gt=0" label:"患者"`
	Title      string  `validate:"required,max=255" label:"診療内容"`
	Date       string  `validate:"required,datetime=2006-01-02" label:"予約日"`
	Time       string  `validate:"required,datetime=15:04" label:"開始時刻"`
	Duration   int     `validate:"required,gte=5,lte=720" label:"診療時間"`
	Note       string  `validate:"max=2000" label:"メモ"`
	StaffIDs   []int64 `validate:"required,min=1,dive,gt=0" label:"スタッフ"`
	Notify     bool
}

func parseBookingForm(r *http.Request) bookingForm {
	_ = r.ParseForm()
	customerID, _ := strconv.ParseInt(r.PostFormValue("customer_id"), 10, 64)
	duration, _ := strconv.Atoi(r.PostFormValue("duration"))

	return bookingForm{
		CustomerID: customerID,
		Title:      strings.TrimSpace(r.PostFormValue("title")),
		Date:       strings.TrimSpace(r.PostFormValue("date")),
		Time:       strings.TrimSpace(r.PostFormValue("time")),
		Duration:   duration,
		Note:       strings.TrimSpace(r.PostFormValue("note")),
		StaffIDs:   parseIDs(r.PostForm["staff"]),
		Notify:     r.PostFormValue("notify") != "",
	}
}

// toRequest 按页面时区解释表单中的日期和时间
func (f bookingForm) toRequest(loc *time.Location) (domain.BookingRequest, error) {
	from, err := time.ParseInLocation("2006-01-02 15:04", f.Date+" "+f.Time, loc)
	if err != nil {
		return domain.BookingRequest{}, fmt.Errorf("予約日時の形式が正しくありません")
	}
	return domain.NewBookingRequest(f.CustomerID, f.Title, from, f.Duration, f.Note, f.StaffIDs), nil
}

// validateBookingForm 返回可以直接显示给用户的错误信息
func (h *Handler) validateBookingForm(r *http.Request, f bookingForm) (domain.BookingRequest, []domain.Staff, string) {
	if err := h.validate.Struct(f); err != nil {
		return domain.BookingRequest{}, nil, h.translateError(err)
	}

	req, err := f.toRequest(h.location)
	if err != nil {
		return domain.BookingRequest{}, nil, err.Error()
	}

	roster, err := clientFrom(r).ListStaffs(r.Context(), storeFrom(r).ID)
	if err != nil {
		h.logFetchFailure(r, "staffs", err)
		roster = nil
	}
	if err := utils.ValidateBookingRequest(&req, roster); err != nil {
		return domain.BookingRequest{}, roster, err.Error()
	}

	return req, roster, ""
}

type bookingFormData struct {
	Action     string
	CustomerID int64
	Title      string
	Date       string
	Time       string
	Duration   int
	Note       string
	StaffIDs   []int64
	Notify     bool
	Roster     []domain.Staff
	Customers  []domain.Customer
	Return     string
	Back       string
}

func newBookingFormData(loc *time.Location, action string, b *domain.Booking, roster []domain.Staff) *bookingFormData {
	form := &bookingFormData{
		Action:     action,
		CustomerID: b.CustomerID,
		Title:      b.Title,
		Duration:   b.DurationByMinutes,
		Note:       b.Note,
		StaffIDs:   b.AssignedStaffIDs(),
		Roster:     roster,
	}
	if !b.FromAt.IsZero() {
		from := b.FromAt.In(loc)
		form.Date = from.Format("2006-01-02")
		form.Time = from.Format("15:04")
	}
	if form.Duration <= 0 {
		form.Duration = domain.DefaultBookingDuration
	}
	return form
}

func formDataFrom(f bookingForm, action string, roster []domain.Staff) *bookingFormData {
	return &bookingFormData{
		Action:     action,
		CustomerID: f.CustomerID,
		Title:      f.Title,
		Date:       f.Date,
		Time:       f.Time,
		Duration:   f.Duration,
		Note:       f.Note,
		StaffIDs:   f.StaffIDs,
		Notify:     f.Notify,
		Roster:     roster,
	}
}

func (h *Handler) bookingsURL(storeID int64) string {
	return fmt.Sprintf("/stores/%d/bookings", storeID)
}

// NewBookingPage 显示新建预约的表单，可以通过 customer 和 date 参数预先填写
func (h *Handler) NewBookingPage(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r)
	client := clientFrom(r)
	ctx := r.Context()

	var (
		g         errgroup.Group
		customers []domain.Customer
		staffs    []domain.Staff
	)
	g.Go(func() error {
		var err error
		customers, err = client.ListCustomers(ctx, store.ID, "")
		return err
	})
	g.Go(func() error {
		var err error
		staffs, err = client.ListStaffs(ctx, store.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.apiFailure(w, r, err)
		return
	}

	customerID, _ := strconv.ParseInt(r.URL.Query().Get("customer"), 10, 64)
	if customerID <= 0 {
		customerID = stateFrom(r).CustomerID
	}

	form := newBookingFormData(h.location, fmt.Sprintf("/stores/%d/bookings/new", store.ID), &domain.Booking{CustomerID: customerID}, staffs)
	form.StaffIDs = []int64{}
	form.Date = view.ParseDate(r.URL.Query().Get("date"), h.now().In(h.location)).Format(view.DateLayout)
	form.Customers = customers

	h.render(w, r, http.StatusOK, "booking_form.html", &page{Title: "予約の作成", Data: form})
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r)
	f := parseBookingForm(r)
	action := fmt.Sprintf("/stores/%d/bookings/new", store.ID)

	req, roster, msg := h.validateBookingForm(r, f)
	if msg != "" {
		form := formDataFrom(f, action, roster)
		if customers, err := clientFrom(r).ListCustomers(r.Context(), store.ID, ""); err == nil {
			form.Customers = customers
		}
		h.render(w, r, http.StatusBadRequest, "booking_form.html", &page{Title: "予約の作成", Error: msg, Data: form})
		return
	}

	booking, err := clientFrom(r).CreateBooking(r.Context(), store.ID, req)
	if err != nil {
		h.mutationFailure(w, r, action, "予約の作成", err)
		return
	}

	h.audit(r, repository.NewAuditEvent(repository.ActionBookingCreated, store.ID, booking.ID, stateFrom(r).Email, req))

	flash := "予約を作成しました"
	if f.Notify {
		flash += h.notifyCustomer(r, domain.MailBookingCreated, booking)
	}

	date := booking.FromAt.In(h.location).Format(view.DateLayout)
	h.redirectWithFlash(w, r, fmt.Sprintf("%s?view=day&date=%s", h.bookingsURL(store.ID), date), flash)
}

// notifyCustomer 发送通知并返回附加在提示消息后面的说明
func (h *Handler) notifyCustomer(r *http.Request, kind domain.MailType, b *domain.Booking) string {
	customer, err := clientFrom(r).GetCustomer(r.Context(), storeFrom(r).ID, b.CustomerID)
	if err != nil {
		h.logFetchFailure(r, "customer", err)
		h.metrics.ObserveNotification(string(kind), "failed")
		return "（通知メールを送信できませんでした）"
	}

	if err := h.notifyBooking(r, kind, b, customer); err != nil {
		if errors.Is(err, errNoMailAddress) {
			return "（メールアドレスが登録されていないため通知していません）"
		}
		return "（通知メールを送信できませんでした）"
	}
	return "（患者さまに通知しました）"
}

func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r)
	booking := bookingFrom(r)
	f := parseBookingForm(r)

	fallback := h.bookingsURL(store.ID)
	back := safeReturn(r, "back", fallback)
	done := safeReturn(r, "return", fallback)

	req, _, msg := h.validateBookingForm(r, f)
	if msg != "" {
		h.redirectWithFlash(w, r, back, msg)
		return
	}
	// 修改预约不会改变状态和详情
	req.Status = booking.Status
	if booking.Details != nil {
		req.Details = *booking.Details
	}

	if _, err := clientFrom(r).UpdateBooking(r.Context(), store.ID, booking.ID, req); err != nil {
		h.mutationFailure(w, r, back, "予約の変更", err)
		return
	}

	h.audit(r, repository.NewAuditEvent(repository.ActionBookingUpdated, store.ID, booking.ID, stateFrom(r).Email, req))
	h.redirectWithFlash(w, r, done, "予約を変更しました")
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r)
	booking := bookingFrom(r)

	fallback := h.bookingsURL(store.ID)
	back := safeReturn(r, "back", fallback)
	done := safeReturn(r, "return", fallback)
	notify := r.PostFormValue("notify") != ""

	if booking.IsCanceled() {
		h.redirectWithFlash(w, r, done, "この予約はすでにキャンセルされています")
		return
	}

	if _, err := clientFrom(r).CancelBooking(r.Context(), store.ID, booking); err != nil {
		h.mutationFailure(w, r, back, "予約のキャンセル", err)
		return
	}

	h.audit(r, repository.NewAuditEvent(repository.ActionBookingCanceled, store.ID, booking.ID, stateFrom(r).Email, map[string]bool{"notify": notify}))

	flash := "予約をキャンセルしました"
	if notify {
		// 取消只修改状态，通知中的日期使用取消前的预约
		flash += h.notifyCustomer(r, domain.MailBookingCanceled, booking)
	}
	h.redirectWithFlash(w, r, done, flash)
}

func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r)
	booking := bookingFrom(r)

	fallback := h.bookingsURL(store.ID)
	back := safeReturn(r, "back", fallback)
	done := safeReturn(r, "return", fallback)

	if err := clientFrom(r).DeleteBooking(r.Context(), store.ID, booking.ID); err != nil {
		h.mutationFailure(w, r, back, "予約の削除", err)
		return
	}

	h.audit(r, repository.NewAuditEvent(repository.ActionBookingDeleted, store.ID, booking.ID, stateFrom(r).Email, map[string]string{"title": booking.Title}))
	h.redirectWithFlash(w, r, done, "予約を削除しました")
}

// CreateNextBooking 为同一位或检索到的另一位患者创建下一次预约
func (h *Handler) CreateNextBooking(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r)
	booking := bookingFrom(r)
	f := parseBookingForm(r)

	fallback := h.bookingsURL(store.ID)
	back := safeReturn(r, "back", fallback)
	done := safeReturn(r, "return", fallback)

	if f.CustomerID <= 0 {
		f.CustomerID = booking.CustomerID
	}

	req, _, msg := h.validateBookingForm(r, f)
	if msg != "" {
		h.redirectWithFlash(w, r, back, msg)
		return
	}

	created, err := clientFrom(r).CreateBooking(r.Context(), store.ID, req)
	if err != nil {
		h.mutationFailure(w, r, back, "次回予約の作成", err)
		return
	}

	h.audit(r, repository.NewAuditEvent(repository.ActionBookingCreated, store.ID, created.ID, stateFrom(r).Email, map[string]int64{"previous": booking.ID}))

	flash := "次回予約を作成しました"
	if f.Notify {
		flash += h.notifyCustomer(r, domain.MailBookingCreated, created)
	}
	h.redirectWithFlash(w, r, done, flash)
}
