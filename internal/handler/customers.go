package handler

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/myfan-dev/myfan/console/internal/domain"
	"github.com/myfan-dev/myfan/console/internal/repository"
	"github.com/myfan-dev/myfan/console/internal/view"
)

type customersData struct {
	Query     string
	Customers []domain.Customer
	Total     int
}

func (h *Handler) GetCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := clientFrom(r).ListCustomers(r.Context(), storeFrom(r).ID, "")
	if err != nil {
		h.apiFailure(w, r, err)
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	h.render(w, r, http.StatusOK, "customers.html", &page{
		Title: "患者一覧",
		Data: &customersData{
			Query:     q,
			Customers: view.FilterCustomers(customers, q),
			Total:     len(customers),
		},
	})
}

type customerSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	NameRuby string `json:"nameRuby"`
}

// SearchCustomers 供次回予約对话框检索患者，检索由后端完成
func (h *Handler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.successResponse(w, r, "検索しました", []customerSummary{})
		return
	}

	customers, err := clientFrom(r).ListCustomers(r.Context(), storeFrom(r).ID, q)
	if err != nil {
		h.apiFailure(w, r, err)
		return
	}

	result := make([]customerSummary, 0, len(customers))
	for i := range customers {
		result = append(result, customerSummary{
			ID:       customers[i].ID,
			Name:     customers[i].DisplayName(),
			NameRuby: customers[i].Attribute().NameRuby,
		})
	}

	h.successResponse(w, r, "検索しました", result)
}

type customerData struct {
	Customer  *domain.Customer
	Attribute domain.CustomerAttribute
	Bookings  []domain.Booking
	Warning   string
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer := customerFrom(r)
	data := &customerData{Customer: customer, Attribute: customer.Attribute()}
	p := &page{Title: customer.DisplayName(), Data: data}

	// 预约获取失败时仍然显示患者信息
	bookings, err := clientFrom(r).ListBookings(r.Context(), storeFrom(r).ID)
	if err != nil {
		if h.handleUnauthorized(w, r, err) {
			return
		}
		h.logFetchFailure(r, "bookings", err)
		p.Warnings = append(p.Warnings, "予約の取得に失敗しました")
	}
	for _, b := range bookings {
		if b.CustomerID == customer.ID {
			data.Bookings = append(data.Bookings, b)
		}
	}
	// 最近的预约排在前面
	slices.SortFunc(data.Bookings, func(a, b domain.Booking) int {
		return b.FromAt.Compare(a.FromAt.Time)
	})

	h.render(w, r, http.StatusOK, "customer.html", p)
}

type customerFormData struct {
	Customer *domain.Customer
	Input    domain.CustomerInput
	Action   string
	Sexes    []domain.Sex
}

var sexOptions = []domain.Sex{domain.SexMale, domain.SexFemale, domain.SexUnknown}

func (h *Handler) NewCustomerPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "customer_form.html", &page{
		Title: "患者の登録",
		Data: &customerFormData{
			Input:  domain.CustomerInput{Sex: domain.SexUnknown},
			Action: fmt.Sprintf("/stores/%d/customers/new", storeFrom(r).ID),
			Sexes:  sexOptions,
		},
	})
}

func parseCustomerForm(r *http.Request) domain.CustomerInput {
	return domain.CustomerInput{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		NameRuby:    strings.TrimSpace(r.PostFormValue("name_ruby")),
		MailAddress: strings.TrimSpace(r.PostFormValue("mail_address")),
		PhoneNumber: strings.TrimSpace(r.PostFormValue("phone_number")),
		Sex:         domain.Sex(r.PostFormValue("sex")),
		PostalCode:  strings.TrimSpace(r.PostFormValue("postal_code")),
		Prefecture:  strings.TrimSpace(r.PostFormValue("prefecture")),
		Street:      strings.TrimSpace(r.PostFormValue("street")),
		Address:     strings.TrimSpace(r.PostFormValue("address")),
		Building:    strings.TrimSpace(r.PostFormValue("building")),
	}
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r)
	in := parseCustomerForm(r)

	if err := h.validate.Struct(in); err != nil {
		h.render(w, r, http.StatusBadRequest, "customer_form.html", &page{
			Title: "患者の登録",
			Error: h.translateError(err),
			Data: &customerFormData{
				Input:  in,
				Action: fmt.Sprintf("/stores/%d/customers/new", store.ID),
				Sexes:  sexOptions,
			},
		})
		return
	}

	customer, err := clientFrom(r).CreateCustomer(r.Context(), store.ID, in)
	if err != nil {
		h.mutationFailure(w, r, fmt.Sprintf("/stores/%d/customers/new", store.ID), "患者の登録", err)
		return
	}

	h.audit(r, repository.NewAuditEvent(repository.ActionCustomerCreated, store.ID, customer.ID, stateFrom(r).Email, nil))
	h.redirectWithFlash(w, r, fmt.Sprintf("/stores/%d/customers/%d", store.ID, customer.ID), "患者を登録しました")
}

func (h *Handler) EditCustomerPage(w http.ResponseWriter, r *http.Request) {
	customer := customerFrom(r)
	h.render(w, r, http.StatusOK, "customer_form.html", &page{
		Title: "患者情報の編集",
		Data: &customerFormData{
			Customer: customer,
			Input:    domain.NewCustomerInput(customer.Attribute()),
			Action:   fmt.Sprintf("/stores/%d/customers/%d/edit", storeFrom(r).ID, customer.ID),
			Sexes:    sexOptions,
		},
	})
}

func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r)
	customer := customerFrom(r)
	in := parseCustomerForm(r)
	action := fmt.Sprintf("/stores/%d/customers/%d/edit", store.ID, customer.ID)

	if err := h.validate.Struct(in); err != nil {
		h.render(w, r, http.StatusBadRequest, "customer_form.html", &page{
			Title: "患者情報の編集",
			Error: h.translateError(err),
			Data:  &customerFormData{Customer: customer, Input: in, Action: action, Sexes: sexOptions},
		})
		return
	}

	if _, err := clientFrom(r).UpdateCustomer(r.Context(), store.ID, customer.ID, in); err != nil {
		h.mutationFailure(w, r, action, "患者情報の更新", err)
		return
	}

	h.audit(r, repository.NewAuditEvent(repository.ActionCustomerUpdated, store.ID, customer.ID, stateFrom(r).Email, nil))
	h.redirectWithFlash(w, r, fmt.Sprintf("/stores/%d/customers/%d", store.ID, customer.ID), "患者情報を更新しました")
}

func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r)
	customer := customerFrom(r)

	if err := clientFrom(r).DeleteCustomer(r.Context(), store.ID, customer.ID); err != nil {
		h.mutationFailure(w, r, fmt.Sprintf("/stores/%d/customers/%d", store.ID, customer.ID), "患者の削除", err)
		return
	}

	state := stateFrom(r)
	if state.CustomerID == customer.ID {
		state.SelectCustomer(0)
	}

	h.audit(r, repository.NewAuditEvent(repository.ActionCustomerDeleted, store.ID, customer.ID, state.Email, map[string]string{"name": customer.DisplayName()}))
	h.redirectWithFlash(w, r, fmt.Sprintf("/stores/%d/customers", store.ID), "患者を削除しました")
}
