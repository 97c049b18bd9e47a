package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/myfan-dev/myfan/console/internal/domain"
	"github.com/myfan-dev/myfan/console/internal/repository"
	"github.com/myfan-dev/myfan/console/internal/view"
)

type storesData struct {
	Query  string
	Stores []domain.Store
	Total  int
}

func (h *Handler) GetStores(w http.ResponseWriter, r *http.Request) {
	stores, err := clientFrom(r).ListStores(r.Context())
	if err != nil {
		h.apiFailure(w, r, err)
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	h.render(w, r, http.StatusOK, "stores.html", &page{
		Title: "店舗一覧",
		Data: &storesData{
			Query:  q,
			Stores: view.FilterStores(stores, q),
			Total:  len(stores),
		},
	})
}

func (h *Handler) NewStorePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "store_form.html", &page{Title: "店舗の作成", Data: &domain.StoreInput{}})
}

func parseStoreForm(r *http.Request) domain.StoreInput {
	return domain.StoreInput{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		NameRuby:    strings.TrimSpace(r.PostFormValue("name_ruby")),
		PostalCode:  strings.TrimSpace(r.PostFormValue("postal_code")),
		Prefecture:  strings.TrimSpace(r.PostFormValue("prefecture")),
		Street:      strings.TrimSpace(r.PostFormValue("street")),
		Address:     strings.TrimSpace(r.PostFormValue("address")),
		Building:    strings.TrimSpace(r.PostFormValue("building")),
		PhoneNumber: strings.TrimSpace(r.PostFormValue("phone_number")),
	}
}

func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request) {
	in := parseStoreForm(r)
	if err := h.validate.Struct(in); err != nil {
		h.render(w, r, http.StatusBadRequest, "store_form.html", &page{Title: "店舗の作成", Error: h.translateError(err), Data: &in})
		return
	}

	store, err := clientFrom(r).CreateStore(r.Context(), in)
	if err != nil {
		h.mutationFailure(w, r, "/stores/new", "店舗の作成", err)
		return
	}

	h.audit(r, repository.NewAuditEvent(repository.ActionStoreCreated, store.ID, store.ID, stateFrom(r).Email, in))
	h.redirectWithFlash(w, r, fmt.Sprintf("/stores/%d/bookings", store.ID), "店舗を作成しました")
}

type meData struct {
	Me          *domain.Me
	Attribute   domain.StaffAttribute
	Permissions []string
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	me, err := clientFrom(r).Me(r.Context(), storeFrom(r).ID)
	if err != nil {
		h.apiFailure(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "me.html", &page{
		Title: "アカウント",
		Data: &meData{
			Me:          me,
			Attribute:   me.Attribute(),
			Permissions: me.Permissions,
		},
	})
}

type activityData struct {
	Enabled bool
	Events  []*repository.AuditEvent
}

func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	data := &activityData{Enabled: h.repository.Enabled()}

	events, err := h.repository.GetRecentAuditEvents(storeFrom(r).ID, 100)
	if err != nil {
		h.serverErrorPage(w, r, err)
		return
	}
	data.Events = events

	h.render(w, r, http.StatusOK, "activity.html", &page{Title: "操作履歴", Data: data})
}

// audit 记录一次成功的修改，写入失败只记录日志，不影响用户的操作
func (h *Handler) audit(r *http.Request, event repository.AuditEvent) {
	if err := h.repository.InsertAuditEvent(&event); err != nil {
		slog.Error("无法写入操作记录", "action", event.Action, "request_id", requestIDFrom(r), "error", err)
	}
}
