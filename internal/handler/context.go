package handler

import (
	"net/http"

	"github.com/myfan-dev/myfan/console/internal/apiclient"
	"github.com/myfan-dev/myfan/console/internal/domain"
	"github.com/myfan-dev/myfan/console/internal/session"
)

type ContextKey string

var (
	RequestIDCtxKey ContextKey = "requestID"
	StateCtxKey     ContextKey = "state"
	ClientCtxKey    ContextKey = "client"
	StoreCtxKey     ContextKey = "store"
	CustomerCtxKey  ContextKey = "customer"
	BookingCtxKey   ContextKey = "booking"
)

func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(RequestIDCtxKey).(string)
	return id
}

// stateFrom 在未登录的页面上返回 nil
func stateFrom(r *http.Request) *session.AppState {
	state, _ := r.Context().Value(StateCtxKey).(*session.AppState)
	return state
}

func clientFrom(r *http.Request) *apiclient.Client {
	return r.Context().Value(ClientCtxKey).(*apiclient.Client)
}

func storeFrom(r *http.Request) *domain.Store {
	store, _ := r.Context().Value(StoreCtxKey).(*domain.Store)
	return store
}

func customerFrom(r *http.Request) *domain.Customer {
	return r.Context().Value(CustomerCtxKey).(*domain.Customer)
}

func bookingFrom(r *http.Request) *domain.Booking {
	return r.Context().Value(BookingCtxKey).(*domain.Booking)
}
