package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/myfan-dev/myfan/console/internal/domain"
	"github.com/myfan-dev/myfan/console/internal/session"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode  int
	wroteHeader bool
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Started 表示响应头已经发出，之后不能再改状态码
func (rw *ResponseWriter) Started() bool {
	return rw.wroteHeader
}

func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), RequestIDCtxKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// 没有显式调用 WriteHeader 时状态码就是 200
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		h.metrics.ObserveHTTP(r.Method, rw.StatusCode)
		slog.Info("已处理请求", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "request_id", requestIDFrom(r), "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw, ok := w.(*ResponseWriter)
		if !ok {
			rw = &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		}
		defer func() {
			if err := recover(); err != nil {
				switch {
				case rw.Started():
					// 响应已经写出一部分，只能记录日志
					h.logInternalServerError(r, fmt.Errorf("panic: %v", err))
				case wantsJSON(r):
					h.internalServerError(rw, r, fmt.Errorf("panic: %v", err))
				default:
					h.serverErrorPage(rw, r, fmt.Errorf("panic: %v", err))
				}
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(rw, r)
	})
}

func (h *Handler) unauthenticated(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		h.writeJSON(w, r, http.StatusUnauthorized, Response{Success: false, Message: "ログインしてください"})
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 从 cookie 中获取 token
		cookie, err := r.Cookie(h.config.Session.CookieName)
		if err != nil {
			h.unauthenticated(w, r)
			return
		}

		// 验证 token
		claims, err := session.ParseToken(h.config.JWT.Secret, cookie.Value)
		if err != nil {
			h.clearSessionCookie(w)
			h.unauthenticated(w, r)
			return
		}

		// token 有效但会话可能已经过期或被登出
		state, err := h.sessions.Get(r.Context(), claims.ID)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrNotFound):
				h.clearSessionCookie(w)
				h.unauthenticated(w, r)
			default:
				h.serverErrorPage(w, r, err)
			}
			return
		}

		// 将会话和带 token 的客户端附在 context 中
		ctx := r.Context()
		ctx = context.WithValue(ctx, StateCtxKey, state)
		ctx = context.WithValue(ctx, ClientCtxKey, h.api.WithToken(state.AccessToken))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) store(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		storeID, err := strconv.ParseInt(chi.URLParam(r, "storeID"), 10, 64)
		if err != nil {
			h.errorPage(w, r, http.StatusNotFound, "店舗IDが無効です")
			return
		}

		// 后端没有获取单个店铺的接口
		stores, err := clientFrom(r).ListStores(r.Context())
		if err != nil {
			h.apiFailure(w, r, err)
			return
		}

		var store *domain.Store
		for i := range stores {
			if stores[i].ID == storeID {
				store = &stores[i]
				break
			}
		}
		if store == nil {
			h.errorPage(w, r, http.StatusNotFound, "店舗が存在しません")
			return
		}

		// 记录当前选中的店铺
		state := stateFrom(r)
		if state.StoreID != store.ID || state.StoreName != store.Name {
			state.SelectStore(store.ID, store.Name)
			if err := h.sessions.Save(r.Context(), state); err != nil {
				slog.Warn("无法保存选中的店铺", "request_id", requestIDFrom(r), "error", err)
			}
		}

		ctx := context.WithValue(r.Context(), StoreCtxKey, store)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) customer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
		if err != nil {
			h.errorPage(w, r, http.StatusNotFound, "患者IDが無効です")
			return
		}

		customer, err := clientFrom(r).GetCustomer(r.Context(), storeFrom(r).ID, customerID)
		if err != nil {
			h.apiFailure(w, r, err)
			return
		}

		state := stateFrom(r)
		if state.CustomerID != customer.ID {
			state.SelectCustomer(customer.ID)
			if err := h.sessions.Save(r.Context(), state); err != nil {
				slog.Warn("无法保存选中的患者", "request_id", requestIDFrom(r), "error", err)
			}
		}

		ctx := context.WithValue(r.Context(), CustomerCtxKey, customer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) booking(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bookingID, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
		if err != nil {
			h.errorPage(w, r, http.StatusNotFound, "予約IDが無効です")
			return
		}

		// events 接口会带上员工的详细信息
		booking, err := clientFrom(r).GetEvent(r.Context(), storeFrom(r).ID, bookingID)
		if err != nil {
			h.apiFailure(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), BookingCtxKey, booking)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
