package handler

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/myfan-dev/myfan/console/internal/apiclient"
	"github.com/myfan-dev/myfan/console/internal/domain"
	"github.com/myfan-dev/myfan/console/internal/session"
)

//go:embed templates
var templatesFS embed.FS

var pageNames = []string{
	"login.html",
	"password_reset_request.html",
	"password_reset_verify.html",
	"stores.html",
	"store_form.html",
	"me.html",
	"activity.html",
	"customers.html",
	"customer.html",
	"customer_form.html",
	"bookings.html",
	"booking_form.html",
	"error.html",
}

// page 是所有页面模板共用的数据
type page struct {
	Title    string
	State    *session.AppState
	Store    *domain.Store
	Flash    string
	Warnings []string
	Error    string
	Data     any
}

func parsePages(loc *time.Location) (map[string]*template.Template, error) {
	local := func(v any) time.Time {
		switch t := v.(type) {
		case domain.Timestamp:
			return t.In(loc)
		case *domain.Timestamp:
			if t == nil {
				return time.Time{}
			}
			return t.In(loc)
		case time.Time:
			return t.In(loc)
		default:
			return time.Time{}
		}
	}

	funcs := template.FuncMap{
		"date": func(v any) string {
			t := local(v)
			if t.IsZero() {
				return ""
			}
			return t.Format("2006/01/02")
		},
		"datetime": func(v any) string {
			t := local(v)
			if t.IsZero() {
				return ""
			}
			return t.Format("2006/01/02 15:04")
		},
		"clock":     func(v any) string { return local(v).Format("15:04") },
		"dateInput": func(v any) string { return local(v).Format("2006-01-02") },
		"px":        func(f float64) string { return fmt.Sprintf("%.2f", f) },
		"hasID":     func(ids []int64, id int64) bool { return slices.Contains(ids, id) },
		"join":      strings.Join,
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("解析模板 %s 失败: %w", name, err)
		}
		pages[name] = tpl
	}
	return pages, nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, p *page) {
	tpl, ok := h.pages[name]
	if !ok {
		h.logInternalServerError(r, fmt.Errorf("模板 %s 不存在", name))
		http.Error(w, "サーバーエラーが発生しました", http.StatusInternalServerError)
		return
	}

	p.State = stateFrom(r)
	if p.Store == nil {
		p.Store = storeFrom(r)
	}
	if p.State != nil && p.State.Flash != "" {
		flash, err := h.sessions.PopFlash(r.Context(), p.State)
		if err != nil {
			slog.Warn("无法清除提示消息", "request_id", requestIDFrom(r), "error", err)
		}
		p.Flash = flash
	}

	// 先渲染到缓冲区，避免模板出错时输出半个页面
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, p); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "サーバーエラーが発生しました", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) errorPage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.render(w, r, status, "error.html", &page{Title: "エラー", Error: msg})
}

func (h *Handler) serverErrorPage(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.errorPage(w, r, http.StatusInternalServerError, "サーバーエラーが発生しました")
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// apiFailure 处理读取数据时后端返回的错误，401 视为登录过期
func (h *Handler) apiFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apiclient.IsUnauthorized(err):
		h.sessionExpired(w, r)
	case apiclient.IsNotFound(err):
		if wantsJSON(r) {
			h.errorResponse(w, r, "データが見つかりません")
			return
		}
		h.errorPage(w, r, http.StatusNotFound, "データが見つかりません")
	default:
		if wantsJSON(r) {
			h.internalServerError(w, r, err)
			return
		}
		h.logInternalServerError(r, err)
		h.errorPage(w, r, http.StatusBadGateway, "予約サーバーとの通信に失敗しました")
	}
}

// sessionExpired 清除会话并回到登录页
func (h *Handler) sessionExpired(w http.ResponseWriter, r *http.Request) {
	if state := stateFrom(r); state != nil {
		if err := h.sessions.Delete(r.Context(), state.ID); err != nil {
			slog.Warn("无法删除会话", "request_id", requestIDFrom(r), "error", err)
		}
	}
	h.clearSessionCookie(w)

	if wantsJSON(r) {
		h.writeJSON(w, r, http.StatusUnauthorized, Response{Success: false, Message: "ログインしてください"})
		return
	}
	http.Redirect(w, r, "/auth/login?expired=1", http.StatusSeeOther)
}

// redirectWithFlash 实现 PRG：保存提示消息后重定向
func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, msg string) {
	if state := stateFrom(r); state != nil && msg != "" {
		if err := h.sessions.SetFlash(r.Context(), state, msg); err != nil {
			slog.Warn("无法保存提示消息", "request_id", requestIDFrom(r), "error", err)
		}
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// mutationFailure 处理修改数据时的错误，错误信息以提示消息的形式显示在原来的页面上
func (h *Handler) mutationFailure(w http.ResponseWriter, r *http.Request, back, action string, err error) {
	if apiclient.IsUnauthorized(err) {
		h.sessionExpired(w, r)
		return
	}

	slog.Error("后端拒绝了操作", "action", action, "request_id", requestIDFrom(r), "status", apiclient.StatusCode(err), "error", err)

	msg := action + "に失敗しました"
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Detail() != "" {
		msg += "：" + apiErr.Detail()
	}
	h.redirectWithFlash(w, r, back, msg)
}

// safeReturn 只接受站内店铺页面的地址，防止开放重定向
func safeReturn(r *http.Request, field, fallback string) string {
	v := r.PostFormValue(field)
	if strings.HasPrefix(v, "/stores/") && !strings.Contains(v, "//") && !strings.Contains(v, `\`) {
		return v
	}
	return fallback
}
