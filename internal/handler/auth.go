package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/myfan-dev/myfan/console/internal/apiclient"
	"github.com/myfan-dev/myfan/console/internal/domain"
	"github.com/myfan-dev/myfan/console/internal/session"
)

type authForm struct {
	Email   string
	Message string
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, value string, expiration time.Time) {
	// 通过 http-only 的 cookie 返回给客户端
	cookie := &http.Cookie{
		Name:     h.config.Session.CookieName,
		Value:    value,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}

	if h.config.IsProduction() {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.Session.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
	})
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	form := authForm{}
	p := &page{Title: "ログイン", Data: &form}

	switch {
	case r.URL.Query().Get("expired") != "":
		p.Error = "ログインの有効期限が切れました。もう一度ログインしてください"
	case r.URL.Query().Get("reset") != "":
		form.Message = "パスワードを再設定しました。新しいパスワードでログインしてください"
	}

	h.render(w, r, http.StatusOK, "login.html", p)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req := domain.LoginRequest{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	form := &authForm{Email: req.Email}

	if err := h.validate.Struct(req); err != nil {
		h.render(w, r, http.StatusBadRequest, "login.html", &page{Title: "ログイン", Error: h.translateError(err), Data: form})
		return
	}

	// 验证邮箱和密码由后端完成
	token, err := h.api.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status := apiclient.StatusCode(err)
		if status >= 400 && status < 500 {
			h.render(w, r, http.StatusUnauthorized, "login.html", &page{Title: "ログイン", Error: "メールアドレスまたはパスワードが正しくありません", Data: form})
			return
		}
		slog.Error("登录失败", "email", req.Email, "request_id", requestIDFrom(r), "error", err)
		h.render(w, r, http.StatusBadGateway, "login.html", &page{Title: "ログイン", Error: "ログインに失敗しました。しばらくしてからもう一度お試しください", Data: form})
		return
	}

	state, err := h.sessions.Create(r.Context(), token.AccessToken, req.Email)
	if err != nil {
		h.serverErrorPage(w, r, err)
		return
	}

	// 生成 JWT
	expiration := state.CreatedAt.Add(time.Duration(h.config.JWT.Expiration) * time.Second)
	ss, err := session.SignToken(h.config.JWT.Secret, state, expiration)
	if err != nil {
		h.serverErrorPage(w, r, err)
		return
	}

	h.setSessionCookie(w, ss, expiration)

	slog.Info("员工已登录", "email", req.Email, "session", state.ID)
	http.Redirect(w, r, "/stores", http.StatusSeeOther)
}

// Logout 不经过 auth 中间件，会话已经失效时也能清除 cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.config.Session.CookieName); err == nil {
		if claims, err := session.ParseToken(h.config.JWT.Secret, cookie.Value); err == nil {
			if state, err := h.sessions.Get(r.Context(), claims.ID); err == nil {
				if err := h.api.WithToken(state.AccessToken).Logout(r.Context()); err != nil {
					slog.Warn("后端登出失败", "request_id", requestIDFrom(r), "error", err)
				}
			}
			if err := h.sessions.Delete(r.Context(), claims.ID); err != nil {
				slog.Warn("无法删除会话", "request_id", requestIDFrom(r), "error", err)
			}
		}
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (h *Handler) PasswordResetRequestPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "password_reset_request.html", &page{Title: "パスワード再設定", Data: &authForm{}})
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	req := domain.PasswordResetRequest{Email: strings.TrimSpace(r.PostFormValue("email"))}
	form := &authForm{Email: req.Email}

	if err := h.validate.Struct(req); err != nil {
		h.render(w, r, http.StatusBadRequest, "password_reset_request.html", &page{Title: "パスワード再設定", Error: h.translateError(err), Data: form})
		return
	}

	if err := h.api.RequestPasswordReset(r.Context(), req.Email); err != nil {
		// 邮箱不存在时也告诉用户邮件已发送，以防止接口被滥用
		if !apiclient.IsNotFound(err) {
			slog.Error("请求重置密码失败", "email", req.Email, "request_id", requestIDFrom(r), "error", err)
			h.render(w, r, http.StatusBadGateway, "password_reset_request.html", &page{Title: "パスワード再設定", Error: "送信に失敗しました。しばらくしてからもう一度お試しください", Data: form})
			return
		}
	}

	form.Message = "パスワード再設定用のメールを送信しました"
	h.render(w, r, http.StatusOK, "password_reset_request.html", &page{Title: "パスワード再設定", Data: form})
}

func (h *Handler) PasswordResetVerifyPage(w http.ResponseWriter, r *http.Request) {
	form := &authForm{Email: r.URL.Query().Get("email")}
	h.render(w, r, http.StatusOK, "password_reset_verify.html", &page{Title: "新しいパスワードの設定", Data: form})
}

func (h *Handler) VerifyPasswordReset(w http.ResponseWriter, r *http.Request) {
	req := domain.PasswordVerifyRequest{
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		NewPassword: r.PostFormValue("new_password"),
	}
	form := &authForm{Email: req.Email}

	if err := h.validate.Struct(req); err != nil {
		h.render(w, r, http.StatusBadRequest, "password_reset_verify.html", &page{Title: "新しいパスワードの設定", Error: h.translateError(err), Data: form})
		return
	}
	if req.NewPassword != r.PostFormValue("confirm_password") {
		h.render(w, r, http.StatusBadRequest, "password_reset_verify.html", &page{Title: "新しいパスワードの設定", Error: "確認用パスワードが一致しません", Data: form})
		return
	}

	if err := h.api.VerifyPasswordReset(r.Context(), req.Email, req.NewPassword); err != nil {
		msg := "パスワードの再設定に失敗しました"
		var status int
		if code := apiclient.StatusCode(err); code >= 400 && code < 500 {
			status = http.StatusBadRequest
		} else {
			status = http.StatusBadGateway
			slog.Error("重置密码失败", "email", req.Email, "request_id", requestIDFrom(r), "error", err)
		}
		h.render(w, r, status, "password_reset_verify.html", &page{Title: "新しいパスワードの設定", Error: msg, Data: form})
		return
	}

	http.Redirect(w, r, "/auth/login?reset=1", http.StatusSeeOther)
}
