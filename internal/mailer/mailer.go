// Package mailer 把邮件队列中的消息组装成可以发送的邮件
package mailer

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/myfan-dev/myfan/console/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templatesFS embed.FS

var ErrUnsupportedType = errors.New("不支持的邮件类型")

type layout struct {
	file    string
	subject string
}

var layouts = map[domain.MailType]layout{
	domain.MailBookingCreated:  {file: "booking_created_email.html", subject: "【%s】ご予約を承りました"},
	domain.MailBookingCanceled: {file: "booking_canceled_email.html", subject: "【%s】ご予約のキャンセルについて"},
}

// Envelope 是队列中的一条消息，Data 按 Type 再解码
type Envelope struct {
	Type domain.MailType `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

func Decode(body []byte) (*Envelope, error) {
	env := &Envelope{}
	if err := json.Unmarshal(body, env); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}
	if env.To == "" {
		return nil, errors.New("邮件没有收件人")
	}
	return env, nil
}

// Render 返回邮件的标题和 HTML 正文
func Render(env *Envelope) (string, string, error) {
	l, ok := layouts[env.Type]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, env.Type)
	}

	var data domain.BookingMailData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", "", fmt.Errorf("邮件数据格式错误: %w", err)
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/"+l.file)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}

	return fmt.Sprintf(l.subject, data.StoreName), buf.String(), nil
}

// Build 组装一封由 from 发给 env.To 的邮件
func Build(from string, env *Envelope) (*mail.Msg, error) {
	subject, body, err := Render(env)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(env.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	return msg, nil
}
