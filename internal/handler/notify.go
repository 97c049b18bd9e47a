package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/myfan-dev/myfan/console/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	errNotifierDisabled = errors.New("未配置邮件队列")
	errNoMailAddress    = errors.New("患者没有登记邮箱")
)

var mailWeekdays = [...]string{"日", "月", "火", "水", "木", "金", "土"}

func (h *Handler) bookingMailData(store *domain.Store, b *domain.Booking, customer *domain.Customer) domain.BookingMailData {
	from := b.FromAt.In(h.location)
	to := b.ToAt.In(h.location)
	return domain.BookingMailData{
		CustomerName: customer.DisplayName(),
		StoreName:    store.Name,
		StorePhone:   store.PhoneNumber,
		Title:        b.Title,
		Date:         fmt.Sprintf("%s（%s）", from.Format("2006年1月2日"), mailWeekdays[from.Weekday()]),
		Time:         fmt.Sprintf("%s〜%s", from.Format("15:04"), to.Format("15:04")),
	}
}

func (h *Handler) publishMail(msg domain.MailMessage) error {
	if h.mailChannel == nil {
		return errNotifierDisabled
	}

	// 序列化邮件
	mailData, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// 预约已经修改成功，发送邮件不跟随请求取消
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.mailChannel.PublishWithContext(
		ctx,
		"",
		h.config.RabbitMQ.Queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         mailData,
		},
	)
}

// notifyBooking 把预约通知放入邮件队列，由 cmd/mail 发送
func (h *Handler) notifyBooking(r *http.Request, kind domain.MailType, b *domain.Booking, customer *domain.Customer) error {
	to := customer.Attribute().MailAddress
	if to == "" {
		h.metrics.ObserveNotification(string(kind), "skipped")
		return errNoMailAddress
	}

	err := h.publishMail(domain.MailMessage{
		Type: kind,
		To:   to,
		Data: h.bookingMailData(storeFrom(r), b, customer),
	})
	if err != nil {
		h.metrics.ObserveNotification(string(kind), "failed")
		slog.Error("无法发送通知邮件", "type", kind, "booking", b.ID, "request_id", requestIDFrom(r), "error", err)
		return err
	}

	h.metrics.ObserveNotification(string(kind), "queued")
	return nil
}
