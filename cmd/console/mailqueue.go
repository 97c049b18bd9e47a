package main

import (
	"log/slog"

	"github.com/myfan-dev/myfan/console/internal/handler"
	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	handler.MailPublisher
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Close() error
}

type amqpConnection interface {
	Channel() (amqpChannel, error)
	Close() error
}

type amqpDialer func(dsn string) (amqpConnection, error)

type rabbitConnection struct {
	*amqp.Connection
}

func (c rabbitConnection) Channel() (amqpChannel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func dialRabbitMQ(dsn string) (amqpConnection, error) {
	conn, err := amqp.Dial(dsn)
	if err != nil {
		return nil, err
	}
	return rabbitConnection{conn}, nil
}

// openMailQueue 连接邮件队列。任何一步失败都只记录警告并返回 nil，
// 此时控制台照常启动，只是不发送通知邮件
func openMailQueue(dial amqpDialer, dsn, queue string) (handler.MailPublisher, func()) {
	noop := func() {}

	conn, err := dial(dsn)
	if err != nil {
		slog.Warn("无法连接到 rabbitmq，通知邮件将不会发送", "error", err)
		return nil, noop
	}

	ch, err := conn.Channel()
	if err != nil {
		slog.Warn("无法建立通道，通知邮件将不会发送", "error", err)
		_ = conn.Close()
		return nil, noop
	}

	// 参数必须和 cmd/mail 声明的一致
	_, err = ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		slog.Warn("无法声明队列，通知邮件将不会发送", "queue", queue, "error", err)
		_ = ch.Close()
		_ = conn.Close()
		return nil, noop
	}

	return ch, func() {
		_ = ch.Close()
		_ = conn.Close()
	}
}
