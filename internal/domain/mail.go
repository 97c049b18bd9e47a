package domain

type MailType string

const (
	MailBookingCanceled MailType = "booking_canceled"
	MailBookingCreated  MailType = "booking_created"
)

type MailMessage struct {
	Type MailType `json:"type"`
	To   string   `json:"to"`
	Data any      `json:"data"`
}

// BookingMailData 是预约相关通知邮件模板使用的数据
type BookingMailData struct {
	CustomerName string `json:"customerName"`
	StoreName    string `json:"storeName"`
	StorePhone   string `json:"storePhone"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}
