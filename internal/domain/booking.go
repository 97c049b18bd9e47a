package domain

import (
	"slices"
	"time"
)

type BookingStatus string

const (
	BookingStatusActive   BookingStatus = "active"
	BookingStatusCanceled BookingStatus = "canceled"
)

func (s BookingStatus) Label() string {
	if s == BookingStatusCanceled {
		return "キャンセル済み"
	}
	return "予約中"
}

// 新建预约时默认的时长（分钟）
const DefaultBookingDuration = 15

// BookingDetails 在创建和更新时是必填的，没有内容时也要发送 {"overview": ""}
type BookingDetails struct {
	Overview string `json:"overview"`
}

// Booking 即后端的 event，/bookings 和 /events 返回同一种结构，
// 只是 /events/{id} 会额外带上 staffs
type Booking struct {
	ID                int64           `json:"id"`
	StoreID           int64           `json:"store_id"`
	CustomerID        int64           `json:"customer_id"`
	Title             string          `json:"title"`
	FromAt            Timestamp       `json:"from_at"`
	ToAt              Timestamp       `json:"to_at"`
	DurationByMinutes int             `json:"duration_by_minutes"`
	Note              string          `json:"note"`
	Details           *BookingDetails `json:"details,omitempty"`
	Status            BookingStatus   `json:"status"`
	StaffIDs          []int64         `json:"staff_ids"`
	Staffs            []Staff         `json:"staffs,omitempty"`
	CreatedAt         Timestamp       `json:"created_at"`
	UpdatedAt         Timestamp       `json:"updated_at"`
}

func (b *Booking) HasStaff(staffID int64) bool {
	if slices.Contains(b.StaffIDs, staffID) {
		return true
	}
	for _, s := range b.Staffs {
		if s.ID == staffID {
			return true
		}
	}
	return false
}

// AssignedStaffIDs 合并 staff_ids 和 staffs 中的员工 ID，保持出现顺序
func (b *Booking) AssignedStaffIDs() []int64 {
	ids := slices.Clone(b.StaffIDs)
	for _, s := range b.Staffs {
		if !slices.Contains(ids, s.ID) {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func (b *Booking) IsCanceled() bool {
	return b.Status == BookingStatusCanceled
}

// BookingRequest 是创建、更新预约时提交给后端的请求体
type BookingRequest struct {
	CustomerID        int64          `json:"customer_id"`
	Title             string         `json:"title"`
	FromAt            Timestamp      `json:"from_at"`
	ToAt              Timestamp      `json:"to_at"`
	DurationByMinutes int            `json:"duration_by_minutes"`
	Note              string         `json:"note"`
	Details           BookingDetails `json:"details"`
	StaffIDs          []int64        `json:"staff_ids"`
	Status            BookingStatus  `json:"status"`
}

func NewBookingRequest(customerID int64, title string, from time.Time, duration int, note string, staffIDs []int64) BookingRequest {
	if duration <= 0 {
		duration = DefaultBookingDuration
	}
	if staffIDs == nil {
		staffIDs = []int64{}
	}
	return BookingRequest{
		CustomerID:        customerID,
		Title:             title,
		FromAt:            NewTimestamp(from),
		ToAt:              NewTimestamp(from.Add(time.Duration(duration) * time.Minute)),
		DurationByMinutes: duration,
		Note:              note,
		Details:           BookingDetails{},
		StaffIDs:          staffIDs,
		Status:            BookingStatusActive,
	}
}

// RequestFromBooking 用已有的预约构造更新请求，取消预约时只改动 status
func RequestFromBooking(b *Booking) BookingRequest {
	duration := b.DurationByMinutes
	if duration <= 0 {
		duration = int(b.ToAt.Sub(b.FromAt.Time) / time.Minute)
	}
	var details BookingDetails
	if b.Details != nil {
		details = *b.Details
	}
	return BookingRequest{
		CustomerID:        b.CustomerID,
		Title:             b.Title,
		FromAt:            b.FromAt,
		ToAt:              b.ToAt,
		DurationByMinutes: duration,
		Note:              b.Note,
		Details:           details,
		StaffIDs:          b.AssignedStaffIDs(),
		Status:            b.Status,
	}
}
