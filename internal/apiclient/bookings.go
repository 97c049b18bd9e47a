package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/myfan-dev/myfan/console/internal/domain"
)

func (c *Client) ListBookings(ctx context.Context, storeID int64) ([]domain.Booking, error) {
	var bookings []domain.Booking
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/stores/%d/bookings", storeID), nil, &bookings); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	for i := range bookings {
		if bookings[i].StaffIDs == nil {
			bookings[i].StaffIDs = []int64{}
		}
	}
	return bookings, nil
}

func (c *Client) GetBooking(ctx context.Context, storeID, bookingID int64) (*domain.Booking, error) {
	var booking domain.Booking
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/stores/%d/bookings/%d", storeID, bookingID), nil, &booking); err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &booking, nil
}

func (c *Client) CreateBooking(ctx context.Context, storeID int64, req domain.BookingRequest) (*domain.Booking, error) {
	var booking domain.Booking
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/stores/%d/bookings", storeID), req, &booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return &booking, nil
}

func (c *Client) UpdateBooking(ctx context.Context, storeID, bookingID int64, req domain.BookingRequest) (*domain.Booking, error) {
	var booking domain.Booking
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/stores/%d/bookings/%d", storeID, bookingID), req, &booking); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	return &booking, nil
}

// CancelBooking 把预约的状态改为 canceled，其余字段保持不变
func (c *Client) CancelBooking(ctx context.Context, storeID int64, b *domain.Booking) (*domain.Booking, error) {
	req := domain.RequestFromBooking(b)
	req.Status = domain.BookingStatusCanceled
	canceled, err := c.UpdateBooking(ctx, storeID, b.ID, req)
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	return canceled, nil
}

func (c *Client) DeleteBooking(ctx context.Context, storeID, bookingID int64) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/stores/%d/bookings/%d", storeID, bookingID), nil, nil); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}

// GetEvent 返回预约详情，其中 staffs 已经解析为员工对象
func (c *Client) GetEvent(ctx context.Context, storeID, eventID int64) (*domain.Booking, error) {
	var event domain.Booking
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/stores/%d/events/%d", storeID, eventID), nil, &event); err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}
