package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/myfan-dev/myfan/console/internal/domain"
)

type customerBody struct {
	CustomerAttributes domain.CustomerInput `json:"customer_attributes"`
}

// ListCustomers 列出店铺的顾客，search 不为空时交给后端检索
func (c *Client) ListCustomers(ctx context.Context, storeID int64, search string) ([]domain.Customer, error) {
	path := fmt.Sprintf("/stores/%d/customers", storeID)
	if search != "" {
		q := url.Values{}
		q.Set("search", search)
		path += "?" + q.Encode()
	}

	var customers []domain.Customer
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &customers); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (c *Client) GetCustomer(ctx context.Context, storeID, customerID int64) (*domain.Customer, error) {
	var customer domain.Customer
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/stores/%d/customers/%d", storeID, customerID), nil, &customer); err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &customer, nil
}

func (c *Client) CreateCustomer(ctx context.Context, storeID int64, in domain.CustomerInput) (*domain.Customer, error) {
	var customer domain.Customer
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/stores/%d/customers", storeID), customerBody{CustomerAttributes: in}, &customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return &customer, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, storeID, customerID int64, in domain.CustomerInput) (*domain.Customer, error) {
	var customer domain.Customer
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/stores/%d/customers/%d", storeID, customerID), customerBody{CustomerAttributes: in}, &customer); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return &customer, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, storeID, customerID int64) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/stores/%d/customers/%d", storeID, customerID), nil, nil); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}
