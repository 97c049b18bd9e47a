package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/myfan-dev/myfan/console/internal/domain"
)

func (c *Client) ListStores(ctx context.Context) ([]domain.Store, error) {
	var stores []domain.Store
	if err := c.doJSON(ctx, http.MethodGet, "/stores", nil, &stores); err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return stores, nil
}

func (c *Client) CreateStore(ctx context.Context, in domain.StoreInput) (*domain.Store, error) {
	var store domain.Store
	if err := c.doJSON(ctx, http.MethodPost, "/stores", in, &store); err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	return &store, nil
}

// Me 返回当前登录员工在店铺中的资料和权限
func (c *Client) Me(ctx context.Context, storeID int64) (*domain.Me, error) {
	var me domain.Me
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/stores/%d/me", storeID), nil, &me); err != nil {
		return nil, fmt.Errorf("get me: %w", err)
	}
	return &me, nil
}

func (c *Client) ListStaffs(ctx context.Context, storeID int64) ([]domain.Staff, error) {
	var staffs []domain.Staff
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/stores/%d/staffs", storeID), nil, &staffs); err != nil {
		return nil, fmt.Errorf("list staffs: %w", err)
	}
	return staffs, nil
}
