// Package session 保存每次登录对应的应用状态：后端的 access token、
// 当前用户以及选中的店铺和顾客。登录时创建，登出时清除。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found")

type AppState struct {
	ID          string    `json:"id"`
	AccessToken string    `json:"accessToken"`
	Email       string    `json:"email"`
	StoreID     int64     `json:"storeId,omitempty"`
	StoreName   string    `json:"storeName,omitempty"`
	CustomerID  int64     `json:"customerId,omitempty"`
	Flash       string    `json:"flash,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SelectStore 切换店铺时同时清除选中的顾客
func (s *AppState) SelectStore(id int64, name string) {
	if s.StoreID != id {
		s.CustomerID = 0
	}
	s.StoreID = id
	s.StoreName = name
}

func (s *AppState) SelectCustomer(id int64) {
	s.CustomerID = id
}

type Store struct {
	rdb       *redis.Client
	ttl       time.Duration
	opTimeout time.Duration
}

func NewStore(rdb *redis.Client, ttl, opTimeout time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, opTimeout: opTimeout}
}

func key(id string) string {
	return fmt.Sprintf("console_session_%s", id)
}

func (s *Store) Create(ctx context.Context, accessToken, email string) (*AppState, error) {
	state := &AppState{
		ID:          uuid.NewString(),
		AccessToken: accessToken,
		Email:       email,
		CreatedAt:   time.Now(),
	}
	if err := s.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Store) Get(ctx context.Context, id string) (*AppState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	data, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	state := &AppState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return state, nil
}

// Save 写回状态并保留剩余的过期时间
func (s *Store) Save(ctx context.Context, state *AppState) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := s.ttl - time.Since(state.CreatedAt)
	if ttl <= 0 {
		return ErrNotFound
	}
	if err := s.rdb.Set(ctx, key(state.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.rdb.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SetFlash 保存一条在下一次页面渲染时显示的消息
func (s *Store) SetFlash(ctx context.Context, state *AppState, msg string) error {
	state.Flash = msg
	return s.Save(ctx, state)
}

// PopFlash 取出并清除消息
func (s *Store) PopFlash(ctx context.Context, state *AppState) (string, error) {
	msg := state.Flash
	if msg == "" {
		return "", nil
	}
	state.Flash = ""
	if err := s.Save(ctx, state); err != nil {
		return msg, err
	}
	return msg, nil
}
