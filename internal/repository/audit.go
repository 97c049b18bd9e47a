package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	ActionBookingCreated  AuditAction = "booking.created"
	ActionBookingUpdated  AuditAction = "booking.updated"
	ActionBookingCanceled AuditAction = "booking.canceled"
	ActionBookingDeleted  AuditAction = "booking.deleted"
	ActionCustomerCreated AuditAction = "customer.created"
	ActionCustomerUpdated AuditAction = "customer.updated"
	ActionCustomerDeleted AuditAction = "customer.deleted"
	ActionStoreCreated    AuditAction = "store.created"
)

var actionLabels = map[AuditAction]string{
	ActionBookingCreated:  "予約作成",
	ActionBookingUpdated:  "予約変更",
	ActionBookingCanceled: "予約キャンセル",
	ActionBookingDeleted:  "予約削除",
	ActionCustomerCreated: "患者登録",
	ActionCustomerUpdated: "患者情報変更",
	ActionCustomerDeleted: "患者削除",
	ActionStoreCreated:    "店舗作成",
}

func (a AuditAction) Label() string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return string(a)
}

// AuditEvent 是一条不可修改的操作记录
type AuditEvent struct {
	ID         string          `json:"id"`
	Action     AuditAction     `json:"action"`
	StoreID    int64           `json:"storeId"`
	TargetType string          `json:"targetType"`
	TargetID   int64           `json:"targetId"`
	ActorEmail string          `json:"actorEmail"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// NewAuditEvent 根据 action 的前缀推断 target 的类型
func NewAuditEvent(action AuditAction, storeID, targetID int64, actor string, detail any) AuditEvent {
	targetType, _, _ := strings.Cut(string(action), ".")

	var raw json.RawMessage
	if detail != nil {
		if b, err := json.Marshal(detail); err == nil {
			raw = b
		}
	}

	return AuditEvent{
		Action:     action,
		StoreID:    storeID,
		TargetType: targetType,
		TargetID:   targetID,
		ActorEmail: actor,
		Detail:     raw,
	}
}

func (r *Repository) InsertAuditEvent(event *AuditEvent) error {
	if !r.Enabled() {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_events (id, action, store_id, target_type, target_id, actor_email, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var detail any
	if len(event.Detail) > 0 {
		detail = []byte(event.Detail)
	}

	args := []any{event.ID, event.Action, event.StoreID, event.TargetType, event.TargetID, event.ActorEmail, detail, event.CreatedAt}
	if _, err := r.dbpool.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	return nil
}

func (r *Repository) GetRecentAuditEvents(storeID int64, limit int) ([]*AuditEvent, error) {
	if !r.Enabled() {
		return []*AuditEvent{}, nil
	}

	query := `
		SELECT id, action, store_id, target_type, target_id, actor_email, detail, created_at
		FROM audit_events
		WHERE store_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, storeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*AuditEvent{}
	for rows.Next() {
		event := &AuditEvent{}
		var detail []byte

		dst := []any{&event.ID, &event.Action, &event.StoreID, &event.TargetType, &event.TargetID, &event.ActorEmail, &detail, &event.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if len(detail) > 0 {
			event.Detail = json.RawMessage(detail)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
