package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/myfan-dev/myfan/console/internal/domain"
)

// ValidateBookingRequest 检查表单中无法用 validate 标签表达的约束，
// 返回的错误信息直接显示在表单上
func ValidateBookingRequest(req *domain.BookingRequest, roster []domain.Staff) error {
	if req.FromAt.IsZero() || req.ToAt.IsZero() {
		return errors.New("開始日時と終了日時を入力してください")
	}

	if !req.ToAt.After(req.FromAt.Time) {
		return errors.New("終了日時は開始日時より後にしてください")
	}

	if got := int(req.ToAt.Sub(req.FromAt.Time) / time.Minute); got != req.DurationByMinutes {
		return fmt.Errorf("所要時間が一致しません（%d 分と %d 分）", req.DurationByMinutes, got)
	}

	if len(req.StaffIDs) == 0 {
		return errors.New("担当スタッフを選択してください")
	}

	seen := make(map[int64]bool, len(req.StaffIDs))
	for _, id := range req.StaffIDs {
		if seen[id] {
			return fmt.Errorf("スタッフ %d が重複しています", id)
		}
		seen[id] = true

		// roster 为空表示员工列表获取失败，此时交给后端检查
		if len(roster) > 0 && !inRoster(roster, id) {
			return fmt.Errorf("スタッフ %d はこの店舗に所属していません", id)
		}
	}

	return nil
}

func inRoster(roster []domain.Staff, id int64) bool {
	for _, s := range roster {
		if s.ID == id {
			return true
		}
	}
	return false
}
