package domain

import (
	"bytes"
	"encoding/json"
	"slices"
)

type StaffAttribute struct {
	ID          int64  `json:"id,omitempty"`
	StaffID     int64  `json:"staff_id,omitempty"`
	Name        string `json:"name"`
	NameRuby    string `json:"name_ruby"`
	MailAddress string `json:"mail_address"`
}

// StaffAttributes 兼容两种返回格式：/staffs 返回数组，/events/{id} 中的员工返回单个对象
type StaffAttributes []StaffAttribute

func (a *StaffAttributes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*a = nil
		return nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		var single StaffAttribute
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*a = StaffAttributes{single}
		return nil
	default:
		var list []StaffAttribute
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*a = list
		return nil
	}
}

type Staff struct {
	ID              int64           `json:"id"`
	RoleID          int64           `json:"role_id"`
	StoreID         int64           `json:"store_id"`
	StaffAttributes StaffAttributes `json:"staff_attributes"`
}

func (s *Staff) Attribute() StaffAttribute {
	if s == nil || len(s.StaffAttributes) == 0 {
		return StaffAttribute{}
	}
	return s.StaffAttributes[0]
}

func (s *Staff) DisplayName() string {
	if name := s.Attribute().Name; name != "" {
		return name
	}
	return NoName
}

// Me 是当前登录员工在某个店铺中的信息
type Me struct {
	Staff
	Permissions []string `json:"permissions"`
}

func (m *Me) HasPermission(p string) bool {
	return slices.Contains(m.Permissions, p)
}
