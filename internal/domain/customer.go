package domain

// 没有登记姓名的顾客在列表中显示的名字
const NoName = "名前がありません"

type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

func (s Sex) Label() string {
	switch s {
	case SexMale:
		return "男性"
	case SexFemale:
		return "女性"
	default:
		return "不明"
	}
}

type CustomerAttribute struct {
	ID          int64  `json:"id,omitempty"`
	CustomerID  int64  `json:"customer_id,omitempty"`
	Name        string `json:"name"`
	NameRuby    string `json:"name_ruby"`
	MailAddress string `json:"mail_address"`
	PhoneNumber string `json:"phone_number"`
	Sex         Sex    `json:"sex"`
	PostalCode  string `json:"postal_code"`
	Prefecture  string `json:"prefecture"`
	Street      string `json:"street"`
	Address     string `json:"address"`
	Building    string `json:"building"`
}

type Customer struct {
	ID                 int64               `json:"id"`
	StoreID            int64               `json:"store_id"`
	CustomerAttributes []CustomerAttribute `json:"customer_attributes"`
	CreatedAt          Timestamp           `json:"created_at"`
	UpdatedAt          Timestamp           `json:"updated_at"`
}

// Attribute 返回顾客当前的属性，没有属性时返回零值
func (c *Customer) Attribute() CustomerAttribute {
	if c == nil || len(c.CustomerAttributes) == 0 {
		return CustomerAttribute{}
	}
	return c.CustomerAttributes[0]
}

func (c *Customer) DisplayName() string {
	if name := c.Attribute().Name; name != "" {
		return name
	}
	return NoName
}

// CustomerInput 是创建和更新顾客时提交给后端的属性
type CustomerInput struct {
	Name        string `json:"name" validate:"required,max=255" label:"氏名"`
	NameRuby    string `json:"name_ruby" validate:"required,max=255" label:"ふりがな"`
	MailAddress string `json:"mail_address" validate:"required,email" label:"メールアドレス"`
	PhoneNumber string `json:"phone_number" validate:"required,max=32" label:"電話番号"`
	Sex         Sex    `json:"sex" validate:"required,oneof=male female unknown" label:"性別"`
	PostalCode  string `json:"postal_code" validate:"required,max=16" label:"郵便番号"`
	Prefecture  string `json:"prefecture" validate:"required" label:"都道府県"`
	Street      string `json:"street" validate:"required" label:"市区町村"`
	Address     string `json:"address" validate:"required" label:"番地"`
	Building    string `json:"building" label:"建物名"`
}

// NewCustomerInput 用已有的属性填充编辑表单
func NewCustomerInput(a CustomerAttribute) CustomerInput {
	return CustomerInput{
		Name:        a.Name,
		NameRuby:    a.NameRuby,
		MailAddress: a.MailAddress,
		PhoneNumber: a.PhoneNumber,
		Sex:         a.Sex,
		PostalCode:  a.PostalCode,
		Prefecture:  a.Prefecture,
		Street:      a.Street,
		Address:     a.Address,
		Building:    a.Building,
	}
}

// CustomersByID 方便在预约列表中按 customer_id 查找顾客
func CustomersByID(customers []Customer) map[int64]*Customer {
	m := make(map[int64]*Customer, len(customers))
	for i := range customers {
		m[customers[i].ID] = &customers[i]
	}
	return m
}
