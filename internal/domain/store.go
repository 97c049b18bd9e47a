package domain

type Store struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	NameRuby    string    `json:"name_ruby"`
	PostalCode  string    `json:"postal_code"`
	Prefecture  string    `json:"prefecture"`
	Street      string    `json:"street"`
	Address     string    `json:"address"`
	Building    string    `json:"building"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

type StoreInput struct {
	Name        string `json:"name" validate:"required,max=255" label:"店舗名"`
	NameRuby    string `json:"name_ruby" validate:"required,max=255" label:"店舗名（ふりがな）"`
	PostalCode  string `json:"postal_code" validate:"required,max=16" label:"郵便番号"`
	Prefecture  string `json:"prefecture" validate:"required" label:"都道府県"`
	Street      string `json:"street" validate:"required" label:"市区町村"`
	Address     string `json:"address" validate:"required" label:"番地"`
	Building    string `json:"building" label:"建物名"`
	PhoneNumber string `json:"phone_number" validate:"required,max=32" label:"電話番号"`
}
