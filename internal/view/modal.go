package view

// Modal 是预约详情上可以打开的子对话框，同一时间最多只有一个
type Modal int

const (
	ModalNone Modal = iota
	ModalEditing
	ModalCancelling
	ModalDeleting
	ModalCreatingNext
)

var modalNames = map[Modal]string{
	ModalEditing:      "edit",
	ModalCancelling:   "cancel",
	ModalDeleting:     "delete",
	ModalCreatingNext: "next",
}

func ParseModal(s string) Modal {
	for m, name := range modalNames {
		if name == s {
			return m
		}
	}
	return ModalNone
}

func (m Modal) String() string {
	return modalNames[m]
}

// Dialog 描述预约页上打开的对话框。BookingID 为 0 表示没有打开详情，
// 没有打开详情时不可能打开子对话框
type Dialog struct {
	BookingID int64
	Modal     Modal
}

func NewDialog(bookingID int64, m Modal) Dialog {
	if bookingID <= 0 {
		return Dialog{}
	}
	return Dialog{BookingID: bookingID, Modal: m}
}

func (d Dialog) IsOpen() bool {
	return d.BookingID > 0
}

// ShowsDetail 表示只打开了详情，没有打开子对话框
func (d Dialog) ShowsDetail() bool {
	return d.IsOpen() && d.Modal == ModalNone
}

func (d Dialog) Open(m Modal) Dialog {
	return NewDialog(d.BookingID, m)
}

// Back 关闭子对话框，回到详情
func (d Dialog) Back() Dialog {
	return NewDialog(d.BookingID, ModalNone)
}

func (d Dialog) Close() Dialog {
	return Dialog{}
}

func (d Dialog) Is(m Modal) bool {
	return d.IsOpen() && d.Modal == m
}
