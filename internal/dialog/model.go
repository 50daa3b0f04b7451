package dialog

type State string

const (
	StateIdle State = "idle"

	// Оформление продажи: покупатель → материал → количество → сумма → подтверждение
	StateSaleCustomer State = "sale_customer"
	StateSaleItem     State = "sale_item"
	StateSaleQuantity State = "sale_quantity"
	StateSaleTotal    State = "sale_total"
	StateSaleConfirm  State = "sale_confirm"
	// StateSaleSubmit: форма заполнена и подтверждена, можно проводить продажу
	StateSaleSubmit State = "sale_submit"
)

type Payload map[string]any

type Item struct {
	ChatID  int64
	State   State
	Payload Payload
}

// Ключи payload формы продажи. Значения храним строками: после JSON так надёжнее.
const (
	KeyCustomerID = "customer_id"
	KeyItemID     = "item_id"
	KeyItemName   = "item_name"
	KeyQuantity   = "quantity"
	KeyTotal      = "total"
)
