package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/buildmat/internal/dialog"
	"github.com/Spok95/buildmat/internal/domain/sales"
)

var salePrompts = map[dialog.State]string{
	dialog.StateSaleCustomer: "Введите ID покупателя:",
	dialog.StateSaleItem:     "Введите ID материала:",
	dialog.StateSaleQuantity: "Сколько единиц продаём?",
	dialog.StateSaleTotal:    "Сумма продажи:",
}

func (b *Bot) startSale(ctx context.Context, chatID int64) {
	if !b.setState(ctx, chatID, dialog.StateSaleCustomer, dialog.Payload{}) {
		return
	}
	m := tgbotapi.NewMessage(chatID, salePrompts[dialog.StateSaleCustomer])
	m.ReplyMarkup = navKeyboard()
	b.send(m)
}

func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.log.Error("dialog state load failed", "chat_id", chatID, "err", err)
		b.reply(chatID, "Не удалось прочитать состояние, начните заново: /sale")
		return
	}
	if st.State == dialog.StateIdle {
		b.reply(chatID, "Наберите /help, чтобы увидеть команды.")
		return
	}

	p := st.Payload
	if p == nil {
		p = dialog.Payload{}
	}
	next, err := dialog.Step(st.State, p, msg.Text)
	switch {
	case errors.Is(err, dialog.ErrDeclined):
		_ = b.states.Reset(ctx, chatID)
		b.reply(chatID, "Продажа отменена.")
		return
	case err != nil:
		b.reply(chatID, err.Error())
		return
	}

	// после ввода ID материала сразу проверяем, что он есть
	if st.State == dialog.StateSaleItem {
		raw, _ := dialog.GetString(p, dialog.KeyItemID)
		id, _ := strconv.ParseInt(raw, 10, 64)
		m, err := b.materials.GetByID(ctx, id)
		if err != nil {
			b.log.Error("material lookup failed", "item_id", id, "err", err)
			b.reply(chatID, "Не удалось найти материал, попробуйте позже.")
			return
		}
		if m == nil {
			b.reply(chatID, fmt.Sprintf("Материал #%d не найден. Введите другой ID:", id))
			return
		}
		p[dialog.KeyItemName] = m.Name
		b.reply(chatID, fmt.Sprintf("%s, на складе %d %s, цена %s за %s.",
			m.Name, m.QuantityInStock, m.UnitType, m.PricePerUnit.StringFixed(2), m.UnitType))
	}

	switch next {
	case dialog.StateSaleSubmit:
		b.submitSale(ctx, chatID, p)
		return
	case dialog.StateSaleConfirm:
		if !b.setState(ctx, chatID, next, p) {
			return
		}
		m := tgbotapi.NewMessage(chatID, saleSummary(p))
		m.ReplyMarkup = confirmSaleKeyboard()
		b.send(m)
		return
	}

	if !b.setState(ctx, chatID, next, p) {
		return
	}
	b.reply(chatID, salePrompts[next])
}

func saleSummary(p dialog.Payload) string {
	get := func(k string) string {
		s, _ := dialog.GetString(p, k)
		return s
	}
	return fmt.Sprintf("Проверьте продажу:\nПокупатель: #%s\nМатериал: %s (#%s)\nКоличество: %s\nСумма: %s\nОплата: наличные, полностью.\nПровести?",
		get(dialog.KeyCustomerID), get(dialog.KeyItemName), get(dialog.KeyItemID),
		get(dialog.KeyQuantity), get(dialog.KeyTotal))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	switch cb.Data {
	case cbCancel:
		_ = b.states.Reset(ctx, chatID)
		b.editTextAndClear(chatID, cb.Message.MessageID, "Операция отменена.")
		b.answerCallback(cb, "Отменено")

	case cbSaleConfirm:
		st, err := b.states.Get(ctx, chatID)
		if err != nil || st.State != dialog.StateSaleConfirm {
			b.answerCallback(cb, "Форма устарела")
			b.editTextAndClear(chatID, cb.Message.MessageID, "Эта продажа уже обработана или отменена.")
			return
		}
		b.answerCallback(cb, "")
		b.editTextAndClear(chatID, cb.Message.MessageID, cb.Message.Text)
		b.submitSale(ctx, chatID, st.Payload)

	default:
		b.answerCallback(cb, "")
	}
}

func (b *Bot) submitSale(ctx context.Context, chatID int64, p dialog.Payload) {
	// форма закрывается при любом исходе, повтор только заново через /sale
	defer func() { _ = b.states.Reset(ctx, chatID) }()

	in, err := dialog.Sale(p)
	if err != nil {
		b.log.Warn("incomplete sale form", "chat_id", chatID, "err", err)
		b.reply(chatID, "Форма заполнена не полностью, начните заново: /sale")
		return
	}

	s, err := b.recorder.Record(ctx, in)
	if err != nil {
		b.reply(chatID, saleErrorText(err))
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Продажа #%d проведена: %d ед., сумма %s.",
		s.OrderNo, s.Quantity, s.Total.StringFixed(2)))
	b.maybeNotifyLowStock(ctx, s.ItemID)
}

func saleErrorText(err error) string {
	var short *sales.InsufficientStockError
	switch {
	case errors.As(err, &short):
		return fmt.Sprintf("Недостаточно на складе: доступно %d, запрошено %d.", short.Available, short.Requested)
	case errors.Is(err, sales.ErrMaterialNotFound):
		return "Материал не найден."
	case errors.Is(err, sales.ErrCustomerNotFound):
		return "Покупатель не найден."
	case errors.Is(err, sales.ErrValidation):
		return "Некорректные данные продажи: " + err.Error()
	}
	return "Не удалось провести продажу, попробуйте позже."
}

// maybeNotifyLowStock сообщает в админ-чат, что после продажи остаток дошёл до порога.
func (b *Bot) maybeNotifyLowStock(ctx context.Context, itemID int64) {
	if b.adminChat == 0 {
		return
	}
	m, err := b.materials.GetByID(ctx, itemID)
	if err != nil || m == nil {
		return
	}
	if m.QuantityInStock > b.threshold {
		return
	}
	text := fmt.Sprintf("⚠️ Материал «%s» заканчивается: осталось %d %s.", m.Name, m.QuantityInStock, m.UnitType)
	if m.QuantityInStock == 0 {
		text = fmt.Sprintf("⚠️ Материал «%s» закончился.", m.Name)
	}
	b.reply(b.adminChat, text)
}
