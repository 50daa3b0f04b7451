package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cbSaleConfirm = "sale:confirm"
	cbCancel      = "nav:cancel"
)

func navKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✖️ Отменить", cbCancel),
		),
	)
}

func confirmSaleKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Провести", cbSaleConfirm),
			tgbotapi.NewInlineKeyboardButtonData("✖️ Отменить", cbCancel),
		),
	)
}

// mainReplyKeyboard Нижняя панель с основными командами
func mainReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/sale"),
			tgbotapi.NewKeyboardButton("/lowstock"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/dashboard"),
			tgbotapi.NewKeyboardButton("/daily"),
			tgbotapi.NewKeyboardButton("/top"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}
