package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/buildmat/internal/dialog"
	"github.com/Spok95/buildmat/internal/domain/reports"
)

const helpText = `Команды:
/sale — оформить продажу
/lowstock [N] — материалы с остатком не больше N
/dashboard [дни] — сводка
/daily [дни] — выручка по дням
/top [N] — лучшие покупатели
/cancel — отменить ввод`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		m := tgbotapi.NewMessage(chatID, helpText)
		m.ReplyMarkup = mainReplyKeyboard()
		b.send(m)

	case "cancel":
		_ = b.states.Reset(ctx, chatID)
		b.reply(chatID, "Операция отменена.")

	case "sale":
		b.startSale(ctx, chatID)

	case "lowstock":
		n, ok := b.intArg(chatID, args, b.threshold, true)
		if !ok {
			return
		}
		b.showLowStock(ctx, chatID, n)

	case "dashboard":
		days, ok := b.intArg(chatID, args, 0, true)
		if !ok {
			return
		}
		d, err := b.reports.Dashboard(ctx, b.threshold, days)
		if err != nil {
			b.fail(chatID, "dashboard", err)
			return
		}
		b.reply(chatID, formatDashboard(d))

	case "daily":
		days, ok := b.intArg(chatID, args, 7, false)
		if !ok {
			return
		}
		rows, err := b.reports.RevenueByDay(ctx, days)
		if err != nil {
			b.fail(chatID, "daily", err)
			return
		}
		if len(rows) == 0 {
			b.reply(chatID, "За выбранный период продаж нет.")
			return
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "Выручка за %d дн.:\n", days)
		for _, r := range rows {
			fmt.Fprintf(&sb, "%s — %s\n", r.Day.Format(reports.DateLayout), r.Revenue.StringFixed(2))
		}
		b.reply(chatID, sb.String())

	case "top":
		limit, ok := b.intArg(chatID, args, 5, false)
		if !ok {
			return
		}
		rows, err := b.reports.TopCustomers(ctx, limit)
		if err != nil {
			b.fail(chatID, "top", err)
			return
		}
		if len(rows) == 0 {
			b.reply(chatID, "Продаж по покупателям пока нет.")
			return
		}
		var sb strings.Builder
		sb.WriteString("Лучшие покупатели:\n")
		for i, r := range rows {
			fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, r.CustomerName, r.Revenue.StringFixed(2))
		}
		b.reply(chatID, sb.String())

	default:
		b.reply(chatID, "Не знаю такую команду. Наберите /help")
	}
}

// intArg разбирает числовой аргумент команды. Пустой аргумент даёт def.
func (b *Bot) intArg(chatID int64, arg string, def int, allowZero bool) (int, bool) {
	if arg == "" {
		return def, true
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || (n == 0 && !allowZero) {
		b.reply(chatID, fmt.Sprintf("Аргумент должен быть целым числом, а не %q.", arg))
		return 0, false
	}
	return n, true
}

func (b *Bot) fail(chatID int64, op string, err error) {
	b.log.Error("report failed", "op", op, "err", err)
	b.reply(chatID, "Не удалось построить отчёт, попробуйте позже.")
}

func (b *Bot) showLowStock(ctx context.Context, chatID int64, threshold int) {
	items, err := b.reports.LowStock(ctx, threshold)
	if err != nil {
		b.fail(chatID, "lowstock", err)
		return
	}
	if len(items) == 0 {
		b.reply(chatID, fmt.Sprintf("Материалов с остатком ≤ %d нет.", threshold))
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "⚠️ Остаток ≤ %d:\n", threshold)
	for _, it := range items {
		fmt.Fprintf(&sb, "— %s: %d %s (поставщик #%d)\n", it.ItemName, it.QuantityInStock, it.UnitType, it.SupplierID)
	}
	b.reply(chatID, sb.String())
}

func formatDashboard(d *reports.Dashboard) string {
	var sb strings.Builder
	sb.WriteString("Сводка")
	if d.LastNDays > 0 {
		fmt.Fprintf(&sb, " за %d дн.", d.LastNDays)
	}
	sb.WriteString(":\n")
	fmt.Fprintf(&sb, "Покупатели: %d\nПоставщики: %d\nМатериалы: %d\n", d.Customers, d.Suppliers, d.Materials)
	fmt.Fprintf(&sb, "Выручка: %s\nДолг покупателей: %s\n", d.TotalRevenue.StringFixed(2), d.TotalUnpaid.StringFixed(2))
	fmt.Fprintf(&sb, "Заканчиваются (≤ %d): %d\n", d.LowStockThreshold, d.LowStockCount)
	if len(d.TopItems) == 0 {
		sb.WriteString("\nПродаж пока нет.")
		return sb.String()
	}
	sb.WriteString("\nТоп продаж:\n")
	for i, it := range d.TopItems {
		fmt.Fprintf(&sb, "%d. %s — %d\n", i+1, it.ItemName, it.TotalSold)
	}
	return sb.String()
}

// setState пишет шаг формы; ошибка хранилища логируется и сообщается пользователю.
func (b *Bot) setState(ctx context.Context, chatID int64, st dialog.State, p dialog.Payload) bool {
	if err := b.states.Set(ctx, chatID, st, p); err != nil {
		b.log.Error("dialog state save failed", "chat_id", chatID, "state", st, "err", err)
		b.reply(chatID, "Не удалось сохранить шаг, попробуйте ещё раз.")
		return false
	}
	return true
}
