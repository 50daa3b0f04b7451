package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/buildmat/internal/dialog"
	"github.com/Spok95/buildmat/internal/domain/materials"
	"github.com/Spok95/buildmat/internal/domain/reports"
	"github.com/Spok95/buildmat/internal/domain/sales"
)

// API: часть *tgbotapi.BotAPI, которой пользуется бот.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type States interface {
	Get(ctx context.Context, chatID int64) (*dialog.Item, error)
	Set(ctx context.Context, chatID int64, state dialog.State, payload dialog.Payload) error
	Reset(ctx context.Context, chatID int64) error
}

type Reports interface {
	RevenueByDay(ctx context.Context, days int) ([]reports.DayRevenue, error)
	TopCustomers(ctx context.Context, limit int) ([]reports.CustomerRevenue, error)
	LowStock(ctx context.Context, threshold int) ([]materials.LowStockItem, error)
	Dashboard(ctx context.Context, threshold, lastNDays int) (*reports.Dashboard, error)
}

type Recorder interface {
	Record(ctx context.Context, in sales.NewSale) (*sales.Sale, error)
}

type Materials interface {
	GetByID(ctx context.Context, id int64) (*materials.Material, error)
}

type Bot struct {
	api       API
	log       *slog.Logger
	states    States
	reports   Reports
	recorder  Recorder
	materials Materials
	adminChat int64
	allowed   map[int64]bool
	threshold int
}

func New(api API, log *slog.Logger, statesRepo States, reportsRepo Reports,
	recorder Recorder, materialsRepo Materials,
	adminChatID int64, allowedChatIDs []int64, lowStockThreshold int) *Bot {

	// админский чат допущен всегда
	allowed := make(map[int64]bool, len(allowedChatIDs)+1)
	if adminChatID != 0 {
		allowed[adminChatID] = true
	}
	for _, id := range allowedChatIDs {
		allowed[id] = true
	}
	return &Bot{
		api: api, log: log, states: statesRepo, reports: reportsRepo,
		recorder: recorder, materials: materialsRepo,
		adminChat: adminChatID, allowed: allowed, threshold: lowStockThreshold,
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			b.handleUpdate(ctx, upd)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		if !b.allowed[upd.Message.Chat.ID] {
			b.log.Warn("chat not allowed", "chat_id", upd.Message.Chat.ID)
			b.reply(upd.Message.Chat.ID, "Доступ запрещён.")
			return
		}
		if upd.Message.IsCommand() {
			b.handleCommand(ctx, upd.Message)
			return
		}
		b.handleStateMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		cb := upd.CallbackQuery
		if cb.Message == nil || !b.allowed[cb.Message.Chat.ID] {
			b.log.Warn("callback from chat not allowed", "callback_id", cb.ID)
			b.answerCallback(cb, "Доступ запрещён.")
			return
		}
		b.handleCallback(ctx, cb)
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.log.Warn("callback answer failed", "err", err)
	}
}

func (b *Bot) editTextAndClear(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, messageID, text,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	b.send(edit)
}
