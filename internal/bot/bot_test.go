package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/buildmat/internal/dialog"
	"github.com/Spok95/buildmat/internal/domain/materials"
	"github.com/Spok95/buildmat/internal/domain/reports"
	"github.com/Spok95/buildmat/internal/domain/sales"
)

const (
	chatID    = int64(100)
	adminChat = int64(900)
)

type sent struct {
	chatID int64
	text   string
}

type fakeAPI struct {
	mu       sync.Mutex
	out      []sent
	answered int
	updates  chan tgbotapi.Update
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		f.out = append(f.out, sent{m.ChatID, m.Text})
	case tgbotapi.EditMessageTextConfig:
		f.out = append(f.out, sent{m.ChatID, m.Text})
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.answered++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.out)
}

func (f *fakeAPI) last() sent {
	if len(f.out) == 0 {
		return sent{}
	}
	return f.out[len(f.out)-1]
}

func (f *fakeAPI) textsTo(id int64) []string {
	var out []string
	for _, s := range f.out {
		if s.chatID == id {
			out = append(out, s.text)
		}
	}
	return out
}

type memStates struct{ items map[int64]*dialog.Item }

func (m *memStates) Get(_ context.Context, id int64) (*dialog.Item, error) {
	if it, ok := m.items[id]; ok {
		cp := dialog.Payload{}
		for k, v := range it.Payload {
			cp[k] = v
		}
		return &dialog.Item{ChatID: id, State: it.State, Payload: cp}, nil
	}
	return &dialog.Item{ChatID: id, State: dialog.StateIdle, Payload: dialog.Payload{}}, nil
}

func (m *memStates) Set(_ context.Context, id int64, st dialog.State, p dialog.Payload) error {
	m.items[id] = &dialog.Item{ChatID: id, State: st, Payload: p}
	return nil
}

func (m *memStates) Reset(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

func (m *memStates) state(id int64) dialog.State {
	if it, ok := m.items[id]; ok {
		return it.State
	}
	return dialog.StateIdle
}

type fakeReports struct {
	lowStock      []materials.LowStockItem
	lowThreshold  int
	dashboard     *reports.Dashboard
	dashboardDays int
	err           error
}

func (f *fakeReports) RevenueByDay(context.Context, int) ([]reports.DayRevenue, error) {
	return []reports.DayRevenue{}, f.err
}

func (f *fakeReports) TopCustomers(context.Context, int) ([]reports.CustomerRevenue, error) {
	return []reports.CustomerRevenue{{CustomerName: "Rahul Singh", Revenue: decimal.NewFromInt(23000)}}, f.err
}

func (f *fakeReports) LowStock(_ context.Context, threshold int) ([]materials.LowStockItem, error) {
	f.lowThreshold = threshold
	return f.lowStock, f.err
}

func (f *fakeReports) Dashboard(_ context.Context, _ int, days int) (*reports.Dashboard, error) {
	f.dashboardDays = days
	return f.dashboard, f.err
}

type fakeRecorder struct {
	got   []sales.NewSale
	err   error
	after func()
}

func (f *fakeRecorder) Record(_ context.Context, in sales.NewSale) (*sales.Sale, error) {
	f.got = append(f.got, in)
	if f.err != nil {
		return nil, f.err
	}
	if f.after != nil {
		f.after()
	}
	return &sales.Sale{OrderNo: 7, CustomerID: in.CustomerID, ItemID: in.ItemID, Quantity: in.Quantity, Total: *in.Total}, nil
}

type fakeMaterials map[int64]*materials.Material

func (f fakeMaterials) GetByID(_ context.Context, id int64) (*materials.Material, error) {
	return f[id], nil
}

type fixture struct {
	bot    *Bot
	api    *fakeAPI
	states *memStates
	rep    *fakeReports
	rec    *fakeRecorder
	mats   fakeMaterials
}

func newFixture() *fixture {
	f := &fixture{
		api:    &fakeAPI{updates: make(chan tgbotapi.Update, 1)},
		states: &memStates{items: map[int64]*dialog.Item{}},
		rep:    &fakeReports{},
		rec:    &fakeRecorder{},
		mats: fakeMaterials{3: {
			ID: 3, Name: "Cement", PricePerUnit: decimal.NewFromInt(390), UnitType: "bag", QuantityInStock: 25,
		}},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.bot = New(f.api, log, f.states, f.rep, f.rec, f.mats, adminChat, []int64{chatID}, 20)
	return f
}

func command(text string) tgbotapi.Update {
	n := strings.IndexByte(text, ' ')
	if n < 0 {
		n = len(text)
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}},
	}}
}

func text(s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: s}}
}

func callback(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb1",
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 55,
			Chat:      &tgbotapi.Chat{ID: chatID},
			Text:      "Проверьте продажу",
		},
	}}
}

func (f *fixture) do(upds ...tgbotapi.Update) {
	for _, u := range upds {
		f.bot.handleUpdate(context.Background(), u)
	}
}

func TestLowStock_DefaultThreshold(t *testing.T) {
	f := newFixture()
	f.rep.lowStock = []materials.LowStockItem{{ItemName: "Paint (20L)", QuantityInStock: 12, UnitType: "tin", SupplierID: 1}}

	f.do(command("/lowstock"))
	assert.Equal(t, 20, f.rep.lowThreshold)
	assert.Contains(t, f.api.last().text, "Paint (20L): 12 tin")

	f.do(command("/lowstock 5"))
	assert.Equal(t, 5, f.rep.lowThreshold)
}

func TestLowStock_BadArgument(t *testing.T) {
	f := newFixture()
	f.do(command("/lowstock many"))
	assert.Contains(t, f.api.last().text, "целым числом")
	assert.Zero(t, f.rep.lowThreshold)
}

func TestDashboard(t *testing.T) {
	f := newFixture()
	f.rep.dashboard = &reports.Dashboard{
		Customers: 3, Suppliers: 2, Materials: 10,
		TotalRevenue: decimal.NewFromInt(27260), TotalUnpaid: decimal.NewFromInt(1900),
		LowStockThreshold: 20, LowStockCount: 1, LastNDays: 7,
		TopItems: []reports.ItemSold{{ItemName: "Cement", TotalSold: 20}},
	}
	f.do(command("/dashboard 7"))
	assert.Equal(t, 7, f.rep.dashboardDays)
	out := f.api.last().text
	assert.Contains(t, out, "Сводка за 7 дн.")
	assert.Contains(t, out, "Выручка: 27260.00")
	assert.Contains(t, out, "1. Cement — 20")
}

func TestReportFailureIsReported(t *testing.T) {
	f := newFixture()
	f.rep.err = errors.New("db down")
	f.do(command("/top"))
	assert.Equal(t, "Не удалось построить отчёт, попробуйте позже.", f.api.last().text)
}

func TestDaily_Empty(t *testing.T) {
	f := newFixture()
	f.do(command("/daily 3"))
	assert.Equal(t, "За выбранный период продаж нет.", f.api.last().text)
}

func TestSaleForm_HappyPathNotifiesAdmin(t *testing.T) {
	f := newFixture()
	f.rec.after = func() { f.mats[3].QuantityInStock = 15 }

	f.do(command("/sale"), text("1"), text("3"), text("10"), text("3900"))
	assert.Equal(t, dialog.StateSaleConfirm, f.states.state(chatID))
	assert.Contains(t, f.api.last().text, "Материал: Cement (#3)")

	f.do(callback(cbSaleConfirm))
	require.Len(t, f.rec.got, 1)
	got := f.rec.got[0]
	assert.Equal(t, int64(1), got.CustomerID)
	assert.Equal(t, int64(3), got.ItemID)
	assert.Equal(t, 10, got.Quantity)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(3900)))

	assert.Equal(t, dialog.StateIdle, f.states.state(chatID))
	assert.Contains(t, strings.Join(f.api.textsTo(chatID), "\n"), "Продажа #7 проведена")
	assert.Equal(t, []string{"⚠️ Материал «Cement» заканчивается: осталось 15 bag."}, f.api.textsTo(adminChat))
}

func TestSaleForm_TypedConfirmation(t *testing.T) {
	f := newFixture()
	f.do(command("/sale"), text("1"), text("3"), text("2"), text("780"), text("да"))
	require.Len(t, f.rec.got, 1)
	// остаток 25 > 20, админу не пишем
	assert.Empty(t, f.api.textsTo(adminChat))
}

func TestSaleForm_UnknownMaterialStaysOnStep(t *testing.T) {
	f := newFixture()
	f.do(command("/sale"), text("1"), text("99"))
	assert.Equal(t, dialog.StateSaleItem, f.states.state(chatID))
	assert.Contains(t, f.api.last().text, "Материал #99 не найден")
}

func TestSaleForm_BadInput(t *testing.T) {
	f := newFixture()
	f.do(command("/sale"), text("abc"))
	assert.Equal(t, dialog.StateSaleCustomer, f.states.state(chatID))
	assert.Equal(t, dialog.ErrNotPositiveInt.Error(), f.api.last().text)
}

func TestSaleForm_InsufficientStock(t *testing.T) {
	f := newFixture()
	f.rec.err = &sales.InsufficientStockError{ItemID: 3, Available: 5, Requested: 10}

	f.do(command("/sale"), text("1"), text("3"), text("10"), text("3900"), callback(cbSaleConfirm))
	assert.Equal(t, "Недостаточно на складе: доступно 5, запрошено 10.", f.api.last().text)
	assert.Equal(t, dialog.StateIdle, f.states.state(chatID))
	assert.Empty(t, f.api.textsTo(adminChat))
}

func TestSaleForm_Cancel(t *testing.T) {
	f := newFixture()
	f.do(command("/sale"), text("1"), callback(cbCancel))
	assert.Equal(t, dialog.StateIdle, f.states.state(chatID))
	assert.Equal(t, "Операция отменена.", f.api.last().text)
	assert.Equal(t, 1, f.api.answered)

	f.do(command("/sale"), command("/cancel"))
	assert.Equal(t, dialog.StateIdle, f.states.state(chatID))
}

func TestStaleConfirmIgnored(t *testing.T) {
	f := newFixture()
	f.do(callback(cbSaleConfirm))
	assert.Empty(t, f.rec.got)
	assert.Contains(t, f.api.last().text, "уже обработана или отменена")
}

func TestSaleErrorText(t *testing.T) {
	assert.Equal(t, "Материал не найден.", saleErrorText(sales.ErrMaterialNotFound))
	assert.Equal(t, "Покупатель не найден.", saleErrorText(errors.Join(sales.ErrCustomerNotFound)))
	assert.Contains(t, saleErrorText(sales.ErrInvalidQuantity), "Некорректные данные")
	assert.Equal(t, "Не удалось провести продажу, попробуйте позже.", saleErrorText(errors.New("conn reset")))
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	f.api.updates <- command("/help")

	done := make(chan error, 1)
	go func() { done <- f.bot.Run(ctx, 1) }()

	require.Eventually(t, func() bool { return f.api.count() > 0 }, time.Second, 10*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func fromChat(id int64, u tgbotapi.Update) tgbotapi.Update {
	switch {
	case u.Message != nil:
		u.Message.Chat = &tgbotapi.Chat{ID: id}
	case u.CallbackQuery != nil:
		u.CallbackQuery.Message.Chat = &tgbotapi.Chat{ID: id}
	}
	return u
}

func TestUnknownChatRefused(t *testing.T) {
	const stranger = int64(424242)
	f := newFixture()
	f.rep.dashboard = &reports.Dashboard{}

	f.do(
		fromChat(stranger, command("/sale")),
		fromChat(stranger, text("1")),
		fromChat(stranger, text("3")),
		fromChat(stranger, text("1")),
		fromChat(stranger, text("390")),
		fromChat(stranger, text("да")),
		fromChat(stranger, command("/dashboard 7")),
		fromChat(stranger, callback(cbSaleConfirm)),
	)

	assert.Empty(t, f.rec.got)
	assert.Zero(t, f.rep.dashboardDays)
	assert.Empty(t, f.states.items)
	for _, msg := range f.api.textsTo(stranger) {
		assert.Equal(t, "Доступ запрещён.", msg)
	}
	assert.Len(t, f.api.textsTo(stranger), 7)
	assert.Equal(t, 1, f.api.answered)
}

func TestAdminChatAllowed(t *testing.T) {
	f := newFixture()
	f.do(fromChat(adminChat, command("/daily")))
	assert.Equal(t, []string{"За выбранный период продаж нет."}, f.api.textsTo(adminChat))
}
