package bot

import (
	"context"
	"strconv"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/shop-orders/internal/catalog"
	"github.com/ariefcatur/shop-orders/internal/checkout"
	"github.com/ariefcatur/shop-orders/internal/intake"
	"github.com/ariefcatur/shop-orders/internal/logx"
	"github.com/ariefcatur/shop-orders/internal/orders"
	"github.com/ariefcatur/shop-orders/internal/store"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	answered []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.answered = append(f.answered, cb.Text)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the text of every message and edit sent so far.
func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if m, ok := f.sent[i].(tgbotapi.MessageConfig); ok {
			return m
		}
	}
	return tgbotapi.MessageConfig{}
}

func (f *fakeSender) lastAnswer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.answered) == 0 {
		return ""
	}
	return f.answered[len(f.answered)-1]
}

type countingNotifier struct {
	mu     sync.Mutex
	orders []orders.Order
}

func (n *countingNotifier) NotifyOrder(_ context.Context, o orders.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, o)
}

func (n *countingNotifier) NotifyStatus(context.Context, orders.Order) {}

type fixture struct {
	bot      *Bot
	svc      *intake.Service
	api      *fakeSender
	log      *orders.Log
	catalog  *catalog.Service
	notifier *countingNotifier
}

const adminID = 900

func newFixture(t *testing.T) fixture {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	l := orders.NewLog(fs)
	n := &countingNotifier{}
	svc := intake.NewService(l, n, logx.Discard())
	t.Cleanup(svc.Wait)
	m, err := checkout.NewMachine(checkout.NewMemoryStore(), svc)
	require.NoError(t, err)
	cat := catalog.NewService(fs)
	api := &fakeSender{}
	return fixture{
		bot:      New(api, m, cat, svc, []int64{adminID}, logx.Discard()),
		svc:      svc,
		api:      api,
		log:      l,
		catalog:  cat,
		notifier: n,
	}
}

func user(id int64) *tgbotapi.User {
	return &tgbotapi.User{ID: id, FirstName: "Ali", LastName: "Valiyev", UserName: "ali"}
}

func text(from int64, s string) tgbotapi.Update {
	msg := &tgbotapi.Message{From: user(from), Chat: &tgbotapi.Chat{ID: from}, Text: s}
	if len(s) > 0 && s[0] == '/' {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(s)}}
	}
	return tgbotapi.Update{Message: msg}
}

func callback(from int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-" + data,
		From:    user(from),
		Message: &tgbotapi.Message{MessageID: 42, Chat: &tgbotapi.Chat{ID: from}, Text: "order card"},
		Data:    data,
	}}
}

func TestStart_RegistersUserAndGreets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bot.Handle(ctx, text(7, "/start"))
	f.bot.Handle(ctx, text(7, "/start"))

	us, err := f.catalog.Users(ctx)
	require.NoError(t, err)
	require.Len(t, us, 1)
	assert.Equal(t, int64(7), us[0].TelegramID)
	assert.Equal(t, "Ali Valiyev", us[0].FullName)

	got := f.api.last()
	assert.Contains(t, got.Text, "Salom, Ali Valiyev!")
	assert.IsType(t, tgbotapi.ReplyKeyboardMarkup{}, got.ReplyMarkup)
}

func TestCheckoutConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.catalog.AddProduct(ctx, catalog.Product{ID: "p1", Name: "Olma", Price: 5000, CategoryID: "c1"})
	require.NoError(t, err)

	f.bot.Handle(ctx, callback(7, cbAdd+"p1"))
	assert.Equal(t, prompts[checkout.PromptItemAdded], f.api.lastAnswer())
	f.bot.Handle(ctx, callback(7, cbAdd+"p1"))

	f.bot.Handle(ctx, text(7, btnCart))
	cart := f.api.last()
	assert.Contains(t, cart.Text, "2 x 5000 = 10000 so'm")
	assert.Contains(t, cart.Text, "Umumiy summa: 10000 so'm")
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, cart.ReplyMarkup)

	f.bot.Handle(ctx, callback(7, cbCheckout))
	assert.Equal(t, prompts[checkout.PromptAskLocation], f.api.last().Text)

	f.bot.Handle(ctx, text(7, "somewhere"))
	assert.Equal(t, prompts[checkout.PromptInvalidLocation], f.api.last().Text)

	loc := text(7, "")
	loc.Message.Location = &tgbotapi.Location{Latitude: 41.2995, Longitude: 69.2401}
	f.bot.Handle(ctx, loc)
	assert.Equal(t, prompts[checkout.PromptAskPhone], f.api.last().Text)

	contact := text(7, "")
	contact.Message.Contact = &tgbotapi.Contact{PhoneNumber: "+998901234567"}
	f.bot.Handle(ctx, contact)
	assert.Equal(t, prompts[checkout.PromptConfirmed], f.api.last().Text)

	all, err := f.log.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	o := all[0]
	assert.Equal(t, orders.StatusConfirmed, o.Status)
	assert.Equal(t, "Ali Valiyev", o.Customer.Name)
	assert.Equal(t, "+998901234567", o.Customer.Phone)
	assert.Equal(t, "41.2995,69.2401", o.Customer.Location)
	assert.Equal(t, 10000.0, o.Total)
	assert.Equal(t, "7", o.UserID)
	f.svc.Wait()
	assert.Len(t, f.notifier.orders, 1)
}

func TestCart_EmptyAndCleared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.catalog.AddProduct(ctx, catalog.Product{ID: "p1", Name: "Olma", Price: 5000})
	require.NoError(t, err)

	f.bot.Handle(ctx, text(7, btnCart))
	assert.Equal(t, txtCartEmpty, f.api.last().Text)

	f.bot.Handle(ctx, callback(7, cbAdd+"p1"))
	f.bot.Handle(ctx, callback(7, cbClearCart))
	assert.Equal(t, prompts[checkout.PromptCancelled], f.api.last().Text)

	f.bot.Handle(ctx, text(7, btnCart))
	assert.Equal(t, txtCartEmpty, f.api.last().Text)
}

func TestAddUnknownProduct(t *testing.T) {
	f := newFixture(t)
	f.bot.Handle(context.Background(), callback(7, cbAdd+"missing"))
	assert.Equal(t, prompts[checkout.PromptInvalidItem], f.api.lastAnswer())
}

func TestCancelDuringCheckoutCancelsPendingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.catalog.AddProduct(ctx, catalog.Product{ID: "p1", Name: "Olma", Price: 5000})
	require.NoError(t, err)

	f.bot.Handle(ctx, callback(7, cbAdd+"p1"))
	f.bot.Handle(ctx, text(7, btnCart))
	f.bot.Handle(ctx, callback(7, cbCheckout))
	f.bot.Handle(ctx, text(7, "/cancel"))

	all, err := f.log.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, orders.StatusCancelled, all[0].Status)
	f.svc.Wait()
	assert.Empty(t, f.notifier.orders)
}

func TestCatalogBrowsing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bot.Handle(ctx, text(7, btnCatalog))
	assert.Equal(t, txtNoProducts, f.api.last().Text)

	_, err := f.catalog.AddCategory(ctx, catalog.Category{ID: "c1", Name: "Mevalar"})
	require.NoError(t, err)
	_, err = f.catalog.AddProduct(ctx, catalog.Product{ID: "p1", Name: "Olma", Price: 5000, CategoryID: "c1", Discount: 10})
	require.NoError(t, err)

	f.bot.Handle(ctx, text(7, btnCatalog))
	cats := f.api.last()
	assert.Equal(t, txtPickCategory, cats.Text)
	kb, ok := cats.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, cbCategory+"c1", *kb.InlineKeyboard[0][0].CallbackData)

	f.bot.Handle(ctx, callback(7, cbCategory+"c1"))
	prods := f.api.last()
	kb, ok = prods.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "Olma - 5000 so'm", kb.InlineKeyboard[0][0].Text)

	f.bot.Handle(ctx, callback(7, cbProduct+"p1"))
	detail := f.api.last()
	assert.Contains(t, detail.Text, "Narxi: 5000 so'm")
	assert.Contains(t, detail.Text, "Chegirma: 10%")
}

func confirmedOrder(t *testing.T, f fixture) orders.Order {
	t.Helper()
	ctx := context.Background()
	p := 5000.0
	o, err := f.log.Append(ctx, orders.Order{
		Customer: orders.CustomerInfo{Name: "Ali"},
		Items:    []orders.OrderItem{{Name: "Olma", Quantity: 2, Price: &p}},
		Status:   orders.StatusPending,
	})
	require.NoError(t, err)
	o, err = f.log.Confirm(ctx, o.ID, "+998901234567", "41.2995,69.2401")
	require.NoError(t, err)
	return o
}

func TestAdminOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bot.Handle(ctx, text(7, "/orders"))
	assert.Equal(t, txtAdminsOnly, f.api.last().Text)

	f.bot.Handle(ctx, text(adminID, "/orders"))
	assert.Equal(t, txtNoOrders, f.api.last().Text)

	o := confirmedOrder(t, f)
	f.bot.Handle(ctx, text(adminID, "/orders"))
	card := f.api.last()
	assert.Contains(t, card.Text, "Buyurtma #"+strconv.FormatInt(o.ID, 10))
	assert.Contains(t, card.Text, "Status: confirmed")
	kb, ok := card.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, cbDeliver+strconv.FormatInt(o.ID, 10), *kb.InlineKeyboard[0][0].CallbackData)

	f.bot.Handle(ctx, callback(adminID, cbDeliver+strconv.FormatInt(o.ID, 10)))
	assert.Equal(t, txtDelivered, f.api.lastAnswer())
	got, err := f.log.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDelivered, got.Status)
	texts := f.api.texts()
	assert.Equal(t, "order card\n\n"+txtDelivered, texts[len(texts)-1])

	f.bot.Handle(ctx, callback(adminID, cbCancel+strconv.FormatInt(o.ID, 10)))
	got, err = f.log.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDelivered, got.Status, "delivered orders stay delivered")
	assert.NotEqual(t, txtCancelledBy, f.api.lastAnswer())
}

func TestAdminButtonsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	o := confirmedOrder(t, f)

	f.bot.Handle(context.Background(), callback(7, cbCancel+strconv.FormatInt(o.ID, 10)))
	assert.Equal(t, txtAdminsOnly, f.api.lastAnswer())
	got, err := f.log.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusConfirmed, got.Status)
}

func TestAdminFromUsersCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.catalog.AddUser(ctx, catalog.User{TelegramID: 55, FullName: "Boss", IsAdmin: true})
	require.NoError(t, err)

	f.bot.Handle(ctx, text(55, "/users"))
	assert.Contains(t, f.api.last().Text, "Boss")
}

func TestRunStopsWhenChannelCloses(t *testing.T) {
	f := newFixture(t)
	ch := make(chan tgbotapi.Update, 1)
	ch <- text(7, "/start")
	close(ch)

	done := make(chan struct{})
	go func() {
		f.bot.Run(context.Background(), ch)
		close(done)
	}()
	<-done
	assert.Contains(t, f.api.last().Text, "Salom")
}
