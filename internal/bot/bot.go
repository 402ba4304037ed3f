// Package bot is the Telegram front end. It turns updates into checkout
// events and admin commands; all state lives in the checkout machine and
// the order log.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ariefcatur/shop-orders/internal/catalog"
	"github.com/ariefcatur/shop-orders/internal/checkout"
	"github.com/ariefcatur/shop-orders/internal/orders"
)

// Sender is the part of *tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// AdminOrders is satisfied by intake.Service.
type AdminOrders interface {
	List(ctx context.Context) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, id int64, to orders.Status, traceID string) (orders.Order, error)
}

type Bot struct {
	api     Sender
	machine *checkout.Machine
	catalog *catalog.Service
	orders  AdminOrders
	admins  map[int64]bool
	log     *slog.Logger
}

func New(api Sender, m *checkout.Machine, cat *catalog.Service, ord AdminOrders, admins []int64, log *slog.Logger) *Bot {
	b := &Bot{api: api, machine: m, catalog: cat, orders: ord, admins: map[int64]bool{}, log: log}
	for _, id := range admins {
		b.admins[id] = true
	}
	return b
}

// Run handles updates one at a time until ctx ends or the channel closes.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.Handle(ctx, upd)
		}
	}
}

func (b *Bot) Handle(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		b.onCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.From != nil:
		b.onMessage(ctx, upd.Message)
	}
}

func userKey(u *tgbotapi.User) string { return strconv.FormatInt(u.ID, 10) }

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.start(ctx, msg)
		case "cancel":
			b.fire(ctx, chatID, msg.From, checkout.Event{Kind: checkout.Cancel})
		case "orders":
			b.adminOrders(ctx, chatID, msg.From)
		case "users":
			b.adminUsers(ctx, chatID, msg.From)
		}
		return
	}

	switch msg.Text {
	case btnCatalog:
		b.showCategories(ctx, chatID)
		return
	case btnCart:
		b.fire(ctx, chatID, msg.From, checkout.Event{Kind: checkout.ShowCart})
		return
	}

	s, err := b.machine.Session(ctx, userKey(msg.From))
	if err != nil {
		b.log.Error("load session", "user_id", msg.From.ID, "err", err)
		b.reply(chatID, txtTryAgain, nil)
		return
	}
	switch s.State {
	case checkout.AwaitingLocation:
		text := msg.Text
		if msg.Location != nil {
			text = fmt.Sprintf("%s,%s",
				strconv.FormatFloat(msg.Location.Latitude, 'f', -1, 64),
				strconv.FormatFloat(msg.Location.Longitude, 'f', -1, 64))
		}
		b.fire(ctx, chatID, msg.From, checkout.Event{Kind: checkout.Location, Text: text})
	case checkout.AwaitingPhone:
		text := msg.Text
		if msg.Contact != nil {
			text = msg.Contact.PhoneNumber
		}
		b.fire(ctx, chatID, msg.From, checkout.Event{Kind: checkout.Phone, Text: text})
	}
}

func (b *Bot) start(ctx context.Context, msg *tgbotapi.Message) {
	if _, created, err := b.catalog.EnsureTelegramUser(ctx, msg.From.ID, msg.From.UserName, fullName(msg.From)); err != nil {
		b.log.Error("register user", "user_id", msg.From.ID, "err", err)
	} else if created {
		b.log.Info("user registered", "user_id", msg.From.ID)
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Salom, %s!\nDo'konimiz botiga xush kelibsiz!", fullName(msg.From)), mainKeyboard())
}

func (b *Bot) onCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data
	answer := ""

	switch {
	case data == cbCheckout:
		b.fire(ctx, chatID, cb.From, checkout.Event{Kind: checkout.Checkout, Customer: orders.CustomerInfo{Name: fullName(cb.From)}})
	case data == cbClearCart:
		b.fire(ctx, chatID, cb.From, checkout.Event{Kind: checkout.Cancel})
	case strings.HasPrefix(data, cbCategory):
		b.showProducts(ctx, chatID, strings.TrimPrefix(data, cbCategory))
	case strings.HasPrefix(data, cbProduct):
		b.showProduct(ctx, chatID, strings.TrimPrefix(data, cbProduct))
	case strings.HasPrefix(data, cbAdd):
		answer = b.addToCart(ctx, chatID, cb.From, strings.TrimPrefix(data, cbAdd))
	case strings.HasPrefix(data, cbDeliver):
		answer = b.adminSetStatus(ctx, cb, strings.TrimPrefix(data, cbDeliver), orders.StatusDelivered, txtDelivered)
	case strings.HasPrefix(data, cbCancel):
		answer = b.adminSetStatus(ctx, cb, strings.TrimPrefix(data, cbCancel), orders.StatusCancelled, txtCancelledBy)
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, answer)); err != nil {
		b.log.Warn("answer callback", "err", err)
	}
}

// fire applies a checkout event and tells the user what happens next.
func (b *Bot) fire(ctx context.Context, chatID int64, from *tgbotapi.User, ev checkout.Event) {
	out, err := b.machine.Fire(ctx, userKey(from), ev)
	if errors.Is(err, checkout.ErrIllegalEvent) {
		if ev.Kind == checkout.ShowCart || ev.Kind == checkout.Cancel {
			b.reply(chatID, txtCartEmpty, mainKeyboard())
		}
		return
	}
	if err != nil {
		b.log.Error("checkout event failed", "user_id", from.ID, "event", ev.Kind.String(), "err", err)
		b.reply(chatID, txtTryAgain, nil)
		return
	}

	switch out.Prompt {
	case checkout.PromptCart:
		b.reply(chatID, cartText(out.Session), cartKeyboard())
	case checkout.PromptAskLocation, checkout.PromptInvalidLocation:
		b.reply(chatID, prompts[out.Prompt], locationKeyboard())
	case checkout.PromptAskPhone, checkout.PromptInvalidPhone:
		b.reply(chatID, prompts[out.Prompt], phoneKeyboard())
	case checkout.PromptConfirmed, checkout.PromptCancelled, checkout.PromptCartEmpty:
		b.reply(chatID, prompts[out.Prompt], mainKeyboard())
	default:
		if text, ok := prompts[out.Prompt]; ok {
			b.reply(chatID, text, nil)
		}
	}
}

func (b *Bot) addToCart(ctx context.Context, chatID int64, from *tgbotapi.User, productID string) string {
	p, err := b.catalog.Product(ctx, productID)
	if err != nil {
		b.log.Warn("add to cart", "product_id", productID, "err", err)
		return prompts[checkout.PromptInvalidItem]
	}
	price := p.Price
	out, err := b.machine.Fire(ctx, userKey(from), checkout.Event{Kind: checkout.AddItem, Item: orders.OrderItem{
		Name:     p.Name,
		Quantity: 1,
		Price:    &price,
		Product:  &orders.ProductRef{ID: p.ID, Name: p.Name, Price: &price},
	}})
	if errors.Is(err, checkout.ErrIllegalEvent) {
		return "Avval joriy buyurtmani yakunlang yoki /cancel"
	}
	if err != nil {
		b.log.Error("add to cart", "user_id", from.ID, "err", err)
		return txtTryAgain
	}
	return prompts[out.Prompt]
}

func (b *Bot) showCategories(ctx context.Context, chatID int64) {
	cs, err := b.catalog.Categories(ctx)
	if err != nil {
		b.log.Error("list categories", "err", err)
		b.reply(chatID, txtTryAgain, nil)
		return
	}
	if len(cs) == 0 {
		b.showProducts(ctx, chatID, "")
		return
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(c.Name, cbCategory+c.ID)))
	}
	b.reply(chatID, txtPickCategory, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// showProducts lists one category, or everything when categoryID is empty.
func (b *Bot) showProducts(ctx context.Context, chatID int64, categoryID string) {
	var ps []catalog.Product
	var err error
	if categoryID == "" {
		ps, err = b.catalog.Products(ctx)
	} else {
		ps, err = b.catalog.ProductsIn(ctx, categoryID)
	}
	if err != nil {
		b.log.Error("list products", "category_id", categoryID, "err", err)
		b.reply(chatID, txtTryAgain, nil)
		return
	}
	if len(ps) == 0 {
		b.reply(chatID, txtNoProducts, nil)
		return
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(ps))
	for _, p := range ps {
		label := fmt.Sprintf("%s - %s so'm", p.Name, orders.FormatAmount(p.Price))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, cbProduct+p.ID)))
	}
	b.reply(chatID, txtPickProduct, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showProduct(ctx context.Context, chatID int64, productID string) {
	p, err := b.catalog.Product(ctx, productID)
	if err != nil {
		b.reply(chatID, txtNoProducts, nil)
		return
	}
	var t strings.Builder
	fmt.Fprintf(&t, "%s\n\nNarxi: %s so'm\n", p.Name, orders.FormatAmount(p.Price))
	if p.OriginalPrice > 0 {
		fmt.Fprintf(&t, "Avvalgi narxi: %s so'm\n", orders.FormatAmount(p.OriginalPrice))
	}
	if p.Discount > 0 {
		fmt.Fprintf(&t, "Chegirma: %d%%\n", p.Discount)
	}
	if p.Description != "" {
		fmt.Fprintf(&t, "\n%s", p.Description)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🛒 Savatga qo'shish", cbAdd+p.ID)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Orqaga", cbCategory+p.CategoryID)),
	)
	b.reply(chatID, t.String(), kb)
}

func (b *Bot) reply(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("send reply", "chat_id", chatID, "err", err)
	}
}
