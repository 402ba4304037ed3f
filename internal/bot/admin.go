package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ariefcatur/shop-orders/internal/orders"
)

// isAdmin accepts ADMIN_IDS and users flagged is_admin in the users collection.
func (b *Bot) isAdmin(ctx context.Context, u *tgbotapi.User) bool {
	if b.admins[u.ID] {
		return true
	}
	ok, err := b.catalog.IsAdmin(ctx, u.ID)
	if err != nil {
		b.log.Error("admin lookup", "user_id", u.ID, "err", err)
	}
	return ok
}

// adminOrders lists every order past pending; confirmed ones get
// deliver/cancel buttons.
func (b *Bot) adminOrders(ctx context.Context, chatID int64, from *tgbotapi.User) {
	if !b.isAdmin(ctx, from) {
		b.reply(chatID, txtAdminsOnly, nil)
		return
	}
	all, err := b.orders.List(ctx)
	if err != nil {
		b.log.Error("list orders", "err", err)
		b.reply(chatID, txtTryAgain, nil)
		return
	}
	shown := 0
	for _, o := range all {
		st := o.CurrentStatus()
		if st == orders.StatusPending {
			continue
		}
		shown++
		var markup any
		if st == orders.StatusConfirmed {
			id := strconv.FormatInt(o.ID, 10)
			markup = tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(txtDelivered, cbDeliver+id)),
				tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Bekor qilish", cbCancel+id)),
			)
		}
		b.reply(chatID, adminOrderText(o), markup)
	}
	if shown == 0 {
		b.reply(chatID, txtNoOrders, nil)
	}
}

func (b *Bot) adminUsers(ctx context.Context, chatID int64, from *tgbotapi.User) {
	if !b.isAdmin(ctx, from) {
		b.reply(chatID, txtAdminsOnly, nil)
		return
	}
	us, err := b.catalog.Users(ctx)
	if err != nil {
		b.log.Error("list users", "err", err)
		b.reply(chatID, txtTryAgain, nil)
		return
	}
	if len(us) == 0 {
		b.reply(chatID, txtNoUsers, nil)
		return
	}
	var t strings.Builder
	t.WriteString("Foydalanuvchilar:\n\n")
	for _, u := range us {
		fmt.Fprintf(&t, "%s - %s\n", u.FullName, u.Phone)
	}
	b.reply(chatID, t.String(), nil)
}

// adminSetStatus moves an order and marks the admin's message. The returned
// text answers the button press.
func (b *Bot) adminSetStatus(ctx context.Context, cb *tgbotapi.CallbackQuery, rawID string, to orders.Status, mark string) string {
	if !b.isAdmin(ctx, cb.From) {
		return txtAdminsOnly
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return txtTryAgain
	}
	if _, err := b.orders.UpdateStatus(ctx, id, to, ""); err != nil {
		switch {
		case errors.Is(err, orders.ErrIllegalTransition), errors.Is(err, orders.ErrNotFound):
			return err.Error()
		default:
			b.log.Error("admin status update", "order_id", id, "to", to, "err", err)
			return txtTryAgain
		}
	}
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, cb.Message.Text+"\n\n"+mark)
	if _, err := b.api.Send(edit); err != nil {
		b.log.Warn("edit admin message", "order_id", id, "err", err)
	}
	return mark
}
