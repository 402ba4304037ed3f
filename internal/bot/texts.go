package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ariefcatur/shop-orders/internal/checkout"
	"github.com/ariefcatur/shop-orders/internal/orders"
)

const (
	btnCatalog  = "🛍 Katalog"
	btnCart     = "🛒 Savat"
	btnContact  = "📱 Kontakt"
	btnLocation = "📍 Lokatsiya"

	cbCategory  = "category_"
	cbProduct   = "product_"
	cbAdd       = "add_"
	cbCheckout  = "checkout"
	cbClearCart = "clear_cart"
	cbDeliver   = "deliver_"
	cbCancel    = "cancel_"

	txtCartEmpty    = "Savatingiz bo'sh!"
	txtAdminsOnly   = "Bu buyruq faqat adminlar uchun!"
	txtTryAgain     = "Xatolik yuz berdi. Qaytadan urinib ko'ring!"
	txtPickCategory = "Kategoriyani tanlang:"
	txtPickProduct  = "Mahsulotni tanlang:"
	txtNoProducts   = "Hozircha mahsulotlar yo'q."
	txtNoOrders     = "Buyurtmalar yo'q!"
	txtNoUsers      = "Foydalanuvchilar yo'q!"
	txtDelivered    = "✅ Yetkazildi"
	txtCancelledBy  = "❌ Bekor qilindi"
)

// prompts maps checkout prompts to what the user reads.
var prompts = map[checkout.Prompt]string{
	checkout.PromptItemAdded:       "Savatga qo'shildi ✅",
	checkout.PromptInvalidItem:     "Bu mahsulotni qo'shib bo'lmadi.",
	checkout.PromptCartEmpty:       txtCartEmpty,
	checkout.PromptAskLocation:     "Buyurtma berish uchun lokatsiyangizni yuboring:",
	checkout.PromptInvalidLocation: "Iltimos, lokatsiyangizni yuboring! (masalan: 41.2995,69.2401)",
	checkout.PromptAskPhone:        "Telefon raqamingizni yuboring:",
	checkout.PromptInvalidPhone:    "Iltimos, telefon raqamingizni yuboring!",
	checkout.PromptConfirmed:       "Buyurtmangiz qabul qilindi! Tez orada siz bilan bog'lanamiz.",
	checkout.PromptCancelled:       "Buyurtma bekor qilindi.",
}

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCatalog), tgbotapi.NewKeyboardButton(btnCart)),
	)
}

func locationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation("📍 Lokatsiyani yuborish")),
	)
}

func phoneKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact("📱 Raqamni yuborish")),
	)
}

func cartKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🚚 Buyurtma berish", cbCheckout)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🗑 Savatni tozalash", cbClearCart)),
	)
}

func cartText(s checkout.Session) string {
	var b strings.Builder
	b.WriteString("Savatdagi mahsulotlar:\n\n")
	for _, it := range s.Cart {
		fmt.Fprintf(&b, "%s\n%d x %s = %s so'm\n\n", it.Name, it.Quantity,
			orders.FormatAmount(it.UnitPrice()), orders.FormatAmount(it.Subtotal()))
	}
	fmt.Fprintf(&b, "Umumiy summa: %s so'm", orders.FormatAmount(s.CartTotal()))
	return b.String()
}

func adminOrderText(o orders.Order) string {
	c := o.Customer
	var b strings.Builder
	fmt.Fprintf(&b, "Buyurtma #%d\n", o.ID)
	fmt.Fprintf(&b, "Status: %s\n", o.CurrentStatus())
	fmt.Fprintf(&b, "Mijoz: %s\n", c.Name)
	fmt.Fprintf(&b, "Telefon: %s\n", c.Phone)
	fmt.Fprintf(&b, "Lokatsiya: %s\n\n", c.Location)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "%s\n%d x %s = %s so'm\n\n", it.Name, it.Quantity,
			orders.FormatAmount(it.UnitPrice()), orders.FormatAmount(it.Subtotal()))
	}
	fmt.Fprintf(&b, "Umumiy summa: %s so'm", orders.FormatAmount(o.ItemsTotal()))
	return b.String()
}

func fullName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
