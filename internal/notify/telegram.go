package notify

import (
	"context"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramChannel sends through the Bot API. Each request is bounded by the
// HTTP client timeout and by ctx.
type TelegramChannel struct {
	api *tgbotapi.BotAPI
}

// NewTelegramChannel does not call getMe, so a down API does not block startup.
// timeout is the per-message budget; the HTTP client allows twice that so
// document uploads are bounded by the caller's context, not cut short here.
func NewTelegramChannel(token, endpoint string, timeout time.Duration) *TelegramChannel {
	api := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: 2 * timeout},
		Buffer: 100,
	}
	api.SetAPIEndpoint(endpoint)
	return &TelegramChannel{api: api}
}

func (t *TelegramChannel) SendText(ctx context.Context, chatID int64, body string) error {
	return t.send(ctx, tgbotapi.NewMessage(chatID, body))
}

func (t *TelegramChannel) SendLocation(ctx context.Context, chatID int64, lat, lon float64) error {
	return t.send(ctx, tgbotapi.NewLocation(chatID, lat, lon))
}

func (t *TelegramChannel) SendDocument(ctx context.Context, chatID int64, data []byte, filename, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	doc.Caption = caption
	return t.send(ctx, doc)
}

// send gives up waiting when ctx ends; the request itself stops at the
// client timeout.
func (t *TelegramChannel) send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		_, err := t.api.Send(c)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
