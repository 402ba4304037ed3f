package notify

import (
	"context"
	"errors"
	"log/slog"
)

// ErrDispatch marks a failed send. It never leaves the Dispatcher.
var ErrDispatch = errors.New("notify: dispatch failed")

// Channel is the outbound chat capability. Implementations make one attempt
// per call.
type Channel interface {
	SendText(ctx context.Context, chatID int64, body string) error
	SendLocation(ctx context.Context, chatID int64, lat, lon float64) error
	SendDocument(ctx context.Context, chatID int64, data []byte, filename, caption string) error
}

// LogChannel writes every message to the logger instead of a chat. It is
// used when no bot token is configured.
type LogChannel struct {
	Log *slog.Logger
}

func (c LogChannel) SendText(_ context.Context, chatID int64, body string) error {
	c.Log.Info("notify text", "chat_id", chatID, "body", body)
	return nil
}

func (c LogChannel) SendLocation(_ context.Context, chatID int64, lat, lon float64) error {
	c.Log.Info("notify location", "chat_id", chatID, "lat", lat, "lon", lon)
	return nil
}

func (c LogChannel) SendDocument(_ context.Context, chatID int64, data []byte, filename, caption string) error {
	c.Log.Info("notify document", "chat_id", chatID, "filename", filename, "bytes", len(data), "caption", caption)
	return nil
}
