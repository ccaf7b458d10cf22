// Package notify pushes completed sales to the shop owner's Telegram chat.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kiwari-pos/tiffin/internal/ledger"
	"github.com/kiwari-pos/tiffin/internal/money"
)

// Sender delivers one Telegram message. Satisfied by *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram announces each completed order in a chat.
type Telegram struct {
	api       Sender
	chatID    int64
	formatter *money.Formatter
	wg        sync.WaitGroup
}

// NewTelegramBot connects to the Bot API with token.
func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return api, nil
}

// NewTelegram creates a notifier posting to chatID through api.
func NewTelegram(api Sender, chatID int64, f *money.Formatter) *Telegram {
	return &Telegram{api: api, chatID: chatID, formatter: f}
}

// OrderCompleted sends the order summary without blocking the checkout.
// It satisfies service.OrderObserver.
func (t *Telegram) OrderCompleted(_ context.Context, order ledger.Order) {
	msg := tgbotapi.NewMessage(t.chatID, t.Summary(order))
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if _, err := t.api.Send(msg); err != nil {
			slog.Error("Failed to send sale notification", "orderId", order.OrderID, "error", err)
		}
	}()
}

// Wait blocks until in-flight notifications finish.
func (t *Telegram) Wait() { t.wg.Wait() }

// Summary renders the chat message for order.
func (t *Telegram) Summary(order ledger.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New sale %s\n", order.OrderID)
	for _, line := range order.Items {
		fmt.Fprintf(&b, "%d x %s  %s\n", line.Quantity, line.Name, t.formatter.Format(line.Amount()))
	}
	fmt.Fprintf(&b, "Total: %s", t.formatter.Format(order.Total))
	return b.String()
}
