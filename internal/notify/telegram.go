package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// MessageSender - часть *bot.Bot, нужная для отправки
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier пишет участникам с привязанным telegram_id
type TelegramNotifier struct {
	sender MessageSender
}

func NewTelegramNotifier(sender MessageSender) *TelegramNotifier {
	return &TelegramNotifier{sender: sender}
}

// NewTelegramBot создаёт клиента Bot API только для исходящих сообщений
func NewTelegramBot(token string) (*bot.Bot, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return b, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, r := range event.Recipients {
		if r.TelegramID == nil || r.UserID == event.ActorID {
			continue
		}

		_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: *r.TelegramID,
			Text:   FormatMessage(event, r),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("send telegram message to user %d: %w", r.UserID, err))
		}
	}
	return errors.Join(errs...)
}

// FormatMessage формирует текст уведомления во времени получателя
func FormatMessage(event Event, r Recipient) string {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil || r.Timezone == "" {
		loc = time.UTC
	}

	start := event.Start.In(loc)
	end := event.End.In(loc)

	var head string
	switch event.Type {
	case EventScheduled:
		head = "📅 New meeting"
	case EventExtended:
		head = "⏱ Meeting extended"
	case EventRescheduled:
		head = "🔁 Meeting rescheduled"
		if event.CascadeFrom != "" {
			head = "🔁 Meeting moved because the previous meeting was extended"
		}
	case EventCancelled:
		head = "❌ Meeting cancelled"
	case EventResponded:
		head = "✉️ Invitation answered"
	default:
		head = "Meeting updated"
	}

	var b strings.Builder
	b.WriteString(head)
	if event.Title != "" {
		b.WriteString(": ")
		b.WriteString(event.Title)
	}
	fmt.Fprintf(&b, "\n%s %s-%s (%s)", start.Format("Mon 02.01"), start.Format("15:04"), end.Format("15:04"), loc)
	if event.Reason != "" {
		b.WriteString("\nReason: ")
		b.WriteString(event.Reason)
	}
	return b.String()
}
