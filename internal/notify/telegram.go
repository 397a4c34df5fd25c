// Package notify delivers booking notifications to staff over Telegram.
// Clients get calendar alarms from the exported .ics instead; staff chats
// receive new-booking, cancellation and reminder messages.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"navalha/internal/events"
	"navalha/internal/models"
)

// TelegramNotifier sends messages to the configured manager chats.
type TelegramNotifier struct {
	bot      *tgbotapi.BotAPI
	managers []int64
	limiter  *rate.Limiter
	logger   *zerolog.Logger
}

// NewTelegramNotifier connects to the Bot API. The limiter keeps sends under
// Telegram's broadcast threshold.
func NewTelegramNotifier(token string, debug bool, managers []int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	bot.Debug = debug

	logger.Info().Str("account", bot.Self.UserName).Msg("Telegram notifier authorized")

	return &TelegramNotifier{
		bot:      bot,
		managers: managers,
		limiter:  rate.NewLimiter(rate.Limit(20), 30),
		logger:   logger,
	}, nil
}

// SubscribeBookingEvents relays booking lifecycle events to manager chats.
func (n *TelegramNotifier) SubscribeBookingEvents(bus *events.EventBus) {
	bus.Subscribe(events.TypeBookingCreated, func(e events.Event) error {
		return n.notifyBookingEvent(e, "New booking")
	})
	bus.Subscribe(events.TypeBookingCanceled, func(e events.Event) error {
		return n.notifyBookingEvent(e, "Booking canceled")
	})
}

func (n *TelegramNotifier) notifyBookingEvent(e events.Event, title string) error {
	var booking models.Booking
	if err := json.Unmarshal(e.Payload, &booking); err != nil {
		return fmt.Errorf("decode booking event: %w", err)
	}

	text := fmt.Sprintf("%s\n%s\n%s %s\nBarber: %s\nClient: %s (%s)",
		title,
		booking.ServiceName,
		booking.StartTime.Format("2006-01-02"),
		booking.StartTime.Format("15:04"),
		booking.BarberName,
		booking.ClientName,
		booking.ClientPhone,
	)
	return n.broadcast(context.Background(), text)
}

// SendReminder implements reminders.Notifier. Staff get a heads-up about the
// upcoming appointment.
func (n *TelegramNotifier) SendReminder(ctx context.Context, booking *models.Booking) error {
	text := fmt.Sprintf("Upcoming appointment\n%s\n%s %s\nBarber: %s\nClient: %s (%s)",
		booking.ServiceName,
		booking.StartTime.Format("2006-01-02"),
		booking.StartTime.Format("15:04"),
		booking.BarberName,
		booking.ClientName,
		booking.ClientPhone,
	)
	return n.broadcast(ctx, text)
}

func (n *TelegramNotifier) broadcast(ctx context.Context, text string) error {
	var lastErr error
	for _, chatID := range n.managers {
		if err := n.limiter.Wait(ctx); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send telegram message")
			lastErr = err
		}
	}
	return lastErr
}
