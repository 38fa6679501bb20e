// Package bot drives the Telegram update loop: join requests go to the
// admission decider and administrator commands to the lease services.
package bot

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/service"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UpdateSource is the long-polling half of *tgbotapi.BotAPI.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Sender is the replying half of *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	Updates  UpdateSource
	Sender   Sender
	Logger   *slog.Logger
	AdminIDs []int64
	Location *time.Location

	Tokens        *service.TokenService
	Admission     *service.AdmissionService
	Renewal       *service.RenewalService
	Sweeper       *service.Sweeper
	Reminders     *service.ReminderService
	Subscriptions *service.SubscriptionService
	Diagnostics   *service.DiagnosticsService
}

// Run consumes updates one at a time until ctx is cancelled or the update
// channel closes.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	cfg.AllowedUpdates = []string{"message", "chat_join_request"}

	updates := b.Updates.GetUpdatesChan(cfg)
	b.Logger.Info("bot update loop started")

	for {
		select {
		case <-ctx.Done():
			b.Updates.StopReceivingUpdates()
			b.Logger.Info("bot update loop stopped")
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			b.Handle(ctx, u)
		}
	}
}

// Handle dispatches a single update. It never returns an error: failures
// are logged and, for commands, reported back to the sender.
func (b *Bot) Handle(ctx context.Context, u tgbotapi.Update) {
	ctx = slogx.WithContext(ctx, b.Logger.With(slog.Int("update_id", u.UpdateID)))

	switch {
	case u.ChatJoinRequest != nil:
		b.handleJoinRequest(ctx, u.ChatJoinRequest)
	case u.Message != nil && u.Message.IsCommand():
		b.handleCommand(ctx, u.Message)
	}
}

func (b *Bot) handleJoinRequest(ctx context.Context, req *tgbotapi.ChatJoinRequest) {
	sig := domain.JoinSignal{
		GroupID:     req.Chat.ID,
		PrincipalID: req.From.ID,
		DisplayName: displayName(&req.From),
	}
	if req.InviteLink != nil {
		sig.Handle = req.InviteLink.InviteLink
	}

	if _, err := b.Admission.Decide(ctx, sig); err != nil {
		slogx.FromContext(ctx).Error("join request not decided", slog.Any("error", err))
	}
}

func (b *Bot) isAdmin(id int64) bool {
	return slices.Contains(b.AdminIDs, id)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.Sender.Send(msg); err != nil {
		slogx.FromContext(ctx).Warn("failed to send reply",
			slog.Int64("chat_id", chatID),
			slog.Any("error", err),
		)
	}
}

func (b *Bot) location() *time.Location {
	if b.Location == nil {
		return time.UTC
	}
	return b.Location
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return u.UserName
	}
	return u.FirstName
}
