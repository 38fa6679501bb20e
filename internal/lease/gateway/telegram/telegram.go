// Package telegram implements gateway.Gateway on the Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// API is the subset of *tgbotapi.BotAPI the gateway uses.
type API interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChatMember(c tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// Telegram caps invite link names at 32 characters.
const maxInviteNameLen = 32

type Gateway struct {
	api     API
	selfID  int64
	limiter *rate.Limiter
}

var _ gateway.Gateway = (*Gateway)(nil)

// New wraps api. selfID is the bot's own user id, used for permission
// checks. ratePerSec <= 0 disables client-side throttling.
func New(api API, selfID int64, ratePerSec float64) *Gateway {
	limit := rate.Inf
	burst := 1
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
		burst = max(int(ratePerSec), 1)
	}
	return &Gateway{
		api:     api,
		selfID:  selfID,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// NewFromBot builds a Gateway around a connected bot.
func NewFromBot(bot *tgbotapi.BotAPI, ratePerSec float64) *Gateway {
	return New(bot, bot.Self.ID, ratePerSec)
}

func (g *Gateway) wait(ctx context.Context) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram: rate limit wait: %w", err)
	}
	return nil
}

func (g *Gateway) request(ctx context.Context, c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return g.api.Request(c)
}

func (g *Gateway) CreateInvitation(ctx context.Context, group int64, expiresAt time.Time, name string) (string, error) {
	if len(name) > maxInviteNameLen {
		name = name[:maxInviteNameLen]
	}

	resp, err := g.request(ctx, tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:         tgbotapi.ChatConfig{ChatID: group},
		Name:               name,
		ExpireDate:         int(expiresAt.Unix()),
		CreatesJoinRequest: true,
	})
	if err != nil {
		return "", fmt.Errorf("telegram: create invite link: %w", err)
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("telegram: decode invite link: %w", err)
	}
	if link.InviteLink == "" {
		return "", errors.New("telegram: empty invite link")
	}
	return link.InviteLink, nil
}

func (g *Gateway) ApproveJoin(ctx context.Context, group, principal int64) error {
	_, err := g.request(ctx, tgbotapi.ApproveChatJoinRequestConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: group},
		UserID:     principal,
	})
	if err != nil && !isAlreadyParticipant(err) {
		return fmt.Errorf("telegram: approve join request: %w", err)
	}
	return nil
}

func (g *Gateway) DeclineJoin(ctx context.Context, group, principal int64) error {
	_, err := g.request(ctx, tgbotapi.DeclineChatJoinRequest{
		ChatConfig: tgbotapi.ChatConfig{ChatID: group},
		UserID:     principal,
	})
	if err != nil {
		return fmt.Errorf("telegram: decline join request: %w", err)
	}
	return nil
}

func (g *Gateway) RevokeInvitation(ctx context.Context, group int64, handle string) error {
	_, err := g.request(ctx, tgbotapi.RevokeChatInviteLinkConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: group},
		InviteLink: handle,
	})
	if err != nil {
		return fmt.Errorf("telegram: revoke invite link: %w", err)
	}
	return nil
}

// EvictMember bans then immediately unbans, which removes the member but
// lets them come back later with a fresh invitation.
func (g *Gateway) EvictMember(ctx context.Context, group, principal int64) error {
	member := tgbotapi.ChatMemberConfig{ChatID: group, UserID: principal}

	if _, err := g.request(ctx, tgbotapi.BanChatMemberConfig{ChatMemberConfig: member}); err != nil {
		return fmt.Errorf("telegram: ban member: %w", err)
	}
	if _, err := g.request(ctx, tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: member,
		OnlyIfBanned:     true,
	}); err != nil {
		return fmt.Errorf("telegram: unban member: %w", err)
	}
	return nil
}

func (g *Gateway) NotifyPrincipal(ctx context.Context, principal int64, text string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(principal, text)
	msg.DisableWebPagePreview = true
	if _, err := g.api.Send(msg); err != nil {
		if isUnreachable(err) {
			return fmt.Errorf("%w: %w", gateway.ErrUnreachable, err)
		}
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

func (g *Gateway) CheckPermissions(ctx context.Context, group int64) (domain.Permissions, error) {
	if err := g.wait(ctx); err != nil {
		return domain.Permissions{}, err
	}

	member, err := g.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: group, UserID: g.selfID},
	})
	if err != nil {
		return domain.Permissions{}, fmt.Errorf("telegram: get chat member: %w", err)
	}

	return domain.Permissions{
		Status:             member.Status,
		CanInviteUsers:     member.CanInviteUsers,
		CanRestrictMembers: member.CanRestrictMembers,
	}, nil
}

func apiError(err error) (*tgbotapi.Error, bool) {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return tgErr, true
	}
	return nil, false
}

// isUnreachable matches "bot was blocked by the user", "bot can't initiate
// conversation" (403) and "chat not found" (400).
func isUnreachable(err error) bool {
	tgErr, ok := apiError(err)
	if !ok {
		return false
	}
	return tgErr.Code == 403 ||
		(tgErr.Code == 400 && strings.Contains(strings.ToLower(tgErr.Message), "chat not found"))
}

func isAlreadyParticipant(err error) bool {
	tgErr, ok := apiError(err)
	return ok && strings.Contains(tgErr.Message, "USER_ALREADY_PARTICIPANT")
}
