package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/service"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const timeLayout = "2006-01-02 15:04 MST"

const helpText = `Admin commands:
/issue <days> - create a single-use invitation
/renew <@name|id> <days> - extend a subscription
/subs - list subscriptions
/tokens - list unredeemed invitations
/sweep - evict lapsed members now
/remind - send expiry reminders now
/purge [code] - delete lapsed subscriptions
/check - show the bot's permissions in the group`

type command func(ctx context.Context, msg *tgbotapi.Message, args []string) (string, error)

var errUsage = errors.New("usage")

func (b *Bot) commands() map[string]command {
	return map[string]command{
		"help":   b.cmdHelp,
		"issue":  b.cmdIssue,
		"renew":  b.cmdRenew,
		"subs":   b.cmdSubs,
		"tokens": b.cmdTokens,
		"sweep":  b.cmdSweep,
		"remind": b.cmdRemind,
		"purge":  b.cmdPurge,
		"check":  b.cmdCheck,
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	name := msg.Command()
	var from int64
	if msg.From != nil {
		from = msg.From.ID
	}
	ctx = slogx.With(ctx, slog.String("command", name), slog.Int64("from", from))
	log := slogx.FromContext(ctx)

	if name == "start" {
		b.reply(ctx, msg.Chat.ID, "Hi! I will message you here about your group access.")
		return
	}

	cmd, ok := b.commands()[name]
	if !ok {
		return
	}
	if !b.isAdmin(from) {
		log.Warn("command from non-admin refused")
		b.reply(ctx, msg.Chat.ID, "Not authorized.")
		return
	}

	args := strings.Fields(msg.CommandArguments())
	text, err := cmd(ctx, msg, args)
	if err != nil {
		log.Warn("command failed", slog.Any("error", err))
		text = errorText(err)
	} else {
		log.Info("command handled")
	}
	b.reply(ctx, msg.Chat.ID, text)
}

func errorText(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return "Usage: " + strings.TrimPrefix(err.Error(), errUsage.Error()+": ")
	case errors.Is(err, service.ErrInvalidArgument):
		return "Invalid request: " + err.Error()
	case errors.Is(err, service.ErrNotFound):
		return "Not found: " + err.Error()
	case errors.Is(err, service.ErrNotAuthorized):
		return "Not authorized."
	case errors.Is(err, service.ErrGateway):
		return "Telegram refused the request, try again later."
	default:
		return "Something went wrong, check the logs."
	}
}

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

func positiveDays(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil && n > 0
}

func (b *Bot) cmdHelp(context.Context, *tgbotapi.Message, []string) (string, error) {
	return helpText, nil
}

func (b *Bot) cmdIssue(ctx context.Context, msg *tgbotapi.Message, args []string) (string, error) {
	if len(args) != 1 {
		return "", usage("/issue <days>")
	}
	days, ok := positiveDays(args[0])
	if !ok {
		return "", usage("/issue <days>, days must be a positive number")
	}

	tok, err := b.Tokens.Issue(ctx, days, displayName(msg.From))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Invitation for %d days, valid until %s:\n%s",
		tok.PlanDays, tok.ValidUntil.In(b.location()).Format(timeLayout), tok.Handle), nil
}

func (b *Bot) cmdRenew(ctx context.Context, _ *tgbotapi.Message, args []string) (string, error) {
	if len(args) != 2 {
		return "", usage("/renew <@name|id> <days>")
	}
	days, ok := positiveDays(args[1])
	if !ok {
		return "", usage("/renew <@name|id> <days>, days must be a positive number")
	}

	sub, err := b.Renewal.Renew(ctx, args[0], days)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (%d) now expires %s.",
		sub.Label(), sub.PrincipalID, sub.ExpiresAt.In(b.location()).Format(timeLayout)), nil
}

func (b *Bot) cmdSubs(ctx context.Context, _ *tgbotapi.Message, _ []string) (string, error) {
	views, err := b.Subscriptions.List(ctx)
	if err != nil {
		return "", err
	}
	if len(views) == 0 {
		return "No subscriptions.", nil
	}

	var sb strings.Builder
	for _, v := range views {
		fmt.Fprintf(&sb, "%s %s (%d) until %s\n",
			v.Status, v.Label(), v.PrincipalID, v.ExpiresAt.In(b.location()).Format(timeLayout))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (b *Bot) cmdTokens(ctx context.Context, _ *tgbotapi.Message, _ []string) (string, error) {
	tokens, err := b.Tokens.ListPending(ctx)
	if err != nil {
		return "", err
	}
	if len(tokens) == 0 {
		return "No pending invitations.", nil
	}

	var sb strings.Builder
	for _, t := range tokens {
		fmt.Fprintf(&sb, "%s  %dd, valid until %s\n",
			t.Handle, t.PlanDays, t.ValidUntil.In(b.location()).Format(timeLayout))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (b *Bot) cmdSweep(ctx context.Context, _ *tgbotapi.Message, _ []string) (string, error) {
	res, err := b.Sweeper.Sweep(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Sweep %s: evicted %d, failed %d.", res.RunID, len(res.Evicted), len(res.Failed)), nil
}

func (b *Bot) cmdRemind(ctx context.Context, _ *tgbotapi.Message, _ []string) (string, error) {
	sent, err := b.Reminders.Remind(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Sent %d reminders.", sent), nil
}

func (b *Bot) cmdPurge(ctx context.Context, _ *tgbotapi.Message, args []string) (string, error) {
	code := ""
	if len(args) > 0 {
		code = args[0]
	}
	n, err := b.Subscriptions.Purge(ctx, code)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Purged %d lapsed subscriptions.", n), nil
}

func (b *Bot) cmdCheck(ctx context.Context, _ *tgbotapi.Message, _ []string) (string, error) {
	perms, err := b.Diagnostics.Check(ctx)
	if err != nil {
		return "", err
	}
	verdict := "OK"
	if !perms.Sufficient() {
		verdict = "missing permissions"
	}
	return fmt.Sprintf("Status: %s\nCan invite users: %t\nCan restrict members: %t\n%s",
		perms.Status, perms.CanInviteUsers, perms.CanRestrictMembers, verdict), nil
}
