package telegram_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

const group = int64(-1001234567890)

type apiCall struct {
	method string
	form   map[string]string
}

// fakeBotAPI answers Bot API methods with canned JSON bodies.
type fakeBotAPI struct {
	mu        sync.Mutex
	calls     []apiCall
	responses map[string]string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	method := path.Base(r.URL.Path)

	form := map[string]string{}
	for k := range r.Form {
		form[k] = r.Form.Get(k)
	}

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, form: form})
	body, ok := f.responses[method]
	f.mu.Unlock()

	if !ok {
		body = `{"ok":true,"result":true}`
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (f *fakeBotAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.method != "getMe" {
			out = append(out, c.method)
		}
	}
	return out
}

func (f *fakeBotAPI) last(method string) apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].method == method {
			return f.calls[i]
		}
	}
	return apiCall{}
}

func newGateway(t *testing.T, responses map[string]string) (*telegram.Gateway, *fakeBotAPI) {
	t.Helper()

	if responses == nil {
		responses = map[string]string{}
	}
	if _, ok := responses["getMe"]; !ok {
		responses["getMe"] = `{"ok":true,"result":{"id":777,"is_bot":true,"first_name":"lease","username":"lease_bot"}}`
	}
	fake := &fakeBotAPI{responses: responses}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint("TOKEN", srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	return telegram.NewFromBot(bot, 0), fake
}

func TestCreateInvitation(t *testing.T) {
	g, fake := newGateway(t, map[string]string{
		"createChatInviteLink": `{"ok":true,"result":{"invite_link":"https://t.me/+abc","creates_join_request":true}}`,
	})

	expires := time.Unix(1_760_000_000, 0)
	handle, err := g.CreateInvitation(context.Background(), group, expires, "plan 30d by an admin with a long name")
	require.NoError(t, err)
	require.Equal(t, "https://t.me/+abc", handle)

	call := fake.last("createChatInviteLink")
	require.Equal(t, "true", call.form["creates_join_request"])
	require.Equal(t, "1760000000", call.form["expire_date"])
	require.Equal(t, "-1001234567890", call.form["chat_id"])
	require.LessOrEqual(t, len(call.form["name"]), 32)
}

func TestCreateInvitationFailure(t *testing.T) {
	g, _ := newGateway(t, map[string]string{
		"createChatInviteLink": `{"ok":false,"error_code":400,"description":"Bad Request: not enough rights"}`,
	})

	_, err := g.CreateInvitation(context.Background(), group, time.Now().Add(time.Hour), "x")
	require.Error(t, err)

	var tgErr *tgbotapi.Error
	require.True(t, errors.As(err, &tgErr))
	require.Equal(t, 400, tgErr.Code)
}

func TestApproveJoinIsIdempotent(t *testing.T) {
	g, _ := newGateway(t, map[string]string{
		"approveChatJoinRequest": `{"ok":false,"error_code":400,"description":"Bad Request: USER_ALREADY_PARTICIPANT"}`,
	})

	require.NoError(t, g.ApproveJoin(context.Background(), group, 42))
}

func TestApproveJoinFailure(t *testing.T) {
	g, _ := newGateway(t, map[string]string{
		"approveChatJoinRequest": `{"ok":false,"error_code":400,"description":"Bad Request: HIDE_REQUESTER_MISSING"}`,
	})

	require.Error(t, g.ApproveJoin(context.Background(), group, 42))
}

func TestEvictMemberBansThenUnbans(t *testing.T) {
	g, fake := newGateway(t, nil)

	require.NoError(t, g.EvictMember(context.Background(), group, 42))
	require.Equal(t, []string{"banChatMember", "unbanChatMember"}, fake.methods())
	require.Equal(t, "true", fake.last("unbanChatMember").form["only_if_banned"])
	require.Equal(t, "42", fake.last("banChatMember").form["user_id"])
}

func TestEvictMemberStopsWhenBanFails(t *testing.T) {
	g, fake := newGateway(t, map[string]string{
		"banChatMember": `{"ok":false,"error_code":400,"description":"Bad Request: user is an administrator"}`,
	})

	require.Error(t, g.EvictMember(context.Background(), group, 42))
	require.Equal(t, []string{"banChatMember"}, fake.methods())
}

func TestDeclineAndRevoke(t *testing.T) {
	g, fake := newGateway(t, nil)

	require.NoError(t, g.DeclineJoin(context.Background(), group, 42))
	require.NoError(t, g.RevokeInvitation(context.Background(), group, "https://t.me/+abc"))
	require.Equal(t, []string{"declineChatJoinRequest", "revokeChatInviteLink"}, fake.methods())
	require.Equal(t, "https://t.me/+abc", fake.last("revokeChatInviteLink").form["invite_link"])
}

func TestNotifyPrincipal(t *testing.T) {
	t.Run("delivered", func(t *testing.T) {
		g, fake := newGateway(t, map[string]string{
			"sendMessage": `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`,
		})

		require.NoError(t, g.NotifyPrincipal(context.Background(), 42, "hello"))
		require.Equal(t, "hello", fake.last("sendMessage").form["text"])
	})

	t.Run("blocked is unreachable", func(t *testing.T) {
		g, _ := newGateway(t, map[string]string{
			"sendMessage": `{"ok":false,"error_code":403,"description":"Forbidden: bot can't initiate conversation with a user"}`,
		})

		err := g.NotifyPrincipal(context.Background(), 42, "hello")
		require.ErrorIs(t, err, gateway.ErrUnreachable)
	})

	t.Run("other failures are not", func(t *testing.T) {
		g, _ := newGateway(t, map[string]string{
			"sendMessage": `{"ok":false,"error_code":429,"description":"Too Many Requests"}`,
		})

		err := g.NotifyPrincipal(context.Background(), 42, "hello")
		require.Error(t, err)
		require.NotErrorIs(t, err, gateway.ErrUnreachable)
	})
}

func TestCheckPermissions(t *testing.T) {
	g, fake := newGateway(t, map[string]string{
		"getChatMember": `{"ok":true,"result":{"user":{"id":777,"is_bot":true,"first_name":"lease"},"status":"administrator","can_invite_users":true,"can_restrict_members":false}}`,
	})

	perms, err := g.CheckPermissions(context.Background(), group)
	require.NoError(t, err)
	require.Equal(t, "administrator", perms.Status)
	require.True(t, perms.CanInviteUsers)
	require.False(t, perms.CanRestrictMembers)
	require.False(t, perms.Sufficient())
	require.Equal(t, "777", fake.last("getChatMember").form["user_id"])
}

func TestRateLimiterHonoursContext(t *testing.T) {
	g, _ := newGateway(t, nil)
	limited := telegram.New(nil, 777, 0.001)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// First token is available from the burst; the context check still wins.
	err := limited.ApproveJoin(ctx, group, 42)
	require.Error(t, err)

	require.NoError(t, g.ApproveJoin(context.Background(), group, 42))
}
