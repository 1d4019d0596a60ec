package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nezhabot/internal/models"
)

const ownerID = 1001

type sentMessage struct {
	method    string
	chatID    int64
	messageID int
	reply     *models.Reply
	queryID   string
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeMessenger) record(m sentMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return f.err
}

func (f *fakeMessenger) SendMessage(_ context.Context, chatID int64, reply *models.Reply) error {
	return f.record(sentMessage{method: "sendMessage", chatID: chatID, reply: reply})
}

func (f *fakeMessenger) EditMessageText(_ context.Context, chatID int64, messageID int, reply *models.Reply) error {
	return f.record(sentMessage{method: "editMessageText", chatID: chatID, messageID: messageID, reply: reply})
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, id string) error {
	return f.record(sentMessage{method: "answerCallbackQuery", queryID: id})
}

func privateMessage(from int64, text string) *tgmodels.Message {
	return &tgmodels.Message{
		ID:   10,
		Date: 1767268800,
		Chat: tgmodels.Chat{ID: from, Type: tgmodels.ChatTypePrivate},
		From: &tgmodels.User{ID: from},
		Text: text,
	}
}

func accessible(msg *tgmodels.Message) tgmodels.MaybeInaccessibleMessage {
	return tgmodels.MaybeInaccessibleMessage{Message: msg}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text     string
		wantName string
		wantArgs string
		wantOK   bool
	}{
		{"/start", "start", "", true},
		{"/sid 3", "sid", "3", true},
		{"/server  web 1 ", "server", "web 1", true},
		{"/overview@nezha_bot prod", "overview", "prod", true},
		{"/monitor\napi", "monitor", "api", true},
		{"hello", "", "", false},
		{"/", "", "", false},
		{"/@bot", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, args, ok := ParseCommand(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestCommandDispatch(t *testing.T) {
	api := &fakeMessenger{}
	bot := NewBot(api, ownerID)

	var gotArgs string
	bot.RegisterCommand("server", "server info", func(_ context.Context, _ *tgmodels.Message, args string) (*models.Reply, error) {
		gotArgs = args
		return &models.Reply{Text: "card"}, nil
	})
	bot.RegisterCommand("serverless", "other", func(context.Context, *tgmodels.Message, string) (*models.Reply, error) {
		t.Fatal("exact command match expected")
		return nil, nil
	})

	handled, err := bot.OnUpdate(context.Background(), &tgmodels.Update{Message: privateMessage(ownerID, "/server web")})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "web", gotArgs)

	require.Len(t, api.sent, 1)
	assert.Equal(t, "sendMessage", api.sent[0].method)
	assert.Equal(t, int64(ownerID), api.sent[0].chatID)
	assert.Equal(t, "card", api.sent[0].reply.Text)
}

func TestUnknownCommandIgnored(t *testing.T) {
	api := &fakeMessenger{}
	bot := NewBot(api, ownerID)

	handled, err := bot.OnUpdate(context.Background(), &tgmodels.Update{Message: privateMessage(ownerID, "/nope")})
	require.NoError(t, err)
	assert.False(t, handled)

	handled, err = bot.OnUpdate(context.Background(), &tgmodels.Update{Message: &tgmodels.Message{Chat: tgmodels.Chat{Type: tgmodels.ChatTypePrivate}}})
	require.NoError(t, err)
	assert.False(t, handled, "message without text")
	assert.Empty(t, api.sent)
}

func TestAuthorizationGate(t *testing.T) {
	tests := []struct {
		name string
		msg  *tgmodels.Message
	}{
		{"stranger", privateMessage(2002, "/start")},
		{"group chat", &tgmodels.Message{
			Chat: tgmodels.Chat{ID: -5, Type: tgmodels.ChatTypeGroup},
			From: &tgmodels.User{ID: ownerID},
			Text: "/start",
		}},
		{"no sender", &tgmodels.Message{
			Chat: tgmodels.Chat{ID: 5, Type: tgmodels.ChatTypePrivate},
			Text: "/start",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeMessenger{}
			bot := NewBot(api, ownerID)
			called := false
			bot.RegisterCommand("start", "help", func(context.Context, *tgmodels.Message, string) (*models.Reply, error) {
				called = true
				return &models.Reply{Text: "help"}, nil
			})

			handled, err := bot.OnUpdate(context.Background(), &tgmodels.Update{Message: tt.msg})
			require.NoError(t, err)
			assert.False(t, handled)
			assert.False(t, called)
			assert.Empty(t, api.sent)
		})
	}
}

func TestHandlerErrorStillSendsReply(t *testing.T) {
	api := &fakeMessenger{}
	bot := NewBot(api, ownerID)
	bot.RegisterCommand("overview", "", func(context.Context, *tgmodels.Message, string) (*models.Reply, error) {
		return &models.Reply{Text: "failed"}, errors.New("dashboard down")
	})

	handled, err := bot.OnUpdate(context.Background(), &tgmodels.Update{Message: privateMessage(ownerID, "/overview")})
	require.NoError(t, err)
	assert.True(t, handled)
	require.Len(t, api.sent, 1)
	assert.Equal(t, "failed", api.sent[0].reply.Text)
}

func TestSendFailureReturned(t *testing.T) {
	api := &fakeMessenger{err: errors.New("network down")}
	bot := NewBot(api, ownerID)
	bot.RegisterCommand("start", "", func(context.Context, *tgmodels.Message, string) (*models.Reply, error) {
		return &models.Reply{Text: "help"}, nil
	})

	_, err := bot.OnUpdate(context.Background(), &tgmodels.Update{Message: privateMessage(ownerID, "/start")})
	assert.Error(t, err)
}

func TestCallbackQuery(t *testing.T) {
	api := &fakeMessenger{}
	bot := NewBot(api, ownerID)

	var gotData string
	bot.RegisterCallback(func(_ context.Context, q *tgmodels.CallbackQuery) (*models.Reply, error) {
		gotData = q.Data
		return &models.Reply{Text: "refreshed"}, nil
	})

	query := &tgmodels.CallbackQuery{
		ID:      "q1",
		From:    tgmodels.User{ID: ownerID},
		Message: accessible(privateMessage(ownerID, "old card")),
		Data:    "refresh_server_3",
	}
	handled, err := bot.OnUpdate(context.Background(), &tgmodels.Update{CallbackQuery: query})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "refresh_server_3", gotData)

	require.Len(t, api.sent, 2)
	assert.Equal(t, "answerCallbackQuery", api.sent[0].method, "query is answered before the edit")
	assert.Equal(t, "q1", api.sent[0].queryID)
	assert.Equal(t, "editMessageText", api.sent[1].method)
	assert.Equal(t, 10, api.sent[1].messageID)
	assert.Equal(t, "refreshed", api.sent[1].reply.Text)
}

func TestCallbackFromStrangerOnlyAnswered(t *testing.T) {
	api := &fakeMessenger{}
	bot := NewBot(api, ownerID)
	bot.RegisterCallback(func(context.Context, *tgmodels.CallbackQuery) (*models.Reply, error) {
		t.Fatal("handler must not run for strangers")
		return nil, nil
	})

	query := &tgmodels.CallbackQuery{
		ID:      "q2",
		From:    tgmodels.User{ID: 2002},
		Message: accessible(privateMessage(2002, "card")),
		Data:    "overview",
	}
	handled, err := bot.OnUpdate(context.Background(), &tgmodels.Update{CallbackQuery: query})
	require.NoError(t, err)
	assert.False(t, handled)
	require.Len(t, api.sent, 1)
	assert.Equal(t, "answerCallbackQuery", api.sent[0].method)
}

func TestCallbackOnInaccessibleMessageIgnored(t *testing.T) {
	api := &fakeMessenger{}
	bot := NewBot(api, ownerID)
	bot.RegisterCallback(func(context.Context, *tgmodels.CallbackQuery) (*models.Reply, error) {
		t.Fatal("handler must not run")
		return nil, nil
	})

	// Telegram sends date 0 for messages the bot can no longer access
	raw := `{"update_id":9,"callback_query":{"id":"q3","from":{"id":1001,"is_bot":false,"first_name":"op"},` +
		`"message":{"message_id":4,"date":0,"chat":{"id":1001,"type":"private"}},"data":"overview"}}`
	var update tgmodels.Update
	require.NoError(t, json.Unmarshal([]byte(raw), &update))

	handled, err := bot.OnUpdate(context.Background(), &update)
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, api.sent)

	query := &tgmodels.CallbackQuery{ID: "q4", From: tgmodels.User{ID: ownerID}, Data: "overview"}
	handled, err = bot.OnUpdate(context.Background(), &tgmodels.Update{CallbackQuery: query})
	require.NoError(t, err)
	assert.False(t, handled, "no message at all")
	assert.Empty(t, api.sent)
}

func TestCommandsMenu(t *testing.T) {
	bot := NewBot(&fakeMessenger{}, ownerID)
	noop := func(context.Context, *tgmodels.Message, string) (*models.Reply, error) { return nil, nil }
	bot.RegisterCommand("start", "Print help messages", noop)
	bot.RegisterCommand("/help", "Print help messages", noop)
	bot.RegisterCommand("start", "Start", noop)

	assert.Equal(t, []tgmodels.BotCommand{
		{Command: "/start", Description: "Start"},
		{Command: "/help", Description: "Print help messages"},
	}, bot.Commands())
}

func TestAuthorized(t *testing.T) {
	bot := NewBot(&fakeMessenger{}, ownerID)
	assert.True(t, bot.Authorized(tgmodels.Chat{Type: tgmodels.ChatTypePrivate}, ownerID))
	assert.False(t, bot.Authorized(tgmodels.Chat{Type: tgmodels.ChatTypeSupergroup}, ownerID))
	assert.False(t, bot.Authorized(tgmodels.Chat{Type: tgmodels.ChatTypePrivate}, 1))
}
