package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nezhabot/internal/models"
)

const testToken = "123456:test-token"

type recordedCall struct {
	Method string
	Form   map[string]string
}

// fakeBotAPI records Bot API calls and answers ok=true unless told otherwise
type fakeBotAPI struct {
	mu    sync.Mutex
	calls []recordedCall
	fail  map[string]string
}

func (f *fakeBotAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		method, ok := strings.CutPrefix(r.URL.Path, "/bot"+testToken+"/")
		if !assert.True(t, ok, r.URL.Path) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)

		assert.NoError(t, r.ParseMultipartForm(1<<20))
		form := make(map[string]string)
		for k, v := range r.Form {
			form[k] = v[0]
		}

		f.mu.Lock()
		f.calls = append(f.calls, recordedCall{Method: method, Form: form})
		desc, failing := f.fail[method]
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case failing:
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"ok":false,"error_code":400,"description":%q}`, desc)
		case method == "sendMessage" || method == "editMessageText":
			io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":1767268800,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
		default:
			io.WriteString(w, `{"ok":true,"result":true}`)
		}
	}
}

func (f *fakeBotAPI) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func newTestClient(t *testing.T) (*Client, *fakeBotAPI) {
	t.Helper()
	fake := &fakeBotAPI{fail: map[string]string{}}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL+"/", testToken, 0)
	require.NoError(t, err)
	return client, fake
}

func TestSetWebhook(t *testing.T) {
	client, fake := newTestClient(t)

	require.NoError(t, client.SetWebhook(context.Background(), "https://bot.example.com/endpoint", "s3cret"))

	calls := fake.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "setWebhook", calls[0].Method)
	assert.Equal(t, "https://bot.example.com/endpoint", calls[0].Form["url"])
	assert.Equal(t, "s3cret", calls[0].Form["secret_token"])
}

func TestSetWebhookWithoutSecret(t *testing.T) {
	client, fake := newTestClient(t)

	require.NoError(t, client.SetWebhook(context.Background(), "https://bot.example.com/endpoint", ""))
	assert.Empty(t, fake.recorded()[0].Form["secret_token"])
}

func TestDeleteWebhook(t *testing.T) {
	client, fake := newTestClient(t)

	require.NoError(t, client.DeleteWebhook(context.Background()))
	assert.Equal(t, "deleteWebhook", fake.recorded()[0].Method)
}

func TestSetMyCommands(t *testing.T) {
	client, fake := newTestClient(t)

	err := client.SetMyCommands(context.Background(), []tgmodels.BotCommand{
		{Command: "/start", Description: "Print help messages"},
	})
	require.NoError(t, err)

	call := fake.recorded()[0]
	assert.Equal(t, "setMyCommands", call.Method)
	assert.Contains(t, call.Form["scope"], "all_private_chats")

	var commands []tgmodels.BotCommand
	require.NoError(t, json.Unmarshal([]byte(call.Form["commands"]), &commands))
	assert.Equal(t, []tgmodels.BotCommand{{Command: "/start", Description: "Print help messages"}}, commands)
}

func TestSendAndEditMessage(t *testing.T) {
	client, fake := newTestClient(t)

	require.NoError(t, client.SendMessage(context.Background(), 42, &models.Reply{Text: `web\-1`}))
	require.NoError(t, client.EditMessageText(context.Background(), 42, 7, &models.Reply{
		Text:           "edited",
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{{{Text: "Refresh", CallbackData: "overview"}}},
	}))

	calls := fake.recorded()
	require.Len(t, calls, 2)

	send := calls[0]
	assert.Equal(t, "sendMessage", send.Method)
	assert.Equal(t, "42", send.Form["chat_id"])
	assert.Equal(t, `web\-1`, send.Form["text"])
	assert.Contains(t, send.Form["parse_mode"], "MarkdownV2")

	edit := calls[1]
	assert.Equal(t, "editMessageText", edit.Method)
	assert.Equal(t, "7", edit.Form["message_id"])

	var markup tgmodels.InlineKeyboardMarkup
	require.NoError(t, json.Unmarshal([]byte(edit.Form["reply_markup"]), &markup))
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, "overview", markup.InlineKeyboard[0][0].CallbackData)
}

func TestAPIRejection(t *testing.T) {
	client, fake := newTestClient(t)
	fake.fail["answerCallbackQuery"] = "Bad Request: query is too old"

	err := client.AnswerCallbackQuery(context.Background(), "q1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram answerCallbackQuery")
	assert.Equal(t, "q1", fake.recorded()[0].Form["callback_query_id"])
}

func TestTransportErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(url, "123456:secret-token", 0)
	require.NoError(t, err)

	err = client.DeleteWebhook(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
	assert.Contains(t, err.Error(), "telegram deleteWebhook")
}

func TestRedact(t *testing.T) {
	err := redact(errors.New(`Post "https://api.telegram.org/bot1:abc/sendMessage": EOF`), "1:abc")
	assert.Equal(t, `Post "https://api.telegram.org/bot<token>/sendMessage": EOF`, err.Error())

	plain := errors.New("bad request")
	assert.Same(t, plain, redact(plain, "1:abc"))
}
