package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"nezhabot/internal/models"
)

// DefaultBaseURL is the public Bot API endpoint
const DefaultBaseURL = "https://api.telegram.org"

// Client calls the Telegram Bot API. Updates arrive through the webhook
// route, so the underlying bot is never started.
type Client struct {
	api   *bot.Bot
	token string
}

// NewClient creates a Bot API client. An empty baseURL uses DefaultBaseURL.
// No request is made until the first call.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	api, err := bot.New(token,
		bot.WithSkipGetMe(),
		bot.WithServerURL(strings.TrimRight(baseURL, "/")),
		bot.WithHTTPClient(timeout, &http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", redact(err, token))
	}
	return &Client{api: api, token: token}, nil
}

// SetWebhook points the bot at url. secret is echoed back by Telegram in the
// X-Telegram-Bot-Api-Secret-Token header of every update.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	_, err := c.api.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:         url,
		SecretToken: secret,
	})
	return c.wrap("setWebhook", err)
}

// DeleteWebhook removes the webhook
func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := c.api.DeleteWebhook(ctx, &bot.DeleteWebhookParams{})
	return c.wrap("deleteWebhook", err)
}

// SetMyCommands publishes the command menu for private chats
func (c *Client) SetMyCommands(ctx context.Context, commands []tgmodels.BotCommand) error {
	_, err := c.api.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
		Scope:    &tgmodels.BotCommandScopeAllPrivateChats{},
	})
	return c.wrap("setMyCommands", err)
}

// SendMessage posts reply as a new message
func (c *Client) SendMessage(ctx context.Context, chatID int64, reply *models.Reply) error {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      reply.Text,
		ParseMode: tgmodels.ParseModeMarkdown,
	}
	if reply.HasKeyboard() {
		params.ReplyMarkup = &tgmodels.InlineKeyboardMarkup{InlineKeyboard: reply.InlineKeyboard}
	}
	_, err := c.api.SendMessage(ctx, params)
	return c.wrap("sendMessage", err)
}

// EditMessageText replaces the text and keyboard of an existing message
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int, reply *models.Reply) error {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      reply.Text,
		ParseMode: tgmodels.ParseModeMarkdown,
	}
	if reply.HasKeyboard() {
		params.ReplyMarkup = &tgmodels.InlineKeyboardMarkup{InlineKeyboard: reply.InlineKeyboard}
	}
	_, err := c.api.EditMessageText(ctx, params)
	return c.wrap("editMessageText", err)
}

// AnswerCallbackQuery stops the loading indicator on the pressed button
func (c *Client) AnswerCallbackQuery(ctx context.Context, id string) error {
	_, err := c.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: id,
	})
	return c.wrap("answerCallbackQuery", err)
}

// wrap names the failed method and strips the bot token, which transport
// errors carry inside the request URL
func (c *Client) wrap(method string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("telegram %s: %w", method, redact(err, c.token))
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), err: err}
}
