package telegram

import (
	"context"
	"log"
	"strings"

	tgmodels "github.com/go-telegram/bot/models"

	"nezhabot/internal/models"
)

// CommandHandler answers a command. args is the text after the command,
// trimmed. A nil reply sends nothing.
type CommandHandler func(ctx context.Context, msg *tgmodels.Message, args string) (*models.Reply, error)

// CallbackHandler answers an inline keyboard press. A nil reply leaves the
// message untouched.
type CallbackHandler func(ctx context.Context, query *tgmodels.CallbackQuery) (*models.Reply, error)

// Messenger is the part of the Bot API the dispatcher writes to
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, reply *models.Reply) error
	EditMessageText(ctx context.Context, chatID int64, messageID int, reply *models.Reply) error
	AnswerCallbackQuery(ctx context.Context, id string) error
}

type command struct {
	name        string
	description string
	handler     CommandHandler
}

// Bot routes webhook updates to registered handlers. Only private chats
// with the configured owner are served.
type Bot struct {
	api      Messenger
	ownerID  int64
	commands []command
	index    map[string]int
	callback CallbackHandler
}

// NewBot creates a dispatcher serving ownerID
func NewBot(api Messenger, ownerID int64) *Bot {
	return &Bot{
		api:     api,
		ownerID: ownerID,
		index:   make(map[string]int),
	}
}

// RegisterCommand adds a command; name has no leading slash. Registering the
// same name again replaces the handler.
func (b *Bot) RegisterCommand(name, description string, h CommandHandler) {
	name = strings.TrimPrefix(name, "/")
	if i, ok := b.index[name]; ok {
		b.commands[i] = command{name, description, h}
		return
	}
	b.index[name] = len(b.commands)
	b.commands = append(b.commands, command{name, description, h})
}

// RegisterCallback sets the inline keyboard handler
func (b *Bot) RegisterCallback(h CallbackHandler) {
	b.callback = h
}

// Commands returns the command menu in registration order
func (b *Bot) Commands() []tgmodels.BotCommand {
	out := make([]tgmodels.BotCommand, 0, len(b.commands))
	for _, c := range b.commands {
		out = append(out, tgmodels.BotCommand{Command: "/" + c.name, Description: c.description})
	}
	return out
}

// Authorized reports whether a chat and user may use the bot
func (b *Bot) Authorized(chat tgmodels.Chat, userID int64) bool {
	return chat.Type == tgmodels.ChatTypePrivate && userID == b.ownerID
}

// OnUpdate handles one webhook update. handled is true when a reply was
// sent or a message edited.
func (b *Bot) OnUpdate(ctx context.Context, update *tgmodels.Update) (handled bool, err error) {
	switch {
	case update.Message != nil:
		return b.onMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		return b.onCallbackQuery(ctx, update.CallbackQuery)
	default:
		return false, nil
	}
}

func (b *Bot) onMessage(ctx context.Context, msg *tgmodels.Message) (bool, error) {
	if msg.Text == "" {
		return false, nil
	}
	name, args, ok := ParseCommand(msg.Text)
	if !ok {
		return false, nil
	}
	i, ok := b.index[name]
	if !ok {
		return false, nil
	}

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	if !b.Authorized(msg.Chat, userID) {
		log.Printf("[SECURITY] Ignoring /%s from user %d in %s chat %d", name, userID, msg.Chat.Type, msg.Chat.ID)
		return false, nil
	}

	reply, err := b.commands[i].handler(ctx, msg, args)
	if err != nil {
		log.Printf("[BOT] /%s failed: %v", name, err)
	}
	if reply == nil {
		return false, nil
	}

	if err := b.api.SendMessage(ctx, msg.Chat.ID, reply); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Bot) onCallbackQuery(ctx context.Context, query *tgmodels.CallbackQuery) (bool, error) {
	// an inaccessible message cannot be edited
	msg := query.Message.Message
	if msg == nil || msg.Text == "" {
		return false, nil
	}

	var reply *models.Reply
	if b.callback != nil && b.Authorized(msg.Chat, query.From.ID) {
		var err error
		reply, err = b.callback(ctx, query)
		if err != nil {
			log.Printf("[BOT] callback %q failed: %v", query.Data, err)
		}
	} else if b.callback != nil {
		log.Printf("[SECURITY] Ignoring callback from user %d in %s chat %d", query.From.ID, msg.Chat.Type, msg.Chat.ID)
	}

	if err := b.api.AnswerCallbackQuery(ctx, query.ID); err != nil {
		log.Printf("[TELEGRAM] answerCallbackQuery failed: %v", err)
	}
	if reply == nil {
		return false, nil
	}

	if err := b.api.EditMessageText(ctx, msg.Chat.ID, msg.ID, reply); err != nil {
		return false, err
	}
	return true, nil
}

// ParseCommand splits "/name@bot args" into name and trimmed args. ok is
// false when text is not a command.
func ParseCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	if i := strings.IndexAny(head, "\n\t"); i >= 0 {
		rest = head[i+1:] + " " + rest
		head = head[:i]
	}
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", "", false
	}
	return head, strings.TrimSpace(rest), true
}
