package models

import tgmodels "github.com/go-telegram/bot/models"

// Reply is what a command or callback handler produces. Text is already
// MarkdownV2 encoded.
type Reply struct {
	Text           string
	InlineKeyboard [][]tgmodels.InlineKeyboardButton
}

// HasKeyboard reports whether the reply carries inline buttons
func (r *Reply) HasKeyboard() bool {
	return r != nil && len(r.InlineKeyboard) > 0
}
