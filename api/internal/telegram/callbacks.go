package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"menu-lens/api/internal/scanerr"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		r.ack(cb.ID, "")
		return
	}
	cid := cb.Message.Chat.ID
	ctx := context.Background()

	switch data := cb.Data; {
	case strings.HasPrefix(data, cbOpen):
		r.onOpen(ctx, cid, cb.ID, strings.TrimPrefix(data, cbOpen))
	case strings.HasPrefix(data, cbSave):
		r.onSave(cid, cb, strings.TrimPrefix(data, cbSave))
	case data == cbMode:
		r.onMode(ctx, cid, cb.ID)
	case data == cbClose:
		r.onClose(cid, cb)
	default:
		r.ack(cb.ID, "")
	}
}

func (r *Router) onOpen(ctx context.Context, chatID int64, cbID, dishID string) {
	sess := r.session(chatID)
	d, ok := sess.Find(dishID)
	if !ok {
		r.ack(cbID, "That dish is no longer available.")
		return
	}
	r.ack(cbID, "")
	r.sendDetail(ctx, chatID, sess.Detail.Open(d, sess.PhotoFor(dishID)))
}

func (r *Router) onSave(chatID int64, cb tgbotapi.CallbackQuery, dishID string) {
	sess := r.session(chatID)
	saved, err := sess.ToggleSave(dishID)
	var warn *scanerr.SaveConsistencyWarning
	switch {
	case errors.As(err, &warn):
		r.ack(cb.ID, "That dish is no longer available.")
		return
	case err != nil:
		r.ack(cb.ID, "")
		r.SendError(chatID, err)
		return
	case saved:
		r.ack(cb.ID, "Saved ★")
	default:
		r.ack(cb.ID, "Removed from saved")
	}
	r.refreshSaveButton(chatID, cb.Message, dishID, saved)
}

// refreshSaveButton flips the save mark on the message the tap came from.
func (r *Router) refreshSaveButton(chatID int64, msg *tgbotapi.Message, dishID string, saved bool) {
	if msg.ReplyMarkup == nil {
		return
	}
	kb := *msg.ReplyMarkup
	changed := false
	for i, row := range kb.InlineKeyboard {
		for j, btn := range row {
			if btn.CallbackData == nil || *btn.CallbackData != cbSave+dishID {
				continue
			}
			label := saveLabel(saved)
			if btn.Text == "☆" || btn.Text == "★" {
				label = "☆"
				if saved {
					label = "★"
				}
			}
			kb.InlineKeyboard[i][j].Text = label
			changed = true
		}
	}
	if !changed {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, msg.MessageID, kb)
	_, _ = r.Bot.Send(edit)
}

func (r *Router) onMode(ctx context.Context, chatID int64, cbID string) {
	sess := r.session(chatID)
	v, toggled := sess.Detail.Toggle()
	if !toggled {
		r.ack(cbID, "")
		return
	}
	r.ack(cbID, "")
	r.sendDetail(ctx, chatID, v)
}

func (r *Router) onClose(chatID int64, cb tgbotapi.CallbackQuery) {
	r.session(chatID).Detail.Close()
	r.ack(cb.ID, "")
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, cb.Message.MessageID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	_, _ = r.Bot.Send(edit)
}
