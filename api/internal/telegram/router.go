package telegram

import (
	"context"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"menu-lens/api/internal/ingest"
	"menu-lens/api/internal/scan"
	"menu-lens/api/internal/scanerr"
	"menu-lens/api/internal/session"
)

// Bot is the slice of *tgbotapi.BotAPI the router talks to.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Router struct {
	Bot      Bot
	Scanner  *scan.Scanner
	Ingest   *ingest.Ingestor
	Sessions *session.Registry

	DefaultLanguage string
	DefaultLLM      string
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	msg := upd.Message
	switch {
	case msg.IsCommand():
		r.HandleCommand(msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(context.Background(), msg.Chat.ID, msg.Photo[len(msg.Photo)-1].FileID)
	case msg.Document != nil && isImageDocument(msg.Document):
		r.acceptPhoto(context.Background(), msg.Chat.ID, msg.Document.FileID)
	default:
		r.send(msg.Chat.ID, captureText)
	}
}

func (r *Router) session(chatID int64) *session.Session {
	return r.Sessions.GetOrCreate(strconv.FormatInt(chatID, 10))
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("telegram send %d: %v", chatID, err)
	}
}

func (r *Router) sendMarkdown(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("telegram send %d: %v", chatID, err)
	}
}

// SendError reports a failure with the same short line the progress
// indicator uses.
func (r *Router) SendError(chatID int64, err error) {
	log.Printf("chat %d: %s: %v", chatID, scanerr.Kind(err), err)
	r.send(chatID, "⚠️ "+scanerr.StatusText(err))
}

func (r *Router) ack(cbID, text string) {
	if _, err := r.Bot.Request(tgbotapi.NewCallback(cbID, text)); err != nil {
		log.Printf("telegram callback ack: %v", err)
	}
}
