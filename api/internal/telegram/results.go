package telegram

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"menu-lens/api/internal/detail"
	"menu-lens/api/internal/present"
	"menu-lens/api/internal/render"
	"menu-lens/api/internal/util"
)

func (r *Router) showResults(chatID int64) {
	sess := r.session(chatID)
	text, kb := resultsMessage(present.Build(sess.Current()), sess.IsSaved)
	r.sendMarkdown(chatID, text, kb)
}

// sendDetail posts the open dish as a photo with its card as caption.
// Illustrations go by URL; the captured photo is rendered with the
// spotlight first.
func (r *Router) sendDetail(ctx context.Context, chatID int64, v detail.View) {
	sess := r.session(chatID)
	caption := util.Truncate(dishCard(v.Dish), maxCaption)
	kb := detailKeyboard(v, sess.IsSaved(v.Dish.ID))

	var file tgbotapi.RequestFileData
	switch {
	case v.Image == "":
	case v.Mode == detail.Illustrative:
		file = tgbotapi.FileURL(v.Image)
	default:
		b, err := r.spotlight(ctx, v)
		if err != nil {
			log.Printf("chat %d: spotlight %s: %v", chatID, v.Dish.ID, err)
		} else {
			file = tgbotapi.FileBytes{Name: v.Dish.ID + ".jpg", Bytes: b}
		}
	}

	if file == nil {
		r.sendMarkdown(chatID, caption, &kb)
		return
	}
	p := tgbotapi.NewPhoto(chatID, file)
	p.Caption = caption
	p.ParseMode = tgbotapi.ModeMarkdown
	p.ReplyMarkup = kb
	if _, err := r.Bot.Send(p); err != nil {
		log.Printf("telegram photo %d: %v", chatID, err)
		// illustration services can be slow or down; the card still matters
		r.sendMarkdown(chatID, caption, &kb)
	}
}

func (r *Router) spotlight(ctx context.Context, v detail.View) ([]byte, error) {
	photo, err := r.Ingest.Bytes(ctx, v.Image)
	if err != nil {
		return nil, err
	}
	return render.Spotlight(photo, v.Spotlight)
}
