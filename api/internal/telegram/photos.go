package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"menu-lens/api/internal/scanerr"
)

func isImageDocument(d *tgbotapi.Document) bool {
	return strings.HasPrefix(strings.ToLower(d.MimeType), "image/")
}

// acceptPhoto pulls the largest rendition from Telegram into the photo
// store and starts a scan, replacing any scan still running in this chat.
func (r *Router) acceptPhoto(ctx context.Context, chatID int64, fileID string) {
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.SendError(chatID, &scanerr.IngestionError{Ref: fileID, Err: err})
		return
	}
	data, err := r.Ingest.Bytes(ctx, url)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	photo, err := r.Ingest.IngestBytes(ctx, data)
	if err != nil {
		r.SendError(chatID, err)
		return
	}

	st := stateFor(chatID)
	if prev := st.current(); prev != nil {
		prev.Stop()
	}
	nav := &chatNav{r: r, chatID: chatID, st: st}
	run := r.Scanner.Start(ctx, r.session(chatID), photo.Ref, r.language(chatID), r.llmName(chatID), nav)
	st.swapRun(run)
}
