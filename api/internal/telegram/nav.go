package telegram

import (
	"fmt"
	"log"
	"math"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"menu-lens/api/internal/progress"
)

const (
	captureText = "📷 Send me a photo of a menu or a dish."
	barWidth    = 10
	editStep    = 10 // percent between progress edits
)

// chatNav maps the scan flow onto messages in one chat.
type chatNav struct {
	r      *Router
	chatID int64
	st     *chatState
}

func (n *chatNav) ToScanning() {
	m, err := n.r.Bot.Send(tgbotapi.NewMessage(n.chatID, progressText(progress.Running, 0, "")))
	if err != nil {
		log.Printf("telegram progress %d: %v", n.chatID, err)
		return
	}
	n.st.mu.Lock()
	n.st.progressMsg = m.MessageID
	n.st.lastShown = 0
	n.st.mu.Unlock()
}

func (n *chatNav) ToResults() {
	n.r.showResults(n.chatID)
}

func (n *chatNav) ToCapture() {
	n.r.send(n.chatID, captureText)
}

// OnProgress edits the scanning message. Ticks are coalesced so the chat
// sees at most one edit per editStep.
func (n *chatNav) OnProgress(state progress.State, pct float64, status string) {
	shown := int(math.Floor(pct))
	n.st.mu.Lock()
	msgID := n.st.progressMsg
	skip := msgID == 0 || (state == progress.Running && shown-n.st.lastShown < editStep)
	if !skip {
		n.st.lastShown = shown
	}
	n.st.mu.Unlock()
	if skip {
		return
	}

	edit := tgbotapi.NewEditMessageText(n.chatID, msgID, progressText(state, pct, status))
	if _, err := n.r.Bot.Send(edit); err != nil {
		log.Printf("telegram progress edit %d: %v", n.chatID, err)
	}
}

func progressText(state progress.State, pct float64, status string) string {
	switch state {
	case progress.Errored:
		if status == "" {
			status = "Something went wrong."
		}
		return "⚠️ " + status
	case progress.Idle:
		return "✖️ Scan cancelled."
	case progress.Done:
		return "✅ Done."
	}
	filled := int(math.Round(pct / 100 * barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("▓", filled) + strings.Repeat("░", barWidth-filled)
	return fmt.Sprintf("🔎 Reading your photo…\n%s %d%%", bar, int(math.Floor(pct)))
}
