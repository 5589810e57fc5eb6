package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `Send a photo of a menu and I'll translate and explain every dish, or a photo of food and I'll tell you what's on the plate.

/results - show the last scan again
/saved - dishes you saved
/history - everything scanned so far
/lang <language> - answer language
/engine gemini|gpt - analysis engine
/cancel - stop the running scan
/back - leave the results`

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "results":
		r.showResults(cid)
	case "saved":
		r.sendMarkdown(cid, savedText(r.session(cid).Saved()), nil)
	case "history":
		r.sendMarkdown(cid, historyText(r.session(cid).History()), nil)
	case "lang":
		r.handleLang(cid, args)
	case "engine":
		r.handleEngine(cid, args)
	case "cancel":
		run := stateFor(cid).current()
		if run == nil || !r.session(cid).IsLive(run.Token) {
			r.send(cid, "Nothing to cancel.")
			return
		}
		run.Cancel()
	case "back":
		r.session(cid).Leave()
		r.send(cid, captureText)
	default:
		r.send(cid, "Unknown command. /help")
	}
}

func (r *Router) handleLang(chatID int64, lang string) {
	if lang == "" {
		r.send(chatID, "Answer language: "+r.language(chatID)+"\nUsage: /lang Spanish")
		return
	}
	st := stateFor(chatID)
	st.mu.Lock()
	st.lang = lang
	st.mu.Unlock()
	r.send(chatID, "✅ Answers will be in "+lang+". Applies to the next scan.")
}

func (r *Router) handleEngine(chatID int64, name string) {
	if name == "" {
		r.send(chatID, "Engine: "+r.llmName(chatID)+"\nUsage: /engine gemini | /engine gpt")
		return
	}
	eng, err := r.Scanner.Engines.Get(name)
	if err != nil {
		r.send(chatID, "❌ "+err.Error())
		return
	}
	st := stateFor(chatID)
	st.mu.Lock()
	st.llm = strings.ToLower(name)
	st.mu.Unlock()
	r.send(chatID, fmt.Sprintf("✅ Engine: %s (%s).", eng.Name(), eng.Model()))
}
