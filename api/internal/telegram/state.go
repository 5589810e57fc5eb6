package telegram

import (
	"sync"

	"menu-lens/api/internal/scan"
)

// chatState holds per-chat preferences and the scan in flight.
type chatState struct {
	mu          sync.Mutex
	lang        string
	llm         string
	run         *scan.Run
	progressMsg int
	lastShown   int // last percentage rendered, -1 after a state change
}

var chats sync.Map // chatID -> *chatState

func stateFor(chatID int64) *chatState {
	v, _ := chats.LoadOrStore(chatID, &chatState{lastShown: -1})
	return v.(*chatState)
}

func (r *Router) language(chatID int64) string {
	st := stateFor(chatID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.lang != "" {
		return st.lang
	}
	return r.DefaultLanguage
}

func (r *Router) llmName(chatID int64) string {
	st := stateFor(chatID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.llm != "" {
		return st.llm
	}
	return r.DefaultLLM
}

func (st *chatState) swapRun(run *scan.Run) *scan.Run {
	st.mu.Lock()
	defer st.mu.Unlock()
	prev := st.run
	st.run = run
	return prev
}

func (st *chatState) current() *scan.Run {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.run
}
