// Package session owns the per-user scan state. It is the single writer for
// current results, history and the saved set; every mutation goes through
// its methods.
package session

import (
	"sync"
	"time"

	"menu-lens/api/internal/detail"
	"menu-lens/api/internal/dish"
)

// Token identifies one scan run. Zero means "no scan".
type Token uint64

type Session struct {
	ID     string
	Detail *detail.Controller

	mu        sync.Mutex
	now       func() time.Time
	uploaded  string
	current   []dish.Dish
	history   []dish.Dish
	saved     []dish.SavedItem
	gen       Token
	live      Token
	lastStart time.Time
}

func New(id string) *Session {
	return &Session{ID: id, Detail: detail.New(), now: time.Now}
}

// WithClock swaps the time source (tests).
func (s *Session) WithClock(now func() time.Time) *Session {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

// BeginScan makes a new run the live one, invalidating any earlier run, and
// returns its token and start time. Start times are strictly increasing at
// millisecond precision so dish ids never repeat across scans.
func (s *Session) BeginScan(photoRef string) (Token, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.live = s.gen
	s.uploaded = photoRef

	start := s.now().Truncate(time.Millisecond)
	if !start.After(s.lastStart) {
		start = s.lastStart.Add(time.Millisecond)
	}
	s.lastStart = start
	return s.live, start
}

func (s *Session) IsLive(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tok != 0 && tok == s.live
}

// Commit applies a finished scan if tok is still live. A stale run has no
// observable effect and Commit reports false.
func (s *Session) Commit(tok Token, dishes []dish.Dish) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok == 0 || tok != s.live {
		return false
	}
	s.live = 0
	cur := make([]dish.Dish, 0, len(dishes))
	for _, d := range dishes {
		cur = append(cur, d.Clone())
	}
	s.current = cur

	hist := make([]dish.Dish, 0, len(dishes)+len(s.history))
	for _, d := range dishes {
		hist = append(hist, d.Clone())
	}
	s.history = append(hist, s.history...)
	return true
}

// Abort ends a failed run without committing anything.
func (s *Session) Abort(tok Token) {
	s.mu.Lock()
	if tok != 0 && tok == s.live {
		s.live = 0
	}
	s.mu.Unlock()
}

// Cancel invalidates whatever run is live and returns its token (0 if none).
func (s *Session) Cancel() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := s.live
	s.live = 0
	return tok
}

// Leave is navigation away from results: the current set is dropped and any
// open detail closes. History and saved items stay.
func (s *Session) Leave() {
	s.mu.Lock()
	s.current = nil
	s.live = 0
	s.mu.Unlock()
	s.Detail.Close()
}

func (s *Session) UploadedRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploaded
}

// PhotoFor is the captured photo behind dish id when it belongs to the
// current results. Older history entries have no photo on hand.
func (s *Session) PhotoFor(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.current {
		if d.ID == id {
			return s.uploaded
		}
	}
	return ""
}

func (s *Session) Current() []dish.Dish {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.current)
}

func (s *Session) History() []dish.Dish {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.history)
}

// Find looks a dish up in current results, then history.
func (s *Session) Find(id string) (dish.Dish, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

func (s *Session) findLocked(id string) (dish.Dish, bool) {
	for _, d := range s.current {
		if d.ID == id {
			return d.Clone(), true
		}
	}
	for _, d := range s.history {
		if d.ID == id {
			return d.Clone(), true
		}
	}
	return dish.Dish{}, false
}

func cloneAll(in []dish.Dish) []dish.Dish {
	out := make([]dish.Dish, 0, len(in))
	for _, d := range in {
		out = append(out, d.Clone())
	}
	return out
}
