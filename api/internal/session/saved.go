package session

import (
	"log"

	"menu-lens/api/internal/dish"
	"menu-lens/api/internal/scanerr"
)

// ToggleSave removes id from the saved set if present, otherwise snapshots
// the dish (current results first, then history) and prepends it.
// An id nobody knows is a no-op reported as SaveConsistencyWarning.
func (s *Session) ToggleSave(id string) (saved bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, it := range s.saved {
		if it.ID == id {
			s.saved = append(s.saved[:i:i], s.saved[i+1:]...)
			return false, nil
		}
	}
	d, ok := s.findLocked(id)
	if !ok {
		w := &scanerr.SaveConsistencyWarning{DishID: id}
		log.Printf("session %s: %v", s.ID, w)
		return false, w
	}
	item := dish.SavedItem{Dish: d, SavedAt: s.now()}
	s.saved = append([]dish.SavedItem{item}, s.saved...)
	return true, nil
}

func (s *Session) IsSaved(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.saved {
		if it.ID == id {
			return true
		}
	}
	return false
}

// Saved returns the saved items, most recent first.
func (s *Session) Saved() []dish.SavedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dish.SavedItem, 0, len(s.saved))
	for _, it := range s.saved {
		out = append(out, dish.SavedItem{Dish: it.Dish.Clone(), SavedAt: it.SavedAt})
	}
	return out
}
