// Package location tracks the catalog of physical stores and the single
// store the household shops at. Recipes are priced against one specific
// store, so changing the selection invalidates the recipe catalog; that
// choreography lives in the app facade.
package location

import (
	"fmt"
	"sync"
	"time"
)

// PhysicalStore is one shoppable store with its flyer validity window.
// Zero-valued window bounds mean always valid.
type PhysicalStore struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	ValidFrom time.Time `json:"validFrom"`
	ValidTo   time.Time `json:"validTo"`
}

// Available reports whether the store's flyer window contains now.
func (p PhysicalStore) Available(now time.Time) bool {
	if !p.ValidFrom.IsZero() && now.Before(p.ValidFrom) {
		return false
	}
	if !p.ValidTo.IsZero() && now.After(p.ValidTo) {
		return false
	}
	return true
}

// Store holds the store catalog and the current selection.
type Store struct {
	mu       sync.Mutex
	stores   []PhysicalStore
	selected string
	lastErr  string
	now      func() time.Time
	onChange func()
}

// NewStore creates an empty store catalog.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// SetOnChange registers the callback fired after every mutation. The
// callback runs outside the store's lock.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify(changed bool) {
	if !changed {
		return
	}
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// SetStores replaces the store catalog. The current selection is kept if
// it still refers to a known store, otherwise cleared.
func (s *Store) SetStores(stores []PhysicalStore) {
	s.mu.Lock()
	s.stores = append([]PhysicalStore(nil), stores...)
	if s.selected != "" {
		if _, ok := s.findLocked(s.selected); !ok {
			s.selected = ""
		}
	}
	s.mu.Unlock()
	s.notify(true)
}

func (s *Store) findLocked(id string) (PhysicalStore, bool) {
	for _, st := range s.stores {
		if st.ID == id {
			return st, true
		}
	}
	return PhysicalStore{}, false
}

// SetSelectedStore selects a store by id. Unknown or unavailable ids are
// rejected: the selection is left untouched, the error field is set, and
// the error is returned for the caller to surface.
func (s *Store) SetSelectedStore(id string) error {
	s.mu.Lock()
	st, ok := s.findLocked(id)
	if !ok {
		s.lastErr = fmt.Sprintf("unknown store %q", id)
		err := fmt.Errorf("unknown store %q", id)
		s.mu.Unlock()
		return err
	}
	if !st.Available(s.now()) {
		s.lastErr = fmt.Sprintf("store %q is not currently available", id)
		err := fmt.Errorf("store %q is not currently available", id)
		s.mu.Unlock()
		return err
	}
	changed := s.selected != id
	s.selected = id
	s.lastErr = ""
	s.mu.Unlock()
	s.notify(changed)
	return nil
}

// HydrateSelection restores a persisted selection without validation or
// change notification. Used during session load, which can run before the
// store catalog has been fetched.
func (s *Store) HydrateSelection(id string) {
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
}

// ClearSelection drops the current selection, e.g. on plan deletion.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	changed := s.selected != ""
	s.selected = ""
	s.mu.Unlock()
	s.notify(changed)
}

// SelectedStoreID returns the selected store id, empty when none.
func (s *Store) SelectedStoreID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SelectedStore returns the selected store and whether one is selected.
func (s *Store) SelectedStore() (PhysicalStore, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == "" {
		return PhysicalStore{}, false
	}
	return s.findLocked(s.selected)
}

// Stores returns a copy of the store catalog.
func (s *Store) Stores() []PhysicalStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PhysicalStore(nil), s.stores...)
}

// Err returns the last selection error message, empty when healthy.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
