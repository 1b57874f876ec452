// Package tags holds the user's per-package annotations: importance,
// shopping status, aisle hints, and the checked-off item set. Entries are
// keyed by packageId, not by recipe, so they survive recipe deselection.
package tags

import (
	"sort"
	"sync"
)

// Importance marks whether an item is essential to the plan.
type Importance string

const (
	ImportanceCore     Importance = "core"
	ImportanceOptional Importance = "optional"
)

// Status is the shopping state of one package.
type Status string

const (
	// StatusBought is the default: the item still needs to be purchased.
	StatusBought Status = "bought"
	// StatusOwned means the household already has the item at home.
	StatusOwned Status = "owned"
	// StatusInCart means the item is in the physical cart right now.
	StatusInCart Status = "in_cart"
	// StatusIgnored excludes the item from presentation entirely. It is
	// only reachable through Ignore, never through the toggles.
	StatusIgnored Status = "ignored"
)

// IngredientTags is the stored annotation for one packageId.
type IngredientTags struct {
	Importance   Importance `json:"importance"`
	Status       Status     `json:"status"`
	StoreSection string     `json:"storeSection"`
}

func defaultTags() IngredientTags {
	return IngredientTags{Importance: ImportanceCore, Status: StatusBought}
}

// Update is a partial tag write; nil fields are left untouched.
type Update struct {
	Importance   *Importance
	Status       *Status
	StoreSection *string
}

// Store is the keyed tag map plus the checked-item set.
type Store struct {
	mu       sync.Mutex
	tags     map[string]IngredientTags
	checked  map[string]bool
	onChange func()
}

// NewStore creates an empty tag store.
func NewStore() *Store {
	return &Store{
		tags:    make(map[string]IngredientTags),
		checked: make(map[string]bool),
	}
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

// Get returns the tags for a packageId and whether an entry exists. Absent
// entries read as the defaults.
func (s *Store) Get(packageID string) (IngredientTags, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tags[packageID]
	if !ok {
		return defaultTags(), false
	}
	return t, true
}

// Set merges a partial update into the entry for packageID, creating it
// lazily on first write.
func (s *Store) Set(packageID string, upd Update) {
	s.mu.Lock()
	t, ok := s.tags[packageID]
	if !ok {
		t = defaultTags()
	}
	if upd.Importance != nil {
		t.Importance = *upd.Importance
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.StoreSection != nil {
		t.StoreSection = *upd.StoreSection
	}
	s.tags[packageID] = t
	s.mu.Unlock()
	s.notify(true)
}

// ToggleOwned flips between bought and owned. Any other state resets to
// owned via bought, so owned and in_cart are never set together.
func (s *Store) ToggleOwned(packageID string) {
	s.toggleStatus(packageID, StatusOwned)
}

// ToggleInCart flips between bought and in_cart, symmetric to ToggleOwned.
func (s *Store) ToggleInCart(packageID string) {
	s.toggleStatus(packageID, StatusInCart)
}

func (s *Store) toggleStatus(packageID string, target Status) {
	s.mu.Lock()
	t, ok := s.tags[packageID]
	if !ok {
		t = defaultTags()
	}
	// Status is a single field, so toggling to owned or in_cart
	// structurally displaces the other; anything else resets to bought.
	if t.Status == target {
		t.Status = StatusBought
	} else {
		t.Status = target
	}
	s.tags[packageID] = t
	s.mu.Unlock()
	s.notify(true)
}

// Ignore marks a package as excluded from presentation. This is the only
// path into the ignored state.
func (s *Store) Ignore(packageID string) {
	st := StatusIgnored
	s.Set(packageID, Update{Status: &st})
}

// All returns a copy of the full tags map.
func (s *Store) All() map[string]IngredientTags {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]IngredientTags, len(s.tags))
	for k, v := range s.tags {
		out[k] = v
	}
	return out
}

// IsChecked reports whether a package has been checked off the list.
func (s *Store) IsChecked(packageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checked[packageID]
}

// ToggleChecked flips the checked state of one package.
func (s *Store) ToggleChecked(packageID string) {
	s.mu.Lock()
	if s.checked[packageID] {
		delete(s.checked, packageID)
	} else {
		s.checked[packageID] = true
	}
	s.mu.Unlock()
	s.notify(true)
}

// SetCheckedItems replaces the checked set wholesale.
func (s *Store) SetCheckedItems(ids []string) {
	checked := make(map[string]bool, len(ids))
	for _, id := range ids {
		checked[id] = true
	}
	s.mu.Lock()
	s.checked = checked
	s.mu.Unlock()
	s.notify(true)
}

// CheckedItems returns the checked packageIds, sorted for determinism.
func (s *Store) CheckedItems() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.checked))
	for id := range s.checked {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CheckedSet returns a copy of the checked set for aggregation joins.
func (s *Store) CheckedSet() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.checked))
	for k, v := range s.checked {
		out[k] = v
	}
	return out
}

// Hydrate replaces all tag and checked state from a persisted plan,
// without firing the change callback. Used during session load.
func (s *Store) Hydrate(tagMap map[string]IngredientTags, checkedIDs []string) {
	s.mu.Lock()
	s.tags = make(map[string]IngredientTags, len(tagMap))
	for k, v := range tagMap {
		if v.Importance == "" {
			v.Importance = ImportanceCore
		}
		if v.Status == "" {
			v.Status = StatusBought
		}
		s.tags[k] = v
	}
	s.checked = make(map[string]bool, len(checkedIDs))
	for _, id := range checkedIDs {
		s.checked[id] = true
	}
	s.mu.Unlock()
}

// Clear wipes every tag and checked entry.
func (s *Store) Clear() {
	s.mu.Lock()
	changed := len(s.tags) > 0 || len(s.checked) > 0
	s.tags = make(map[string]IngredientTags)
	s.checked = make(map[string]bool)
	s.mu.Unlock()
	s.notify(changed)
}
