package catalog

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

// MealRequest is the pricing context a meal fetch runs against.
type MealRequest struct {
	Store    string
	Location string
	Date     string
	MealType MealType
}

// MealFetcher retrieves priced recipes for one meal category from the
// pricing service. Implementations live outside this package and return
// recipes already normalized.
type MealFetcher interface {
	FetchMeals(ctx context.Context, req MealRequest) ([]Recipe, error)
}

// Store holds the per-category recipe lists and owns all selection state.
// Selection is expressed only through Recipe.Multiplier; there is no
// separate selected flag anywhere.
type Store struct {
	mu            sync.Mutex
	log           *zap.Logger
	householdSize int
	meals         map[MealType][]Recipe
	lastErr       string
	onChange      func()
}

// NewStore creates an empty catalog for the given household size.
func NewStore(householdSize int, log *zap.Logger) *Store {
	if householdSize < 1 {
		householdSize = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		log:           log,
		householdSize: householdSize,
		meals:         make(map[MealType][]Recipe),
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

// HouseholdSize returns the current household size.
func (s *Store) HouseholdSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.householdSize
}

// SetHouseholdSize updates the household size used by the rounding policy.
// Already-selected recipes keep their multipliers; the new size only
// affects future selections.
func (s *Store) SetHouseholdSize(n int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	changed := s.householdSize != n
	s.householdSize = n
	s.mu.Unlock()
	s.notify(changed)
}

// SetMeals replaces the recipe list for one meal category wholesale.
// Callers restoring a session must pass recipes with their multipliers
// already populated; a plain fetch result arrives with multiplier 0.
func (s *Store) SetMeals(mealType MealType, recipes []Recipe) {
	s.mu.Lock()
	s.meals[mealType] = append([]Recipe(nil), recipes...)
	s.mu.Unlock()
	s.notify(true)
}

// SetAllMeals replaces every category at once from a flat recipe list,
// partitioning by each recipe's MealType. Used when rehydrating a session
// from a persisted plan.
func (s *Store) SetAllMeals(recipes []Recipe) {
	meals := make(map[MealType][]Recipe)
	for _, rec := range recipes {
		meals[rec.MealType] = append(meals[rec.MealType], rec)
	}
	s.mu.Lock()
	s.meals = meals
	s.mu.Unlock()
	s.notify(true)
}

// ClearMeals drops every recipe list and all selection state with it.
// Used when the pricing context (store/location/date) changes and the
// cached prices become stale.
func (s *Store) ClearMeals() {
	s.mu.Lock()
	changed := len(s.meals) > 0
	s.meals = make(map[MealType][]Recipe)
	s.mu.Unlock()
	s.notify(changed)
}

// FetchMeals loads one meal category through the injected fetcher. A
// transport failure is recorded in the store's error field and the
// previous list is left untouched.
func (s *Store) FetchMeals(ctx context.Context, fetcher MealFetcher, req MealRequest) error {
	recipes, err := fetcher.FetchMeals(ctx, req)
	if err != nil {
		s.mu.Lock()
		s.lastErr = fmt.Sprintf("failed to fetch %s meals: %v", req.MealType, err)
		s.mu.Unlock()
		s.log.Warn("meal fetch failed",
			zap.String("mealType", string(req.MealType)),
			zap.String("store", req.Store),
			zap.Error(err))
		return fmt.Errorf("failed to fetch %s meals: %w", req.MealType, err)
	}

	s.mu.Lock()
	s.lastErr = ""
	s.meals[req.MealType] = recipes
	s.mu.Unlock()
	s.notify(true)
	return nil
}

// multiplierFor implements the rounding policy: scale the recipe's native
// serving count to the household and round up to the nearest half so the
// plan never comes up short.
func multiplierFor(householdSize, servings int) float64 {
	if servings < 1 {
		servings = 1
	}
	return math.Ceil(float64(householdSize)/float64(servings)*2) / 2
}

func (s *Store) findLocked(url string) *Recipe {
	for mt, list := range s.meals {
		for i := range list {
			if list[i].URL == url {
				return &s.meals[mt][i]
			}
		}
	}
	return nil
}

// ToggleMeal flips a recipe between unselected and selected. Selecting
// applies the household rounding policy; deselecting zeroes the
// multiplier. Unknown urls are a no-op because recipes can be pruned
// between fetch and toggle.
func (s *Store) ToggleMeal(url string) {
	s.mu.Lock()
	rec := s.findLocked(url)
	changed := false
	if rec != nil {
		if rec.Selected() {
			rec.Multiplier = 0
		} else {
			rec.Multiplier = multiplierFor(s.householdSize, rec.Servings)
		}
		changed = true
	}
	s.mu.Unlock()
	s.notify(changed)
}

// SetRecipeMultiplier sets an explicit multiplier, clamped to zero.
// Unknown urls are a no-op.
func (s *Store) SetRecipeMultiplier(url string, value float64) {
	if value < 0 {
		value = 0
	}
	s.mu.Lock()
	rec := s.findLocked(url)
	changed := false
	if rec != nil && rec.Multiplier != value {
		rec.Multiplier = value
		changed = true
	}
	s.mu.Unlock()
	s.notify(changed)
}

// SelectedRecipes returns copies of every selected recipe across all meal
// categories, in category order.
func (s *Store) SelectedRecipes() []Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Recipe
	for _, mt := range MealTypes {
		for _, rec := range s.meals[mt] {
			if rec.Selected() {
				out = append(out, rec)
			}
		}
	}
	return out
}

// AllRecipes returns copies of every recipe the user has seen, selected or
// not, so deselections survive a session reload.
func (s *Store) AllRecipes() []Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Recipe
	for _, mt := range MealTypes {
		out = append(out, s.meals[mt]...)
	}
	return out
}

// Meals returns a copy of the recipe list for one category.
func (s *Store) Meals(mealType MealType) []Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recipe(nil), s.meals[mealType]...)
}

// Summary counts selected recipes per category.
func (s *Store) Summary() MealSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum MealSummary
	for mt, list := range s.meals {
		for i := range list {
			if !list[i].Selected() {
				continue
			}
			switch mt {
			case MealBreakfast:
				sum.Breakfast++
			case MealLunch:
				sum.Lunch++
			case MealDinner:
				sum.Dinner++
			}
			sum.Total++
		}
	}
	return sum
}

// Err returns the last fetch error message, empty when healthy.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
