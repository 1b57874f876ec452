// Package app composes the stores, the aggregation engine, and the sync
// coordinator into the single read/write surface consumed by presentation
// code. Cross-store actions (changing the store clears the recipe
// catalog, every mutation pokes the debounce) live here so the stores
// stay decoupled from one another.
package app

import (
	"context"
	"fmt"
	"time"

	"grocery-planner/internal/aggregate"
	"grocery-planner/internal/catalog"
	"grocery-planner/internal/config"
	"grocery-planner/internal/location"
	"grocery-planner/internal/metrics"
	"grocery-planner/internal/syncer"
	"grocery-planner/internal/tags"

	"go.uber.org/zap"
)

// App holds the application's dependencies.
type App struct {
	cfg      *config.Config
	log      *zap.Logger
	catalog  *catalog.Store
	tags     *tags.Store
	location *location.Store
	coord    *syncer.Coordinator
	meals    catalog.MealFetcher
}

// NewApp creates and wires a new App instance: every store mutation
// re-arms the coordinator's debounce timer.
func NewApp(
	cfg *config.Config,
	log *zap.Logger,
	catalogStore *catalog.Store,
	tagStore *tags.Store,
	locationStore *location.Store,
	coord *syncer.Coordinator,
	mealFetcher catalog.MealFetcher,
) *App {
	a := &App{
		cfg:      cfg,
		log:      log,
		catalog:  catalogStore,
		tags:     tagStore,
		location: locationStore,
		coord:    coord,
		meals:    mealFetcher,
	}

	onMutation := func() { coord.DebouncedSave(a.PlanData) }
	catalogStore.SetOnChange(onMutation)
	tagStore.SetOnChange(onMutation)
	locationStore.SetOnChange(onMutation)

	return a
}

// PlanData assembles the persistable plan payload from current store
// state. Always read fresh, never cached, so the debounce timer persists
// what is true at fire time.
func (a *App) PlanData() syncer.PlanData {
	return syncer.PlanData{
		HouseholdSize:       a.catalog.HouseholdSize(),
		SelectedStore:       a.location.SelectedStoreID(),
		AllRecipes:          syncer.SnapshotRecipes(a.catalog.AllRecipes()),
		GroceryCheckedItems: a.tags.CheckedItems(),
		IngredientTags:      a.tags.All(),
	}
}

// applyPlanData hydrates every store from a persisted plan.
func (a *App) applyPlanData(data syncer.PlanData) {
	if data.HouseholdSize > 0 {
		a.catalog.SetHouseholdSize(data.HouseholdSize)
	}
	a.location.HydrateSelection(data.SelectedStore)
	a.catalog.SetAllMeals(syncer.RecipesFromSnapshots(data.AllRecipes))
	a.tags.Hydrate(data.IngredientTags, data.GroceryCheckedItems)
}

// LoadSession restores the previous session from the remote store (or the
// local cache) and establishes the clean baseline.
func (a *App) LoadSession(ctx context.Context) error {
	return a.coord.LoadUserPlan(ctx, a.applyPlanData, a.PlanData)
}

// FetchMeals loads all three meal categories for the selected store.
func (a *App) FetchMeals(ctx context.Context, date string) error {
	store, ok := a.location.SelectedStore()
	if !ok {
		return fmt.Errorf("no store selected")
	}
	for _, mt := range catalog.MealTypes {
		req := catalog.MealRequest{
			Store:    store.Name,
			Location: store.Location,
			Date:     date,
			MealType: mt,
		}
		if err := a.catalog.FetchMeals(ctx, a.meals, req); err != nil {
			return err
		}
	}
	return nil
}

// SetStores replaces the physical store catalog.
func (a *App) SetStores(stores []location.PhysicalStore) {
	a.location.SetStores(stores)
}

// SelectStore changes the store the household shops at. Recipes are
// priced against one specific store and date, so an actual change clears
// the recipe catalog; the caller re-fetches afterwards.
func (a *App) SelectStore(id string) error {
	previous := a.location.SelectedStoreID()
	if err := a.location.SetSelectedStore(id); err != nil {
		return err
	}
	if previous != id {
		a.catalog.ClearMeals()
	}
	return nil
}

// ToggleMeal flips a recipe's selection.
func (a *App) ToggleMeal(url string) {
	a.catalog.ToggleMeal(url)
}

// SetRecipeMultiplier sets an explicit recipe multiplier.
func (a *App) SetRecipeMultiplier(url string, value float64) {
	a.catalog.SetRecipeMultiplier(url, value)
}

// SetHouseholdSize changes the household size for future selections.
func (a *App) SetHouseholdSize(n int) {
	a.catalog.SetHouseholdSize(n)
}

// SetIngredientTags merges a partial tag update for one package.
func (a *App) SetIngredientTags(packageID string, upd tags.Update) {
	a.tags.Set(packageID, upd)
}

// ToggleOwned flips an item between needing purchase and already at home.
func (a *App) ToggleOwned(packageID string) { a.tags.ToggleOwned(packageID) }

// ToggleInCart flips an item in and out of the physical cart.
func (a *App) ToggleInCart(packageID string) { a.tags.ToggleInCart(packageID) }

// ToggleChecked checks an item off the shopping list, or back on.
func (a *App) ToggleChecked(packageID string) { a.tags.ToggleChecked(packageID) }

// SetGroceryCheckedItems replaces the checked-item set.
func (a *App) SetGroceryCheckedItems(ids []string) { a.tags.SetCheckedItems(ids) }

// IgnoreItem excludes a package from presentation entirely.
func (a *App) IgnoreItem(packageID string) { a.tags.Ignore(packageID) }

// Meals returns the recipe list for one category.
func (a *App) Meals(mealType catalog.MealType) []catalog.Recipe {
	return a.catalog.Meals(mealType)
}

// MealSummary counts selected recipes per category.
func (a *App) MealSummary() catalog.MealSummary {
	return a.catalog.Summary()
}

// ShoppingList recomputes the aggregated, deduplicated shopping list from
// the current selections and tags.
func (a *App) ShoppingList() []aggregate.Item {
	return aggregate.Ingredients(a.catalog.SelectedRecipes(), a.tags.All(), a.tags.CheckedSet())
}

// Totals sums recipe-level pricing across the selected recipes.
func (a *App) Totals() aggregate.Totals {
	return aggregate.RecipeTotals(a.catalog.SelectedRecipes())
}

// GroceryTotals partitions the shopping list costs by checked state.
func (a *App) GroceryTotals() aggregate.GroceryTotals {
	return aggregate.ListTotals(a.ShoppingList())
}

// HasUnsavedChanges reports whether the plan differs from what was last
// persisted.
func (a *App) HasUnsavedChanges() bool {
	return a.coord.HasUnsavedChanges(a.PlanData())
}

// SaveNow persists the plan immediately, bypassing the debounce.
func (a *App) SaveNow(ctx context.Context) error {
	return a.coord.SaveUserPlan(ctx, a.PlanData)
}

// DeletePlan clears the remote plan and the sync bookkeeping. Local store
// state stays usable; the next mutation starts a fresh plan.
func (a *App) DeletePlan(ctx context.Context) error {
	return a.coord.DeleteUserPlan(ctx)
}

// Flush synchronously writes the plan to the local cache. Wired to
// unload-style signals where a network save cannot be trusted to finish.
func (a *App) Flush(ctx context.Context) error {
	return a.coord.FlushToCache(ctx, a.PlanData())
}

// Shutdown stops the debounce timer and makes one best-effort final save.
func (a *App) Shutdown(ctx context.Context) {
	a.coord.Close(ctx, a.PlanData)
}

// LastSyncError returns the most recent sync failure message, empty when
// healthy.
func (a *App) LastSyncError() string {
	return a.coord.LastSyncError()
}

// LastSynced returns when the plan last round-tripped with the remote.
func (a *App) LastSynced() time.Time {
	return a.coord.LastSynced()
}

// Health reports process health and local cache disk usage.
func (a *App) Health() metrics.SysHealth {
	return metrics.GetSysHealth(a.cfg.CacheDBPath)
}
