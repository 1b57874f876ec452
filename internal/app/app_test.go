package app

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"grocery-planner/internal/catalog"
	"grocery-planner/internal/config"
	"grocery-planner/internal/location"
	"grocery-planner/internal/syncer"
	"grocery-planner/internal/tags"

	"go.uber.org/zap"
)

type fakeRemote struct {
	mu            sync.Mutex
	authenticated bool
	plan          *syncer.LoadedPlan
	saves         []syncer.PlanData
	deletes       int
}

func (f *fakeRemote) Authenticated() bool { return f.authenticated }

func (f *fakeRemote) SavePlan(ctx context.Context, data syncer.PlanData) (syncer.SaveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, data)
	return syncer.SaveResult{PlanID: "plan-1", Version: len(f.saves)}, nil
}

func (f *fakeRemote) LoadPlan(ctx context.Context) (*syncer.LoadedPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plan, nil
}

func (f *fakeRemote) DeletePlan(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return nil
}

func (f *fakeRemote) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeRemote) lastSave() syncer.PlanData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[len(f.saves)-1]
}

type fakeCache struct {
	mu      sync.Mutex
	data    *syncer.PlanData
	savedAt time.Time
}

func (f *fakeCache) Put(ctx context.Context, data syncer.PlanData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = &data
	f.savedAt = time.Now()
	return nil
}

func (f *fakeCache) Get(ctx context.Context) (*syncer.PlanData, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, f.savedAt, nil
}

func (f *fakeCache) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = nil
	return nil
}

type nopRecorder struct{}

func (nopRecorder) RecordSync(string, bool, time.Duration, int) {}

// stubFetcher returns its canned recipes stamped with the request's
// category so SetMeals files them correctly.
type stubFetcher struct {
	recipes map[catalog.MealType][]catalog.Recipe
}

func (s *stubFetcher) FetchMeals(ctx context.Context, req catalog.MealRequest) ([]catalog.Recipe, error) {
	out := make([]catalog.Recipe, len(s.recipes[req.MealType]))
	copy(out, s.recipes[req.MealType])
	for i := range out {
		out[i].MealType = req.MealType
		out[i].Store = req.Store
		out[i].Location = req.Location
	}
	return out, nil
}

func testStores() []location.PhysicalStore {
	return []location.PhysicalStore{
		{ID: "s1", Name: "Fresh Mart", Location: "Downtown"},
		{ID: "s2", Name: "Fresh Mart", Location: "Eastside"},
	}
}

func newTestApp(t *testing.T, householdSize int, fetcher catalog.MealFetcher) (*App, *fakeRemote, *fakeCache) {
	t.Helper()

	remote := &fakeRemote{authenticated: true}
	cache := &fakeCache{}
	log := zap.NewNop()

	coord := syncer.NewCoordinator(remote, cache, nopRecorder{}, log, syncer.Options{
		DebounceDelay: 100 * time.Millisecond,
		SaveCooldown:  time.Millisecond,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		coord.Close(ctx, nil)
	})

	a := NewApp(
		&config.Config{CacheDBPath: t.TempDir() + "/plan.db", HouseholdSize: householdSize},
		log,
		catalog.NewStore(householdSize, log),
		tags.NewStore(),
		location.NewStore(),
		coord,
		fetcher,
	)
	a.SetStores(testStores())
	return a, remote, cache
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// Two recipes share one sale package: recipe A (serves 4) uses a quarter
// of it, recipe B (serves 2) uses half. For a household of four, A runs
// at 1x and B at 2x, so the package is needed 1.25 times and two packs
// go on the list.
func TestPlanAggregationScenario(t *testing.T) {
	shared := catalog.Ingredient{
		RecipeIngredientName: "chicken thighs",
		ProductName:          "Chicken Thighs Family Pack",
		PackageID:            "pkg-chicken",
		SalePrice:            4,
		RegularPrice:         6,
		SaleFractionUsed:     0.25,
		Source:               catalog.SourceFlyer,
		Category:             "Meat",
	}
	sharedHalf := shared
	sharedHalf.SaleFractionUsed = 0.5

	fetcher := &stubFetcher{recipes: map[catalog.MealType][]catalog.Recipe{
		catalog.MealDinner: {
			{URL: "https://recipes.example/a", Name: "Recipe A", Servings: 4,
				SalePrice: 8, RegularPrice: 10, Ingredients: []catalog.Ingredient{shared}},
			{URL: "https://recipes.example/b", Name: "Recipe B", Servings: 2,
				SalePrice: 6, RegularPrice: 9, Ingredients: []catalog.Ingredient{sharedHalf}},
		},
	}}

	a, _, _ := newTestApp(t, 4, fetcher)
	if err := a.SelectStore("s1"); err != nil {
		t.Fatalf("SelectStore() error = %v", err)
	}
	if err := a.FetchMeals(context.Background(), "2026-09-01"); err != nil {
		t.Fatalf("FetchMeals() error = %v", err)
	}

	a.ToggleMeal("https://recipes.example/a")
	a.ToggleMeal("https://recipes.example/b")

	dinners := a.Meals(catalog.MealDinner)
	if len(dinners) != 2 {
		t.Fatalf("got %d dinner recipes, want 2", len(dinners))
	}
	if !approx(dinners[0].Multiplier, 1) {
		t.Errorf("recipe A multiplier = %v, want 1", dinners[0].Multiplier)
	}
	if !approx(dinners[1].Multiplier, 2) {
		t.Errorf("recipe B multiplier = %v, want 2", dinners[1].Multiplier)
	}

	list := a.ShoppingList()
	if len(list) != 1 {
		t.Fatalf("got %d shopping list items, want 1", len(list))
	}
	item := list[0]
	if item.PackageID != "pkg-chicken" {
		t.Errorf("PackageID = %q", item.PackageID)
	}
	if !approx(item.NeededFraction, 1.25) {
		t.Errorf("NeededFraction = %v, want 1.25", item.NeededFraction)
	}
	if item.PacksToBuy != 2 {
		t.Errorf("PacksToBuy = %d, want 2", item.PacksToBuy)
	}
	if !approx(item.LineCost, 8) {
		t.Errorf("LineCost = %v, want 8", item.LineCost)
	}

	totals := a.Totals()
	if !approx(totals.SaleTotal, 20) {
		t.Errorf("SaleTotal = %v, want 20", totals.SaleTotal)
	}
	if !approx(totals.RegularTotal, 28) {
		t.Errorf("RegularTotal = %v, want 28", totals.RegularTotal)
	}
	if !approx(totals.TotalSavings, 8) {
		t.Errorf("TotalSavings = %v, want 8", totals.TotalSavings)
	}

	groceries := a.GroceryTotals()
	if groceries.ItemCount != 1 || groceries.UncheckedCount != 1 {
		t.Errorf("GroceryTotals counts = %+v", groceries)
	}
	if !approx(groceries.UncheckedCost, 8) {
		t.Errorf("UncheckedCost = %v, want 8", groceries.UncheckedCost)
	}

	summary := a.MealSummary()
	if summary.Dinner != 2 || summary.Breakfast != 0 || summary.Lunch != 0 {
		t.Errorf("MealSummary = %+v", summary)
	}
}

func TestSelectStoreClearsCatalog(t *testing.T) {
	fetcher := &stubFetcher{recipes: map[catalog.MealType][]catalog.Recipe{
		catalog.MealLunch: {{URL: "https://recipes.example/soup", Name: "Soup", Servings: 2}},
	}}
	a, _, _ := newTestApp(t, 2, fetcher)

	if err := a.SelectStore("s1"); err != nil {
		t.Fatalf("SelectStore() error = %v", err)
	}
	if err := a.FetchMeals(context.Background(), "2026-09-01"); err != nil {
		t.Fatalf("FetchMeals() error = %v", err)
	}
	if len(a.Meals(catalog.MealLunch)) != 1 {
		t.Fatal("expected one lunch recipe after fetch")
	}

	t.Run("same store keeps recipes", func(t *testing.T) {
		if err := a.SelectStore("s1"); err != nil {
			t.Fatalf("SelectStore() error = %v", err)
		}
		if len(a.Meals(catalog.MealLunch)) != 1 {
			t.Error("re-selecting the current store cleared the catalog")
		}
	})

	t.Run("different store clears recipes", func(t *testing.T) {
		if err := a.SelectStore("s2"); err != nil {
			t.Fatalf("SelectStore() error = %v", err)
		}
		if len(a.Meals(catalog.MealLunch)) != 0 {
			t.Error("changing stores left stale recipes in the catalog")
		}
	})

	t.Run("unknown store rejected without clearing", func(t *testing.T) {
		if err := a.FetchMeals(context.Background(), "2026-09-01"); err != nil {
			t.Fatalf("FetchMeals() error = %v", err)
		}
		if err := a.SelectStore("nope"); err == nil {
			t.Fatal("SelectStore() accepted an unknown store")
		}
		if len(a.Meals(catalog.MealLunch)) != 1 {
			t.Error("rejected selection cleared the catalog")
		}
	})
}

func TestDirtyCheckGating(t *testing.T) {
	a, remote, _ := newTestApp(t, 2, &stubFetcher{})

	if err := a.LoadSession(context.Background()); err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if a.HasUnsavedChanges() {
		t.Error("fresh session reported unsaved changes before any store was selected")
	}

	if err := a.SelectStore("s1"); err != nil {
		t.Fatalf("SelectStore() error = %v", err)
	}
	if !a.HasUnsavedChanges() {
		t.Error("selecting a store did not dirty the plan")
	}

	if err := a.SaveNow(context.Background()); err != nil {
		t.Fatalf("SaveNow() error = %v", err)
	}
	if a.HasUnsavedChanges() {
		t.Error("plan still dirty after explicit save")
	}
	if remote.saveCount() != 1 {
		t.Errorf("remote save count = %d, want 1", remote.saveCount())
	}

	a.SetHouseholdSize(3)
	if !a.HasUnsavedChanges() {
		t.Error("household size change did not dirty the plan")
	}
}

func TestMutationsDebounceSave(t *testing.T) {
	a, remote, _ := newTestApp(t, 2, &stubFetcher{})

	if err := a.LoadSession(context.Background()); err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if err := a.SelectStore("s1"); err != nil {
		t.Fatalf("SelectStore() error = %v", err)
	}
	a.SetHouseholdSize(3)
	a.ToggleChecked("pkg-x")

	deadline := time.Now().Add(2 * time.Second)
	for remote.saveCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if remote.saveCount() == 0 {
		t.Fatal("debounced save never fired after mutations")
	}

	got := remote.lastSave()
	if got.HouseholdSize != 3 {
		t.Errorf("saved HouseholdSize = %d, want 3", got.HouseholdSize)
	}
	if got.SelectedStore != "s1" {
		t.Errorf("saved SelectedStore = %q, want s1", got.SelectedStore)
	}
	if len(got.GroceryCheckedItems) != 1 || got.GroceryCheckedItems[0] != "pkg-x" {
		t.Errorf("saved GroceryCheckedItems = %v", got.GroceryCheckedItems)
	}
}

func TestLoadSessionHydratesStores(t *testing.T) {
	recipes := []catalog.Recipe{
		{URL: "https://recipes.example/a", Name: "Recipe A", Servings: 4,
			Multiplier: 1.5, MealType: catalog.MealDinner},
		{URL: "https://recipes.example/b", Name: "Recipe B", Servings: 2,
			MealType: catalog.MealBreakfast},
	}
	a, remote, _ := newTestApp(t, 2, &stubFetcher{})
	remote.plan = &syncer.LoadedPlan{
		PlanID:  "plan-9",
		Version: 3,
		Data: syncer.PlanData{
			HouseholdSize:       6,
			SelectedStore:       "s2",
			AllRecipes:          syncer.SnapshotRecipes(recipes),
			GroceryCheckedItems: []string{"pkg-a"},
			IngredientTags: map[string]tags.IngredientTags{
				"pkg-a": {Importance: tags.ImportanceOptional, Status: tags.StatusOwned},
			},
		},
	}

	if err := a.LoadSession(context.Background()); err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}

	dinners := a.Meals(catalog.MealDinner)
	if len(dinners) != 1 || !approx(dinners[0].Multiplier, 1.5) {
		t.Errorf("dinner recipes = %+v, want one with multiplier 1.5", dinners)
	}
	if len(a.Meals(catalog.MealBreakfast)) != 1 {
		t.Error("breakfast recipe not restored")
	}
	if a.HasUnsavedChanges() {
		t.Error("plan reported dirty immediately after hydration")
	}

	data := a.PlanData()
	if data.HouseholdSize != 6 {
		t.Errorf("HouseholdSize = %d, want 6", data.HouseholdSize)
	}
	if data.SelectedStore != "s2" {
		t.Errorf("SelectedStore = %q, want s2", data.SelectedStore)
	}
	if got := data.IngredientTags["pkg-a"]; got.Status != tags.StatusOwned {
		t.Errorf("restored tag status = %q, want owned", got.Status)
	}
	if len(data.GroceryCheckedItems) != 1 || data.GroceryCheckedItems[0] != "pkg-a" {
		t.Errorf("restored checked items = %v", data.GroceryCheckedItems)
	}
}

func TestDeletePlanResetsSync(t *testing.T) {
	a, remote, cache := newTestApp(t, 2, &stubFetcher{})

	if err := a.LoadSession(context.Background()); err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if err := a.SelectStore("s1"); err != nil {
		t.Fatalf("SelectStore() error = %v", err)
	}
	if err := a.SaveNow(context.Background()); err != nil {
		t.Fatalf("SaveNow() error = %v", err)
	}

	if err := a.DeletePlan(context.Background()); err != nil {
		t.Fatalf("DeletePlan() error = %v", err)
	}
	if remote.deletes != 1 {
		t.Errorf("remote delete count = %d, want 1", remote.deletes)
	}
	cache.mu.Lock()
	cleared := cache.data == nil
	cache.mu.Unlock()
	if !cleared {
		t.Error("local cache not cleared after plan deletion")
	}
}
