// Package syncer keeps the in-memory plan state synchronized with the
// remote account store. It snapshots the persistable state into one
// canonical string, diffs it against the last-persisted baseline, and
// debounces saves so bursts of toggles collapse into a single write.
package syncer

import (
	"encoding/json"
	"sort"

	"grocery-planner/internal/catalog"
	"grocery-planner/internal/tags"
)

// RecipeSnapshot is the persisted form of one recipe: the full enriched
// recipe plus the selection pair, so a reload needs no re-fetch against
// the pricing service. IsSelected on the wire is informational; on ingest
// it is recomputed from Multiplier, never trusted.
type RecipeSnapshot struct {
	catalog.Recipe
	IsSelected bool `json:"isSelected"`
}

// PlanData is everything that must be persisted for one household plan.
// It is the wire payload shape and the input to snapshotting.
type PlanData struct {
	HouseholdSize       int                            `json:"householdSize"`
	SelectedStore       string                         `json:"selectedStore"`
	AllRecipes          []RecipeSnapshot               `json:"allRecipes"`
	GroceryCheckedItems []string                       `json:"groceryCheckedItems"`
	IngredientTags      map[string]tags.IngredientTags `json:"ingredientTags"`
}

// canonicalize sorts every order-insensitive collection so two
// semantically equal plans serialize identically: recipes by url, checked
// ids lexically. Map keys are already emitted sorted by encoding/json.
func canonicalize(p PlanData) PlanData {
	recipes := make([]RecipeSnapshot, len(p.AllRecipes))
	copy(recipes, p.AllRecipes)
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].URL < recipes[j].URL })
	for i := range recipes {
		recipes[i].IsSelected = recipes[i].Multiplier > 0
	}
	p.AllRecipes = recipes

	checked := make([]string, len(p.GroceryCheckedItems))
	copy(checked, p.GroceryCheckedItems)
	sort.Strings(checked)
	p.GroceryCheckedItems = checked

	if p.IngredientTags == nil {
		p.IngredientTags = map[string]tags.IngredientTags{}
	}
	return p
}

// CreateSnapshot serializes a plan into its canonical string form, the
// basis of all dirty-checking. Equal states always produce equal strings
// regardless of the order mutations were applied in.
func CreateSnapshot(p PlanData) string {
	data, err := json.Marshal(canonicalize(p))
	if err != nil {
		// PlanData contains only marshal-safe fields; this cannot fail
		// for real inputs.
		return ""
	}
	return string(data)
}

// SnapshotRecipes converts catalog recipes into their persisted form.
func SnapshotRecipes(recipes []catalog.Recipe) []RecipeSnapshot {
	out := make([]RecipeSnapshot, 0, len(recipes))
	for _, rec := range recipes {
		out = append(out, RecipeSnapshot{Recipe: rec, IsSelected: rec.Selected()})
	}
	return out
}

// RecipesFromSnapshots converts persisted recipes back to catalog form,
// deriving selection from the multiplier.
func RecipesFromSnapshots(snaps []RecipeSnapshot) []catalog.Recipe {
	out := make([]catalog.Recipe, 0, len(snaps))
	for _, snap := range snaps {
		rec := snap.Recipe
		if rec.Multiplier < 0 {
			rec.Multiplier = 0
		}
		out = append(out, rec)
	}
	return out
}
