package syncer

import (
	"testing"

	"grocery-planner/internal/catalog"
	"grocery-planner/internal/tags"
)

func planFixture() PlanData {
	return PlanData{
		HouseholdSize: 4,
		SelectedStore: "s1",
		AllRecipes: []RecipeSnapshot{
			{Recipe: catalog.Recipe{URL: "r/b", Multiplier: 1}},
			{Recipe: catalog.Recipe{URL: "r/a", Multiplier: 0}},
		},
		GroceryCheckedItems: []string{"p2", "p1"},
		IngredientTags: map[string]tags.IngredientTags{
			"p1": {Importance: tags.ImportanceCore, Status: tags.StatusBought},
		},
	}
}

func TestSnapshotOrderInsensitive(t *testing.T) {
	a := planFixture()

	b := planFixture()
	b.AllRecipes[0], b.AllRecipes[1] = b.AllRecipes[1], b.AllRecipes[0]
	b.GroceryCheckedItems = []string{"p1", "p2"}

	if CreateSnapshot(a) != CreateSnapshot(b) {
		t.Error("Expected equal snapshots for reordered collections")
	}
}

func TestSnapshotDetectsDifferences(t *testing.T) {
	t.Run("Multiplier", func(t *testing.T) {
		a, b := planFixture(), planFixture()
		b.AllRecipes[0].Multiplier = 2
		if CreateSnapshot(a) == CreateSnapshot(b) {
			t.Error("Expected differing snapshots for differing multiplier")
		}
	})

	t.Run("HouseholdSize", func(t *testing.T) {
		a, b := planFixture(), planFixture()
		b.HouseholdSize = 5
		if CreateSnapshot(a) == CreateSnapshot(b) {
			t.Error("Expected differing snapshots for differing household size")
		}
	})

	t.Run("CheckedSet", func(t *testing.T) {
		a, b := planFixture(), planFixture()
		b.GroceryCheckedItems = append(b.GroceryCheckedItems, "p3")
		if CreateSnapshot(a) == CreateSnapshot(b) {
			t.Error("Expected differing snapshots for differing checked set")
		}
	})

	t.Run("Tags", func(t *testing.T) {
		a, b := planFixture(), planFixture()
		b.IngredientTags["p1"] = tags.IngredientTags{Status: tags.StatusOwned}
		if CreateSnapshot(a) == CreateSnapshot(b) {
			t.Error("Expected differing snapshots for differing tags")
		}
	})
}

func TestSnapshotRecomputesIsSelected(t *testing.T) {
	a, b := planFixture(), planFixture()
	// A drifted wire flag must not affect the canonical form.
	b.AllRecipes[1].IsSelected = true

	if CreateSnapshot(a) != CreateSnapshot(b) {
		t.Error("Expected isSelected to be recomputed from multiplier, not trusted")
	}
}

func TestNilTagsAndEmptyTagsEqual(t *testing.T) {
	a, b := planFixture(), planFixture()
	a.IngredientTags = nil
	b.IngredientTags = map[string]tags.IngredientTags{}

	if CreateSnapshot(a) != CreateSnapshot(b) {
		t.Error("Expected nil and empty tag maps to canonicalize identically")
	}
}

func TestRecipeSnapshotRoundTrip(t *testing.T) {
	recipes := []catalog.Recipe{
		{URL: "r/a", Multiplier: 1.5},
		{URL: "r/b", Multiplier: 0},
	}

	snaps := SnapshotRecipes(recipes)
	if !snaps[0].IsSelected || snaps[1].IsSelected {
		t.Errorf("Expected isSelected derived from multiplier, got %+v", snaps)
	}

	back := RecipesFromSnapshots(snaps)
	if back[0].Multiplier != 1.5 || !back[0].Selected() {
		t.Errorf("Expected selection restored from multiplier, got %+v", back[0])
	}
}
