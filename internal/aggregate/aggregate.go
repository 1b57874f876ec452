// Package aggregate folds the selected recipes' ingredient lines into a
// deduplicated, per-package shopping list with cost accounting. Everything
// here is a pure function of its inputs; callers recompute on read.
package aggregate

import (
	"math"

	"grocery-planner/internal/catalog"
	"grocery-planner/internal/tags"
)

// intEpsilon absorbs float error in summed fractions: a neededFraction a
// hair on either side of an integer is treated as exactly that integer
// before rounding up.
const intEpsilon = 1e-9

// Item is one row of the computed shopping list, keyed by packageId.
type Item struct {
	PackageID      string              `json:"packageId"`
	ProductName    string              `json:"productName"`
	IngredientName string              `json:"ingredientName"`
	SaleUnitSize   float64             `json:"saleUnitSize"`
	SaleUnitType   string              `json:"saleUnitType"`
	PackPrice      float64             `json:"packPrice"`
	RegularPrice   float64             `json:"regularPrice"`
	Category       string              `json:"category"`
	NeededFraction float64             `json:"neededFraction"`
	PacksToBuy     int                 `json:"packsToBuy"`
	LineCost       float64             `json:"lineCost"`
	Checked        bool                `json:"checked"`
	Tags           tags.IngredientTags `json:"tags"`
}

// PacksFor rounds a summed needed fraction up to whole packages, snapping
// near-integer float sums to the integer first so 1.9999999 buys 2 packs,
// not 3 from a later term and not 1 from truncation.
func PacksFor(neededFraction float64) int {
	if neededFraction <= 0 {
		return 0
	}
	if nearest := math.Round(neededFraction); math.Abs(neededFraction-nearest) < intEpsilon {
		return int(nearest)
	}
	return int(math.Ceil(neededFraction))
}

// Ingredients folds every non-skipped ingredient of the selected recipes
// into one shopping list row per packageId. Pricing and category fields
// come from the first occurrence of a package; recipes are assumed to
// agree on a package's price within one planning session. Rounding to
// whole packs happens once, on the summed fraction.
func Ingredients(selected []catalog.Recipe, tagMap map[string]tags.IngredientTags, checked map[string]bool) []Item {
	byPackage := make(map[string]*Item)
	var order []string

	for _, rec := range selected {
		m := rec.Multiplier
		if m <= 0 {
			continue
		}
		for _, ing := range rec.Ingredients {
			if ing.Source == catalog.SourceSkipped {
				continue
			}
			id := ing.PackageID
			if id == "" {
				id = catalog.SynthesizePackageID(ing.ProductName, ing.SaleUnitSize, ing.SaleUnitType)
			}
			item, ok := byPackage[id]
			if !ok {
				t := tags.IngredientTags{Importance: tags.ImportanceCore, Status: tags.StatusBought}
				if existing, found := tagMap[id]; found {
					t = existing
				}
				item = &Item{
					PackageID:      id,
					ProductName:    ing.ProductName,
					IngredientName: ing.RecipeIngredientName,
					SaleUnitSize:   ing.SaleUnitSize,
					SaleUnitType:   ing.SaleUnitType,
					PackPrice:      ing.SalePrice,
					RegularPrice:   ing.RegularPrice,
					Category:       ing.Category,
					Checked:        checked[id],
					Tags:           t,
				}
				byPackage[id] = item
				order = append(order, id)
			}
			item.NeededFraction += ing.SaleFractionUsed * m
		}
	}

	items := make([]Item, 0, len(order))
	for _, id := range order {
		item := byPackage[id]
		if item.NeededFraction < 0 {
			item.NeededFraction = 0
		}
		item.PacksToBuy = PacksFor(item.NeededFraction)
		item.LineCost = float64(item.PacksToBuy) * item.PackPrice
		items = append(items, *item)
	}
	return items
}

// Totals sums recipe-level pricing across the selected recipes, scaled by
// each multiplier. Independent of the package-level aggregation.
type Totals struct {
	SaleTotal    float64 `json:"saleTotal"`
	RegularTotal float64 `json:"regularTotal"`
	TotalSavings float64 `json:"totalSavings"`
}

// RecipeTotals computes the plan-level cost ledger.
func RecipeTotals(selected []catalog.Recipe) Totals {
	var t Totals
	for _, rec := range selected {
		if rec.Multiplier <= 0 {
			continue
		}
		t.SaleTotal += rec.SalePrice * rec.Multiplier
		t.RegularTotal += rec.RegularPrice * rec.Multiplier
	}
	t.TotalSavings = t.RegularTotal - t.SaleTotal
	return t
}

// GroceryTotals partitions the shopping list by checked state.
type GroceryTotals struct {
	ItemCount      int     `json:"itemCount"`
	CheckedCount   int     `json:"checkedCount"`
	UncheckedCount int     `json:"uncheckedCount"`
	CheckedCost    float64 `json:"checkedCost"`
	UncheckedCost  float64 `json:"uncheckedCost"`
	TotalCost      float64 `json:"totalCost"`
}

// ListTotals derives checked/unchecked counts and cost sums from an
// aggregated shopping list.
func ListTotals(items []Item) GroceryTotals {
	var g GroceryTotals
	for _, item := range items {
		g.ItemCount++
		g.TotalCost += item.LineCost
		if item.Checked {
			g.CheckedCount++
			g.CheckedCost += item.LineCost
		} else {
			g.UncheckedCount++
			g.UncheckedCost += item.LineCost
		}
	}
	return g
}
