package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// packageNamespace seeds deterministic packageId synthesis so that the same
// product/size/type triple always maps to the same id across sessions.
var packageNamespace = uuid.MustParse("8f1d6b2e-4a0c-5e9d-9f3a-2b7c1d0e6a45")

// RawIngredient is the wire shape returned by the pricing service. Numeric
// fields are pointers because the service omits them for free and skipped
// lines.
type RawIngredient struct {
	RecipeIngredientName string   `json:"recipeIngredientName"`
	SaleUnitSize         *float64 `json:"saleUnitSize"`
	SaleUnitType         string   `json:"saleUnitType"`
	SalePrice            *float64 `json:"salePrice"`
	RegularPrice         *float64 `json:"regularPrice"`
	SaleFractionUsed     *float64 `json:"saleFractionUsed"`
	Source               string   `json:"source"`
	ProductName          string   `json:"productName"`
	PackageID            string   `json:"packageId"`
	SavingsPercentage    *float64 `json:"savingsPercentage"`
	Category             string   `json:"category"`
}

// RawRecipe is the wire shape of one recipe from the pricing service.
type RawRecipe struct {
	URL           string          `json:"url"`
	Name          string          `json:"name"`
	SalePrice     *float64        `json:"salePrice"`
	RegularPrice  *float64        `json:"regularPrice"`
	TotalSavings  *float64        `json:"totalSavings"`
	Servings      *int            `json:"servings"`
	Ingredients   []RawIngredient `json:"ingredients"`
	Store         string          `json:"store"`
	Location      string          `json:"location"`
	MealType      string          `json:"mealType"`
	Date          string          `json:"date"`
	ValidFromDate string          `json:"validFromDate"`
	ValidToDate   string          `json:"validToDate"`
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// SynthesizePackageID builds a deterministic package id from the product
// name and sale unit when the pricing service did not assign one.
func SynthesizePackageID(productName string, saleUnitSize float64, saleUnitType string) string {
	key := fmt.Sprintf("%s|%g|%s", strings.ToLower(strings.TrimSpace(productName)), saleUnitSize, strings.ToLower(strings.TrimSpace(saleUnitType)))
	return uuid.NewSHA1(packageNamespace, []byte(key)).String()
}

// NormalizeIngredient validates and defaults one raw ingredient line into
// the fully-typed internal shape. Missing numeric fields default to zero;
// a missing packageId is synthesized deterministically.
func NormalizeIngredient(raw RawIngredient) Ingredient {
	ing := Ingredient{
		RecipeIngredientName: raw.RecipeIngredientName,
		SaleUnitSize:         deref(raw.SaleUnitSize),
		SaleUnitType:         raw.SaleUnitType,
		SalePrice:            deref(raw.SalePrice),
		RegularPrice:         deref(raw.RegularPrice),
		SaleFractionUsed:     deref(raw.SaleFractionUsed),
		Source:               IngredientSource(raw.Source),
		ProductName:          raw.ProductName,
		PackageID:            raw.PackageID,
		SavingsPercentage:    deref(raw.SavingsPercentage),
		Category:             raw.Category,
	}
	if ing.Source == "" {
		ing.Source = SourceDatabase
	}
	if ing.ProductName == "" {
		ing.ProductName = raw.RecipeIngredientName
	}
	if ing.SaleFractionUsed < 0 {
		ing.SaleFractionUsed = 0
	}
	if ing.PackageID == "" {
		ing.PackageID = SynthesizePackageID(ing.ProductName, ing.SaleUnitSize, ing.SaleUnitType)
	}
	return ing
}

// NormalizeRecipe converts one raw recipe into the internal Recipe shape.
// Recipes arrive unselected; selection state is applied separately when a
// session is restored.
func NormalizeRecipe(raw RawRecipe) (Recipe, error) {
	if raw.URL == "" {
		return Recipe{}, fmt.Errorf("recipe %q has no url", raw.Name)
	}

	servings := 1
	if raw.Servings != nil && *raw.Servings > 0 {
		servings = *raw.Servings
	}

	rec := Recipe{
		URL:           raw.URL,
		Name:          raw.Name,
		SalePrice:     deref(raw.SalePrice),
		RegularPrice:  deref(raw.RegularPrice),
		TotalSavings:  deref(raw.TotalSavings),
		Servings:      servings,
		Store:         raw.Store,
		Location:      raw.Location,
		MealType:      MealType(raw.MealType),
		Date:          raw.Date,
		ValidFromDate: raw.ValidFromDate,
		ValidToDate:   raw.ValidToDate,
	}
	for _, ri := range raw.Ingredients {
		rec.Ingredients = append(rec.Ingredients, NormalizeIngredient(ri))
	}
	return rec, nil
}

// NormalizeRecipes converts a batch, dropping recipes that fail validation
// and reporting how many were dropped.
func NormalizeRecipes(raws []RawRecipe) ([]Recipe, int) {
	recipes := make([]Recipe, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		rec, err := NormalizeRecipe(raw)
		if err != nil {
			dropped++
			continue
		}
		recipes = append(recipes, rec)
	}
	return recipes, dropped
}
