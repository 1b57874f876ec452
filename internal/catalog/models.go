package catalog

// MealType identifies which meal of the day a recipe is priced for.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
)

// MealTypes lists the categories in display order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner}

// IngredientSource records where an ingredient's pricing came from.
type IngredientSource string

const (
	SourceFlyer    IngredientSource = "flyer"
	SourceDatabase IngredientSource = "database"
	SourceSkipped  IngredientSource = "skipped"
	SourceFree     IngredientSource = "free"
)

// Ingredient is a single priced line item inside a recipe. SaleFractionUsed
// is the fraction of one purchasable package the recipe consumes at its
// native serving count.
type Ingredient struct {
	RecipeIngredientName string           `json:"recipeIngredientName"`
	SaleUnitSize         float64          `json:"saleUnitSize"`
	SaleUnitType         string           `json:"saleUnitType"`
	SalePrice            float64          `json:"salePrice"`
	RegularPrice         float64          `json:"regularPrice"`
	SaleFractionUsed     float64          `json:"saleFractionUsed"`
	Source               IngredientSource `json:"source"`
	ProductName          string           `json:"productName"`
	PackageID            string           `json:"packageId"`
	SavingsPercentage    float64          `json:"savingsPercentage"`
	Category             string           `json:"category"`
}

// Recipe is one priced, servable meal. URL is the stable identity.
// Multiplier is the selection state: 0 means unselected, anything greater
// scales the recipe's native serving count for the household.
type Recipe struct {
	URL          string       `json:"url"`
	Name         string       `json:"name"`
	SalePrice    float64      `json:"salePrice"`
	RegularPrice float64      `json:"regularPrice"`
	TotalSavings float64      `json:"totalSavings"`
	Servings     int          `json:"servings"`
	Multiplier   float64      `json:"multiplier"`
	Ingredients  []Ingredient `json:"ingredients"`

	// Pricing context this recipe was computed against.
	Store         string   `json:"store"`
	Location      string   `json:"location"`
	MealType      MealType `json:"mealType"`
	Date          string   `json:"date"`
	ValidFromDate string   `json:"validFromDate"`
	ValidToDate   string   `json:"validToDate"`
}

// Selected reports whether the recipe is part of the current plan. It is a
// projection of Multiplier, never an independent flag.
func (r *Recipe) Selected() bool {
	return r.Multiplier > 0
}

// MealSummary holds selected-recipe counts per meal category.
type MealSummary struct {
	Breakfast int `json:"breakfast"`
	Lunch     int `json:"lunch"`
	Dinner    int `json:"dinner"`
	Total     int `json:"total"`
}
