package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"grocery-planner/internal/catalog"
	"grocery-planner/internal/location"

	"go.uber.org/zap"
)

// MealService is the pricing service: priced recipes per meal category
// plus the catalog of physical stores they are priced against.
type MealService interface {
	catalog.MealFetcher
	FetchStores(ctx context.Context) ([]location.PhysicalStore, error)
}

// mealsResponse is the pricing service's envelope for meal-plan fetches.
type mealsResponse struct {
	Success bool                `json:"success"`
	Data    []catalog.RawRecipe `json:"data"`
}

// storesResponse is the envelope for store-catalog fetches.
type storesResponse struct {
	Success bool                     `json:"success"`
	Data    []location.PhysicalStore `json:"data"`
}

// mealClient is the HTTP implementation of MealService.
type mealClient struct {
	httpClient *http.Client
	baseURL    string
	log        *zap.Logger
}

// NewMealClient creates a pricing-service client.
func NewMealClient(baseURL string, log *zap.Logger) MealService {
	if log == nil {
		log = zap.NewNop()
	}
	return &mealClient{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		log:        log,
	}
}

// FetchMeals retrieves priced recipes for one meal category and
// normalizes them into the fully-typed internal shape.
func (c *mealClient) FetchMeals(ctx context.Context, req catalog.MealRequest) ([]catalog.Recipe, error) {
	q := url.Values{}
	q.Set("store", req.Store)
	q.Set("location", req.Location)
	q.Set("date", req.Date)
	q.Set("mealType", string(req.MealType))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/meal-plans?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("meal api error: status %d", resp.StatusCode)
	}

	var mr mealsResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !mr.Success {
		return nil, fmt.Errorf("meal api reported failure")
	}

	recipes, dropped := catalog.NormalizeRecipes(mr.Data)
	if dropped > 0 {
		c.log.Warn("dropped malformed recipes from meal fetch",
			zap.Int("dropped", dropped),
			zap.String("mealType", string(req.MealType)))
	}
	return recipes, nil
}

// FetchStores retrieves the physical stores the pricing service covers.
func (c *mealClient) FetchStores(ctx context.Context) ([]location.PhysicalStore, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stores", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("meal api error: status %d", resp.StatusCode)
	}

	var sr storesResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !sr.Success {
		return nil, fmt.Errorf("meal api reported failure")
	}
	return sr.Data, nil
}
