// Package remote holds the reference HTTP implementations of the injected
// network capabilities: the user-plan store and the meal pricing service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"grocery-planner/internal/syncer"
)

const planAudience = "/user-plans/"

// planResponse is the account store's envelope for plan operations.
type planResponse struct {
	Success bool             `json:"success"`
	PlanID  string           `json:"planId"`
	Version int              `json:"version"`
	Data    *syncer.PlanData `json:"data"`
}

// planClient is the HTTP implementation of syncer.RemoteCall.
type planClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewPlanClient creates a user-plan client for the given base URL and
// "id:secret" API key.
func NewPlanClient(baseURL, apiKey string) syncer.RemoteCall {
	return &planClient{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Authenticated reports whether the client holds a usable API key.
func (c *planClient) Authenticated() bool {
	return validAPIKey(c.apiKey)
}

func (c *planClient) newRequest(ctx context.Context, method string, body []byte) (*http.Request, error) {
	token, err := createBearerToken(c.apiKey, planAudience)
	if err != nil {
		return nil, fmt.Errorf("failed to create bearer token: %w", err)
	}

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/user-plans", reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// SavePlan sends the full plan payload with PUT and returns the remote's
// plan id and version.
func (c *planClient) SavePlan(ctx context.Context, data syncer.PlanData) (syncer.SaveResult, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return syncer.SaveResult{}, fmt.Errorf("failed to marshal plan: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, body)
	if err != nil {
		return syncer.SaveResult{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return syncer.SaveResult{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return syncer.SaveResult{}, fmt.Errorf("plan api error: status %d", resp.StatusCode)
	}

	var pr planResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return syncer.SaveResult{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if !pr.Success {
		return syncer.SaveResult{}, fmt.Errorf("plan api rejected save")
	}

	return syncer.SaveResult{PlanID: pr.PlanID, Version: pr.Version}, nil
}

// LoadPlan fetches the user's plan; (nil, nil) means the user has none.
func (c *planClient) LoadPlan(ctx context.Context) (*syncer.LoadedPlan, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("plan api error: status %d", resp.StatusCode)
	}

	var pr planResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !pr.Success || pr.Data == nil {
		return nil, nil
	}

	return &syncer.LoadedPlan{
		PlanID:  pr.PlanID,
		Version: pr.Version,
		Data:    *pr.Data,
	}, nil
}

// DeletePlan removes the user's remote plan.
func (c *planClient) DeletePlan(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodDelete, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("plan api error: status %d", resp.StatusCode)
	}
	return nil
}
