package sdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultPageSize is the disease page size used when none is given.
const DefaultPageSize = 10

// Page selects a window of a paginated listing.
type Page struct {
	Skip  int
	Limit int
}

// Normalize applies defaults: negative skip becomes 0, non-positive limit
// becomes DefaultPageSize.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	return p
}

// ListDiseases returns one page of the disease catalogue.
func (c *Client) ListDiseases(ctx context.Context, page Page) ([]Disease, error) {
	page = page.Normalize()
	query := url.Values{}
	query.Set("skip", strconv.Itoa(page.Skip))
	query.Set("limit", strconv.Itoa(page.Limit))

	var diseases []Disease
	if err := c.do(ctx, request{method: http.MethodGet, path: "/diseases", query: query}, &diseases); err != nil {
		return nil, err
	}
	return diseases, nil
}

// GetDisease fetches one disease.
func (c *Client) GetDisease(ctx context.Context, id int64) (*Disease, error) {
	var disease Disease
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/diseases/{id}",
		path:   idPath("/diseases/%d", id),
	}, &disease)
	if err != nil {
		return nil, err
	}
	return &disease, nil
}

// CreateDisease adds a disease to the catalogue.
func (c *Client) CreateDisease(ctx context.Context, input NewDisease) (*Disease, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}
	var disease Disease
	if err := c.do(ctx, request{method: http.MethodPost, path: "/diseases", body: input}, &disease); err != nil {
		return nil, err
	}
	return &disease, nil
}

// UpdateDiseaseDescription replaces the description of a disease.
func (c *Client) UpdateDiseaseDescription(ctx context.Context, id int64, description string) (*Disease, error) {
	input := struct {
		Description string `json:"description" validate:"required,notblank,max=15000"`
	}{Description: description}
	if err := Validate(input); err != nil {
		return nil, err
	}

	var disease Disease
	err := c.do(ctx, request{
		method: http.MethodPut,
		route:  "/diseases/{id}/description",
		path:   idPath("/diseases/%d/description", id),
		body:   input,
	}, &disease)
	if err != nil {
		return nil, err
	}
	return &disease, nil
}
