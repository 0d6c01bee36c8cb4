package sdk

import (
	"context"
	"net/http"
)

// ListPatients returns every patient record.
func (c *Client) ListPatients(ctx context.Context) ([]Patient, error) {
	var patients []Patient
	if err := c.do(ctx, request{method: http.MethodGet, path: "/patients"}, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// GetPatient fetches one patient.
func (c *Client) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	var patient Patient
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/patients/{id}",
		path:   idPath("/patients/%d", id),
	}, &patient)
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// CreatePatient registers a patient.
func (c *Client) CreatePatient(ctx context.Context, input NewPatient) (*Patient, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}
	var patient Patient
	if err := c.do(ctx, request{method: http.MethodPost, path: "/patients", body: input}, &patient); err != nil {
		return nil, err
	}
	return &patient, nil
}

// UpdatePatient changes the given fields of a patient.
func (c *Client) UpdatePatient(ctx context.Context, id int64, input UpdatePatient) (*Patient, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}
	var patient Patient
	err := c.do(ctx, request{
		method: http.MethodPut,
		route:  "/patients/{id}",
		path:   idPath("/patients/%d", id),
		body:   input,
	}, &patient)
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// DeletePatient removes a patient.
func (c *Client) DeletePatient(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/patients/{id}",
		path:   idPath("/patients/%d", id),
	}, nil)
}
