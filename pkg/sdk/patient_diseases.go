package sdk

import (
	"context"
	"net/http"
)

// ListPatientDiseases returns the detailed disease links of one patient.
func (c *Client) ListPatientDiseases(ctx context.Context, patientID int64) ([]PatientDiseaseDetail, error) {
	var links []PatientDiseaseDetail
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/patient-diseases/details/by-patient/{patientId}",
		path:   idPath("/patient-diseases/details/by-patient/%d", patientID),
	}, &links)
	if err != nil {
		return nil, err
	}
	return links, nil
}

// AssignDisease links a disease to a patient.
func (c *Client) AssignDisease(ctx context.Context, input AssignDiseaseInput) (*PatientDisease, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}
	var link PatientDisease
	if err := c.do(ctx, request{method: http.MethodPost, path: "/patient-diseases/assign", body: input}, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// RemovePatientDisease deletes a patient-disease link.
func (c *Client) RemovePatientDisease(ctx context.Context, linkID int64) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/patient-diseases/{id}",
		path:   idPath("/patient-diseases/%d", linkID),
	}, nil)
}
