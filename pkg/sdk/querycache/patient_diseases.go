package querycache

import (
	"context"
	"strconv"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

func patientDiseasesKey(patientID int64) Key {
	return NamedKey(ResourcePatientDiseases, "patient:"+strconv.FormatInt(patientID, 10))
}

// PatientDiseases lists the diseases assigned to a patient.
func (q *Queries) PatientDiseases(ctx context.Context, patientID int64) ([]sdk.PatientDiseaseDetail, error) {
	return Fetch(ctx, q.cache, patientDiseasesKey(patientID), func(ctx context.Context) ([]sdk.PatientDiseaseDetail, error) {
		return q.client.ListPatientDiseases(ctx, patientID)
	})
}

// AssignDisease links a disease and invalidates that patient's links.
func (q *Queries) AssignDisease(ctx context.Context, input sdk.AssignDiseaseInput) (*sdk.PatientDisease, error) {
	return Mutate(ctx, q.cache, Mutation{
		Resource:   ResourcePatientDiseases,
		Op:         OpCreate,
		Invalidate: []Key{patientDiseasesKey(input.PatientID)},
	}, func(ctx context.Context) (*sdk.PatientDisease, error) {
		return q.client.AssignDisease(ctx, input)
	})
}

// RemovePatientDisease deletes a link, splicing it out of the patient's
// cached list first.
func (q *Queries) RemovePatientDisease(ctx context.Context, linkID, patientID int64) error {
	key := patientDiseasesKey(patientID)
	_, err := Mutate(ctx, q.cache, Mutation{
		Resource: ResourcePatientDiseases,
		Op:       OpDelete,
		Patches: []Patch{
			RemoveWhere(key, func(d sdk.PatientDiseaseDetail) bool { return d.ID == linkID }),
		},
		Invalidate: []Key{key},
	}, deleteOnly(func(ctx context.Context) error {
		return q.client.RemovePatientDisease(ctx, linkID)
	}))
	return err
}
