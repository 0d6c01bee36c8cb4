package querycache

import (
	"context"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

func patientID(id int64) func(sdk.Patient) bool {
	return func(p sdk.Patient) bool { return p.ID == id }
}

// Patients lists every patient.
func (q *Queries) Patients(ctx context.Context) ([]sdk.Patient, error) {
	return Fetch(ctx, q.cache, ListKey(ResourcePatients), q.client.ListPatients)
}

// Patient fetches one patient.
func (q *Queries) Patient(ctx context.Context, id int64) (*sdk.Patient, error) {
	return Fetch(ctx, q.cache, EntityKey(ResourcePatients, id), func(ctx context.Context) (*sdk.Patient, error) {
		return q.client.GetPatient(ctx, id)
	})
}

// CreatePatient registers a patient and invalidates the patient list.
func (q *Queries) CreatePatient(ctx context.Context, input sdk.NewPatient) (*sdk.Patient, error) {
	return Mutate(ctx, q.cache, Mutation{
		Resource:   ResourcePatients,
		Op:         OpCreate,
		Invalidate: []Key{ListKey(ResourcePatients)},
	}, func(ctx context.Context) (*sdk.Patient, error) {
		return q.client.CreatePatient(ctx, input)
	})
}

// UpdatePatient patches the cached list entry, then invalidates the list
// and the entity.
func (q *Queries) UpdatePatient(ctx context.Context, id int64, input sdk.UpdatePatient) (*sdk.Patient, error) {
	return Mutate(ctx, q.cache, Mutation{
		Resource: ResourcePatients,
		Op:       OpUpdate,
		Patches: []Patch{
			UpdateWhere(ListKey(ResourcePatients), patientID(id), input.Apply),
		},
		Invalidate: []Key{ListKey(ResourcePatients), EntityKey(ResourcePatients, id)},
	}, func(ctx context.Context) (*sdk.Patient, error) {
		return q.client.UpdatePatient(ctx, id, input)
	})
}

// DeletePatient splices the patient out of the cached list, then
// invalidates the list, the entity and the patient's disease links.
func (q *Queries) DeletePatient(ctx context.Context, id int64) error {
	_, err := Mutate(ctx, q.cache, Mutation{
		Resource: ResourcePatients,
		Op:       OpDelete,
		Patches: []Patch{
			RemoveWhere(ListKey(ResourcePatients), patientID(id)),
		},
		Invalidate: []Key{
			ListKey(ResourcePatients),
			EntityKey(ResourcePatients, id),
			patientDiseasesKey(id),
		},
	}, deleteOnly(func(ctx context.Context) error {
		return q.client.DeletePatient(ctx, id)
	}))
	return err
}
