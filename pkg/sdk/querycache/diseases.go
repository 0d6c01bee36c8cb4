package querycache

import (
	"context"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

// Diseases fetches one page of the catalogue.
func (q *Queries) Diseases(ctx context.Context, page sdk.Page) ([]sdk.Disease, error) {
	page = page.Normalize()
	return Fetch(ctx, q.cache, PageKey(ResourceDiseases, page.Skip, page.Limit), func(ctx context.Context) ([]sdk.Disease, error) {
		return q.client.ListDiseases(ctx, page)
	})
}

// Disease fetches one disease.
func (q *Queries) Disease(ctx context.Context, id int64) (*sdk.Disease, error) {
	return Fetch(ctx, q.cache, EntityKey(ResourceDiseases, id), func(ctx context.Context) (*sdk.Disease, error) {
		return q.client.GetDisease(ctx, id)
	})
}

// CreateDisease adds a disease; every page may shift, so the whole
// resource is invalidated.
func (q *Queries) CreateDisease(ctx context.Context, input sdk.NewDisease) (*sdk.Disease, error) {
	return Mutate(ctx, q.cache, Mutation{
		Resource:            ResourceDiseases,
		Op:                  OpCreate,
		InvalidateResources: []string{ResourceDiseases},
	}, func(ctx context.Context) (*sdk.Disease, error) {
		return q.client.CreateDisease(ctx, input)
	})
}

// UpdateDiseaseDescription rewrites the cached entity optimistically and
// invalidates the whole resource.
func (q *Queries) UpdateDiseaseDescription(ctx context.Context, id int64, description string) (*sdk.Disease, error) {
	return Mutate(ctx, q.cache, Mutation{
		Resource: ResourceDiseases,
		Op:       OpUpdate,
		Patches: []Patch{
			Replace(EntityKey(ResourceDiseases, id), func(d *sdk.Disease) *sdk.Disease {
				updated := *d
				updated.Description = description
				return &updated
			}),
		},
		InvalidateResources: []string{ResourceDiseases},
	}, func(ctx context.Context) (*sdk.Disease, error) {
		return q.client.UpdateDiseaseDescription(ctx, id, description)
	})
}
