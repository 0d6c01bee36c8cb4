package querycache

import (
	"context"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

// Queries reads and writes clinic resources through the cache. Reads are
// served from fresh entries; writes patch and invalidate the entries they
// affect.
type Queries struct {
	client *sdk.Client
	cache  *Cache
}

// NewQueries binds client to cache.
func NewQueries(client *sdk.Client, cache *Cache) *Queries {
	return &Queries{client: client, cache: cache}
}

// Cache returns the underlying cache.
func (q *Queries) Cache() *Cache {
	return q.cache
}

// deleteOnly adapts a delete call to Mutate's result shape.
func deleteOnly(fn func(context.Context) error) func(context.Context) (struct{}, error) {
	return func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}
}

func userID(id int64) func(sdk.User) bool {
	return func(u sdk.User) bool { return u.ID == id }
}

// Users lists every account.
func (q *Queries) Users(ctx context.Context) ([]sdk.User, error) {
	return Fetch(ctx, q.cache, ListKey(ResourceUsers), q.client.ListUsers)
}

// Doctors lists the doctor accounts.
func (q *Queries) Doctors(ctx context.Context) ([]sdk.User, error) {
	return Fetch(ctx, q.cache, NamedKey(ResourceUsers, "doctors"), q.client.ListDoctors)
}

// User fetches one account.
func (q *Queries) User(ctx context.Context, id int64) (*sdk.User, error) {
	return Fetch(ctx, q.cache, EntityKey(ResourceUsers, id), func(ctx context.Context) (*sdk.User, error) {
		return q.client.GetUser(ctx, id)
	})
}

// CreateUser registers an account and invalidates every users entry.
func (q *Queries) CreateUser(ctx context.Context, input sdk.NewUser) (*sdk.User, error) {
	return Mutate(ctx, q.cache, Mutation{
		Resource:            ResourceUsers,
		Op:                  OpCreate,
		InvalidateResources: []string{ResourceUsers},
	}, func(ctx context.Context) (*sdk.User, error) {
		return q.client.CreateUser(ctx, input)
	})
}

// UpdateUser patches the cached list and entity, then invalidates users.
func (q *Queries) UpdateUser(ctx context.Context, id int64, input sdk.UpdateUser) (*sdk.User, error) {
	return Mutate(ctx, q.cache, Mutation{
		Resource: ResourceUsers,
		Op:       OpUpdate,
		Patches: []Patch{
			UpdateWhere(ListKey(ResourceUsers), userID(id), input.Apply),
			UpdateWhere(NamedKey(ResourceUsers, "doctors"), userID(id), input.Apply),
			Replace(EntityKey(ResourceUsers, id), func(u *sdk.User) *sdk.User {
				updated := input.Apply(*u)
				return &updated
			}),
		},
		InvalidateResources: []string{ResourceUsers},
	}, func(ctx context.Context) (*sdk.User, error) {
		return q.client.UpdateUser(ctx, id, input)
	})
}

// DeleteUser splices the account out of cached lists, then invalidates users.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := Mutate(ctx, q.cache, Mutation{
		Resource: ResourceUsers,
		Op:       OpDelete,
		Patches: []Patch{
			RemoveWhere(ListKey(ResourceUsers), userID(id)),
			RemoveWhere(NamedKey(ResourceUsers, "doctors"), userID(id)),
		},
		Invalidate:          []Key{EntityKey(ResourceUsers, id)},
		InvalidateResources: []string{ResourceUsers},
	}, deleteOnly(func(ctx context.Context) error {
		return q.client.DeleteUser(ctx, id)
	}))
	return err
}
