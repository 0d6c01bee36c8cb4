package querycache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

var errBoom = errors.New("boom")

func ids(items []sdk.Patient) []int64 {
	out := make([]int64, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

func seedPatients(c *Cache) Key {
	key := ListKey(ResourcePatients)
	Set(c, key, []sdk.Patient{{ID: 1, FullName: "A"}, {ID: 2, FullName: "B"}, {ID: 3, FullName: "C"}})
	return key
}

func TestFetchServesFreshEntries(t *testing.T) {
	c := New()
	calls := 0
	fetch := func(context.Context) ([]sdk.Patient, error) {
		calls++
		return []sdk.Patient{{ID: 1}}, nil
	}
	key := ListKey(ResourcePatients)

	_, err := Fetch(context.Background(), c, key, fetch)
	require.NoError(t, err)
	_, err = Fetch(context.Background(), c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	c.Invalidate(key)
	assert.True(t, c.IsStale(key))
	_, err = Fetch(context.Background(), c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.False(t, c.IsStale(key))
}

func TestFetchErrorIsReturnedUnchanged(t *testing.T) {
	c := New()
	key := ListKey(ResourceUsers)

	_, err := Fetch(context.Background(), c, key, func(context.Context) ([]sdk.User, error) {
		return nil, sdk.ErrUnauthorized
	})

	assert.Same(t, sdk.ErrUnauthorized, err)
	_, ok := Peek[[]sdk.User](c, key)
	assert.False(t, ok, "failed fetch stores nothing")
}

func TestMutateSuccessPatchesThenInvalidates(t *testing.T) {
	c := New()
	key := seedPatients(c)

	_, err := Mutate(context.Background(), c, Mutation{
		Resource:   ResourcePatients,
		Op:         OpDelete,
		Patches:    []Patch{RemoveWhere(key, func(p sdk.Patient) bool { return p.ID == 2 })},
		Invalidate: []Key{key},
	}, func(context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	require.NoError(t, err)

	visible, ok := Peek[[]sdk.Patient](c, key)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 3}, ids(visible))
	assert.True(t, c.IsStale(key))
}

func TestMutateInvalidatesOnlyAfterAck(t *testing.T) {
	c := New()
	key := seedPatients(c)

	_, err := Mutate(context.Background(), c, Mutation{
		Resource:   ResourcePatients,
		Op:         OpCreate,
		Invalidate: []Key{key},
	}, func(context.Context) (*sdk.Patient, error) {
		assert.False(t, c.IsStale(key), "not stale while the request is in flight")
		return &sdk.Patient{ID: 4}, nil
	})
	require.NoError(t, err)
	assert.True(t, c.IsStale(key))
}

func TestMutateFailureRestoresExactState(t *testing.T) {
	c := New()
	key := seedPatients(c)
	entity := EntityKey(ResourcePatients, 2)
	Set(c, entity, &sdk.Patient{ID: 2, FullName: "B"})
	before, _ := Peek[[]sdk.Patient](c, key)

	name := "Renamed"
	_, err := Mutate(context.Background(), c, Mutation{
		Resource: ResourcePatients,
		Op:       OpUpdate,
		Patches: []Patch{
			UpdateWhere(key, func(p sdk.Patient) bool { return p.ID == 2 }, sdk.UpdatePatient{FullName: &name}.Apply),
			Replace(entity, func(p *sdk.Patient) *sdk.Patient { return &sdk.Patient{ID: p.ID, FullName: name} }),
		},
		Invalidate: []Key{key, entity},
	}, func(context.Context) (*sdk.Patient, error) {
		visible, _ := Peek[[]sdk.Patient](c, key)
		assert.Equal(t, "Renamed", visible[1].FullName, "patch visible while in flight")
		return nil, errBoom
	})

	var mutErr *sdk.MutationError
	require.ErrorAs(t, err, &mutErr)
	assert.Equal(t, ResourcePatients, mutErr.Resource)
	assert.Equal(t, OpUpdate, mutErr.Op)
	assert.ErrorIs(t, err, errBoom)

	after, _ := Peek[[]sdk.Patient](c, key)
	assert.Equal(t, before, after)
	restored, _ := Peek[*sdk.Patient](c, entity)
	assert.Equal(t, "B", restored.FullName)
	assert.False(t, c.IsStale(key), "rollback restores the fresh, unpatched entry")
	assert.False(t, c.IsStale(entity))
}

func TestFetchErrorDiscardsPatch(t *testing.T) {
	c := New()
	key := seedPatients(c)

	_, err := Mutate(context.Background(), c, Mutation{
		Resource:   ResourcePatients,
		Op:         OpDelete,
		Patches:    []Patch{RemoveWhere(key, func(p sdk.Patient) bool { return p.ID == 1 })},
		Invalidate: []Key{key},
	}, func(context.Context) (struct{}, error) { return struct{}{}, nil })
	require.NoError(t, err)

	_, err = Fetch(context.Background(), c, key, func(context.Context) ([]sdk.Patient, error) {
		return nil, errBoom
	})
	require.ErrorIs(t, err, errBoom)

	visible, ok := Peek[[]sdk.Patient](c, key)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2, 3}, ids(visible), "patch is discarded, not merged")
	assert.True(t, c.IsStale(key), "still needs a re-fetch")
}

func TestRefetchSupersedesPatch(t *testing.T) {
	c := New()
	key := seedPatients(c)

	_, err := Mutate(context.Background(), c, Mutation{
		Resource:   ResourcePatients,
		Op:         OpDelete,
		Patches:    []Patch{RemoveWhere(key, func(p sdk.Patient) bool { return p.ID == 3 })},
		Invalidate: []Key{key},
	}, func(context.Context) (struct{}, error) { return struct{}{}, nil })
	require.NoError(t, err)

	server := []sdk.Patient{{ID: 1}, {ID: 2}, {ID: 9}}
	got, err := Fetch(context.Background(), c, key, func(context.Context) ([]sdk.Patient, error) {
		return server, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 9}, ids(got))
	assert.False(t, c.IsStale(key))
}

func TestPatchedEntryIsRefetchedEvenWithoutInvalidation(t *testing.T) {
	c := New()
	key := seedPatients(c)
	_, err := Mutate(context.Background(), c, Mutation{
		Resource: ResourcePatients,
		Op:       OpDelete,
		Patches:  []Patch{RemoveWhere(key, func(p sdk.Patient) bool { return p.ID == 3 })},
	}, func(context.Context) (struct{}, error) { return struct{}{}, nil })
	require.NoError(t, err)

	calls := 0
	_, err = Fetch(context.Background(), c, key, func(context.Context) ([]sdk.Patient, error) {
		calls++
		return []sdk.Patient{{ID: 1}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestInvalidateResource(t *testing.T) {
	c := New()
	Set(c, PageKey(ResourceDiseases, 0, 10), []sdk.Disease{{ID: 1}})
	Set(c, PageKey(ResourceDiseases, 10, 10), []sdk.Disease{{ID: 11}})
	Set(c, EntityKey(ResourceDiseases, 1), &sdk.Disease{ID: 1})
	Set(c, ListKey(ResourceUsers), []sdk.User{{ID: 1}})

	c.InvalidateResource(ResourceDiseases)

	assert.True(t, c.IsStale(PageKey(ResourceDiseases, 0, 10)))
	assert.True(t, c.IsStale(PageKey(ResourceDiseases, 10, 10)))
	assert.True(t, c.IsStale(EntityKey(ResourceDiseases, 1)))
	assert.False(t, c.IsStale(ListKey(ResourceUsers)))
}

func TestPatchHelpersIgnoreMismatchedTypes(t *testing.T) {
	key := ListKey(ResourceUsers)
	current := []sdk.User{{ID: 1}}

	next, changed := RemoveWhere(key, func(p sdk.Patient) bool { return true }).Apply(current)
	assert.False(t, changed)
	assert.Equal(t, current, next)

	next, changed = UpdateWhere(key, func(u sdk.User) bool { return u.ID == 5 }, func(u sdk.User) sdk.User { return u }).Apply(current)
	assert.False(t, changed, "no element matched")
	assert.Equal(t, current, next)

	_, changed = Replace(key, func(u *sdk.User) *sdk.User { return u }).Apply(current)
	assert.False(t, changed)
}

func TestEntriesExpire(t *testing.T) {
	c := New(WithTTL(20 * time.Millisecond))
	key := ListKey(ResourcePatients)
	Set(c, key, []sdk.Patient{{ID: 1}})

	require.Eventually(t, func() bool {
		_, ok := Peek[[]sdk.Patient](c, key)
		return !ok
	}, time.Second, 10*time.Millisecond)
	assert.True(t, c.IsStale(key))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "patients/list", ListKey(ResourcePatients).String())
	assert.Equal(t, "users/id:4", EntityKey(ResourceUsers, 4).String())
	assert.Equal(t, "diseases/page:10:5", PageKey(ResourceDiseases, 10, 5).String())
	assert.Equal(t, "ai", Key{Resource: ResourceAI}.String())
}

// blockingFetch returns a fetch func that signals when it has started and
// waits for release before returning items.
func blockingFetch(items []sdk.Patient) (fn func(context.Context) ([]sdk.Patient, error), started, release chan struct{}) {
	started = make(chan struct{})
	release = make(chan struct{})
	fn = func(context.Context) ([]sdk.Patient, error) {
		close(started)
		<-release
		return items, nil
	}
	return fn, started, release
}

func TestFetchStartedBeforeDeleteDoesNotResurrectEntity(t *testing.T) {
	c := New()
	key := seedPatients(c)
	c.Invalidate(key)

	slow, started, release := blockingFetch([]sdk.Patient{{ID: 1}, {ID: 2}, {ID: 3}})
	done := make(chan error, 1)
	go func() {
		_, err := Fetch(context.Background(), c, key, slow)
		done <- err
	}()
	<-started

	_, err := Mutate(context.Background(), c, Mutation{
		Resource:   ResourcePatients,
		Op:         OpDelete,
		Patches:    []Patch{RemoveWhere(key, func(p sdk.Patient) bool { return p.ID == 2 })},
		Invalidate: []Key{key},
	}, func(context.Context) (struct{}, error) { return struct{}{}, nil })
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
	assert.True(t, c.IsStale(key), "a read that raced the delete is cached stale")

	calls := 0
	got, err := Fetch(context.Background(), c, key, func(context.Context) ([]sdk.Patient, error) {
		calls++
		return []sdk.Patient{{ID: 1}, {ID: 3}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NotContains(t, ids(got), int64(2))
}

func TestFetchStartedBeforeResourceInvalidationIsStale(t *testing.T) {
	c := New()
	key := PageKey(ResourceDiseases, 0, 10)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := Fetch(context.Background(), c, key, func(context.Context) ([]sdk.Disease, error) {
			close(started)
			<-release
			return []sdk.Disease{{ID: 1, Description: "old"}}, nil
		})
		done <- err
	}()
	<-started

	c.InvalidateResource(ResourceDiseases)
	close(release)
	require.NoError(t, <-done)
	assert.True(t, c.IsStale(key))
}

func TestFetchAfterInvalidationIsFresh(t *testing.T) {
	c := New()
	key := seedPatients(c)
	c.Invalidate(key)

	_, err := Fetch(context.Background(), c, key, func(context.Context) ([]sdk.Patient, error) {
		return []sdk.Patient{{ID: 1}}, nil
	})
	require.NoError(t, err)
	assert.False(t, c.IsStale(key), "only fetches that started before the invalidation are affected")
}

func TestPurgeDropsEntriesAndInFlightFetches(t *testing.T) {
	c := New()
	key := seedPatients(c)
	Set(c, ListKey(ResourceUsers), []sdk.User{{ID: 1}})
	c.Invalidate(key)

	slow, started, release := blockingFetch([]sdk.Patient{{ID: 1}})
	done := make(chan error, 1)
	go func() {
		_, err := Fetch(context.Background(), c, key, slow)
		done <- err
	}()
	<-started

	c.Purge()
	close(release)
	require.NoError(t, <-done)

	_, ok := Peek[[]sdk.Patient](c, key)
	assert.False(t, ok, "a fetch that straddled the purge is not cached")
	_, ok = Peek[[]sdk.User](c, ListKey(ResourceUsers))
	assert.False(t, ok)
}
