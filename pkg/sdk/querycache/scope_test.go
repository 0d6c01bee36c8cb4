package querycache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic/pkg/sdk"
	"github.com/clinicdesk/clinic/pkg/sdk/querycache"
	"github.com/clinicdesk/clinic/pkg/sdk/sdktest"
	"github.com/clinicdesk/clinic/pkg/sdk/session"
)

func TestFollowPurgesOnSignOutOnly(t *testing.T) {
	server := sdktest.NewServer(t)
	nurse := server.AddUser(sdk.User{FullName: "Nora Nurse", Email: "nurse@example.com", Role: sdk.RoleNurse}, "secret1")
	server.AddPatient(sdk.Patient{FullName: "Ann Lee"})

	store := sdk.NewMemoryStore(server.Token(nurse))
	client := server.Client(sdk.WithTokenStore(store))
	cache := querycache.New()
	q := querycache.NewQueries(client, cache)
	mgr := session.New(store, client)
	cancel := cache.Follow(mgr)
	defer cancel()

	require.Equal(t, session.StateAuthenticated, mgr.Bootstrap(context.Background()).State)
	_, err := q.Patients(context.Background())
	require.NoError(t, err)

	require.NoError(t, mgr.Verify(context.Background()))
	_, err = q.Patients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, server.Calls(sdktest.RouteListPatients), "re-verifying the same identity keeps the cache")

	require.NoError(t, mgr.Logout(context.Background()))
	assert.True(t, cache.IsStale(querycache.ListKey(querycache.ResourcePatients)), "sign-out empties the cache")
}

func TestFollowCancel(t *testing.T) {
	server := sdktest.NewServer(t)
	nurse := server.AddUser(sdk.User{FullName: "Nora Nurse", Email: "nurse@example.com", Role: sdk.RoleNurse}, "secret1")
	store := sdk.NewMemoryStore(server.Token(nurse))
	client := server.Client(sdk.WithTokenStore(store))
	cache := querycache.New()
	mgr := session.New(store, client)
	mgr.Bootstrap(context.Background())

	key := querycache.ListKey(querycache.ResourceUsers)
	querycache.Set(cache, key, []sdk.User{nurse})
	cache.Follow(mgr)()

	require.NoError(t, mgr.Logout(context.Background()))
	_, ok := querycache.Peek[[]sdk.User](cache, key)
	assert.True(t, ok, "a cancelled follower leaves the cache alone")
}
