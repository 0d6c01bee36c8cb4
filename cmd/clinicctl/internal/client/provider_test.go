package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/auth"
	"github.com/clinicdesk/clinic/pkg/sdk"
	"github.com/clinicdesk/clinic/pkg/sdk/sdktest"
	"github.com/clinicdesk/clinic/pkg/sdk/session"
)

func TestProviderBootstrapsFromCredentialStore(t *testing.T) {
	server := sdktest.NewServer(t)
	nurse := server.AddUser(sdk.User{FullName: "Nora Nurse", Email: "nurse@example.com", Role: sdk.RoleNurse}, "secret1")
	dir := t.TempDir()

	store, err := auth.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(server.Token(nurse)))

	p := NewProvider(Options{ServerURL: server.URL, ConfigDir: dir})
	mgr, err := p.Session(context.Background())
	require.NoError(t, err)

	snap := mgr.Snapshot()
	assert.Equal(t, session.StateAuthenticated, snap.State)
	assert.Equal(t, sdk.RoleNurse, snap.Role())
	assert.Equal(t, 1, server.Calls(sdktest.RouteGetUser))

	again, err := p.Session(context.Background())
	require.NoError(t, err)
	assert.Same(t, mgr, again)
	assert.Equal(t, 1, server.Calls(sdktest.RouteGetUser), "bootstrap runs once per process")
}

func TestProviderWithoutCredential(t *testing.T) {
	server := sdktest.NewServer(t)
	p := NewProvider(Options{ServerURL: server.URL, ConfigDir: t.TempDir()})

	mgr, err := p.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.StateUnauthenticated, mgr.State())
	assert.Zero(t, server.Calls(sdktest.RouteGetUser))
}

func TestProviderBearerTokenBypassesStore(t *testing.T) {
	server := sdktest.NewServer(t)
	doctor := server.AddUser(sdk.User{FullName: "Dan Doctor", Email: "doctor@example.com", Role: sdk.RoleDoctor}, "secret1")
	server.AddDisease(sdk.Disease{Name: "Psoriasis", Description: "Scaly plaques"})
	dir := t.TempDir()

	p := NewProvider(Options{ServerURL: server.URL, ConfigDir: dir, CacheSize: 8})
	p.SetBearerToken(string(server.Token(doctor)))

	store, err := p.TokenStore()
	require.NoError(t, err)
	_, isFile := store.(*auth.FileStore)
	assert.False(t, isFile)

	q, err := p.Queries()
	require.NoError(t, err)
	diseases, err := q.Diseases(context.Background(), sdk.Page{})
	require.NoError(t, err)
	assert.Len(t, diseases, 1)

	fileStore, err := auth.NewFileStore(dir)
	require.NoError(t, err)
	_, err = fileStore.Get()
	assert.ErrorIs(t, err, sdk.ErrNoCredential, "ephemeral token is never persisted")
}

func TestProviderPolicy(t *testing.T) {
	p := NewProvider(Options{})
	policy, err := p.Policy()
	require.NoError(t, err)
	assert.True(t, policy.Allowed(sdk.RoleAdmin, "/admin/users"))

	again, err := p.Policy()
	require.NoError(t, err)
	assert.Same(t, policy, again)
}

func TestProviderCacheDoesNotOutliveIdentity(t *testing.T) {
	server := sdktest.NewServer(t)
	first := server.AddUser(sdk.User{FullName: "Dan Doctor", Email: "dan@example.com", Role: sdk.RoleDoctor}, "secret1")
	second := server.AddUser(sdk.User{FullName: "Dee Doctor", Email: "dee@example.com", Role: sdk.RoleDoctor}, "secret2")
	server.AddHistory(sdk.HistoryItem{UserID: first.ID, DiseaseName: "Psoriasis", Score: 0.9})
	server.AddHistory(sdk.HistoryItem{UserID: second.ID, DiseaseName: "Eczema", Score: 0.8})
	dir := t.TempDir()

	store, err := auth.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(server.Token(first)))

	p := NewProvider(Options{ServerURL: server.URL, ConfigDir: dir})
	mgr, err := p.Session(context.Background())
	require.NoError(t, err)
	q, err := p.Queries()
	require.NoError(t, err)
	assert.Same(t, p.Cache(), q.Cache())

	history, err := q.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Psoriasis", history[0].DiseaseName)

	require.NoError(t, mgr.Logout(context.Background()))
	require.NoError(t, mgr.Login(context.Background(), "dee@example.com", "secret2"))

	history, err = q.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Eczema", history[0].DiseaseName, "history of the previous account is never served")
	assert.Equal(t, 2, server.Calls(sdktest.RouteHistory))
}
