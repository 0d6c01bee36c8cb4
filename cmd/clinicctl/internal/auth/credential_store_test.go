package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clinic")
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = store.Get()
	require.ErrorIs(t, err, sdk.ErrNoCredential)

	require.NoError(t, store.Set("tok-1"))
	token, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, sdk.Credential("tok-1"), token)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"tok-1"}`, string(data))

	_, err = os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")
}

func TestFileStoreSurvivesNewInstance(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set("tok-2"))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	token, err := second.Get()
	require.NoError(t, err)
	assert.Equal(t, sdk.Credential("tok-2"), token)
}

func TestFileStoreClearIsIdempotent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("tok"))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = store.Get()
	assert.ErrorIs(t, err, sdk.ErrNoCredential)
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, credentialsFile), []byte("{not json"), 0600))

	_, err = store.Get()
	require.Error(t, err)
	assert.NotErrorIs(t, err, sdk.ErrNoCredential)
}
