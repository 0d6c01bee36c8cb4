package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/returnto"
	"github.com/clinicdesk/clinic/pkg/sdk"
	"github.com/clinicdesk/clinic/pkg/sdk/guard"
	"github.com/clinicdesk/clinic/pkg/sdk/sdktest"
)

// execute runs clinicctl against server with an isolated config directory
// and returns what the command wrote to its output.
func execute(t *testing.T, server *sdktest.Server, token sdk.Credential, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CLINIC_SERVER_URL", server.URL)
	t.Setenv("CLINIC_CONFIG_DIR", dir)
	t.Setenv("CLINIC_NON_INTERACTIVE", "true")
	t.Setenv("CLINIC_TOKEN", string(token))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), dir, err
}

func signIn(server *sdktest.Server, role sdk.Role) sdk.Credential {
	user := server.AddUser(sdk.User{
		FullName: "Test " + string(role),
		Email:    string(role) + "@example.com",
		Role:     role,
	}, "secret1")
	return server.Token(user)
}

func TestPatientListAsNurse(t *testing.T) {
	server := sdktest.NewServer(t)
	token := signIn(server, sdk.RoleNurse)
	server.AddPatient(sdk.Patient{FullName: "Ann Lee", Gender: sdk.GenderFemale, BirthDate: "1990-01-02"})
	server.AddPatient(sdk.Patient{FullName: "Bo Chen", Gender: sdk.GenderMale, BirthDate: "1985-06-30"})

	out, _, err := execute(t, server, token, "patient", "list", "--filter", `gender == "female"`, "-o", "json")
	require.NoError(t, err)

	var patients []sdk.Patient
	require.NoError(t, json.Unmarshal([]byte(out), &patients))
	require.Len(t, patients, 1)
	assert.Equal(t, "Ann Lee", patients[0].FullName)
}

func TestDiseaseTableAsDoctor(t *testing.T) {
	server := sdktest.NewServer(t)
	token := signIn(server, sdk.RoleDoctor)
	server.AddDisease(sdk.Disease{Name: "Psoriasis", Description: "Scaly plaques"})

	out, _, err := execute(t, server, token, "disease", "list", "--filter", "", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Psoriasis")
	assert.Contains(t, out, "Scaly plaques")
}

func TestAdminPortalDeniedToNurse(t *testing.T) {
	server := sdktest.NewServer(t)
	token := signIn(server, sdk.RoleNurse)

	_, _, err := execute(t, server, token, "user", "list", "-o", "table")
	require.ErrorIs(t, err, guard.ErrAccessDenied)
	assert.ErrorContains(t, err, `role "nurse"`)
	assert.Zero(t, server.Calls(sdktest.RouteListUsers), "denied commands never reach the API")
}

func TestSignedOutCommandIsRecorded(t *testing.T) {
	server := sdktest.NewServer(t)

	_, dir, err := execute(t, server, "", "patient", "get", "12")
	require.ErrorIs(t, err, guard.ErrLoginRequired)
	assert.ErrorContains(t, err, "clinicctl auth login")

	entry, err := returnto.Take(dir)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Contains(t, entry.Command, "clinicctl patient get 12")
}

func TestUpdateWithoutFieldsFailsBeforeSignIn(t *testing.T) {
	server := sdktest.NewServer(t)

	_, _, err := execute(t, server, "", "patient", "update", "3")
	require.Error(t, err)
	assert.ErrorContains(t, err, "nothing to update")
}
