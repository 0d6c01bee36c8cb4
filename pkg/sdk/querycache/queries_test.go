package querycache_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic/pkg/sdk"
	"github.com/clinicdesk/clinic/pkg/sdk/querycache"
	"github.com/clinicdesk/clinic/pkg/sdk/sdktest"
)

// signedIn returns queries acting as a fresh account of role.
func signedIn(t *testing.T, server *sdktest.Server, role sdk.Role) *querycache.Queries {
	t.Helper()
	user := server.AddUser(sdk.User{
		FullName: "Test " + string(role),
		Email:    string(role) + "@example.com",
		Role:     role,
	}, "secret1")
	store := sdk.NewMemoryStore(server.Token(user))
	return querycache.NewQueries(server.Client(sdk.WithTokenStore(store)), querycache.New())
}

func patientIDs(patients []sdk.Patient) []int64 {
	out := make([]int64, 0, len(patients))
	for _, p := range patients {
		out = append(out, p.ID)
	}
	return out
}

func TestReadWithoutCredentialSurfacesUnauthorized(t *testing.T) {
	server := sdktest.NewServer(t)
	q := querycache.NewQueries(server.Client(), querycache.New())

	for i := 0; i < 2; i++ {
		_, err := q.Patients(context.Background())
		require.ErrorIs(t, err, sdk.ErrUnauthorized)
	}
	assert.Zero(t, server.Calls(sdktest.RouteListPatients), "no request is sent without a credential")
}

func TestReadsAreCachedUntilInvalidated(t *testing.T) {
	server := sdktest.NewServer(t)
	q := signedIn(t, server, sdk.RoleNurse)
	server.AddPatient(sdk.Patient{FullName: "Ann Lee", BirthDate: "1990-01-02", Gender: sdk.GenderFemale})

	for i := 0; i < 3; i++ {
		patients, err := q.Patients(context.Background())
		require.NoError(t, err)
		require.Len(t, patients, 1)
	}
	assert.Equal(t, 1, server.Calls(sdktest.RouteListPatients))

	_, err := q.CreatePatient(context.Background(), sdk.NewPatient{
		FullName:    "Bo Chen",
		BirthDate:   "1985-06-30",
		PhoneNumber: "555-0101",
		Gender:      sdk.GenderMale,
	})
	require.NoError(t, err)

	patients, err := q.Patients(context.Background())
	require.NoError(t, err)
	assert.Len(t, patients, 2)
	assert.Equal(t, 2, server.Calls(sdktest.RouteListPatients))
}

func TestDeletedEntityNeverReappears(t *testing.T) {
	server := sdktest.NewServer(t)
	q := signedIn(t, server, sdk.RoleNurse)
	a := server.AddPatient(sdk.Patient{FullName: "A"})
	b := server.AddPatient(sdk.Patient{FullName: "B"})

	_, err := q.Patients(context.Background())
	require.NoError(t, err)

	require.NoError(t, q.DeletePatient(context.Background(), a.ID))

	visible, ok := querycache.Peek[[]sdk.Patient](q.Cache(), querycache.ListKey(querycache.ResourcePatients))
	require.True(t, ok)
	assert.Equal(t, []int64{b.ID}, patientIDs(visible))

	patients, err := q.Patients(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, patientIDs(patients), a.ID)
	assert.Equal(t, 2, server.Calls(sdktest.RouteListPatients), "delete forces a re-fetch")
}

func TestRemoveSamePatientTwice(t *testing.T) {
	server := sdktest.NewServer(t)
	q := signedIn(t, server, sdk.RoleNurse)
	server.AddPatient(sdk.Patient{ID: 7, FullName: "Seven"})
	server.AddPatient(sdk.Patient{ID: 8, FullName: "Eight"})
	listKey := querycache.ListKey(querycache.ResourcePatients)

	_, err := q.Patients(context.Background())
	require.NoError(t, err)

	require.NoError(t, q.DeletePatient(context.Background(), 7))
	visible, _ := querycache.Peek[[]sdk.Patient](q.Cache(), listKey)
	assert.NotContains(t, patientIDs(visible), int64(7))

	err = q.DeletePatient(context.Background(), 7)
	var mutErr *sdk.MutationError
	require.ErrorAs(t, err, &mutErr)
	assert.Equal(t, querycache.OpDelete, mutErr.Op)
	assert.ErrorIs(t, err, sdk.ErrNotFound)
	assert.Equal(t, "delete patients failed: Patient not found", err.Error())

	visible, _ = querycache.Peek[[]sdk.Patient](q.Cache(), listKey)
	assert.NotContains(t, patientIDs(visible), int64(7), "failed retry must not re-add the entity")

	patients, err := q.Patients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{8}, patientIDs(patients))
}

func TestFailedDeleteRollsBack(t *testing.T) {
	server := sdktest.NewServer(t)
	q := signedIn(t, server, sdk.RoleNurse)
	server.AddPatient(sdk.Patient{FullName: "A"})
	b := server.AddPatient(sdk.Patient{FullName: "B"})
	listKey := querycache.ListKey(querycache.ResourcePatients)

	before, err := q.Patients(context.Background())
	require.NoError(t, err)
	server.Fail(sdktest.RouteDeletePatient, http.StatusInternalServerError, "database unavailable")

	err = q.DeletePatient(context.Background(), b.ID)
	require.Error(t, err)
	assert.Equal(t, "database unavailable", sdk.Message(err))

	after, ok := querycache.Peek[[]sdk.Patient](q.Cache(), listKey)
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.False(t, q.Cache().IsStale(listKey))

	_, err = q.Patients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, server.Calls(sdktest.RouteListPatients), "rolled back entry is still fresh")
}

func TestFailedUserUpdateRollsBackListAndEntity(t *testing.T) {
	server := sdktest.NewServer(t)
	q := signedIn(t, server, sdk.RoleAdmin)
	target := server.AddUser(sdk.User{FullName: "Old Name", Email: "x@example.com", Role: sdk.RoleDoctor}, "secret1")

	users, err := q.Users(context.Background())
	require.NoError(t, err)
	user, err := q.User(context.Background(), target.ID)
	require.NoError(t, err)
	server.Fail(sdktest.RouteUpdateUser, http.StatusBadRequest, "Phone number already in use")

	name := "New Name"
	_, err = q.UpdateUser(context.Background(), target.ID, sdk.UpdateUser{FullName: &name})
	require.Error(t, err)

	afterList, _ := querycache.Peek[[]sdk.User](q.Cache(), querycache.ListKey(querycache.ResourceUsers))
	afterUser, _ := querycache.Peek[*sdk.User](q.Cache(), querycache.EntityKey(querycache.ResourceUsers, target.ID))
	assert.Equal(t, users, afterList)
	assert.Equal(t, user, afterUser)
	assert.Equal(t, "Old Name", afterUser.FullName)
}

func TestUserUpdateInvalidatesUsers(t *testing.T) {
	server := sdktest.NewServer(t)
	q := signedIn(t, server, sdk.RoleAdmin)
	target := server.AddUser(sdk.User{FullName: "Old Name", Email: "x@example.com", Role: sdk.RoleDoctor}, "secret1")

	_, err := q.Doctors(context.Background())
	require.NoError(t, err)

	name := "New Name"
	updated, err := q.UpdateUser(context.Background(), target.ID, sdk.UpdateUser{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.FullName)

	doctors, err := q.Doctors(context.Background())
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "New Name", doctors[0].FullName)
	assert.Equal(t, 2, server.Calls(sdktest.RouteListDoctors))
}

func TestDiseaseDescriptionInvalidatesEveryPage(t *testing.T) {
	server := sdktest.NewServer(t)
	q := signedIn(t, server, sdk.RoleDoctor)
	for _, name := range []string{"Psoriasis", "Eczema", "Melanoma"} {
		server.AddDisease(sdk.Disease{Name: name, Description: name + " description"})
	}

	first, err := q.Diseases(context.Background(), sdk.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	second, err := q.Diseases(context.Background(), sdk.Page{Skip: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, second, 1)

	_, err = q.UpdateDiseaseDescription(context.Background(), second[0].ID, "Updated")
	require.NoError(t, err)

	assert.True(t, q.Cache().IsStale(querycache.PageKey(querycache.ResourceDiseases, 0, 2)))
	second, err = q.Diseases(context.Background(), sdk.Page{Skip: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "Updated", second[0].Description)
}

func TestPatientDiseaseLinks(t *testing.T) {
	server := sdktest.NewServer(t)
	q := signedIn(t, server, sdk.RoleDoctor)
	patient := server.AddPatient(sdk.Patient{FullName: "Ann Lee"})
	disease := server.AddDisease(sdk.Disease{Name: "Psoriasis"})

	links, err := q.PatientDiseases(context.Background(), patient.ID)
	require.NoError(t, err)
	assert.Empty(t, links)

	link, err := q.AssignDisease(context.Background(), sdk.AssignDiseaseInput{PatientID: patient.ID, DiseaseID: disease.ID})
	require.NoError(t, err)

	links, err = q.PatientDiseases(context.Background(), patient.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "Psoriasis", links[0].DiseaseName)
	assert.Equal(t, "Test doctor", links[0].AssignedByName)

	require.NoError(t, q.RemovePatientDisease(context.Background(), link.ID, patient.ID))
	links, err = q.PatientDiseases(context.Background(), patient.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func TestClassifyAndHistory(t *testing.T) {
	server := sdktest.NewServer(t)
	q := signedIn(t, server, sdk.RoleDoctor)
	server.AddDisease(sdk.Disease{Name: "Psoriasis", Description: "Scaly plaques"})
	server.AddDisease(sdk.Disease{Name: "Eczema", Description: "Itchy rash"})

	history, err := q.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)

	result, err := q.Classify(context.Background(), sdk.ImageUpload{
		Filename: "lesion.png",
		Data:     bytes.NewReader(pngHeader),
		TopK:     1,
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "Psoriasis", result.Results[0].DiseaseName)

	history, err = q.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 2, server.Calls(sdktest.RouteHistory))

	require.NoError(t, q.DeleteAnalysis(context.Background(), history[0].ID))
	history, err = q.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
}
