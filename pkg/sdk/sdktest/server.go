// Package sdktest provides an in-memory clinic backend for exercising the
// SDK, the session manager and the query cache without a real server.
package sdktest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

// Route keys accepted by Fail, Calls and OnRequest.
const (
	RouteLogin           = "POST /users/login"
	RouteLogout          = "POST /users/logout"
	RouteRegister        = "POST /users/register"
	RouteListUsers       = "GET /users"
	RouteListDoctors     = "GET /users/doctors"
	RouteGetUser         = "GET /users/{id}"
	RouteUpdateUser      = "PUT /users/{id}"
	RouteDeleteUser      = "DELETE /users/{id}"
	RouteListPatients    = "GET /patients"
	RouteCreatePatient   = "POST /patients"
	RouteGetPatient      = "GET /patients/{id}"
	RouteUpdatePatient   = "PUT /patients/{id}"
	RouteDeletePatient   = "DELETE /patients/{id}"
	RouteListDiseases    = "GET /diseases"
	RouteCreateDisease   = "POST /diseases"
	RouteGetDisease      = "GET /diseases/{id}"
	RouteDescribeDisease = "PUT /diseases/{id}/description"
	RouteAssignDisease   = "POST /patient-diseases/assign"
	RoutePatientDiseases = "GET /patient-diseases/details/by-patient/{id}"
	RouteRemoveLink      = "DELETE /patient-diseases/{id}"
	RouteClassify        = "POST /classification/classify"
	RouteHistory         = "GET /classification/history"
	RouteGetAnalysis     = "GET /classification/{id}"
	RouteDeleteAnalysis  = "DELETE /classification/{id}"
)

// TokenTTL is the lifetime of tokens minted by the server.
const TokenTTL = time.Hour

// Server is a fake clinic API served over httptest. It is safe for
// concurrent use.
type Server struct {
	URL string

	secret []byte
	srv    *httptest.Server

	mu         sync.Mutex
	nextID     int64
	accounts   map[int64]*account
	patients   map[int64]sdk.Patient
	diseases   map[int64]sdk.Disease
	links      map[int64]sdk.PatientDisease
	history    map[int64]sdk.HistoryItem
	revoked    map[string]struct{}
	calls      map[string]int
	failures   map[string]*failure
	hooks      map[string]func(*http.Request)
	returnUser bool
}

type account struct {
	user sdk.User
	hash []byte
}

type failure struct {
	status int
	detail string
	once   bool
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		secret:   []byte(uuid.NewString()),
		accounts: map[int64]*account{},
		patients: map[int64]sdk.Patient{},
		diseases: map[int64]sdk.Disease{},
		links:    map[int64]sdk.PatientDisease{},
		history:  map[int64]sdk.HistoryItem{},
		revoked:  map[string]struct{}{},
		calls:    map[string]int{},
		failures: map[string]*failure{},
		hooks:    map[string]func(*http.Request){},
	}
	s.srv = httptest.NewServer(s.routes())
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)
	return s
}

// Client returns an SDK client pointed at the server.
func (s *Server) Client(opts ...sdk.ClientOption) *sdk.Client {
	return sdk.NewClient(s.URL, opts...)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Route(sdk.DefaultAPIPrefix, func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/login", s.handle(RouteLogin, s.login))
			r.Post("/logout", s.handle(RouteLogout, s.logout))
			r.Post("/register", s.handle(RouteRegister, s.registerUser))
			r.Get("/", s.handle(RouteListUsers, s.listUsers))
			r.Get("/doctors", s.handle(RouteListDoctors, s.listDoctors))
			r.Get("/{id}", s.handle(RouteGetUser, s.getUser))
			r.Put("/{id}", s.handle(RouteUpdateUser, s.updateUser))
			r.Delete("/{id}", s.handle(RouteDeleteUser, s.deleteUser))
		})
		r.Route("/patients", func(r chi.Router) {
			r.Get("/", s.handle(RouteListPatients, s.listPatients))
			r.Post("/", s.handle(RouteCreatePatient, s.createPatient))
			r.Get("/{id}", s.handle(RouteGetPatient, s.getPatient))
			r.Put("/{id}", s.handle(RouteUpdatePatient, s.updatePatient))
			r.Delete("/{id}", s.handle(RouteDeletePatient, s.deletePatient))
		})
		r.Route("/diseases", func(r chi.Router) {
			r.Get("/", s.handle(RouteListDiseases, s.listDiseases))
			r.Post("/", s.handle(RouteCreateDisease, s.createDisease))
			r.Get("/{id}", s.handle(RouteGetDisease, s.getDisease))
			r.Put("/{id}/description", s.handle(RouteDescribeDisease, s.describeDisease))
		})
		r.Route("/patient-diseases", func(r chi.Router) {
			r.Post("/assign", s.handle(RouteAssignDisease, s.assignDisease))
			r.Get("/details/by-patient/{id}", s.handle(RoutePatientDiseases, s.patientDiseases))
			r.Delete("/{id}", s.handle(RouteRemoveLink, s.removeLink))
		})
		r.Route("/classification", func(r chi.Router) {
			r.Post("/classify", s.handle(RouteClassify, s.classify))
			r.Get("/history", s.handle(RouteHistory, s.listHistory))
			r.Get("/{id}", s.handle(RouteGetAnalysis, s.getAnalysis))
			r.Delete("/{id}", s.handle(RouteDeleteAnalysis, s.deleteAnalysis))
		})
	})
	return r
}

// handle counts the call, runs any hook and applies injected failures
// before dispatching to h.
func (s *Server) handle(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		hook := s.hooks[route]
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}

		s.mu.Lock()
		f := s.failures[route]
		if f != nil && f.once {
			delete(s.failures, route)
		}
		s.mu.Unlock()

		if f != nil {
			writeError(w, f.status, f.detail)
			return
		}
		h(w, r)
	}
}

// Fail makes every request to route answer status with detail until
// ClearFailures is called.
func (s *Server) Fail(route string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &failure{status: status, detail: detail}
}

// FailOnce makes the next request to route answer status with detail.
func (s *Server) FailOnce(route string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &failure{status: status, detail: detail, once: true}
}

// ClearFailures removes every injected failure.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]*failure{}
}

// OnRequest runs fn before each request to route is served. Tests use it to
// hold a request in flight.
func (s *Server) OnRequest(route string, fn func(*http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		delete(s.hooks, route)
		return
	}
	s.hooks[route] = fn
}

// Calls returns how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// ResetCalls zeroes every call counter.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = map[string]int{}
}

// SetLoginReturnsUser controls whether the login response embeds the user.
func (s *Server) SetLoginReturnsUser(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.returnUser = v
}

func (s *Server) allocID() int64 {
	s.nextID++
	return s.nextID
}

// AddUser stores an account with the given password and returns it with
// its assigned id.
func (s *Server) AddUser(u sdk.User, password string) sdk.User {
	hash := mustHash(password)
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.allocID()
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	if u.CreatedAt == nil {
		u.CreatedAt = &sdk.Timestamp{Time: time.Now().UTC()}
	}
	s.accounts[u.ID] = &account{user: u, hash: hash}
	return u
}

// User returns the stored account with id.
func (s *Server) User(id int64) (sdk.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return sdk.User{}, false
	}
	return acct.user, true
}

// AddPatient stores a patient and returns it with its assigned id.
func (s *Server) AddPatient(p sdk.Patient) sdk.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.allocID()
	} else if p.ID > s.nextID {
		s.nextID = p.ID
	}
	s.patients[p.ID] = p
	return p
}

// Patient returns the stored patient with id.
func (s *Server) Patient(id int64) (sdk.Patient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	return p, ok
}

// AddDisease stores a disease and returns it with its assigned id.
func (s *Server) AddDisease(d sdk.Disease) sdk.Disease {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == 0 {
		d.ID = s.allocID()
	} else if d.ID > s.nextID {
		s.nextID = d.ID
	}
	s.diseases[d.ID] = d
	return d
}

// LinkDisease assigns a disease to a patient on behalf of doctorID.
func (s *Server) LinkDisease(patientID, diseaseID, doctorID int64) sdk.PatientDisease {
	s.mu.Lock()
	defer s.mu.Unlock()
	link := sdk.PatientDisease{
		ID:         s.allocID(),
		PatientID:  patientID,
		DiseaseID:  diseaseID,
		DoctorID:   doctorID,
		AssignedAt: sdk.Timestamp{Time: time.Now().UTC()},
	}
	s.links[link.ID] = link
	return link
}

// AddHistory stores a classification record.
func (s *Server) AddHistory(h sdk.HistoryItem) sdk.HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == 0 {
		h.ID = s.allocID()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = sdk.Timestamp{Time: time.Now().UTC()}
	}
	s.history[h.ID] = h
	return h
}

func sortedValues[T any](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body"}, "msg": "invalid JSON body"}},
		})
		return false
	}
	return true
}
