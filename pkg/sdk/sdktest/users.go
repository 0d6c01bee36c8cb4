package sdktest

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (s *Server) registerUser(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleAdmin); !ok {
		return
	}
	var req sdk.NewUser
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = sdk.RoleNurse
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	s.mu.Lock()
	for _, acct := range s.accounts {
		if strings.EqualFold(acct.user.Email, req.Email) {
			s.mu.Unlock()
			writeError(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	s.mu.Unlock()

	user := s.AddUser(sdk.User{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
		CreatedAt:   &sdk.Timestamp{Time: time.Now().UTC()},
	}, req.Password)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleAdmin); !ok {
		return
	}
	s.mu.Lock()
	accounts := sortedValues(s.accounts)
	s.mu.Unlock()

	users := make([]sdk.User, 0, len(accounts))
	for _, acct := range accounts {
		users = append(users, acct.user)
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) listDoctors(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleAdmin, sdk.RoleNurse); !ok {
		return
	}
	s.mu.Lock()
	accounts := sortedValues(s.accounts)
	s.mu.Unlock()

	doctors := []sdk.User{}
	for _, acct := range accounts {
		if acct.user.Role == sdk.RoleDoctor {
			doctors = append(doctors, acct.user)
		}
	}
	writeJSON(w, http.StatusOK, doctors)
}

// getUser serves admins and the account owner; the session verifies every
// role through this route.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := s.authorize(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if caller.Role != sdk.RoleAdmin && caller.ID != id {
		writeError(w, http.StatusForbidden, "Access denied for role '"+string(caller.Role)+"'")
		return
	}
	user, found := s.User(id)
	if !found {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleAdmin); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req sdk.UpdateUser
	if !decodeBody(w, r, &req) {
		return
	}

	var hash []byte
	if req.Password != nil {
		hash = mustHash(*req.Password)
	}

	var updated sdk.User
	s.mu.Lock()
	acct, found := s.accounts[id]
	if found {
		acct.user = req.Apply(acct.user)
		if hash != nil {
			acct.hash = hash
		}
		updated = acct.user
	}
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleAdmin); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.accounts[id]
	delete(s.accounts, id)
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
