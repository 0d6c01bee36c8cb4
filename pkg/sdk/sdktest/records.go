package sdktest

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

func (s *Server) listPatients(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleDoctor, sdk.RoleNurse); !ok {
		return
	}
	s.mu.Lock()
	patients := sortedValues(s.patients)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, patients)
}

func (s *Server) createPatient(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := s.authorize(w, r, sdk.RoleNurse)
	if !ok {
		return
	}
	var req sdk.NewPatient
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FullName) == "" {
		writeError(w, http.StatusBadRequest, "Full name is required")
		return
	}
	createdBy := caller.ID
	patient := s.AddPatient(sdk.Patient{
		FullName:    req.FullName,
		BirthDate:   req.BirthDate,
		PhoneNumber: req.PhoneNumber,
		Gender:      req.Gender,
		CreatedBy:   &createdBy,
	})
	writeJSON(w, http.StatusCreated, patient)
}

func (s *Server) getPatient(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleDoctor, sdk.RoleNurse); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	patient, found := s.Patient(id)
	if !found {
		writeError(w, http.StatusNotFound, "Patient not found")
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (s *Server) updatePatient(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleNurse); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req sdk.UpdatePatient
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	patient, found := s.patients[id]
	if found {
		patient = req.Apply(patient)
		s.patients[id] = patient
	}
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "Patient not found")
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (s *Server) deletePatient(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleNurse); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.patients[id]
	if found {
		delete(s.patients, id)
		for linkID, link := range s.links {
			if link.PatientID == id {
				delete(s.links, linkID)
			}
		}
	}
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "Patient not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}

func (s *Server) listDiseases(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleDoctor, sdk.RoleNurse); !ok {
		return
	}
	skip := max(queryInt(r, "skip", 0), 0)
	limit := queryInt(r, "limit", sdk.DefaultPageSize)
	if limit <= 0 {
		limit = sdk.DefaultPageSize
	}

	s.mu.Lock()
	all := sortedValues(s.diseases)
	s.mu.Unlock()

	page := []sdk.Disease{}
	if skip < len(all) {
		page = all[skip:min(skip+limit, len(all))]
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) createDisease(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := s.authorize(w, r, sdk.RoleDoctor)
	if !ok {
		return
	}
	var req sdk.NewDisease
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	for _, d := range s.diseases {
		if strings.EqualFold(d.Name, req.Name) {
			s.mu.Unlock()
			writeError(w, http.StatusBadRequest, "Disease already exists")
			return
		}
	}
	s.mu.Unlock()

	createdBy := caller.ID
	disease := s.AddDisease(sdk.Disease{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   &createdBy,
		CreatedAt:   &sdk.Timestamp{Time: time.Now().UTC()},
	})
	writeJSON(w, http.StatusCreated, disease)
}

func (s *Server) getDisease(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleDoctor, sdk.RoleNurse); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	disease, found := s.diseases[id]
	s.mu.Unlock()
	if !found {
		writeError(w, http.StatusNotFound, "Disease not found")
		return
	}
	writeJSON(w, http.StatusOK, disease)
}

func (s *Server) describeDisease(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleDoctor); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	disease, found := s.diseases[id]
	if found {
		disease.Description = req.Description
		s.diseases[id] = disease
	}
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "Disease not found")
		return
	}
	writeJSON(w, http.StatusOK, disease)
}

func (s *Server) assignDisease(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := s.authorize(w, r, sdk.RoleDoctor)
	if !ok {
		return
	}
	var req sdk.AssignDiseaseInput
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	_, patientFound := s.patients[req.PatientID]
	_, diseaseFound := s.diseases[req.DiseaseID]
	duplicate := false
	for _, link := range s.links {
		if link.PatientID == req.PatientID && link.DiseaseID == req.DiseaseID {
			duplicate = true
			break
		}
	}
	s.mu.Unlock()

	switch {
	case !patientFound:
		writeError(w, http.StatusNotFound, "Patient not found")
	case !diseaseFound:
		writeError(w, http.StatusNotFound, "Disease not found")
	case duplicate:
		writeError(w, http.StatusBadRequest, "Disease already assigned to this patient")
	default:
		writeJSON(w, http.StatusCreated, s.LinkDisease(req.PatientID, req.DiseaseID, caller.ID))
	}
}

func (s *Server) patientDiseases(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleDoctor, sdk.RoleNurse); !ok {
		return
	}
	patientID, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	details := []sdk.PatientDiseaseDetail{}
	for _, link := range sortedValues(s.links) {
		if link.PatientID != patientID {
			continue
		}
		detail := sdk.PatientDiseaseDetail{
			ID:          link.ID,
			DiseaseName: s.diseases[link.DiseaseID].Name,
			AssignedAt:  link.AssignedAt,
		}
		if doctor, found := s.accounts[link.DoctorID]; found {
			detail.AssignedByName = doctor.user.FullName
		}
		details = append(details, detail)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, details)
}

func (s *Server) removeLink(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, sdk.RoleDoctor); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.links[id]
	delete(s.links, id)
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "Patient disease link not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
