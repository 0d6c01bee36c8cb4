package sdktest

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

const maxBestPhrase = 80

// classify ranks the catalogue deterministically: earlier diseases score
// higher. The top result is recorded in the caller's history.
func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := s.authorize(w, r, sdk.RoleDoctor)
	if !ok {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		writeError(w, http.StatusBadRequest, "File must be an image")
		return
	}
	topK := queryInt(r, "top_k", sdk.DefaultTopK)

	s.mu.Lock()
	diseases := sortedValues(s.diseases)
	s.mu.Unlock()

	results := []sdk.ClassificationResult{}
	for i, d := range diseases {
		if i >= topK {
			break
		}
		phrase := d.Description
		if len(phrase) > maxBestPhrase {
			phrase = phrase[:maxBestPhrase]
		}
		results = append(results, sdk.ClassificationResult{
			DiseaseName: d.Name,
			Score:       float64(len(diseases)-i) / float64(len(diseases)+1),
			BestPhrase:  phrase,
		})
	}

	if len(results) > 0 {
		s.AddHistory(sdk.HistoryItem{
			DiseaseName: results[0].DiseaseName,
			Score:       results[0].Score,
			ImagePath:   "uploads/" + uuid.NewString() + filepath.Ext(header.Filename),
			CreatedAt:   sdk.Timestamp{Time: time.Now().UTC()},
			UserID:      caller.ID,
		})
	}
	writeJSON(w, http.StatusOK, sdk.AnalysisResult{Results: results})
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := s.authorize(w, r, sdk.RoleDoctor)
	if !ok {
		return
	}
	s.mu.Lock()
	items := []sdk.HistoryItem{}
	for _, item := range sortedValues(s.history) {
		if item.UserID == caller.ID {
			items = append(items, item)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := s.authorize(w, r, sdk.RoleDoctor)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	item, found := s.history[id]
	s.mu.Unlock()
	if !found || item.UserID != caller.ID {
		writeError(w, http.StatusNotFound, "Classification not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteAnalysis(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := s.authorize(w, r, sdk.RoleDoctor)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	item, found := s.history[id]
	owned := found && item.UserID == caller.ID
	if owned {
		delete(s.history, id)
	}
	s.mu.Unlock()

	if !owned {
		writeError(w, http.StatusNotFound, "Classification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
