package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cs-hub/cshub/internal/worksheet"
)

// UploadWorksheetHandler stores a full worksheet definition, keys included.
func UploadWorksheetHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, _, ok := caller(w, r)
		if !ok {
			return
		}
		var ws worksheet.Worksheet
		if err := json.NewDecoder(r.Body).Decode(&ws); err != nil {
			http.Error(w, "bad worksheet json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if ws.Title == "" || len(ws.Sections) == 0 {
			http.Error(w, "title and sections required", http.StatusBadRequest)
			return
		}
		if ws.ID == "" {
			ws.ID = uuid.NewString()
		}
		ws.CreatedBy = sub
		seen := map[string]bool{}
		for _, sec := range ws.Sections {
			if sec.ID == "" || seen[sec.ID] {
				http.Error(w, "section ids must be unique and non-empty", http.StatusBadRequest)
				return
			}
			seen[sec.ID] = true
		}
		if err := store.PutWorksheet(r.Context(), ws); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": ws.ID})
	}
}

// UploadLegacyWorksheetHandler accepts the first-generation flat task list
// and stores it lifted into the sectioned schema.
func UploadLegacyWorksheetHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, _, ok := caller(w, r)
		if !ok {
			return
		}
		var lw worksheet.LegacyWorksheet
		if err := json.NewDecoder(r.Body).Decode(&lw); err != nil {
			http.Error(w, "bad worksheet json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if lw.Title == "" || len(lw.Tasks) == 0 {
			http.Error(w, "title and tasks required", http.StatusBadRequest)
			return
		}
		ws := worksheet.FromLegacy(lw)
		if ws.ID == "" {
			ws.ID = uuid.NewString()
		}
		ws.CreatedBy = sub
		if err := store.PutWorksheet(r.Context(), ws); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": ws.ID})
	}
}

func ListWorksheetsHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListWorksheets(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type summary struct {
			ID     string `json:"id"`
			Title  string `json:"title"`
			Course string `json:"course"`
			Unit   string `json:"unit"`
		}
		out := make([]summary, 0, len(list))
		for _, ws := range list {
			out = append(out, summary{ID: ws.ID, Title: ws.Title, Course: ws.Course, Unit: ws.Unit})
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// GetWorksheetHandler serves the definition; students get the key-stripped
// view, correctness stays server-side.
func GetWorksheetHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, role, ok := caller(w, r)
		if !ok {
			return
		}
		ws, err := store.GetWorksheet(r.Context(), chi.URLParam(r, "worksheetID"))
		if errors.Is(err, worksheet.ErrNotFound) {
			http.Error(w, "worksheet not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if role == "student" {
			ws = worksheet.ForStudent(ws)
		}
		_ = json.NewEncoder(w).Encode(ws)
	}
}
