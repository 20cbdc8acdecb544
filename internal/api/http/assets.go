package http

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cs-hub/cshub/internal/storage"
)

// MountAssets serves worksheet assets (diagram images for drag-drop
// sections) out of the blob store.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	// POST /assets/{worksheetID}
	r.Post("/{worksheetID}", func(w http.ResponseWriter, r *http.Request) {
		worksheetID := chi.URLParam(r, "worksheetID")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		name := "diagram.png"
		if hdr != nil && hdr.Filename != "" {
			name = filepath.Base(hdr.Filename)
		}
		key := "worksheets/" + worksheetID + "/" + name
		if _, err := bs.Put(key, f); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"key": key})
	})

	// GET /assets/*   -> returns the blob at whatever follows /assets/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		key = strings.TrimPrefix(key, "/")
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found: "+err.Error(), http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	})
}
