package api

import (
	"errors"
	"net/http"

	"github.com/okian/tokscope/internal/adapters/storage"
)

type mediaResponse struct {
	Success bool           `json:"success"`
	File    storage.Object `json:"file"`
}

type mediaListResponse struct {
	Files []storage.Object `json:"files"`
}

// handleMediaUpload handles POST /api/media/{kind}.
func (s *Server) handleMediaUpload(w http.ResponseWriter, r *http.Request) {
	data, hdr, err := readUpload(w, r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, msgNoFile, err)
		return
	}
	obj, err := s.deps.UploadMedia(r.Context(), r.PathValue("kind"), hdr.Filename, data, hdr.Header.Get("Content-Type"))
	if err != nil {
		s.fail(r.Context(), w, "media_upload", err, msgMediaFailed)
		return
	}
	writeJSON(w, http.StatusCreated, mediaResponse{Success: true, File: obj})
}

// handleMediaList handles GET /api/media/{kind}.
func (s *Server) handleMediaList(w http.ResponseWriter, r *http.Request) {
	files, err := s.deps.ListMedia(r.Context(), r.PathValue("kind"))
	if err != nil {
		s.fail(r.Context(), w, "media_list", err, msgMediaFailed)
		return
	}
	if files == nil {
		files = []storage.Object{}
	}
	writeJSON(w, http.StatusOK, mediaListResponse{Files: files})
}

// handleMediaDelete handles DELETE /api/media/{kind}/{name}.
func (s *Server) handleMediaDelete(w http.ResponseWriter, r *http.Request) {
	err := s.deps.DeleteMedia(r.Context(), r.PathValue("kind"), r.PathValue("name"))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, msgMediaNotFound, err)
		return
	case err != nil:
		s.fail(r.Context(), w, "media_delete", err, msgMediaFailed)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
