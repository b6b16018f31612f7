package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/okian/tokscope/internal/adapters/storage"
	service "github.com/okian/tokscope/internal/app"
	"github.com/okian/tokscope/internal/domain/transcript"
)

const maxUpload = 64 << 20

type transcriptResponse struct {
	Success       bool              `json:"success"`
	VideoID       string            `json:"videoId,omitempty"`
	VideoURL      string            `json:"videoUrl,omitempty"`
	Transcription transcript.Result `json:"transcription"`
}

// readUpload returns the bytes and name of a multipart file field.
func readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return nil, nil, err
	}
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, err
	}
	return data, hdr, nil
}

// handleTranscribe handles POST /api/transcribe.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	audio, hdr, err := readUpload(w, r, "audioFile")
	if err != nil {
		writeError(w, http.StatusBadRequest, msgNoAudioFile, err)
		return
	}
	res, err := s.deps.TranscribeUpload(r.Context(), audio, hdr.Filename, r.FormValue("videoId"))
	if err != nil {
		s.fail(r.Context(), w, "transcribe", err, msgTranscribeFailed)
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{Success: true, Transcription: res})
}

type extractRequest struct {
	Video any `json:"video"`
}

// handleExtractAudio handles POST /api/extract-audio.
func (s *Server) handleExtractAudio(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, err)
		return
	}
	ext, err := s.deps.ExtractAndTranscribe(r.Context(), req.Video)
	if err != nil {
		s.fail(r.Context(), w, "extract_audio", err, msgExtractFailed)
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{
		Success:       true,
		VideoID:       ext.VideoID,
		VideoURL:      ext.VideoURL,
		Transcription: ext.Transcription,
	})
}

// handleGetTranscript handles GET /api/get-transcript?videoId=.
func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("videoId")
	res, err := s.deps.GetTranscript(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, msgTranscriptNotFound, err)
		return
	case err != nil:
		s.fail(r.Context(), w, "get_transcript", err, msgTranscriptFailed)
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{Success: true, VideoID: id, Transcription: res})
}

type directoriesResponse struct {
	Success     bool                `json:"success"`
	Directories []service.Directory `json:"directories"`
}

// handleCreateDirectories handles GET|POST /api/create-directories.
func (s *Server) handleCreateDirectories(w http.ResponseWriter, r *http.Request) {
	dirs, err := s.deps.EnsureDirectories(r.Context())
	if err != nil {
		s.fail(r.Context(), w, "create_directories", err, msgDirectoriesFailed)
		return
	}
	writeJSON(w, http.StatusOK, directoriesResponse{Success: true, Directories: dirs})
}
