package api

import (
	"net/http"

	"github.com/okian/tokscope/internal/domain/video"
)

type videosResponse[T any] struct {
	Videos []T `json:"videos"`
}

// handleSearch handles POST /api/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req video.SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, err)
		return
	}
	videos, err := s.deps.Search(r.Context(), req)
	if err != nil {
		s.fail(r.Context(), w, "search", err, msgSearchFailed)
		return
	}
	if videos == nil {
		videos = []video.Video{}
	}
	writeJSON(w, http.StatusOK, videosResponse[video.Video]{Videos: videos})
}

// handleAllVideos handles GET /api/get-all-videos.
func (s *Server) handleAllVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.deps.AllVideos(r.Context())
	if err != nil {
		s.fail(r.Context(), w, "get_all_videos", err, msgSearchFailed)
		return
	}
	if videos == nil {
		videos = []video.Cached{}
	}
	writeJSON(w, http.StatusOK, videosResponse[video.Cached]{Videos: videos})
}
