package api

import (
	"errors"
	"io"
	"net/http"

	"google.golang.org/genai"

	"github.com/okian/tokscope/internal/domain/video"
)

type analyzeRequest struct {
	VideoURL  string `json:"videoUrl"`
	VideoID   string `json:"videoId"`
	VideoDesc string `json:"videoDesc"`
}

type analyzeResponse struct {
	Success     bool                           `json:"success"`
	VideoID     string                         `json:"videoId"`
	Result      string                         `json:"result"`
	RawResponse *genai.GenerateContentResponse `json:"rawResponse"`
}

// handleAnalyzeVideo handles POST /api/analyze-video. An empty body reaches
// the service so a missing API key is reported before a missing URL.
func (s *Server) handleAnalyzeVideo(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, msgInvalidBody, err)
		return
	}
	res, err := s.deps.AnalyzeVideo(r.Context(), req.VideoURL, req.VideoID, req.VideoDesc)
	if err != nil {
		s.fail(r.Context(), w, "analyze_video", err, msgAnalyzeFailed)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Success:     true,
		VideoID:     req.VideoID,
		Result:      res.Text,
		RawResponse: res.Raw,
	})
}

type commentsVideoRequest struct {
	VideoURL string `json:"videoUrl"`
}

type commentsVideoResponse struct {
	Video    video.Raw `json:"video"`
	Analysis string    `json:"analysis"`
}

// handleCommentsVideo handles POST /api/ai-comments/video.
func (s *Server) handleCommentsVideo(w http.ResponseWriter, r *http.Request) {
	var req commentsVideoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, err)
		return
	}
	record, analysis, err := s.deps.CommentsVideo(r.Context(), req.VideoURL)
	if err != nil {
		s.fail(r.Context(), w, "ai_comments_video", err, msgAnalyzeFailed)
		return
	}
	writeJSON(w, http.StatusOK, commentsVideoResponse{Video: record, Analysis: analysis.Text})
}

type generateRequest struct {
	Analysis         string `json:"analysis"`
	VideoDescription string `json:"videoDescription"`
	Author           string `json:"author"`
}

type generateResponse struct {
	Comments []string `json:"comments"`
}

// handleGenerateComments handles POST /api/ai-comments/generate.
func (s *Server) handleGenerateComments(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, err)
		return
	}
	out, err := s.deps.GenerateComments(r.Context(), req.Analysis, req.VideoDescription, req.Author)
	if err != nil {
		s.fail(r.Context(), w, "ai_comments_generate", err, msgCommentsFailed)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Comments: out})
}
