package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tokscope/internal/adapters/apify"
	"github.com/okian/tokscope/internal/adapters/gemini"
	"github.com/okian/tokscope/internal/adapters/http/api"
	"github.com/okian/tokscope/internal/adapters/storage"
	service "github.com/okian/tokscope/internal/app"
	"github.com/okian/tokscope/internal/domain/comments"
	"github.com/okian/tokscope/internal/domain/insights"
	"github.com/okian/tokscope/internal/domain/model"
	"github.com/okian/tokscope/internal/domain/transcript"
	"github.com/okian/tokscope/internal/domain/video"
)

// stubDeps implements the routes a test needs; the embedded interface
// panics for the rest.
type stubDeps struct {
	api.Dependencies

	searchErr  error
	analyzeErr error
	uploaded   []byte
	transcript transcript.Result
	loadErr    error
	submitErr  error
	replayed   bool
	lastKey    string
	lastMode   string
	deleteErr  error
}

func (s *stubDeps) Search(_ context.Context, req video.SearchRequest) ([]video.Video, error) {
	if _, err := req.Params(); err != nil {
		return nil, err
	}
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return []video.Video{{ID: "1", Desc: "hello"}}, nil
}

func (s *stubDeps) AllVideos(context.Context) ([]video.Cached, error) { return nil, nil }

func (s *stubDeps) AnalyzeVideo(_ context.Context, videoURL, _, _ string) (gemini.Analysis, error) {
	if errors.Is(s.analyzeErr, gemini.ErrNotConfigured) {
		return gemini.Analysis{}, s.analyzeErr
	}
	if _, err := service.NormalizeVideoURL(videoURL); err != nil {
		return gemini.Analysis{}, err
	}
	if s.analyzeErr != nil {
		return gemini.Analysis{}, s.analyzeErr
	}
	return gemini.Analysis{Text: "looks fun"}, nil
}

func (s *stubDeps) GenerateComments(_ context.Context, analysis, _, _ string) ([]string, error) {
	if analysis == "" {
		return nil, fmt.Errorf("prompt: %w", comments.ErrNoAnalysis)
	}
	return []string{"a", "b"}, nil
}

func (s *stubDeps) TranscribeUpload(_ context.Context, audio []byte, _, _ string) (transcript.Result, error) {
	s.uploaded = audio
	return transcript.Result{Transcript: "hi"}, nil
}

func (s *stubDeps) ExtractAndTranscribe(_ context.Context, input any) (service.Extraction, error) {
	if input == nil {
		return service.Extraction{}, service.ErrNoVideoData
	}
	u, err := video.ExtractPlayURL(input)
	if err != nil {
		return service.Extraction{}, err
	}
	return service.Extraction{VideoID: "unknown_video", VideoURL: u}, nil
}

func (s *stubDeps) GetTranscript(_ context.Context, id string) (transcript.Result, error) {
	if id == "" {
		return transcript.Result{}, service.ErrMissingVideoID
	}
	return s.transcript, s.loadErr
}

func (s *stubDeps) DeleteMedia(context.Context, string, string) error { return s.deleteErr }

func (s *stubDeps) Dashboard(req service.InsightsRequest) insights.Summary {
	return insights.Dashboard(req.Results)
}

func (s *stubDeps) SubmitBatch(_ context.Context, _ []byte, mode, key string) (model.Job, bool, error) {
	s.lastMode, s.lastKey = mode, key
	if s.submitErr != nil {
		return model.Job{}, false, s.submitErr
	}
	return model.Job{ID: "job-1", Status: model.StatusQueued, Total: 2}, s.replayed, nil
}

func (s *stubDeps) GetBatch(_ context.Context, id string) (model.Job, error) {
	if id != "job-1" {
		return model.Job{}, service.ErrJobNotFound
	}
	return model.Job{ID: id, Status: model.StatusCompleted}, nil
}

type stubStats struct{}

func (stubStats) GetStats(context.Context) map[string]any { return map[string]any{"started": true} }

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stubStats{}, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func errorOf(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Error
}

func TestSearchRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		deps := &stubDeps{}
		mux := newMux(deps)

		Convey("A search returns processed videos", func() {
			rec := do(mux, http.MethodPost, "/api/search", `{"type":"SEARCH","keywords":["cats"]}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"videos":[{"id":"1"`)
		})

		Convey("A missing type is a 400", func() {
			rec := do(mux, http.MethodPost, "/api/search", `{}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorOf(rec), ShouldEqual, "Missing required parameter: type")
		})

		Convey("Vendor failures are a 500 with details", func() {
			deps.searchErr = errors.New("actor exploded")
			rec := do(mux, http.MethodPost, "/api/search", `{"type":"TREND"}`)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(errorOf(rec), ShouldEqual, "Failed to fetch TikTok videos from Apify")
			So(rec.Body.String(), ShouldContainSubstring, "actor exploded")
		})

		Convey("A missing token is reported as such", func() {
			deps.searchErr = apify.ErrNotConfigured
			rec := do(mux, http.MethodPost, "/api/search", `{"type":"TREND"}`)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(errorOf(rec), ShouldEqual, "Apify API token is not configured")
		})

		Convey("The cache listing is never null", func() {
			rec := do(mux, http.MethodGet, "/api/get-all-videos", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"videos":[]`)
		})

		Convey("Malformed bodies are rejected", func() {
			rec := do(mux, http.MethodPost, "/api/search", `{`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorOf(rec), ShouldEqual, "Invalid request body")
		})
	})
}

func TestAnalyzeRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		deps := &stubDeps{}
		mux := newMux(deps)

		Convey("An analysis echoes the video id", func() {
			rec := do(mux, http.MethodPost, "/api/analyze-video", `{"videoUrl":"http://cdn/v.mp4","videoId":"7"}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			var body map[string]any
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body["success"], ShouldEqual, true)
			So(body["videoId"], ShouldEqual, "7")
			So(body["result"], ShouldEqual, "looks fun")
		})

		Convey("URL problems are 400s", func() {
			rec := do(mux, http.MethodPost, "/api/analyze-video", `{}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorOf(rec), ShouldEqual, "Video URL is required")

			rec = do(mux, http.MethodPost, "/api/analyze-video", `{"videoUrl":"nope"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorOf(rec), ShouldEqual, "Invalid URL format")
		})

		Convey("A missing key is a 500 naming the key", func() {
			deps.analyzeErr = gemini.ErrNotConfigured
			rec := do(mux, http.MethodPost, "/api/analyze-video", `{"videoUrl":"https://cdn/v.mp4"}`)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(errorOf(rec), ShouldEqual, "Google API Key is not configured")

			for _, body := range []string{`{}`, ``} {
				rec = do(mux, http.MethodPost, "/api/analyze-video", body)
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(errorOf(rec), ShouldEqual, "Google API Key is not configured")
			}
		})

		Convey("Other failures are generic 500s", func() {
			deps.analyzeErr = errors.New("model overloaded")
			rec := do(mux, http.MethodPost, "/api/analyze-video", `{"videoUrl":"https://cdn/v.mp4"}`)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(errorOf(rec), ShouldEqual, "Failed to analyze video")
		})

		Convey("Comments are generated from an analysis", func() {
			rec := do(mux, http.MethodPost, "/api/ai-comments/generate", `{"analysis":"fun","author":"me"}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"comments":["a","b"]`)
		})

		Convey("Comments need an analysis", func() {
			rec := do(mux, http.MethodPost, "/api/ai-comments/generate", `{}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorOf(rec), ShouldEqual, "Video analysis is required")
		})
	})
}

func TestTranscriptRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		deps := &stubDeps{}
		mux := newMux(deps)

		Convey("An uploaded file is transcribed", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			fw, err := mw.CreateFormFile("audioFile", "clip.mp3")
			So(err, ShouldBeNil)
			_, _ = fw.Write([]byte("mp3 bytes"))
			So(mw.WriteField("videoId", "9"), ShouldBeNil)
			So(mw.Close(), ShouldBeNil)

			req := httptest.NewRequest(http.MethodPost, "/api/transcribe", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(string(deps.uploaded), ShouldEqual, "mp3 bytes")
			So(rec.Body.String(), ShouldContainSubstring, `"transcript":"hi"`)
		})

		Convey("A request without a file is a 400", func() {
			rec := do(mux, http.MethodPost, "/api/transcribe", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorOf(rec), ShouldEqual, "No audio file provided")
		})

		Convey("Extraction reports missing data and URLs", func() {
			rec := do(mux, http.MethodPost, "/api/extract-audio", `{}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorOf(rec), ShouldEqual, "No video data provided")

			rec = do(mux, http.MethodPost, "/api/extract-audio", `{"video":{"id":"1"}}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorOf(rec), ShouldEqual, "Could not extract video URL from TikTok data")

			rec = do(mux, http.MethodPost, "/api/extract-audio", `{"video":"https://cdn/a.mp4"}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"videoUrl":"https://cdn/a.mp4"`)
		})

		Convey("Transcript lookups map missing ids and files", func() {
			rec := do(mux, http.MethodGet, "/api/get-transcript", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorOf(rec), ShouldEqual, "Missing videoId parameter")

			deps.loadErr = fmt.Errorf("load: %w", storage.ErrNotFound)
			rec = do(mux, http.MethodGet, "/api/get-transcript?videoId=5", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(errorOf(rec), ShouldEqual, "Transcription not found for this video")

			deps.loadErr = nil
			deps.transcript = transcript.Result{Transcript: "stored"}
			rec = do(mux, http.MethodGet, "/api/get-transcript?videoId=5", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"videoId":"5"`)
		})
	})
}

func TestBatchRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		deps := &stubDeps{}
		mux := newMux(deps)

		Convey("A submission is accepted with its location", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/batches?mode=transcribe", bytes.NewBufferString(`[{"id":"1"}]`))
			req.Header.Set(api.IdempotencyHeader, "k1")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusAccepted)
			So(rec.Header().Get("Location"), ShouldEqual, "/api/batches/job-1")
			So(deps.lastKey, ShouldEqual, "k1")
			So(deps.lastMode, ShouldEqual, "transcribe")
		})

		Convey("A replay answers 200", func() {
			deps.replayed = true
			rec := do(mux, http.MethodPost, "/api/batches", `[{"id":"1"}]`)
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Errors map to 400, 413 and 429", func() {
			deps.submitErr = model.ErrEmptyBatch
			So(do(mux, http.MethodPost, "/api/batches", `[]`).Code, ShouldEqual, http.StatusBadRequest)
			deps.submitErr = fmt.Errorf("%w: 300 > 200", model.ErrTooManyItems)
			So(do(mux, http.MethodPost, "/api/batches", `[]`).Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			deps.submitErr = service.ErrQueueFull
			So(do(mux, http.MethodPost, "/api/batches", `[]`).Code, ShouldEqual, http.StatusTooManyRequests)
		})

		Convey("Jobs are polled by id", func() {
			So(do(mux, http.MethodGet, "/api/batches/job-1", "").Code, ShouldEqual, http.StatusOK)
			rec := do(mux, http.MethodGet, "/api/batches/other", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(errorOf(rec), ShouldEqual, "Batch job not found")
		})
	})
}

func TestMiscRoutes(t *testing.T) {
	Convey("Given the API with a data dir", t, func() {
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi"), 0o600), ShouldBeNil)
		deps := &stubDeps{}
		mux := newMux(deps, api.WithDataDir(dir))

		Convey("Files are served under /files/", func() {
			rec := do(mux, http.MethodGet, "/files/hello.txt", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "hi")
		})

		Convey("Stats and metrics are exposed", func() {
			So(do(mux, http.MethodGet, "/stats", "").Body.String(), ShouldContainSubstring, `"started":true`)
			So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("The dashboard runs over posted results", func() {
			rec := do(mux, http.MethodPost, "/api/insights/dashboard", `{"results":[{"videoId":"1","result":"THEMES:\n- Dance challenge\n"}]}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"themes"`)
		})

		Convey("Deleting missing media is a 404", func() {
			deps.deleteErr = storage.ErrNotFound
			So(do(mux, http.MethodDelete, "/api/media/videos/a.mp4", "").Code, ShouldEqual, http.StatusNotFound)
			deps.deleteErr = nil
			So(do(mux, http.MethodDelete, "/api/media/videos/a.mp4", "").Code, ShouldEqual, http.StatusNoContent)
		})

		Convey("Wrong methods are rejected", func() {
			So(do(mux, http.MethodGet, "/api/search", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	Convey("Given a rate limit of one request per window", t, func() {
		mux := newMux(&stubDeps{}, api.WithRateLimit(1, time.Hour))

		Convey("The second vendor call from one IP is throttled", func() {
			So(do(mux, http.MethodPost, "/api/search", `{"type":"SEARCH"}`).Code, ShouldEqual, http.StatusOK)
			rec := do(mux, http.MethodPost, "/api/search", `{"type":"SEARCH"}`)
			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
			So(rec.Header().Get("Retry-After"), ShouldEqual, "3600")
		})

		Convey("Cache reads are not throttled", func() {
			for range 3 {
				So(do(mux, http.MethodGet, "/api/get-all-videos", "").Code, ShouldEqual, http.StatusOK)
			}
		})
	})
}
