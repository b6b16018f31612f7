package batchcli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeService serves one job that completes after two polls.
func fakeService(t *testing.T, final string) (*httptest.Server, *atomic.Int32, *string) {
	t.Helper()
	var polls atomic.Int32
	var gotKey string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/batches", func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		body, _ := io.ReadAll(r.Body)
		var records []map[string]any
		if err := json.Unmarshal(body, &records); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid batch body"}`))
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "job-1", "mode": r.URL.Query().Get("mode"), "status": "queued", "total": len(records),
		})
	})
	mux.HandleFunc("GET /api/batches/{id}", func(w http.ResponseWriter, r *http.Request) {
		n := polls.Add(1)
		status := "running"
		if n >= 2 {
			status = final
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": r.PathValue("id"), "status": status, "total": 2, "processed": int(n), "failed": 0,
			"insights": map[string]any{"clusters": map[string]any{
				"clusters": []map[string]any{{"label": "Comedy", "size": 2}},
			}},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls, &gotKey
}

func writeInput(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "videos.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	Convey("Given a service that finishes the job", t, func() {
		srv, polls, gotKey := fakeService(t, "completed")
		out := filepath.Join(t.TempDir(), "out", "job.json")
		cfg := &Config{
			BaseURL:        srv.URL,
			InputFile:      writeInput(t, `[{"id":"1"},{"id":"2"}]`),
			Mode:           "analyze",
			IdempotencyKey: "k1",
			PollInterval:   5 * time.Millisecond,
			Timeout:        time.Second,
			OutputFile:     out,
		}

		job, err := Run(context.Background(), cfg)

		Convey("Then the job is followed to completion", func() {
			So(err, ShouldBeNil)
			So(job.Status, ShouldEqual, "completed")
			So(job.Terminal(), ShouldBeTrue)
			So(polls.Load(), ShouldEqual, 2)
			So(*gotKey, ShouldEqual, "k1")
			So(job.Insights, ShouldNotBeNil)
			So(job.Insights.Clusters.Clusters[0].Label, ShouldEqual, "Comedy")
		})

		Convey("Then the final document is written", func() {
			data, err := os.ReadFile(out)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"job-1"`)
		})
	})

	Convey("Given a service that fails the job", t, func() {
		srv, _, _ := fakeService(t, "failed")
		cfg := &Config{
			BaseURL:      srv.URL,
			InputFile:    writeInput(t, `[{"id":"1"}]`),
			PollInterval: 5 * time.Millisecond,
			Timeout:      time.Second,
		}
		_, err := Run(context.Background(), cfg)
		So(err, ShouldWrap, ErrJobFailed)
	})

	Convey("Given a body the service rejects", t, func() {
		srv, _, _ := fakeService(t, "completed")
		cfg := &Config{
			BaseURL:      srv.URL,
			InputFile:    writeInput(t, `{"nope":true}`),
			PollInterval: 5 * time.Millisecond,
			Timeout:      time.Second,
		}
		_, err := Run(context.Background(), cfg)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "Invalid batch body")
	})

	Convey("Given a missing input file", t, func() {
		_, err := Run(context.Background(), &Config{InputFile: filepath.Join(t.TempDir(), "none.json")})
		So(err, ShouldNotBeNil)
	})
}
