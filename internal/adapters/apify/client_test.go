package apify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tokscope/internal/adapters/fetch"
	"github.com/okian/tokscope/internal/domain/video"
)

type fakeApify struct {
	polls     atomic.Int32
	lastInput map[string]any
	lastActor string
	final     string
	items     string
}

func (f *fakeApify) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /acts/{actor}/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, `{"error":{"type":"token-not-valid"}}`, http.StatusUnauthorized)
			return
		}
		f.lastActor = r.PathValue("actor")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &f.lastInput)
		_, _ = io.WriteString(w, `{"data":{"id":"run-1","status":"RUNNING","defaultDatasetId":"ds-1"}}`)
	})
	mux.HandleFunc("GET /actor-runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("waitForFinish") == "" {
			t.Errorf("waitForFinish missing")
		}
		status := StatusRunning
		if f.polls.Add(1) >= 2 {
			status = f.final
		}
		_, _ = io.WriteString(w, `{"data":{"id":"run-1","status":"`+status+`","defaultDatasetId":"ds-1"}}`)
	})
	mux.HandleFunc("GET /datasets/ds-1/items", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("clean") != "true" {
			t.Errorf("clean flag missing")
		}
		_, _ = io.WriteString(w, f.items)
	})
	return mux
}

func TestRunActor(t *testing.T) {
	Convey("Given a fake Apify API", t, func() {
		fake := &fakeApify{final: StatusSucceeded, items: `[{"aweme_id":"1"},{"id":"2"}]`}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		c := New("tok", WithBaseURL(srv.URL), WithWaitForFinish(0))
		ctx := context.Background()

		Convey("SearchVideos polls until the run succeeds and returns the items", func() {
			items, err := c.SearchVideos(ctx, video.SearchParams{Type: "HASHTAG", Region: "US", MaxItems: 5, Keywords: []string{"ozempic"}})
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 2)
			So(fake.lastActor, ShouldEqual, "novi~fast-tiktok-scraper")
			So(fake.lastInput["type"], ShouldEqual, "HASHTAG")
			So(fake.lastInput["maxItems"], ShouldEqual, float64(5))
			So(fake.polls.Load(), ShouldEqual, int32(2))
		})

		Convey("FetchVideo sends the single-video input and returns the first item", func() {
			item, err := c.FetchVideo(ctx, "https://www.tiktok.com/@a/video/1")
			So(err, ShouldBeNil)
			So(video.ID(item), ShouldEqual, "1")
			So(fake.lastActor, ShouldEqual, "novi~fast-tiktok-api")
			So(fake.lastInput["type"], ShouldEqual, "VIDEO")
			So(fake.lastInput["isDownloadVideo"], ShouldEqual, true)
		})

		Convey("FetchVideo fails on an empty dataset", func() {
			fake.items = `[]`
			_, err := c.FetchVideo(ctx, "https://www.tiktok.com/@a/video/1")
			So(err, ShouldEqual, ErrNoVideoData)
		})

		Convey("A failed run is reported", func() {
			fake.final = StatusFailed
			_, err := c.RunActor(ctx, "novi/fast-tiktok-scraper", map[string]any{})
			So(errors.Is(err, ErrRunFailed), ShouldBeTrue)
		})

		Convey("A rejected token surfaces as a StatusError", func() {
			bad := New("nope", WithBaseURL(srv.URL))
			_, err := bad.RunActor(ctx, "novi/fast-tiktok-scraper", map[string]any{})
			So(fetch.IsAccessDenied(err), ShouldBeTrue)
		})
	})

	Convey("Without a token nothing is sent", t, func() {
		_, err := New("").RunActor(context.Background(), "a/b", nil)
		So(err, ShouldEqual, ErrNotConfigured)
	})
}
