package whisper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tokscope/internal/adapters/fetch"
)

func TestTranscribe(t *testing.T) {
	Convey("Given an OpenAI-compatible server", t, func() {
		var gotAuth, gotModel, gotFormat, gotName string
		var gotFile []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/audio/transcriptions" {
				http.NotFound(w, r)
				return
			}
			gotAuth = r.Header.Get("Authorization")
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			gotModel = r.FormValue("model")
			gotFormat = r.FormValue("response_format")
			f, hdr, err := r.FormFile("file")
			if err == nil {
				gotName = hdr.Filename
				gotFile, _ = io.ReadAll(f)
			}
			if string(gotFile) == "quota" {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = io.WriteString(w, `{"error":{"message":"You exceeded your current quota"}}`)
				return
			}
			_, _ = io.WriteString(w, `{"text":"hello there"}`)
		}))
		defer srv.Close()

		ctx := context.Background()
		c := New("groq", srv.URL+"/v1/", `"secret"`, "whisper-large-v3", WithResponseFormat("verbose_json"))

		Convey("Transcribe posts the multipart form and returns the text", func() {
			text, err := c.Transcribe(ctx, []byte("mp3"), "clip.mp3")
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "hello there")
			So(gotAuth, ShouldEqual, "Bearer secret")
			So(gotModel, ShouldEqual, "whisper-large-v3")
			So(gotFormat, ShouldEqual, "verbose_json")
			So(gotName, ShouldEqual, "clip.mp3")
			So(string(gotFile), ShouldEqual, "mp3")
		})

		Convey("A vendor error is a StatusError", func() {
			_, err := c.Transcribe(ctx, []byte("quota"), "")
			So(fetch.StatusCode(err), ShouldEqual, http.StatusTooManyRequests)
			So(err.Error(), ShouldContainSubstring, "exceeded your current quota")
			So(gotName, ShouldEqual, "audio.mp3")
		})
	})

	Convey("A client without a key refuses to call out", t, func() {
		c := New("openai", "http://unused", `""`, "whisper-1")
		So(c.Configured(), ShouldBeFalse)
		_, err := c.Transcribe(context.Background(), nil, "")
		So(err, ShouldEqual, ErrNoKey)
	})
}
