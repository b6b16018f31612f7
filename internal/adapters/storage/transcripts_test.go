package storage

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tokscope/internal/domain/transcript"
)

// failingStore refuses every call.
type failingStore struct{ *Files }

func (failingStore) Name() string { return "broken" }
func (failingStore) Upload(context.Context, string, string, []byte, string) error {
	return errors.New("bucket offline")
}
func (failingStore) Download(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("bucket offline")
}

func TestTranscriptStore(t *testing.T) {
	ctx := context.Background()
	res := transcript.Build("I talked to my doctor", "#health", false)

	Convey("Given two file backends", t, func() {
		a, _ := NewFiles(t.TempDir())
		b, _ := NewFiles(t.TempDir())
		s := NewTranscriptStore("temporary_files", a, b)

		Convey("Save writes to both and Load reads it back", func() {
			So(s.Save(ctx, "7301", res), ShouldBeNil)
			_, err := b.Download(ctx, "temporary_files", "transcriptions/7301.json")
			So(err, ShouldBeNil)

			got, err := s.Load(ctx, "7301")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, res)
		})

		Convey("Load falls through to a later backend", func() {
			single := NewTranscriptStore("temporary_files", b)
			So(single.Save(ctx, "x", res), ShouldBeNil)
			got, err := s.Load(ctx, "x")
			So(err, ShouldBeNil)
			So(got.Transcript, ShouldEqual, res.Transcript)
		})

		Convey("Unknown ids are ErrNotFound", func() {
			_, err := s.Load(ctx, "missing")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Save succeeds when one backend is down", t, func() {
		ok, _ := NewFiles(t.TempDir())
		s := NewTranscriptStore("temporary_files", failingStore{}, ok)
		So(s.Save(ctx, "1", res), ShouldBeNil)
		got, err := s.Load(ctx, "1")
		So(err, ShouldBeNil)
		So(got.Keywords, ShouldResemble, []string{"medical"})
	})

	Convey("Save fails when every backend is down", t, func() {
		s := NewTranscriptStore("temporary_files", failingStore{})
		So(s.Save(ctx, "1", res), ShouldNotBeNil)
		_, err := s.Load(ctx, "1")
		So(errors.Is(err, ErrNotFound), ShouldBeFalse)
	})

	Convey("Keys are sanitized", t, func() {
		So(TranscriptKey("../a b"), ShouldEqual, "transcriptions/.._a_b.json")
	})
}
