package model_test

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	model "github.com/okian/tokscope/internal/domain/model"
)

func TestParseSubmission(t *testing.T) {
	convey.Convey("Given a batch body", t, func() {
		convey.Convey("When it is a bare array", func() {
			sub, err := model.ParseSubmission([]byte(`[{"id":"1","videoUrl":"https://cdn/1.mp4","desc":"one"}, null]`), "")

			convey.Convey("Then it defaults to analyze and drops null records", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sub.Mode, convey.ShouldEqual, model.ModeAnalyze)
				convey.So(len(sub.Videos), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When it is an object with a mode", func() {
			sub, err := model.ParseSubmission([]byte(`{"mode":"Transcribe","videos":[{"aweme_id":"9"}]}`), "")
			convey.So(err, convey.ShouldBeNil)
			convey.So(sub.Mode, convey.ShouldEqual, model.ModeTranscribe)
		})

		convey.Convey("When the caller overrides the mode", func() {
			sub, err := model.ParseSubmission([]byte(`{"mode":"transcribe","videos":[{"id":"1"}]}`), "analyze")
			convey.So(err, convey.ShouldBeNil)
			convey.So(sub.Mode, convey.ShouldEqual, model.ModeAnalyze)
		})

		convey.Convey("When it is invalid", func() {
			_, err := model.ParseSubmission([]byte(`{"videos":`), "")
			convey.So(errors.Is(err, model.ErrInvalidBatch), convey.ShouldBeTrue)

			_, err = model.ParseSubmission([]byte(`{"videos":[]}`), "")
			convey.So(errors.Is(err, model.ErrEmptyBatch), convey.ShouldBeTrue)

			_, err = model.ParseSubmission([]byte(`   `), "")
			convey.So(errors.Is(err, model.ErrEmptyBatch), convey.ShouldBeTrue)

			_, err = model.ParseSubmission([]byte(`[{"id":"1"}]`), "summarize")
			convey.So(errors.Is(err, model.ErrInvalidMode), convey.ShouldBeTrue)
		})
	})
}

func TestSubmissionItems(t *testing.T) {
	convey.Convey("Given records with and without ids and URLs", t, func() {
		sub, err := model.ParseSubmission([]byte(`[
			{"aweme_id":"a1","desc":"first","video":{"play_addr":{"url_list":["https://cdn/a1.mp4"]}}},
			{"desc":"no id","videoUrl":"https://cdn/x.mp4"},
			{"id":"c3"}
		]`), "")
		convey.So(err, convey.ShouldBeNil)
		items := sub.Items()

		convey.So(items[0].VideoID, convey.ShouldEqual, "a1")
		convey.So(items[0].VideoURL, convey.ShouldEqual, "https://cdn/a1.mp4")
		convey.So(items[0].Desc, convey.ShouldEqual, "first")
		convey.So(items[1].VideoID, convey.ShouldEqual, "video-2")
		convey.So(items[1].VideoURL, convey.ShouldEqual, "https://cdn/x.mp4")
		convey.So(items[2].VideoURL, convey.ShouldEqual, "")
		convey.So(items[2].Record["id"], convey.ShouldEqual, "c3")
	})
}

func TestStatusTerminal(t *testing.T) {
	convey.Convey("Only completed and failed are terminal", t, func() {
		convey.So(model.StatusQueued.Terminal(), convey.ShouldBeFalse)
		convey.So(model.StatusRunning.Terminal(), convey.ShouldBeFalse)
		convey.So(model.StatusCompleted.Terminal(), convey.ShouldBeTrue)
		convey.So(model.StatusFailed.Terminal(), convey.ShouldBeTrue)
	})
}
