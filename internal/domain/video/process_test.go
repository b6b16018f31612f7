package video

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func decodeRaw(t *testing.T, s string) Raw {
	t.Helper()
	var r Raw
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return r
}

const sampleRecord = `{
	"aweme_id": "7301",
	"desc": "morning routine #wellness #ozempic",
	"author": {"uid": "u-1", "nickname": "jane", "avatar_medium": {"url_list": ["[https://cdn/avatar.jpg](https://cdn/avatar.jpg)"]}},
	"statistics": {"digg_count": 120, "comment_count": 8, "play_count": 4000, "share_count": 3},
	"video": {
		"origin_cover": {"url_list": ["https://cdn/origin.jpg"]},
		"play_addr": {"url_list": ["https://cdn/play.mp4"]},
		"download_addr": {"url_list": ["https://cdn/download.mp4"]},
		"duration": 31
	}
}`

func TestProcess(t *testing.T) {
	Convey("Given a raw actor record", t, func() {
		raw := decodeRaw(t, sampleRecord)

		Convey("Process reshapes it", func() {
			v, ok := Process(raw)
			So(ok, ShouldBeTrue)
			So(v.ID, ShouldEqual, "7301")
			So(v.Author.ID, ShouldEqual, "u-1")
			So(v.Author.Nickname, ShouldEqual, "jane")
			So(v.Statistics, ShouldResemble, Statistics{DiggCount: 120, CommentCount: 8, PlayCount: 4000, ShareCount: 3})
			So(v.CoverImage, ShouldEqual, "https://cdn/origin.jpg")
			So(v.VideoURL, ShouldEqual, "https://cdn/play.mp4")
			So(v.Duration, ShouldEqual, 31)
		})

		Convey("ToCached renames the statistics", func() {
			v, _ := Process(raw)
			c := ToCached(v)
			b, err := json.Marshal(c)
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"digg_count":120`)
			So(SummaryOfCached(c).Statistics, ShouldResemble, v.Statistics)
		})
	})

	Convey("ProcessAll drops records without an id and keeps order", t, func() {
		raws := []Raw{{"id": "b"}, {"desc": "no id"}, {"aweme_id": "a"}}
		vs := ProcessAll(raws)
		So(vs, ShouldHaveLength, 2)
		So(vs[0].ID, ShouldEqual, "b")
		So(vs[1].ID, ShouldEqual, "a")
	})

	Convey("Missing statistics default to zero", t, func() {
		v, ok := Process(Raw{"id": "x"})
		So(ok, ShouldBeTrue)
		So(v.Statistics, ShouldResemble, Statistics{})
		So(v.CoverImage, ShouldBeEmpty)
	})
}

func TestFirstURL(t *testing.T) {
	Convey("FirstURL cleans markdown decorations", t, func() {
		So(FirstURL([]string{"", "[https://a/b.jpg](https://a/b.jpg)"}), ShouldEqual, "https://a/b.jpghttps://a/b.jpg")
		So(FirstURL([]string{"[https://a/b.jpg]"}), ShouldEqual, "https://a/b.jpg")
		So(FirstURL([]string{"https://a/b.jpg)"}), ShouldEqual, "https://a/b.jpg")
		So(FirstURL(nil), ShouldBeEmpty)
	})
}

func TestSummaryOf(t *testing.T) {
	Convey("SummaryOf accepts camelCase statistics", t, func() {
		s := SummaryOf(Raw{"id": "1", "statistics": map[string]any{"diggCount": 5.0, "playCount": "2000"}})
		So(s.Statistics.DiggCount, ShouldEqual, 5)
		So(s.Statistics.PlayCount, ShouldEqual, 2000)
		So(Engagement(s.Statistics), ShouldEqual, 7)
	})
}
