package transcript

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type stubProvider struct {
	name  string
	key   bool
	text  string
	err   error
	calls int
}

func (p *stubProvider) Name() string     { return p.name }
func (p *stubProvider) Configured() bool { return p.key }
func (p *stubProvider) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	p.calls++
	return p.text, p.err
}

func TestService(t *testing.T) {
	ctx := context.Background()
	req := Request{Audio: []byte("mp3"), Filename: "a.mp3", VideoID: "v1"}

	Convey("The primary provider answers", t, func() {
		openai := &stubProvider{name: "openai", key: true, text: "weight loss talk"}
		groq := &stubProvider{name: "groq", key: true}
		res, err := NewService(openai, groq).Transcribe(ctx, req)
		So(err, ShouldBeNil)
		So(res.Keywords, ShouldResemble, []string{"weight loss"})
		So(groq.calls, ShouldEqual, 0)
	})

	Convey("A failing primary falls back and marks the result", t, func() {
		openai := &stubProvider{name: "openai", key: true, err: errors.New("quota")}
		groq := &stubProvider{name: "groq", key: true, text: "fatigue"}
		res, err := NewService(openai, groq).Transcribe(ctx, req)
		So(err, ShouldBeNil)
		So(res.Keywords, ShouldResemble, []string{"fatigue", FallbackMarker})
	})

	Convey("Both failing returns both errors", t, func() {
		primaryErr := errors.New("quota")
		fallbackErr := errors.New("groq down")
		s := NewService(&stubProvider{key: true, err: primaryErr}, &stubProvider{key: true, err: fallbackErr})
		_, err := s.Transcribe(ctx, req)
		So(errors.Is(err, primaryErr), ShouldBeTrue)
		So(errors.Is(err, fallbackErr), ShouldBeTrue)
	})

	Convey("No configured provider is ErrNotConfigured", t, func() {
		s := NewService(&stubProvider{}, nil)
		So(s.Configured(), ShouldBeFalse)
		_, err := s.Transcribe(ctx, req)
		So(err, ShouldEqual, ErrNotConfigured)
	})
}
