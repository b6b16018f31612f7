package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithMetricPrefix("x"),
				WithHistogramBuckets([]float64{1, 10}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(m.namespace, ShouldEqual, "test")
				So(m.subsystem, ShouldEqual, "unit")
				So(m.histogramBuckets, ShouldResemble, []float64{1, 10})
			})

			Convey("Then collectors are registered with prefixed names and const labels", func() {
				m.videosScraped.Add(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_x_videos_scraped_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			m := NewManager(WithNamespace(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults survive", func() {
				So(m.namespace, ShouldEqual, "tokscope")
				So(m.histogramBuckets, ShouldResemble, defaultLatencyBuckets)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording vendor calls", func() {
			before := testutil.ToFloat64(globalManager.vendorCalls.WithLabelValues("gemini", "generate", "error"))
			RecordVendorCall("gemini", "generate", errors.New("quota"), 20*time.Millisecond)
			RecordVendorCall("gemini", "generate", nil, 10*time.Millisecond)

			Convey("Then the error outcome is counted", func() {
				after := testutil.ToFloat64(globalManager.vendorCalls.WithLabelValues("gemini", "generate", "error"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When updating the queue size", func() {
			UpdateQueueSize(2, 8)

			Convey("Then utilization follows capacity", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.25)
			})
		})

		Convey("When flagging the worker busy", func() {
			UpdateWorkerBusy(true)
			So(testutil.ToFloat64(globalManager.workerBusy), ShouldEqual, 1)
			UpdateWorkerBusy(false)
			So(testutil.ToFloat64(globalManager.workerBusy), ShouldEqual, 0)
		})

		Convey("When recording the remaining families", func() {
			So(func() {
				RecordVideosScraped(4)
				UpdateVideosCached(4)
				RecordAnalysis("video", nil)
				RecordTranscription("openai", errors.New("401"))
				RecordTranscriptionFallback()
				RecordCacheMirror("file", "save", nil)
				RecordHTTPRequest("search", "POST", "200")
				RecordHTTPRequestDuration("search", "POST", "200", 12)
				UpdateQueueCapacity(8)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError("queue_full")
				RecordBatchJob("completed")
				RecordBatchItem("analyze", nil, time.Second)
				RecordErrorByType("server_error", "high")
				RecordErrorByEndpoint("search", "POST", "server_error")
				RecordErrorLatency("http", "server_error", 3)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
