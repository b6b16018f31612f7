package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/tokscope/internal/adapters/mq/queue"
	"github.com/okian/tokscope/internal/domain/insights"
	"github.com/okian/tokscope/internal/domain/model"
	"github.com/okian/tokscope/internal/domain/video"
	"github.com/okian/tokscope/pkg/logger"
	"github.com/okian/tokscope/pkg/metrics"
)

// SubmitBatch parses and queues a batch. A repeated idempotencyKey returns
// the job it created first with replayed set.
func (s *Service) SubmitBatch(ctx context.Context, body []byte, mode, idempotencyKey string) (job model.Job, replayed bool, err error) {
	sub, err := model.ParseSubmission(body, mode)
	if err != nil {
		return model.Job{}, false, err
	}
	if len(sub.Videos) > s.maxBatchItems {
		return model.Job{}, false, fmt.Errorf("%w: %d > %d", model.ErrTooManyItems, len(sub.Videos), s.maxBatchItems)
	}

	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		return model.Job{}, false, ErrNotStarted
	}

	items := sub.Items()
	job = model.Job{
		ID:        uuid.NewString(),
		Mode:      sub.Mode,
		Status:    model.StatusQueued,
		Total:     len(items),
		Results:   []model.ItemResult{},
		CreatedAt: now(),
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	if idempotencyKey != "" {
		holder, fresh := s.deduper.Claim(ctx, idempotencyKey, job.ID)
		if !fresh {
			if existing, ok := s.jobs.get(holder); ok {
				return existing, true, nil
			}
			// The holder's job was evicted from the registry.
			s.deduper.Release(ctx, idempotencyKey)
			if _, fresh = s.deduper.Claim(ctx, idempotencyKey, job.ID); !fresh {
				return model.Job{}, false, fmt.Errorf("claim idempotency key %q: still held", idempotencyKey)
			}
		}
	}
	s.jobs.add(job, items)

	if err := q.Enqueue(ctx, model.Task{JobID: job.ID, Mode: sub.Mode, Items: items}); err != nil {
		s.jobs.remove(job.ID)
		if idempotencyKey != "" {
			s.deduper.Release(ctx, idempotencyKey)
		}
		if errors.Is(err, queue.ErrFull) {
			return model.Job{}, false, ErrQueueFull
		}
		return model.Job{}, false, fmt.Errorf("enqueue batch: %w", err)
	}
	metrics.RecordBatchJob(string(model.StatusQueued))
	s.logger.Info(ctx, "batch queued",
		logger.String("job_id", job.ID),
		logger.String("mode", string(sub.Mode)),
		logger.Int("items", len(items)))
	return job, false, nil
}

// GetBatch returns a job's current state.
func (s *Service) GetBatch(_ context.Context, id string) (model.Job, error) {
	job, ok := s.jobs.get(id)
	if !ok {
		return model.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

// batchHandler runs one batch item.
type batchHandler struct{ s *Service }

func (h batchHandler) Handle(ctx context.Context, mode model.Mode, item model.Item) (json.RawMessage, error) {
	if item.VideoURL == "" {
		return nil, video.ErrNoVideoURL
	}
	switch mode {
	case model.ModeTranscribe:
		if err := h.s.transcriptionReady(); err != nil {
			return nil, err
		}
		if h.s.extractor == nil {
			return nil, ErrExtractorMissing
		}
		res, err := h.s.extractAndTranscribe(ctx, item.VideoURL, item.VideoID, item.Desc)
		if err != nil {
			return nil, err
		}
		h.s.saveTranscript(ctx, item.VideoID, res)
		return json.Marshal(res)
	default:
		analysis, err := h.s.AnalyzeVideo(ctx, item.VideoURL, item.VideoID, item.Desc)
		if err != nil {
			return nil, err
		}
		return json.Marshal(analysis)
	}
}

// batchTracker moves jobs through their states.
type batchTracker struct{ s *Service }

func (t batchTracker) Start(_ context.Context, jobID string) error {
	if !t.s.jobs.update(jobID, func(j *model.Job) {
		j.Status = model.StatusRunning
		j.StartedAt = now()
	}) {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	metrics.RecordBatchJob(string(model.StatusRunning))
	return nil
}

func (t batchTracker) Record(_ context.Context, jobID string, res model.ItemResult) error {
	if !t.s.jobs.update(jobID, func(j *model.Job) {
		j.Results = append(j.Results, res)
		j.Processed++
		if res.Error != "" {
			j.Failed++
		}
	}) {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return nil
}

func (t batchTracker) Finish(ctx context.Context, jobID string, jobErr error) error {
	items := t.s.jobs.itemsOf(jobID)
	job, ok := t.s.jobs.get(jobID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	var ins *model.Insights
	if jobErr == nil && job.Mode == model.ModeAnalyze {
		ins = batchInsights(items, job.Results)
	}

	status := model.StatusCompleted
	if jobErr != nil {
		status = model.StatusFailed
	}
	t.s.jobs.update(jobID, func(j *model.Job) {
		j.Status = status
		j.FinishedAt = now()
		j.Insights = ins
		if jobErr != nil {
			j.Error = jobErr.Error()
		}
	})
	metrics.RecordBatchJob(string(status))
	t.s.logger.Debug(ctx, "batch finished",
		logger.String("job_id", jobID),
		logger.String("status", string(status)),
		logger.Int("failed", job.Failed))
	return nil
}

// batchInsights computes insights from the successful items.
func batchInsights(items []model.Item, results []model.ItemResult) *model.Insights {
	summaries := make([]video.Summary, 0, len(items))
	for _, it := range items {
		sum := video.SummaryOf(it.Record)
		if sum.ID == "" {
			sum.ID = it.VideoID
		}
		if sum.Desc == "" {
			sum.Desc = it.Desc
		}
		summaries = append(summaries, sum)
	}

	rs := make([]insights.Result, 0, len(results))
	for _, r := range results {
		if r.Error != "" || len(r.Result) == 0 {
			continue
		}
		rs = append(rs, insights.Result{VideoID: r.VideoID, Result: r.Result})
	}

	return &model.Insights{
		Clusters:  insights.Clusters(summaries, rs),
		Dashboard: insights.Dashboard(rs),
		Aggregate: insights.BatchInsights(rs),
	}
}
