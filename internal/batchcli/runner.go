package batchcli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"github.com/okian/tokscope/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	outputPermission    = 0o644
)

// ErrJobFailed is returned when the service marks the job failed.
var ErrJobFailed = errors.New("batch job failed")

// Run submits the input file, polls until the job is terminal and prints a
// summary. It returns the final job.
func Run(ctx context.Context, config *Config) (Job, error) {
	log := logger.Get().Named("batch-submit")
	stats := &Stats{}

	body, err := os.ReadFile(config.InputFile)
	if err != nil {
		return Job{}, fmt.Errorf("read input: %w", err)
	}

	c := newClient(config.BaseURL, config.Timeout)
	if err := c.health(ctx); err != nil {
		return Job{}, fmt.Errorf("service health check failed: %w", err)
	}

	job, replayed, err := c.submit(ctx, body, config.Mode, config.IdempotencyKey)
	if err != nil {
		return Job{}, fmt.Errorf("submit batch: %w", err)
	}
	stats.Submitted, stats.Replayed = time.Now(), replayed
	log.Info(ctx, "batch submitted",
		logger.String("job_id", job.ID),
		logger.String("mode", job.Mode),
		logger.Int("total", job.Total),
		logger.Bool("replayed", replayed))

	job, err = poll(ctx, c, job, config, stats)
	if err != nil {
		return job, err
	}
	stats.Finished = time.Now()

	if config.OutputFile != "" {
		if err := saveJob(config.OutputFile, job); err != nil {
			log.Warn(ctx, "failed to save job", logger.Error(err))
		} else {
			log.Info(ctx, "job saved", logger.String("file", config.OutputFile))
		}
	}

	displaySummary(ctx, log, job, stats)
	if job.Status == "failed" {
		return job, fmt.Errorf("%w: %s", ErrJobFailed, job.Error)
	}
	return job, nil
}

func poll(ctx context.Context, c *client, job Job, config *Config, stats *Stats) (Job, error) {
	log := logger.Get().Named("batch-submit")
	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()

	for !job.Terminal() {
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
		next, err := c.get(ctx, job.ID)
		if err != nil {
			return job, fmt.Errorf("poll batch %s: %w", job.ID, err)
		}
		stats.Polls++
		if config.Verbose || next.Processed != job.Processed {
			log.Info(ctx, "batch progress",
				logger.String("status", next.Status),
				logger.Int("processed", next.Processed),
				logger.Int("total", next.Total),
				logger.Int("failed", next.Failed))
		}
		job = next
	}
	return job, nil
}

// saveJob writes the full job document atomically.
func saveJob(filename string, job Job) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return renameio.WriteFile(filename, job.Raw, outputPermission)
}

func displaySummary(ctx context.Context, log logger.Logger, job Job, stats *Stats) {
	fields := []logger.Field{
		logger.String("job_id", job.ID),
		logger.String("status", job.Status),
		logger.Int("processed", job.Processed),
		logger.Int("failed", job.Failed),
		logger.Int("polls", stats.Polls),
		logger.Duration("duration", stats.Finished.Sub(stats.Submitted)),
	}
	if job.Insights != nil {
		for i, cl := range job.Insights.Clusters.Clusters {
			fields = append(fields, logger.Int(fmt.Sprintf("cluster_%d_%s", i+1, cl.Label), cl.Size))
		}
	}
	log.Info(ctx, "final statistics", fields...)
}
