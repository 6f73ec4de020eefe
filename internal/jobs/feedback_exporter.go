package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"peerprep/interview/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cursor file kept in the export directory so restarts do not re-export
const cursorFile = ".last_export"

// FeedbackSource lists feedback written after a point in time, oldest first.
type FeedbackSource interface {
	QueryCreatedSince(ctx context.Context, since time.Time) ([]models.FeedbackRecord, error)
}

// ExporterConfig contains configuration for the exporter job
type ExporterConfig struct {
	Schedule      string // Cron schedule (e.g., "0 2 * * *" for 2 AM daily)
	ExportDir     string // Directory to store exported files
	ExportEnabled bool   // Whether to run exports
}

// FeedbackExporterJob periodically writes new feedback records to JSONL files
type FeedbackExporterJob struct {
	source FeedbackSource
	config *ExporterConfig
	cron   *cron.Cron
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	since time.Time
}

// NewFeedbackExporterJob creates a new exporter job
func NewFeedbackExporterJob(source FeedbackSource, config *ExporterConfig, logger *zap.Logger) *FeedbackExporterJob {
	return &FeedbackExporterJob{
		source: source,
		config: config,
		cron:   cron.New(),
		logger: logger,
		now:    time.Now,
	}
}

// Start begins the scheduled export job
func (fej *FeedbackExporterJob) Start() error {
	if !fej.config.ExportEnabled {
		fej.logger.Info("Feedback export is disabled, skipping scheduler")
		return nil
	}

	_, err := fej.cron.AddFunc(fej.config.Schedule, func() {
		if _, err := fej.RunExport(context.Background()); err != nil {
			fej.logger.Error("Export job failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule export job: %w", err)
	}

	fej.cron.Start()
	fej.logger.Info("Feedback exporter started", zap.String("schedule", fej.config.Schedule))
	return nil
}

// Stop stops the scheduled export job and waits for a running export to finish
func (fej *FeedbackExporterJob) Stop() {
	if fej.cron != nil {
		<-fej.cron.Stop().Done()
	}
}

// RunExport exports feedback created since the last successful run and returns the written file,
// or "" when there was nothing to export.
func (fej *FeedbackExporterJob) RunExport(ctx context.Context) (string, error) {
	fej.mu.Lock()
	defer fej.mu.Unlock()

	since, err := fej.loadCursor()
	if err != nil {
		return "", err
	}

	records, err := fej.source.QueryCreatedSince(ctx, since)
	if err != nil {
		return "", fmt.Errorf("failed to query feedback since %v: %w", since, err)
	}
	if len(records) == 0 {
		fej.logger.Info("No new feedback to export", zap.Time("since", since))
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	latest := since
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return "", fmt.Errorf("failed to encode feedback %s: %w", rec.ID, err)
		}
		if rec.CreatedAt.After(latest) {
			latest = rec.CreatedAt
		}
	}

	if err := os.MkdirAll(fej.config.ExportDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	timestamp := fej.now().UTC().Format("20060102_150405")
	path := filepath.Join(fej.config.ExportDir, fmt.Sprintf("feedback_export_%s.jsonl", timestamp))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	if err := fej.saveCursor(latest); err != nil {
		return "", err
	}
	fej.logger.Info("Exported feedback",
		zap.Int("records", len(records)),
		zap.String("file", path))
	return path, nil
}

func (fej *FeedbackExporterJob) loadCursor() (time.Time, error) {
	if !fej.since.IsZero() {
		return fej.since, nil
	}
	data, err := os.ReadFile(filepath.Join(fej.config.ExportDir, cursorFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to read export cursor: %w", err)
	}
	since, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse export cursor: %w", err)
	}
	fej.since = since
	return since, nil
}

func (fej *FeedbackExporterJob) saveCursor(t time.Time) error {
	data := []byte(t.UTC().Format(time.RFC3339Nano))
	if err := os.WriteFile(filepath.Join(fej.config.ExportDir, cursorFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write export cursor: %w", err)
	}
	fej.since = t
	return nil
}
