package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-engine/internal/models"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
	"github.com/noah-isme/sma-score-engine/pkg/jobs"
)

// JobTypeSummaryReplaced tags notification jobs raised by a summary replacement.
const JobTypeSummaryReplaced = "summary.replaced"

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type summaryReader interface {
	GetSummary(ctx context.Context, lookup models.SummaryLookup) (*models.ScoreSummary, error)
}

// Notifier delivers a refreshed summary to whoever follows the student.
type Notifier interface {
	Notify(ctx context.Context, summary models.ScoreSummary) error
}

// SummaryNotification is the job payload. StudentIDs shrinks to the students
// still pending delivery as attempts succeed.
type SummaryNotification struct {
	Key        models.SummaryKey
	StudentIDs []string
}

// NotificationService turns summary replacements into queued notification jobs.
type NotificationService struct {
	queue  jobDispatcher
	logger *zap.Logger
}

// NewNotificationService constructs NotificationService.
func NewNotificationService(queue jobDispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, logger: logger}
}

// SummariesReplaced implements SummaryListener. Enqueue failures are logged;
// the recompute that triggered them has already committed.
func (s *NotificationService) SummariesReplaced(ctx context.Context, key models.SummaryKey, studentIDs []string) {
	if s == nil || s.queue == nil || len(studentIDs) == 0 {
		return
	}
	ids := append([]string(nil), studentIDs...)
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeSummaryReplaced,
		Payload: &SummaryNotification{Key: key, StudentIDs: ids},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue summary notification",
			zap.String("job_id", job.ID),
			zap.String("subject_id", key.SubjectID),
			zap.Int("students", len(ids)),
			zap.Error(err))
	}
}

// NotificationWorker reads each student's summary and hands it to the Notifier.
type NotificationWorker struct {
	summaries summaryReader
	notifier  Notifier
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewNotificationWorker constructs a worker.
func NewNotificationWorker(summaries summaryReader, notifier Notifier, metrics *MetricsService, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &NotificationWorker{summaries: summaries, notifier: notifier, metrics: metrics, logger: logger}
}

// Handle processes a queue job. Students whose delivery fails stay in the
// payload so a retry only repeats them.
func (w *NotificationWorker) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(*SummaryNotification)
	if !ok || payload == nil {
		w.logger.Error("dropping job with unexpected payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}

	var (
		pending []string
		errs    error
	)
	for _, studentID := range payload.StudentIDs {
		err := w.deliver(ctx, payload.Key, studentID)
		w.metrics.RecordNotification(err)
		if err == nil {
			continue
		}
		if errors.Is(err, appErrors.ErrNotFound) {
			// replaced again since the job was queued and the student dropped out
			w.logger.Info("summary gone before notification", zap.String("student_id", studentID), zap.String("subject_id", payload.Key.SubjectID))
			continue
		}
		pending = append(pending, studentID)
		errs = multierr.Append(errs, fmt.Errorf("student %s: %w", studentID, err))
	}
	payload.StudentIDs = pending
	return errs
}

func (w *NotificationWorker) deliver(ctx context.Context, key models.SummaryKey, studentID string) error {
	summary, err := w.summaries.GetSummary(ctx, models.SummaryLookup{
		StudentID: studentID,
		SubjectID: key.SubjectID,
		Year:      key.Year,
		Semester:  key.Semester,
	})
	if err != nil {
		return err
	}
	return w.notifier.Notify(ctx, *summary)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, summary models.ScoreSummary) error {
	n.logger.Info("score summary updated",
		zap.String("student_id", summary.StudentID),
		zap.String("subject_id", summary.SubjectID),
		zap.Int("year", summary.Year),
		zap.Int("semester", summary.Semester),
		zap.Int("rank", summary.Rank),
		zap.Int("of", summary.TotalStudentCount),
		zap.String("achievement_level", summary.AchievementLevel))
	return nil
}
