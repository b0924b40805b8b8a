package live

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/railsign/isl-announce-go/internal/announce"
	"github.com/railsign/isl-announce-go/internal/domain"
	"github.com/railsign/isl-announce-go/internal/store"
)

// Publisher fans a status event out to connected display clients.
type Publisher interface {
	Publish(event domain.StatusEvent)
}

// orchestrator is the announcement pipeline boundary.
type orchestrator interface {
	Generate(ctx context.Context, req announce.Request, persistRecord bool) *announce.Result
}

// jobStore is the persistence boundary for live jobs.
type jobStore interface {
	Create(ctx context.Context, job *domain.LiveJob) error
	DeactivateAll(ctx context.Context) (int64, error)
	UpdateStatus(ctx context.Context, id string, update store.StatusUpdate) (*domain.LiveJob, error)
}

// Service runs live announcements one at a time. A newly submitted job
// supersedes everything before it: active jobs are deactivated, a queued
// not-yet-started job is dropped, and only the in-flight job is allowed to
// finish before the pending one starts.
type Service struct {
	store     jobStore
	pipeline  orchestrator
	publisher Publisher
	logger    *zap.Logger

	mu      sync.Mutex
	pending *domain.LiveJob
	running bool
}

func NewService(store jobStore, pipeline orchestrator, publisher Publisher, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		pipeline:  pipeline,
		publisher: publisher,
		logger:    logger,
	}
}

// Submit accepts a live announcement, supersedes all earlier jobs, and
// schedules processing. It returns the created job immediately; processing
// always happens on the worker goroutine, never inline.
//
// The whole deactivate-create-enqueue sequence runs under the mutex. A slow
// older Submit paused mid-sequence must not be able to reinstall itself in
// the pending slot after a newer job already superseded it, so supersession
// and enqueue are one critical section.
func (s *Service) Submit(ctx context.Context, job *domain.LiveJob) (*domain.LiveJob, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = domain.JobStatusReceived
	job.Message = "Announcement received"

	s.mu.Lock()
	defer s.mu.Unlock()

	superseded, err := s.store.DeactivateAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("Live announcement accepted",
		zap.String("job_id", job.ID),
		zap.String("train_number", job.TrainNumber),
		zap.Int64("superseded", superseded),
	)

	s.publisher.Publish(domain.StatusEvent{
		JobID:     job.ID,
		Status:    domain.JobStatusReceived,
		Message:   job.Message,
		UpdatedAt: time.Now().UTC(),
	})

	if s.pending != nil {
		s.logger.Info("Dropping queued live announcement", zap.String("job_id", s.pending.ID))
	}
	s.pending = job
	if !s.running {
		s.running = true
		go s.work()
	}
	return job, nil
}

// Clear supersedes all active jobs and drops the pending slot without
// submitting a replacement.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	return s.store.DeactivateAll(ctx)
}

// work drains the pending slot until nothing is left. Runs on its own
// goroutine; at most one worker is live at a time.
func (s *Service) work() {
	for {
		s.mu.Lock()
		job := s.pending
		s.pending = nil
		if job == nil {
			s.running = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.process(job)
	}
}

func (s *Service) process(job *domain.LiveJob) {
	ctx := context.Background()

	s.transition(ctx, job.ID, store.StatusUpdate{
		Status:   domain.JobStatusProcessing,
		Message:  "Preparing announcement text",
		Progress: intPtr(10),
	})

	// The generating_video transition fires from inside the pipeline, after
	// text preparation and right before clip generation.
	result := s.pipeline.Generate(ctx, announce.Request{
		TrainNumber: job.TrainNumber,
		TrainName:   job.TrainName,
		FromStation: job.FromStation,
		ToStation:   job.ToStation,
		Platform:    job.Platform,
		Category:    job.Category,
		Avatar:      job.Avatar,
		OnVideoStart: func() {
			s.transition(ctx, job.ID, store.StatusUpdate{
				Status:   domain.JobStatusGeneratingVideo,
				Message:  "Generating ISL video",
				Progress: intPtr(50),
			})
		},
	}, false)

	if !result.Success || result.PreviewRef == "" {
		errText := result.Error
		if errText == "" {
			errText = "video generation produced no output"
		}
		s.logger.Error("Live announcement failed",
			zap.String("job_id", job.ID), zap.String("error", errText))
		s.transition(ctx, job.ID, store.StatusUpdate{
			Status:    domain.JobStatusError,
			Message:   "Announcement failed",
			ErrorText: &errText,
		})
		return
	}

	s.transition(ctx, job.ID, store.StatusUpdate{
		Status:   domain.JobStatusCompleted,
		Message:  "Announcement ready",
		Progress: intPtr(100),
		VideoRef: &result.PreviewRef,
	})
	s.logger.Info("Live announcement completed",
		zap.String("job_id", job.ID),
		zap.String("video", result.PreviewRef),
	)
}

// transition persists one status change and publishes it. A job that was
// deleted mid-flight just stops emitting events.
func (s *Service) transition(ctx context.Context, id string, update store.StatusUpdate) {
	job, err := s.store.UpdateStatus(ctx, id, update)
	if err != nil {
		s.logger.Error("Failed to persist live job status",
			zap.String("job_id", id), zap.String("status", string(update.Status)), zap.Error(err))
		return
	}
	if job == nil {
		return
	}

	event := domain.StatusEvent{
		JobID:     job.ID,
		Status:    job.Status,
		Message:   job.Message,
		Progress:  job.Progress,
		VideoRef:  job.VideoRef,
		Error:     job.ErrorText,
		UpdatedAt: job.UpdatedAt,
	}
	s.publisher.Publish(event)
}

func intPtr(v int) *int { return &v }
