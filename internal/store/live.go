package store

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/railsign/isl-announce-go/internal/domain"
	"github.com/railsign/isl-announce-go/internal/service/database"
	apperrors "github.com/railsign/isl-announce-go/pkg/errors"
)

// LiveJobStore persists live-announcement jobs and their status history.
type LiveJobStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewLiveJobStore(postgres *database.PostgresService, logger *zap.Logger) *LiveJobStore {
	return &LiveJobStore{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

// Create inserts a new active job in received state.
func (s *LiveJobStore) Create(ctx context.Context, job *domain.LiveJob) error {
	query := `
		INSERT INTO live_announcements
			(announcement_id, train_number, train_name, from_station, to_station,
			 platform_number, announcement_category, avatar_model, status, message, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
		RETURNING received_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		job.ID, job.TrainNumber, job.TrainName, job.FromStation, job.ToStation,
		job.Platform, job.Category, string(job.Avatar), string(job.Status), job.Message,
	).Scan(&job.ReceivedAt, &job.UpdatedAt)
	if err != nil {
		return apperrors.NewStoreError("failed to create live job", "create", err)
	}
	job.Active = true
	return nil
}

// DeactivateAll marks every active job inactive and returns how many were
// superseded.
func (s *LiveJobStore) DeactivateAll(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE live_announcements SET is_active = FALSE, updated_at = NOW() WHERE is_active = TRUE`)
	if err != nil {
		return 0, apperrors.NewStoreError("failed to deactivate live jobs", "deactivate_all", err)
	}
	count, _ := result.RowsAffected()
	if count > 0 {
		s.logger.Info("Superseded live announcements", zap.Int64("count", count))
	}
	return count, nil
}

// StatusUpdate carries the mutable fields of one transition. Nil fields are
// left untouched.
type StatusUpdate struct {
	Status    domain.JobStatus
	Message   string
	Progress  *int
	VideoRef  *string
	ErrorText *string
}

// UpdateStatus applies a transition and returns the refreshed job, or nil
// when the job no longer exists.
func (s *LiveJobStore) UpdateStatus(ctx context.Context, id string, update StatusUpdate) (*domain.LiveJob, error) {
	query := `
		UPDATE live_announcements
		SET status = $2,
		    message = $3,
		    progress_percentage = COALESCE($4, progress_percentage),
		    video_url = COALESCE($5, video_url),
		    error_message = COALESCE($6, error_message),
		    updated_at = NOW()
		WHERE announcement_id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		id, string(update.Status), update.Message, update.Progress, update.VideoRef, update.ErrorText)
	if err != nil {
		return nil, apperrors.NewStoreError("failed to update live job status", "update_status", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		s.logger.Warn("Live job missing for status update", zap.String("job_id", id))
		return nil, nil
	}
	return s.Get(ctx, id)
}

// Get returns a job by id regardless of active flag, or nil when absent.
func (s *LiveJobStore) Get(ctx context.Context, id string) (*domain.LiveJob, error) {
	query := liveJobSelect + ` WHERE announcement_id = $1 LIMIT 1`
	job, err := s.scanOne(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, apperrors.NewStoreError("failed to query live job", "get", err)
	}
	return job, nil
}

// GetActive lists all jobs still marked active.
func (s *LiveJobStore) GetActive(ctx context.Context) ([]*domain.LiveJob, error) {
	query := liveJobSelect + ` WHERE is_active = TRUE ORDER BY received_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewStoreError("failed to query active live jobs", "get_active", err)
	}
	defer rows.Close()

	var jobs []*domain.LiveJob
	for rows.Next() {
		job, err := scanLiveJob(rows)
		if err != nil {
			return nil, apperrors.NewStoreError("failed to scan live job", "get_active", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

const liveJobSelect = `
	SELECT announcement_id, train_number, train_name, from_station, to_station,
	       platform_number, announcement_category, avatar_model, status, message,
	       progress_percentage, COALESCE(video_url, ''), COALESCE(error_message, ''),
	       is_active, received_at, updated_at
	FROM live_announcements`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *LiveJobStore) scanOne(row *sql.Row) (*domain.LiveJob, error) {
	job, err := scanLiveJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

func scanLiveJob(row rowScanner) (*domain.LiveJob, error) {
	var (
		job    domain.LiveJob
		avatar string
		status string
	)
	err := row.Scan(
		&job.ID, &job.TrainNumber, &job.TrainName, &job.FromStation, &job.ToStation,
		&job.Platform, &job.Category, &avatar, &status, &job.Message,
		&job.Progress, &job.VideoRef, &job.ErrorText,
		&job.Active, &job.ReceivedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Avatar = domain.Avatar(avatar)
	job.Status = domain.JobStatus(status)
	return &job, nil
}
