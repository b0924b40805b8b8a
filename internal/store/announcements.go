package store

import (
	"context"
	"database/sql"
	"os"

	"go.uber.org/zap"

	"github.com/railsign/isl-announce-go/internal/domain"
	"github.com/railsign/isl-announce-go/internal/service/database"
	apperrors "github.com/railsign/isl-announce-go/pkg/errors"
)

// AnnouncementStore persists general-announcement records. Video references
// are stored with their kind tag so deletion never has to guess how a path
// should be interpreted.
type AnnouncementStore struct {
	db           *sql.DB
	stagingDir   string
	permanentDir string
	logger       *zap.Logger
}

func NewAnnouncementStore(postgres *database.PostgresService, stagingDir, permanentDir string, logger *zap.Logger) *AnnouncementStore {
	return &AnnouncementStore{
		db:           postgres.GetDB(),
		stagingDir:   stagingDir,
		permanentDir: permanentDir,
		logger:       logger,
	}
}

// Create inserts a record and returns it with its assigned id.
func (s *AnnouncementStore) Create(ctx context.Context, a *domain.Announcement) (*domain.Announcement, error) {
	query := `
		INSERT INTO general_announcements
			(announcement_name, category, avatar_model,
			 announcement_text_english, announcement_text_hindi,
			 announcement_text_marathi, announcement_text_gujarati)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	created := *a
	err := s.db.QueryRowContext(ctx, query,
		a.Name, a.Category, string(a.Avatar),
		a.TextEnglish, a.TextHindi, a.TextMarathi, a.TextGujarati,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, apperrors.NewStoreError("failed to create announcement", "create", err)
	}

	s.logger.Info("Announcement record created",
		zap.Int64("id", created.ID),
		zap.String("category", created.Category),
	)
	return &created, nil
}

// UpdateVideoRef records the generated video reference on an announcement.
func (s *AnnouncementStore) UpdateVideoRef(ctx context.Context, id int64, ref domain.AssetRef) error {
	query := `
		UPDATE general_announcements
		SET video_ref_kind = $2, video_ref_value = $3, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := s.db.ExecContext(ctx, query, id, string(ref.Kind), ref.Value); err != nil {
		return apperrors.NewStoreError("failed to update video reference", "update_video_ref", err)
	}
	return nil
}

// Get returns a record by id, or nil when absent.
func (s *AnnouncementStore) Get(ctx context.Context, id int64) (*domain.Announcement, error) {
	query := `
		SELECT id, announcement_name, category, avatar_model,
		       announcement_text_english, announcement_text_hindi,
		       announcement_text_marathi, announcement_text_gujarati,
		       COALESCE(video_ref_kind, ''), COALESCE(video_ref_value, ''),
		       created_at, updated_at
		FROM general_announcements
		WHERE id = $1
		LIMIT 1
	`

	var (
		a        domain.Announcement
		avatar   string
		refKind  string
		refValue string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Name, &a.Category, &avatar,
		&a.TextEnglish, &a.TextHindi, &a.TextMarathi, &a.TextGujarati,
		&refKind, &refValue,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreError("failed to query announcement", "get", err)
	}

	a.Avatar = domain.Avatar(avatar)
	if refValue != "" {
		ref := domain.AssetRef{Kind: domain.AssetRefKind(refKind), Value: refValue}
		if refKind == "" {
			ref = domain.ParseAssetRef(refValue)
		}
		a.VideoRef = &ref
	}
	return &a, nil
}

// Delete removes the record and best-effort deletes its referenced video
// file. A failed file deletion is logged and never blocks record deletion.
func (s *AnnouncementStore) Delete(ctx context.Context, id int64) (bool, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	if existing.VideoRef != nil {
		if path, ok := existing.VideoRef.FilePath(s.stagingDir, s.permanentDir); ok {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("Could not delete announcement video file",
					zap.Int64("id", id),
					zap.String("path", path),
					zap.Error(err),
				)
			}
		}
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM general_announcements WHERE id = $1`, id); err != nil {
		return false, apperrors.NewStoreError("failed to delete announcement", "delete", err)
	}

	s.logger.Info("Announcement record deleted", zap.Int64("id", id))
	return true, nil
}
