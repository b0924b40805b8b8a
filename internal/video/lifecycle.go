package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/railsign/isl-announce-go/internal/domain"
	apperrors "github.com/railsign/isl-announce-go/pkg/errors"
)

// BuildFunc writes a finished video at outputPath and reports its duration.
type BuildFunc func(ctx context.Context, outputPath string) (float64, error)

// Manager owns the staging-to-permanent lifecycle of generated videos.
// Staging files are keyed by UUID so concurrent generations never collide;
// promotion moves (never copies) the staging file into per-user durable
// storage.
type Manager struct {
	stagingDir   string
	permanentDir string
	logger       *zap.Logger

	now func() time.Time
}

func NewManager(stagingDir, permanentDir string, logger *zap.Logger) (*Manager, error) {
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}
	if err := os.MkdirAll(permanentDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create permanent dir: %w", err)
	}
	return &Manager{
		stagingDir:   stagingDir,
		permanentDir: permanentDir,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// CreateTemporary allocates a fresh identifier, invokes build against the
// staging path for that identifier and returns the id, path and duration.
// The staging file is removed again when build fails.
func (m *Manager) CreateTemporary(ctx context.Context, build BuildFunc) (string, string, float64, error) {
	id := uuid.NewString()
	path := m.TemporaryPath(id)

	duration, err := build(ctx, path)
	if err != nil {
		os.Remove(path)
		return "", "", 0, err
	}

	m.logger.Info("Temporary video created",
		zap.String("id", id),
		zap.Float64("duration", duration),
	)
	return id, path, duration, nil
}

// TemporaryPath returns the staging location for an identifier. The file may
// or may not exist.
func (m *Manager) TemporaryPath(id string) string {
	return filepath.Join(m.stagingDir, id+".mp4")
}

// OpenTemporary opens the staging file for reading. Covers both "never
// created" and "already promoted or cleaned up" with the same not-found.
func (m *Manager) OpenTemporary(id string) (*os.File, error) {
	f, err := os.Open(m.TemporaryPath(id))
	if err != nil {
		return nil, apperrors.NewNotFoundError("preview video not found or expired", "temp_video", id)
	}
	return f, nil
}

// Promote moves the staging file into the user's permanent directory under a
// timestamped filename carrying the first 8 characters of the id. The move
// consumes the staging file, so a second promotion of the same id fails with
// not-found.
func (m *Manager) Promote(id string, userID int) (domain.AssetRef, string, error) {
	src := m.TemporaryPath(id)
	if _, err := os.Stat(src); err != nil {
		return domain.AssetRef{}, "", apperrors.NewNotFoundError("temporary video not found or expired", "temp_video", id)
	}

	userDir := filepath.Join(m.permanentDir, fmt.Sprintf("user_%d", userID))
	if err := os.MkdirAll(userDir, 0755); err != nil {
		return domain.AssetRef{}, "", apperrors.NewStoreError("failed to create user directory", "promote", err)
	}

	shortID := id
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	filename := fmt.Sprintf("isl_video_%s_%s.mp4", m.now().Format("20060102_150405"), shortID)
	dst := filepath.Join(userDir, filename)

	if err := os.Rename(src, dst); err != nil {
		return domain.AssetRef{}, "", apperrors.NewStoreError("failed to move video to permanent storage", "promote", err)
	}

	m.logger.Info("Video promoted",
		zap.String("id", id),
		zap.Int("user_id", userID),
		zap.String("filename", filename),
	)
	return domain.NewAPIServedRef(userID, filename), filename, nil
}

// Cleanup deletes the staging file if present and reports whether a file was
// actually removed. Already-gone is a no-op, not an error.
func (m *Manager) Cleanup(id string) bool {
	path := m.TemporaryPath(id)
	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("Failed to clean up temporary video", zap.String("id", id), zap.Error(err))
		}
		return false
	}
	m.logger.Info("Temporary video removed", zap.String("id", id))
	return true
}

// SweepAll deletes every staged video and returns the count removed.
func (m *Manager) SweepAll() int {
	return m.sweep(func(os.FileInfo) bool { return true })
}

// SweepOlderThan deletes staged videos whose mtime is older than maxAge.
func (m *Manager) SweepOlderThan(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)
	return m.sweep(func(info os.FileInfo) bool {
		return info.ModTime().Before(cutoff)
	})
}

func (m *Manager) sweep(stale func(os.FileInfo) bool) int {
	matches, err := filepath.Glob(filepath.Join(m.stagingDir, "*.mp4"))
	if err != nil {
		m.logger.Error("Staging sweep failed", zap.Error(err))
		return 0
	}

	deleted := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !stale(info) {
			continue
		}
		if err := os.Remove(path); err != nil {
			m.logger.Warn("Failed to delete staged video", zap.String("path", path), zap.Error(err))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		m.logger.Info("Staging sweep completed", zap.Int("deleted", deleted))
	}
	return deleted
}

// StartJanitor sweeps stale staging files on an interval until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.SweepOlderThan(maxAge)
			}
		}
	}()
}
