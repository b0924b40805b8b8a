package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/railsign/isl-announce-go/pkg/errors"
)

type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// Concatenator joins resolved sign clips into one video via ffmpeg's concat
// demuxer with stream copy. Stream copy keeps the clips' frame timing intact
// and requires the whole asset library to share codec parameters; that
// constraint is owned by the library, not validated here.
type Concatenator struct {
	ffmpegBin     string
	ffprobeBin    string
	concatTimeout time.Duration
	probeTimeout  time.Duration
	runner        commandRunner
	logger        *zap.Logger
}

func NewConcatenator(ffmpegBin, ffprobeBin string, concatTimeout, probeTimeout time.Duration, logger *zap.Logger) *Concatenator {
	return &Concatenator{
		ffmpegBin:     ffmpegBin,
		ffprobeBin:    ffprobeBin,
		concatTimeout: concatTimeout,
		probeTimeout:  probeTimeout,
		runner:        execRunner{},
		logger:        logger,
	}
}

// Concat writes the ordered inputs to outputPath and returns the probed
// duration of the result. A single input is copied byte-for-byte. On any
// failure no half-written output is left behind.
func (c *Concatenator) Concat(ctx context.Context, inputs []string, outputPath string) (float64, error) {
	if len(inputs) == 0 {
		return 0, apperrors.NewValidationError("no clips to concatenate", "inputs", nil)
	}

	if len(inputs) == 1 {
		if err := copyFile(inputs[0], outputPath); err != nil {
			return 0, apperrors.NewConcatError("failed to copy single clip", "", err)
		}
		return c.Probe(ctx, inputs[0]), nil
	}

	manifestPath := strings.TrimSuffix(outputPath, ".mp4") + "_filelist.txt"
	if err := writeConcatManifest(manifestPath, inputs); err != nil {
		return 0, apperrors.NewConcatError("failed to write concat manifest", "", err)
	}
	defer os.Remove(manifestPath)

	runCtx, cancel := context.WithTimeout(ctx, c.concatTimeout)
	defer cancel()

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		"-y",
		outputPath,
	}

	c.logger.Info("Starting clip concatenation",
		zap.Int("clips", len(inputs)),
		zap.String("output", outputPath),
	)

	result, err := c.runner.Run(runCtx, c.ffmpegBin, args...)
	if err != nil {
		os.Remove(outputPath)
		if runCtx.Err() == context.DeadlineExceeded {
			c.logger.Error("Concatenation timed out", zap.Duration("timeout", c.concatTimeout))
			return 0, apperrors.NewConcatTimeoutError("video processing timed out", err)
		}
		c.logger.Error("Concatenation failed",
			zap.Int("exit_code", result.ExitCode),
			zap.String("stderr", truncate(result.Stderr, 500)),
		)
		return 0, apperrors.NewConcatError(
			fmt.Sprintf("ffmpeg concatenation failed (exit %d)", result.ExitCode), result.Stderr, err)
	}

	return c.Probe(ctx, outputPath), nil
}

// Probe returns the media duration in seconds. Duration is advisory
// metadata, so every failure maps to 0.0 rather than an error.
func (c *Concatenator) Probe(ctx context.Context, path string) float64 {
	runCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	args := []string{
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	}

	result, err := c.runner.Run(runCtx, c.ffprobeBin, args...)
	if err != nil {
		c.logger.Warn("Could not probe duration", zap.String("path", path), zap.Error(err))
		return 0.0
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(result.Stdout), 64)
	if err != nil {
		c.logger.Warn("Unparseable duration output",
			zap.String("path", path),
			zap.String("stdout", truncate(result.Stdout, 100)),
		)
		return 0.0
	}
	return duration
}

// writeConcatManifest emits the demuxer file list, one "file '<path>'" line
// per clip. Single quotes in paths are escaped so they cannot break the
// manifest syntax.
func writeConcatManifest(path string, inputs []string) error {
	var buf bytes.Buffer
	for _, input := range inputs {
		escaped := strings.ReplaceAll(input, "'", `'"'"'`)
		fmt.Fprintf(&buf, "file '%s'\n", escaped)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
