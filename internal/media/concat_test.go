package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/railsign/isl-announce-go/pkg/errors"
)

type fakeRunner struct {
	calls   []fakeCall
	results map[string]commandResult
	errs    map[string]error
	onRun   func(name string, args []string)
}

type fakeCall struct {
	Name string
	Args []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (commandResult, error) {
	f.calls = append(f.calls, fakeCall{Name: name, Args: args})
	if f.onRun != nil {
		f.onRun(name, args)
	}
	return f.results[name], f.errs[name]
}

func newTestConcatenator(runner commandRunner) *Concatenator {
	c := NewConcatenator("ffmpeg", "ffprobe", time.Minute, 10*time.Second, zap.NewNop())
	c.runner = runner
	return c
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestConcatSingleClipCopies(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.mp4")
	out := filepath.Join(dir, "out.mp4")
	writeFile(t, src, "clip-bytes")

	runner := &fakeRunner{results: map[string]commandResult{
		"ffprobe": {Stdout: "2.5\n"},
	}}
	c := newTestConcatenator(runner)

	duration, err := c.Concat(context.Background(), []string{src}, out)
	if err != nil {
		t.Fatalf("Concat error: %v", err)
	}
	if duration != 2.5 {
		t.Errorf("duration = %v, want 2.5", duration)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "clip-bytes" {
		t.Errorf("output = %q, want byte-identical copy", data)
	}
	for _, call := range runner.calls {
		if call.Name == "ffmpeg" {
			t.Error("single clip must not invoke ffmpeg")
		}
	}
}

func TestConcatMultipleClipsBuildsManifest(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")
	inputs := []string{
		filepath.Join(dir, "a.mp4"),
		filepath.Join(dir, "it's.mp4"),
	}

	var manifestContent string
	runner := &fakeRunner{
		results: map[string]commandResult{"ffprobe": {Stdout: "5.0"}},
		onRun: func(name string, args []string) {
			if name != "ffmpeg" {
				return
			}
			for i, arg := range args {
				if arg == "-i" && i+1 < len(args) {
					data, err := os.ReadFile(args[i+1])
					if err != nil {
						t.Errorf("manifest unreadable during run: %v", err)
						return
					}
					manifestContent = string(data)
				}
			}
		},
	}
	c := newTestConcatenator(runner)

	duration, err := c.Concat(context.Background(), inputs, out)
	if err != nil {
		t.Fatalf("Concat error: %v", err)
	}
	if duration != 5.0 {
		t.Errorf("duration = %v, want 5.0", duration)
	}

	wantLines := []string{
		"file '" + inputs[0] + "'",
		"file '" + strings.ReplaceAll(inputs[1], "'", `'"'"'`) + "'",
	}
	for _, line := range wantLines {
		if !strings.Contains(manifestContent, line) {
			t.Errorf("manifest missing line %q, got:\n%s", line, manifestContent)
		}
	}

	var ffmpegArgs []string
	for _, call := range runner.calls {
		if call.Name == "ffmpeg" {
			ffmpegArgs = call.Args
		}
	}
	joined := strings.Join(ffmpegArgs, " ")
	for _, flag := range []string{"-f concat", "-safe 0", "-c copy", "-y"} {
		if !strings.Contains(joined, flag) {
			t.Errorf("ffmpeg args missing %q: %s", flag, joined)
		}
	}

	manifestPath := strings.TrimSuffix(out, ".mp4") + "_filelist.txt"
	if _, err := os.Stat(manifestPath); !os.IsNotExist(err) {
		t.Error("manifest must be removed after concatenation")
	}
}

func TestConcatFailureRemovesOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")
	inputs := []string{filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4")}

	runner := &fakeRunner{
		results: map[string]commandResult{"ffmpeg": {Stderr: "moov atom not found", ExitCode: 1}},
		errs:    map[string]error{"ffmpeg": errors.New("exit status 1")},
		onRun: func(name string, _ []string) {
			if name == "ffmpeg" {
				writeFile(t, out, "partial")
			}
		},
	}
	c := newTestConcatenator(runner)

	_, err := c.Concat(context.Background(), inputs, out)
	if !apperrors.Is(err, apperrors.CodeConcat) {
		t.Fatalf("code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeConcat)
	}

	var concatErr *apperrors.ConcatError
	if !errors.As(err, &concatErr) {
		t.Fatal("expected *ConcatError")
	}
	if !strings.Contains(concatErr.Stderr, "moov atom") {
		t.Errorf("stderr not captured: %q", concatErr.Stderr)
	}

	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("failed concat must remove the partial output")
	}
}

func TestConcatRejectsEmptyInputs(t *testing.T) {
	c := newTestConcatenator(&fakeRunner{})
	_, err := c.Concat(context.Background(), nil, "out.mp4")
	if !apperrors.Is(err, apperrors.CodeValidation) {
		t.Errorf("code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeValidation)
	}
}

func TestProbeFailuresReturnZero(t *testing.T) {
	tests := []struct {
		name   string
		result commandResult
		err    error
	}{
		{name: "command error", err: errors.New("no such file")},
		{name: "garbage output", result: commandResult{Stdout: "N/A"}},
		{name: "empty output", result: commandResult{Stdout: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{
				results: map[string]commandResult{"ffprobe": tt.result},
				errs:    map[string]error{"ffprobe": tt.err},
			}
			c := newTestConcatenator(runner)
			if got := c.Probe(context.Background(), "x.mp4"); got != 0.0 {
				t.Errorf("Probe = %v, want 0.0", got)
			}
		})
	}
}

func TestProbeParsesDuration(t *testing.T) {
	runner := &fakeRunner{results: map[string]commandResult{"ffprobe": {Stdout: " 12.345 \n"}}}
	c := newTestConcatenator(runner)
	if got := c.Probe(context.Background(), "x.mp4"); got != 12.345 {
		t.Errorf("Probe = %v, want 12.345", got)
	}
}
