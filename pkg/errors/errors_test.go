package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewValidationError("bad", "field", "v")); got != CodeValidation {
		t.Errorf("CodeOf = %s, want %s", got, CodeValidation)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeService {
		t.Errorf("CodeOf(plain) = %s, want %s", got, CodeService)
	}

	wrapped := fmt.Errorf("outer: %w", NewNotFoundError("gone", "video", "abc"))
	if got := CodeOf(wrapped); got != CodeNotFound {
		t.Errorf("CodeOf(wrapped) = %s, want %s", got, CodeNotFound)
	}
}

func TestCodeOfReachesEmbeddedCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", NewValidationError("bad", "text", ""), CodeValidation},
		{"not found", NewNotFoundError("gone", "temp_video", "abc"), CodeNotFound},
		{"concat", NewConcatError("ffmpeg failed", "stderr", nil), CodeConcat},
		{"concat timeout", NewConcatTimeoutError("timed out", nil), CodeConcatTimeout},
		{"cache", NewCacheError("get failed", "get", "k", nil), CodeCache},
		{"store", NewStoreError("insert failed", "create", nil), CodeStore},
		{"service", NewServiceError("request failed", "gemini", "transcribe", nil), CodeService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf = %s, want %s", got, tt.want)
			}
			if !Is(tt.err, tt.want) {
				t.Errorf("Is(err, %s) = false", tt.want)
			}
		})
	}
}

func TestConcatErrorCarriesStderr(t *testing.T) {
	err := NewConcatError("ffmpeg concatenation failed (exit 1)", "moov atom not found", stderrors.New("exit status 1"))
	if err.Stderr != "moov atom not found" {
		t.Errorf("stderr = %q", err.Stderr)
	}
	if err.StatusCode != 500 {
		t.Errorf("status = %d, want 500", err.StatusCode)
	}

	timeout := NewConcatTimeoutError("video processing timed out", nil)
	if timeout.Code != CodeConcatTimeout || timeout.StatusCode != 504 {
		t.Errorf("timeout = %s/%d, want %s/504", timeout.Code, timeout.StatusCode, CodeConcatTimeout)
	}
}

func TestClassifyExternalSniffsOpaqueErrors(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"googleapi: Error 429: Quota exceeded for requests", CodeQuotaExceeded},
		{"rate limit reached for requests", CodeQuotaExceeded},
		{"API key not valid. Please pass a valid API key.", CodeAuth},
		{"permission denied on resource", CodeAuth},
		{"invalid audio data in request", CodeCorruptInput},
		{"unsupported format: webm", CodeCorruptInput},
		{"connection reset by peer", CodeService},
	}

	for _, tt := range tests {
		got := ClassifyExternal("gemini", "transcribe", stderrors.New(tt.message))
		if got.Code != tt.want {
			t.Errorf("ClassifyExternal(%q) = %s, want %s", tt.message, got.Code, tt.want)
		}
		if got.Service != "gemini" || got.Operation != "transcribe" {
			t.Errorf("service/operation not carried: %+v", got)
		}
	}
}

func TestClassifyExternalKeepsExistingCodes(t *testing.T) {
	inner := New("quota exhausted upstream", CodeQuotaExceeded, 429, nil)
	got := ClassifyExternal("whisper", "transcribe", inner)
	if got.Code != CodeQuotaExceeded {
		t.Errorf("code = %s, want existing %s preserved", got.Code, CodeQuotaExceeded)
	}

	if ClassifyExternal("x", "y", nil) != nil {
		t.Error("nil error must classify to nil")
	}
}

func TestUnwrapChain(t *testing.T) {
	cause := stderrors.New("root cause")
	err := NewStoreError("failed to create announcement", "create", cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is must reach the cause through the chain")
	}
}
