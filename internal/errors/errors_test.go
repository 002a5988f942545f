package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestShutterError_Error(t *testing.T) {
	err := &ShutterError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "screenshot not found: 7",
	}

	expected := "NOT_FOUND: screenshot not found: 7"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("title is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "title is required" {
		t.Errorf("Message = %q, want %q", err.Message, "title is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound(42)

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["id"] != int64(42) {
		t.Errorf("Details[id] = %v, want 42", err.Details["id"])
	}
}

func TestNewInvalidRegion(t *testing.T) {
	err := NewInvalidRegion(190, 10, 20, 20, 200, 200)

	if err.Code != ErrInvalidRegion {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRegion)
	}
	if err.Status != 422 {
		t.Errorf("Status = %d, want 422", err.Status)
	}
	if err.Details["image_width"] != 200 {
		t.Errorf("Details[image_width] = %v, want 200", err.Details["image_width"])
	}
}

func TestNewPersistenceFailure_Unwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewPersistenceFailure("write file", cause)

	if !stderrors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
	if err.Details["stage"] != "write file" {
		t.Errorf("Details[stage] = %v, want %q", err.Details["stage"], "write file")
	}
}

func TestNewMigrationFailure(t *testing.T) {
	err := NewMigrationFailure(2, fmt.Errorf("no such table"))

	if err.Code != ErrMigrationFailure {
		t.Errorf("Code = %q, want %q", err.Code, ErrMigrationFailure)
	}
	if err.Details["version"] != 2 {
		t.Errorf("Details[version] = %v, want 2", err.Details["version"])
	}
}

func TestNewInternal_NilError(t *testing.T) {
	err := NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching code", NewCaptureInProgress(), ErrCaptureInProgress, true},
		{"different code", NewCaptureInProgress(), ErrNotFound, false},
		{"wrapped", fmt.Errorf("capture: %w", NewPermissionDenied("denied")), ErrPermissionDenied, true},
		{"plain error", fmt.Errorf("boom"), ErrInternal, false},
		{"nil", nil, ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAs(t *testing.T) {
	if got := As(NewSourceNotFound("1", nil)); got.Code != ErrSourceNotFound {
		t.Errorf("As() code = %q, want %q", got.Code, ErrSourceNotFound)
	}
	if got := As(fmt.Errorf("boom")); got.Code != ErrInternal {
		t.Errorf("As() code = %q, want %q", got.Code, ErrInternal)
	}
}

func TestNewFileNotFound(t *testing.T) {
	err := NewFileNotFound("/pics/a.png")

	if err.Code != ErrFileNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrFileNotFound)
	}
	if err.Details["path"] != "/pics/a.png" {
		t.Errorf("Details[path] = %v, want %q", err.Details["path"], "/pics/a.png")
	}
}
