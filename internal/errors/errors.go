package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Shutter error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrPermissionDenied   ErrorCode = "PERMISSION_DENIED"   // 403
	ErrSourceNotFound     ErrorCode = "SOURCE_NOT_FOUND"    // 404
	ErrFileNotFound       ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrCaptureInProgress  ErrorCode = "CAPTURE_IN_PROGRESS" // 409
	ErrInvalidRegion      ErrorCode = "INVALID_REGION"      // 422
	ErrPersistenceFailure ErrorCode = "PERSISTENCE_FAILURE" // 500
	ErrMigrationFailure   ErrorCode = "MIGRATION_FAILURE"   // 500
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// ShutterError represents a structured error with code, status, and details.
type ShutterError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *ShutterError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *ShutterError) Unwrap() error {
	return e.Err
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ShutterError {
	return &ShutterError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a screenshot cannot be found.
func NewNotFound(id int64) *ShutterError {
	return &ShutterError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("screenshot not found: %d", id),
		Details: map[string]any{"id": id},
	}
}

// NewPermissionDenied creates a 403 error when screen-capture consent is missing.
func NewPermissionDenied(status string) *ShutterError {
	return &ShutterError{
		Code:    ErrPermissionDenied,
		Status:  403,
		Message: fmt.Sprintf("screen capture permission not granted (status %q)", status),
		Details: map[string]any{"status": status},
	}
}

// NewSourceNotFound creates a 404 error when no capture source matches a display.
func NewSourceNotFound(displayID string, cause error) *ShutterError {
	return &ShutterError{
		Code:    ErrSourceNotFound,
		Status:  404,
		Message: fmt.Sprintf("no capture source for display %q", displayID),
		Details: map[string]any{"display_id": displayID},
		Err:     cause,
	}
}

// NewFileNotFound creates a 404 error when a screenshot's backing file is gone.
func NewFileNotFound(path string) *ShutterError {
	return &ShutterError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewCaptureInProgress creates a 409 error when a capture is already running.
func NewCaptureInProgress() *ShutterError {
	return &ShutterError{
		Code:    ErrCaptureInProgress,
		Status:  409,
		Message: "another capture is already in progress",
	}
}

// NewInvalidRegion creates a 422 error for a crop rectangle outside the image.
func NewInvalidRegion(x, y, width, height, imgWidth, imgHeight int) *ShutterError {
	return &ShutterError{
		Code:   ErrInvalidRegion,
		Status: 422,
		Message: fmt.Sprintf("crop %dx%d at (%d,%d) does not fit a %dx%d image",
			width, height, x, y, imgWidth, imgHeight),
		Details: map[string]any{
			"x": x, "y": y, "width": width, "height": height,
			"image_width": imgWidth, "image_height": imgHeight,
		},
	}
}

// NewInvalidSelection creates a 422 error for a selection that cannot be
// mapped to pixels at all (non-finite or absurdly large values).
func NewInvalidSelection(reason string) *ShutterError {
	return &ShutterError{
		Code:    ErrInvalidRegion,
		Status:  422,
		Message: "invalid selection: " + reason,
		Details: map[string]any{"reason": reason},
	}
}

// NewPersistenceFailure wraps a file or database write failure.
func NewPersistenceFailure(stage string, err error) *ShutterError {
	return &ShutterError{
		Code:    ErrPersistenceFailure,
		Status:  500,
		Message: fmt.Sprintf("%s failed: %v", stage, err),
		Details: map[string]any{"stage": stage},
		Err:     err,
	}
}

// NewMigrationFailure wraps a failed schema migration step.
func NewMigrationFailure(version int, err error) *ShutterError {
	return &ShutterError{
		Code:    ErrMigrationFailure,
		Status:  500,
		Message: fmt.Sprintf("migration %d failed: %v", version, err),
		Details: map[string]any{"version": version},
		Err:     err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ShutterError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ShutterError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// Is checks if an error is (or wraps) a ShutterError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *ShutterError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// As returns the ShutterError in err's chain, or wraps err as INTERNAL.
func As(err error) *ShutterError {
	var sErr *ShutterError
	if stderrors.As(err, &sErr) {
		return sErr
	}
	return NewInternal(err)
}
