package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/shutter/internal/capture"
	"github.com/hpungsan/shutter/internal/config"
	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/library"
	"github.com/hpungsan/shutter/internal/settings"
)

// Capturer takes a fullscreen capture.
type Capturer interface {
	CaptureFullscreen(ctx context.Context, req capture.FullscreenRequest) (*capture.Result, error)
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	capturer Capturer
}

// NewHandlers creates a new Handlers instance. capturer may be nil, in
// which case screenshot_capture reports an error.
func NewHandlers(db *sql.DB, cfg *config.Config, capturer Capturer) *Handlers {
	return &Handlers{db: db, cfg: cfg, capturer: capturer}
}

// Request types for each tool

// ListRequest represents the arguments for screenshot_list.
type ListRequest struct {
	AfterID int64 `json:"after_id,omitempty"`
}

// IDRequest represents the arguments for tools addressing one screenshot.
type IDRequest struct {
	ID int64 `json:"id"`
}

// RenameRequest represents the arguments for screenshot_rename.
type RenameRequest struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// SimilarRequest represents the arguments for screenshot_similar.
type SimilarRequest struct {
	ID          int64 `json:"id"`
	MaxDistance *int  `json:"max_distance,omitempty"`
	Limit       int   `json:"limit,omitempty"`
}

// SaveAsRequest represents the arguments for screenshot_save_as.
type SaveAsRequest struct {
	ID   int64  `json:"id"`
	Dest string `json:"dest"`
}

// CaptureRequest represents the arguments for screenshot_capture.
type CaptureRequest struct {
	DisplayID string `json:"display_id,omitempty"`
}

// SettingsSetRequest represents the arguments for settings_set.
type SettingsSetRequest struct {
	SaveDirectory *string `json:"save_directory,omitempty"`
	FontSize      *int    `json:"font_size,omitempty"`
}

func requireID(id int64) error {
	if id <= 0 {
		return errors.NewInvalidRequest("id is required")
	}
	return nil
}

// Handler implementations

// HandleList handles the screenshot_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	var result *library.ListOutput
	if input.AfterID > 0 {
		result, err = library.ListNewer(ctx, h.db, input.AfterID)
	} else {
		result, err = library.List(ctx, h.db)
	}
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGet handles the screenshot_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if err := requireID(input.ID); err != nil {
		return errorResult(err), nil
	}

	result, err := library.Get(ctx, h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the screenshot_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if err := requireID(input.ID); err != nil {
		return errorResult(err), nil
	}

	result, err := library.Delete(ctx, h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRename handles the screenshot_rename tool call.
func (h *Handlers) HandleRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenameRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if err := requireID(input.ID); err != nil {
		return errorResult(err), nil
	}

	result, err := library.Rename(ctx, h.db, library.RenameInput{ID: input.ID, Title: input.Title})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSimilar handles the screenshot_similar tool call.
func (h *Handlers) HandleSimilar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SimilarRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if err := requireID(input.ID); err != nil {
		return errorResult(err), nil
	}

	result, err := library.Similar(ctx, h.db, library.SimilarInput{
		ID:          input.ID,
		MaxDistance: input.MaxDistance,
		Limit:       input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSaveAs handles the screenshot_save_as tool call.
func (h *Handlers) HandleSaveAs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveAsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if err := requireID(input.ID); err != nil {
		return errorResult(err), nil
	}

	result, err := library.SaveAs(ctx, h.db, library.SaveAsInput{ID: input.ID, Dest: input.Dest})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCapture handles the screenshot_capture tool call.
func (h *Handlers) HandleCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if h.capturer == nil {
		return errorResult(errors.NewInvalidRequest("capture is not available in this process")), nil
	}

	result, err := h.capturer.CaptureFullscreen(ctx, capture.FullscreenRequest{DisplayID: input.DisplayID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSettingsGet handles the settings_get tool call.
func (h *Handlers) HandleSettingsGet(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := settings.Get(ctx, h.db, h.cfg.SaveDirectory)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSettingsSet handles the settings_set tool call.
func (h *Handlers) HandleSettingsSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SettingsSetRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	values := make(map[string]string)
	if input.SaveDirectory != nil {
		values[settings.KeySaveDirectory] = *input.SaveDirectory
	}
	if input.FontSize != nil {
		values[settings.KeyFontSize] = strconv.Itoa(*input.FontSize)
	}
	if err := settings.Set(ctx, h.db, values); err != nil {
		return errorResult(err), nil
	}

	result, err := settings.Get(ctx, h.db, h.cfg.SaveDirectory)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var sErr *errors.ShutterError
	if stderrors.As(err, &sErr) {
		message := sErr.Message
		// Keep wrapper context such as "capture: ..."
		if prefix := strings.TrimSuffix(err.Error(), sErr.Error()); prefix != err.Error() && prefix != "" {
			message = prefix + message
		}
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": message,
			"status":  sErr.Status,
		}
		if sErr.Code != errors.ErrInternal && sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
