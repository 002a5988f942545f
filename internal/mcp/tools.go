package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listToolDef = mcp.NewTool("screenshot_list",
	mcp.WithDescription("List stored screenshots, newest first. Pass after_id to get only captures newer than that id."),
	mcp.WithNumber("after_id", mcp.Description("Only return screenshots with an id greater than this"), mcp.Min(0)),
	mcp.WithReadOnlyHintAnnotation(true),
)

var getToolDef = mcp.NewTool("screenshot_get",
	mcp.WithDescription("Get one screenshot's metadata: file path, size in pixels and bytes, title and capture time."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Screenshot id"), mcp.Min(1)),
	mcp.WithReadOnlyHintAnnotation(true),
)

var deleteToolDef = mcp.NewTool("screenshot_delete",
	mcp.WithDescription("Delete a screenshot and its PNG file. A file that is already gone is not an error."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Screenshot id"), mcp.Min(1)),
	mcp.WithDestructiveHintAnnotation(true),
)

var renameToolDef = mcp.NewTool("screenshot_rename",
	mcp.WithDescription("Set a screenshot's title and rename its file after it. An empty title clears it."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Screenshot id"), mcp.Min(1)),
	mcp.WithString("title", mcp.Description("New title; empty clears the title")),
)

var similarToolDef = mcp.NewTool("screenshot_similar",
	mcp.WithDescription("Find near-duplicate screenshots by perceptual hash distance."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Screenshot id to compare against"), mcp.Min(1)),
	mcp.WithNumber("max_distance", mcp.Description("Largest Hamming distance to report (default 10)"), mcp.Min(0), mcp.Max(64)),
	mcp.WithNumber("limit", mcp.Description("Maximum matches to return"), mcp.Min(0)),
	mcp.WithReadOnlyHintAnnotation(true),
)

var saveAsToolDef = mcp.NewTool("screenshot_save_as",
	mcp.WithDescription("Copy a screenshot's PNG to another path. Existing files are not overwritten."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Screenshot id"), mcp.Min(1)),
	mcp.WithString("dest", mcp.Required(), mcp.Description("Absolute destination path")),
)

var captureToolDef = mcp.NewTool("screenshot_capture",
	mcp.WithDescription("Capture a whole display, save it as a PNG and copy it to the clipboard."),
	mcp.WithString("display_id", mcp.Description("Display to capture; defaults to the display under the cursor")),
)

var settingsGetToolDef = mcp.NewTool("settings_get",
	mcp.WithDescription("Read the current save directory and font size."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var settingsSetToolDef = mcp.NewTool("settings_set",
	mcp.WithDescription("Update settings. Only the provided keys change; nothing is written if any value is invalid."),
	mcp.WithString("save_directory", mcp.Description("Absolute directory new captures are written to")),
	mcp.WithNumber("font_size", mcp.Description("UI font size between 8 and 72"), mcp.Min(8), mcp.Max(72)),
	mcp.WithIdempotentHintAnnotation(true),
)
