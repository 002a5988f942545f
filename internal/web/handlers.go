package web

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/library"
	"github.com/hpungsan/shutter/internal/settings"
)

// Handlers contains HTTP route handlers for the gallery.
type Handlers struct {
	db       *sql.DB
	saveDir  string // fallback save directory
	renderer *Renderer
	about    string // markdown
}

// HandleList handles GET /screenshots — all captures, newest first.
// With ?after=<id> only captures with a larger id are returned.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		result *library.ListOutput
		err    error
	)
	if after := r.URL.Query().Get("after"); after != "" {
		lastID, perr := strconv.ParseInt(after, 10, 64)
		if perr != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("after must be an integer id"))
			return
		}
		result, err = library.ListNewer(r.Context(), h.db, lastID)
	} else {
		result, err = library.List(r.Context(), h.db)
	}
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: h.renderer.page("Screenshots", "screenshots"),
		Items:    result.Items,
		Count:    result.Count,
		Deleted:  parseBoolParam(r, "deleted"),
	})
}

// HandleDetail handles GET /screenshots/{id} — one capture and its near-duplicates.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	shot, err := library.Get(r.Context(), h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, shot)
		return
	}

	data := DetailPageData{
		PageData:    h.renderer.page(shot.DisplayName(), "screenshots"),
		Screenshot:  shot,
		DisplayName: shot.DisplayName(),
	}
	if similar, err := library.Similar(r.Context(), h.db, library.SimilarInput{ID: id, Limit: 6}); err == nil {
		data.Similar = similar.Matches
	}
	if _, err := os.Stat(shot.Filepath); err != nil {
		data.Warning = "The image file is missing from disk."
	}
	h.renderer.renderPage(w, r, "detail", data)
}

// HandleImage handles GET /screenshots/{id}/image — the stored PNG.
func (h *Handlers) HandleImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	shot, err := library.Get(r.Context(), h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	f, err := os.Open(shot.Filepath)
	if err != nil {
		if os.IsNotExist(err) {
			h.renderer.renderError(w, r, errors.NewFileNotFound(shot.Filepath))
			return
		}
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}
	w.Header().Set("Content-Type", shot.Mimetype)
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "", info.ModTime(), f)
}

// HandleDelete handles DELETE /screenshots/{id}. A missing file is not an error.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := library.Delete(r.Context(), h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/screenshots?deleted=1")
		w.WriteHeader(http.StatusOK)
		return
	}

	// JSON request
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/screenshots?deleted=1", http.StatusFound)
}

// HandleRename handles POST /screenshots/{id}/title — set or clear the title.
func (h *Handlers) HandleRename(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	result, err := library.Rename(r.Context(), h.db, library.RenameInput{ID: id, Title: r.FormValue("title")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	target := fmt.Sprintf("/screenshots/%d", id)
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandleSettings handles GET /settings.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	s, err := settings.Get(r.Context(), h.db, h.saveDir)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, s)
		return
	}
	h.renderer.renderPage(w, r, "settings", SettingsPageData{
		PageData: h.renderer.page("Settings", "settings"),
		Settings: s,
		Saved:    parseBoolParam(r, "saved"),
	})
}

// HandleSaveSettings handles POST /settings. Only submitted keys change.
func (h *Handlers) HandleSaveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	values := make(map[string]string)
	for _, key := range settings.Keys() {
		if r.PostForm.Has(key) {
			values[key] = strings.TrimSpace(r.PostForm.Get(key))
		}
	}

	if err := settings.Set(r.Context(), h.db, values); err != nil {
		if wantsJSON(r) || isHTMX(r) {
			h.renderer.renderError(w, r, err)
			return
		}
		current, gerr := settings.Get(r.Context(), h.db, h.saveDir)
		if gerr != nil {
			h.renderer.renderError(w, r, gerr)
			return
		}
		h.renderer.renderPageStatus(w, r, errors.As(err).Status, "settings", SettingsPageData{
			PageData: h.renderer.page("Settings", "settings"),
			Settings: current,
			Error:    errors.As(err).Message,
		})
		return
	}

	if wantsJSON(r) {
		s, err := settings.Get(r.Context(), h.db, h.saveDir)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		renderJSON(w, http.StatusOK, s)
		return
	}
	http.Redirect(w, r, "/settings?saved=1", http.StatusSeeOther)
}

// HandleAbout handles GET /about.
func (h *Handlers) HandleAbout(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "about", AboutPageData{
		PageData:     h.renderer.page("About", "about"),
		RenderedHTML: renderMarkdown(h.about),
	})
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, errors.NewInvalidRequest("screenshot ID is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid screenshot ID %q", raw))
	}
	return id, nil
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
