// Package api exposes HTTP handlers for the signup service.
package api

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"example.com/signup/internal/domain"
	"example.com/signup/internal/web"
)

// IndexPath is where the root and unmatched GET requests are redirected.
const IndexPath = "/static/index.html"

// Handler coordinates HTTP requests with the activity directory.
type Handler struct {
	directory *domain.Directory
}

// NewHandler builds a Handler.
func NewHandler(directory *domain.Directory) *Handler {
	return &Handler{directory: directory}
}

// RegisterRoutes wires endpoints to the mux. Every pattern carries a method so
// the GET catch-all does not collide with routes registered by the caller.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /activities", h.listActivities)
	mux.HandleFunc("GET /activities/{name}", h.getActivity)
	mux.HandleFunc("POST /activities/{name}/signup", h.signup)
	mux.HandleFunc("POST /activities/{name}/unregister", h.unregister)
	mux.HandleFunc("DELETE /activities/{name}/participants", h.unregister)
	mux.HandleFunc("GET "+IndexPath, serveIndex)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(web.Assets())))
	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("GET /", redirectToIndex)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func redirectToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, IndexPath, http.StatusTemporaryRedirect)
}

// serveIndex answers IndexPath directly. http.FileServer would redirect a path
// ending in index.html to its directory.
func serveIndex(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(web.Assets(), "index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, "index.html", time.Time{}, bytes.NewReader(page))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.directory.List(r.Context()))
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.directory.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	conf, err := h.directory.Enroll(r.Context(), r.PathValue("name"), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conf)
}

func (h *Handler) unregister(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	conf, err := h.directory.Withdraw(r.Context(), r.PathValue("name"), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conf)
}

// emailParam reads the required email query parameter. Only a missing or empty
// value is rejected; the address is otherwise used exactly as sent.
func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "missing email parameter")
		return "", false
	}
	return email, true
}

// writeDomainError maps directory error kinds to HTTP statuses. Conflicts are
// reported as 400 to match the established client contract.
func writeDomainError(w http.ResponseWriter, err error) {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		writeError(w, http.StatusNotFound, domain.KindNotFound.String(), err.Error())
	case domain.KindConflict:
		writeError(w, http.StatusBadRequest, domain.KindConflict.String(), err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
