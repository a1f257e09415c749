package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/phonorad/weatherclock/internal/status"
)

// Server serves the update UI and upload/verify endpoints while the
// device is in Updating mode.
type Server struct {
	httpServer *http.Server
	stager     *Stager
	version    string
	tracker    *status.Tracker
	onDone     func(updated bool)

	manifest map[string]string
}

// New creates an update Server. version is reported by GET /version and
// tracker feeds GET /status (nil disables the endpoint). onDone runs
// after /finalize succeeds or /continue responds; updated reports whether
// new files were promoted. It typically restarts the device and never
// returns.
func New(addr string, stager *Stager, version string, tracker *status.Tracker, onDone func(updated bool)) *Server {
	s := &Server{stager: stager, version: version, tracker: tracker, onDone: onDone}

	mux := http.NewServeMux()
	mux.HandleFunc("/swup", s.handleIndex)
	mux.HandleFunc("/version", s.handleVersion)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/favicon.ico", s.handleFavicon)
	mux.HandleFunc("/continue", s.handleContinue)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/checksums", s.handleChecksums)
	mux.HandleFunc("/finalize", s.handleFinalize)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderUpdatePage(w, s.version)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, s.version)
}

// handleStatus reports runtime state carried over from the Running-mode
// loop, so an operator mid-update can see what the clock last knew.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		http.Error(w, "status unavailable", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(s.tracker.Snapshot()))
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// handleContinue leaves update mode without applying anything. The
// response is written before the restart fires so the browser sees it.
func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.stager.Discard(); err != nil {
		log.Printf("update: discard staged files: %v", err)
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "Restarting device...")
	s.done(w, false)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		http.Error(w, "missing filename", http.StatusBadRequest)
		return
	}
	n, err := s.stager.Stage(filename, r.Body)
	if err != nil {
		log.Printf("update: upload %s: %v", filename, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("update: staged %s (%d bytes)", filename, n)
	fmt.Fprintf(w, "Saved %d bytes to %s", n, filename)
}

// handleChecksums records the manifest used by a later /finalize.
func (s *Server) handleChecksums(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var manifest map[string]string
	if err := json.NewDecoder(r.Body).Decode(&manifest); err != nil {
		http.Error(w, "bad manifest", http.StatusBadRequest)
		return
	}
	s.manifest = manifest
	fmt.Fprintf(w, "Recorded %d checksums", len(manifest))
}

// handleFinalize verifies and promotes the staged files. On checksum
// failure the staged files are gone, the live files are untouched, and
// the device does NOT restart, so the client can retry the whole upload.
func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.manifest == nil {
		http.Error(w, "no checksums recorded", http.StatusBadRequest)
		return
	}
	if err := s.stager.Finalize(s.manifest); err != nil {
		log.Printf("update: finalize: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, ErrChecksum) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}
	s.manifest = nil
	log.Printf("update: applied, restarting")
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "Update applied, restarting device...")
	s.done(w, true)
}

func (s *Server) done(w http.ResponseWriter, updated bool) {
	if s.onDone == nil {
		return
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	go s.onDone(updated)
}
