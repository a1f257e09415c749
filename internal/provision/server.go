// Package provision serves the captive-portal configuration flow used
// when the device has no valid settings.
package provision

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/phonorad/weatherclock/internal/settings"
)

// DefaultDomain is the captive-portal hostname the DNS catchall resolves
// to the device's own address.
const DefaultDomain = "weatherclock.local"

// Store persists the submitted settings.
type Store interface {
	Save(s *settings.Settings) error
}

// FileStore saves settings to a file on the device filesystem.
type FileStore struct {
	Path string
}

func (f FileStore) Save(s *settings.Settings) error {
	return s.Save(f.Path)
}

// Server serves the configuration form and accepts the submission. After
// a successful save it invokes the restart callback so the device can
// come back up in Running mode.
type Server struct {
	httpServer *http.Server
	domain     string
	store      Store
	onSaved    func()
}

// New creates a provisioning Server. domain is the captive hostname;
// onSaved runs after settings are persisted and the response is written
// (it typically restarts the device and never returns).
func New(addr, domain string, store Store, onSaved func()) *Server {
	if domain == "" {
		domain = DefaultDomain
	}
	s := &Server{domain: strings.ToLower(domain), store: store, onSaved: onSaved}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/configure", s.handleConfigure)

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

// onCaptiveDomain reports whether the request was addressed to the
// portal hostname. Captive clients probing arbitrary hosts get redirected
// there instead.
func (s *Server) onCaptiveDomain(r *http.Request) bool {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host) == s.domain
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "http://"+s.domain+"/", http.StatusFound)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if !s.onCaptiveDomain(r) {
		s.redirect(w, r)
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderForm(w)
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	if !s.onCaptiveDomain(r) {
		s.redirect(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	sub := &settings.Settings{
		SSID:         r.PostFormValue("ssid"),
		Password:     r.PostFormValue("password"),
		Zip:          r.PostFormValue("zip"),
		Timezone:     strings.ToLower(r.PostFormValue("timezone")),
		ManualOffset: r.PostFormValue("manual_offset"),
		UseDST:       r.PostFormValue("use_dst") != "",
	}
	if err := sub.Validate(); err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		renderError(w, err)
		return
	}
	if err := s.store.Save(sub); err != nil {
		log.Printf("provision: save settings: %v", err)
		http.Error(w, "could not save settings", http.StatusInternalServerError)
		return
	}
	log.Printf("provision: saved settings for ssid %q zip %s", sub.SSID, sub.Zip)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderConfigured(w, sub.SSID)

	// Restart only after the response has been written so the browser
	// sees the confirmation page.
	if s.onSaved != nil {
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		go s.onSaved()
	}
}
