package honeypot

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"lurefield/internal/config"
	"lurefield/internal/decoy"
	"lurefield/internal/logger"
	"lurefield/internal/metrics"
	"lurefield/internal/signature"
)

// HTTPHoneypot serves the fake WordPress site and captures login posts and
// suspicious requests.
type HTTPHoneypot struct {
	sink     logger.Emitter
	paths    *signature.Matcher
	seeds    *signature.Matcher
	assetDir string
	delay    time.Duration
	metrics  *metrics.Metrics
}

func NewHTTPHoneypot(sink logger.Emitter) *HTTPHoneypot {
	return &HTTPHoneypot{
		sink:     sink,
		paths:    signature.SuspiciousPaths(),
		seeds:    signature.SQLQuerySeeds(),
		assetDir: "images",
		delay:    config.HTTPResponseDelay,
	}
}

// Router builds the fake site's route table. The catch-all keeps unknown
// paths inside the observing middleware.
func (h *HTTPHoneypot) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.observe)

	r.HandleFunc("/", h.handleIndex)
	r.HandleFunc("/wp-login.php", h.handleLogin).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/wp-admin", h.handleAdmin).Methods(http.MethodGet)
	r.HandleFunc("/logo.png", h.handleLogo).Methods(http.MethodGet)
	r.PathPrefix("/").HandlerFunc(h.handleNotFound)

	return r
}

// Serve runs the site on ln until ctx is cancelled. Connection open/close
// observations come from the server's ConnState hook.
func (h *HTTPHoneypot) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ConnState: func(c net.Conn, state http.ConnState) {
			switch state {
			case http.StateNew:
				if h.metrics != nil {
					h.metrics.IncConnections(config.ServiceHTTP)
				}
				h.sink.Emit(logger.NewObservation(config.ServiceHTTP,
					fmt.Sprintf("Connection from %s", c.RemoteAddr())).
					WithRemote(c.RemoteAddr().String()).
					WithSeverity(logger.SeverityDebug))
			case http.StateClosed:
				h.sink.Emit(logger.NewObservation(config.ServiceHTTP,
					fmt.Sprintf("Connection closed: %s", c.RemoteAddr())).
					WithRemote(c.RemoteAddr().String()).
					WithSeverity(logger.SeverityDebug))
			}
		},
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// observe delays every response to look like a slow commodity application,
// then emits the per-request observation, classified against the
// suspicious-path and SQLi-seed catalogs.
func (h *HTTPHoneypot) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(h.delay)

		obs := logger.NewObservation(config.ServiceHTTP,
			fmt.Sprintf("HTTP request - IP: %s, Method: %s, Path: %s",
				hostOnly(r.RemoteAddr), r.Method, r.URL.Path)).
			WithRemote(r.RemoteAddr).
			WithAttr("method", r.Method).
			WithAttr("path", r.URL.Path).
			WithAttr("headers", r.Header)

		if labels := h.paths.Classify(r.URL.Path); len(labels) > 0 {
			obs.WithSeverity(logger.SeverityWarning).
				WithAttr("suspicious_path", labels[0])
			obs.Message = strings.Replace(obs.Message, "HTTP request", "Suspicious HTTP request", 1)
		} else if labels := h.seeds.Classify(r.URL.RawQuery); len(labels) > 0 {
			obs.WithSeverity(logger.SeverityWarning).
				WithAttr("sql_injection", labels[0])
			obs.Message = strings.Replace(obs.Message, "HTTP request", "Suspicious HTTP request", 1)
		}

		h.sink.Emit(obs)
		next.ServeHTTP(w, r)
	})
}

func (h *HTTPHoneypot) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.writeHTML(w, http.StatusOK, decoy.HomePage)
}

func (h *HTTPHoneypot) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeHTML(w, http.StatusOK, decoy.LoginPage)
		return
	}

	_ = r.ParseForm()
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	// Credential capture happens before the error page goes out.
	h.sink.Emit(logger.NewObservation(config.ServiceHTTP,
		fmt.Sprintf("Login attempt - IP: %s, Username: '%s', Password: '%s'",
			hostOnly(r.RemoteAddr), username, password)).
		WithRemote(r.RemoteAddr).
		WithSeverity(logger.SeverityWarning).
		WithAttr("username", username).
		WithAttr("password", password).
		WithAttr("login_page", r.URL.Path).
		Credential())

	h.writeHTML(w, http.StatusUnauthorized, decoy.LoginErrorPage)
}

func (h *HTTPHoneypot) handleAdmin(w http.ResponseWriter, r *http.Request) {
	h.writeHTML(w, http.StatusOK, decoy.AdminPage)
}

func (h *HTTPHoneypot) handleLogo(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(filepath.Join(h.assetDir, "logo.png"))
	if err != nil {
		h.setDeceptionHeaders(w)
		http.Error(w, "404 - Page not found", http.StatusNotFound)
		return
	}
	h.setDeceptionHeaders(w)
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *HTTPHoneypot) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.setDeceptionHeaders(w)
	http.Error(w, "404 - Page not found", http.StatusNotFound)
}

func (h *HTTPHoneypot) writeHTML(w http.ResponseWriter, status int, body string) {
	h.setDeceptionHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (h *HTTPHoneypot) setDeceptionHeaders(w http.ResponseWriter) {
	w.Header().Set("Server", config.HTTPServerHeader)
	w.Header().Set("X-Powered-By", config.HTTPPoweredByHeader)
}
