package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"wordcheck.org/internal/audit"
	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/blobs"
	"wordcheck.org/internal/events"
	"wordcheck.org/internal/obs"
	"wordcheck.org/internal/records"
)

const (
	collUsers   = "users"
	collFiles   = "files"
	collReports = "reports"

	defaultTokenTTL   = 24 * time.Hour
	jsonBodyLimit     = 1 << 20
	multipartOverhead = 1 << 20
)

// API is the mock document-similarity service.
type API struct {
	router    *mux.Router
	records   records.Store
	blobs     blobs.Store
	hub       *events.Hub
	issuer    *auth.Issuer
	version   string
	tokenTTL  time.Duration
	maxUpload int64
	origins   []string
	loginRate int
	now       func() time.Time
}

// Option configures an API.
type Option func(*API)

func WithVersion(v string) Option { return func(a *API) { a.version = v } }

func WithTokenTTL(d time.Duration) Option {
	return func(a *API) {
		if d > 0 {
			a.tokenTTL = d
		}
	}
}

// WithMaxUploadBytes caps the multipart body of POST /api/files/upload.
func WithMaxUploadBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxUpload = n
		}
	}
}

// WithCORSOrigins replaces the allowed browser origins.
func WithCORSOrigins(origins []string) Option {
	return func(a *API) { a.origins = origins }
}

// WithLoginRate limits login attempts per client IP per minute. Zero disables it.
func WithLoginRate(perMinute int) Option {
	return func(a *API) { a.loginRate = perMinute }
}

func WithHub(h *events.Hub) Option {
	return func(a *API) {
		if h != nil {
			a.hub = h
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *API) {
		if now != nil {
			a.now = now
		}
	}
}

// New wires the routes. Every record mutation is published to the event hub.
func New(store records.Store, blobStore blobs.Store, issuer *auth.Issuer, opts ...Option) *API {
	a := &API{
		blobs:     blobStore,
		issuer:    issuer,
		version:   "dev",
		tokenTTL:  defaultTokenTTL,
		maxUpload: 10 << 20,
		loginRate: 30,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.hub == nil {
		a.hub = events.NewHub()
	}
	a.records = events.Observe(store, a.hub)
	a.routes()
	return a
}

func (a *API) routes() {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", a.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.Ready).Methods(http.MethodGet)
	r.HandleFunc("/v1/info", a.Info).Methods(http.MethodGet)
	r.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	var login http.Handler = http.HandlerFunc(a.login)
	if a.loginRate > 0 {
		login = RateLimit(login, a.loginRate, a.loginRate)
	}
	api.Handle("/auth/login", login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", a.logout).Methods(http.MethodPost)

	p := api.NewRoute().Subrouter()
	p.Use(a.withAuth)
	p.HandleFunc("/auth/me", a.me).Methods(http.MethodGet)
	p.HandleFunc("/events", a.Stream).Methods(http.MethodGet)

	p.HandleFunc("/files", a.listFiles).Methods(http.MethodGet)
	p.HandleFunc("/files/upload", a.uploadFile).Methods(http.MethodPost)
	p.HandleFunc("/files/compare", a.compareFiles).Methods(http.MethodPost)
	p.HandleFunc("/files/{id:[0-9]+}", a.deleteFile).Methods(http.MethodDelete)

	p.HandleFunc("/reports", a.listReports).Methods(http.MethodGet)
	p.HandleFunc("/reports/generate", a.generateReport).Methods(http.MethodPost)
	p.HandleFunc("/reports/{id:[0-9]+}", a.getReport).Methods(http.MethodGet)
	p.HandleFunc("/reports/{id:[0-9]+}", a.deleteReport).Methods(http.MethodDelete)
	p.HandleFunc("/reports/{id:[0-9]+}/download", a.downloadReport).Methods(http.MethodGet)

	// Files and reports change only through the routes above.
	p.Handle("/{collection:files|reports}", methodNotAllowed(http.MethodGet)).
		Methods(http.MethodPost, http.MethodPut, http.MethodPatch)
	p.Handle("/{collection:files|reports}/{id:[0-9]+}", methodNotAllowed(http.MethodGet, http.MethodDelete)).
		Methods(http.MethodPost, http.MethodPut, http.MethodPatch)

	a.crudRoutes(p, "/{collection:users}", RequireRole("admin"))
	a.crudRoutes(p, "/{collection}", nil)

	a.router = r
}

func methodNotAllowed(allow ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", strings.Join(allow, ", "))
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// crudRoutes registers list/create on prefix and get/replace/patch/delete on
// prefix/{id}. wrap, when set, guards all six.
func (a *API) crudRoutes(r *mux.Router, prefix string, wrap func(http.Handler) http.Handler) {
	handle := func(path string, h http.HandlerFunc, method string) {
		var handler http.Handler = h
		if wrap != nil {
			handler = wrap(handler)
		}
		r.Handle(path, handler).Methods(method)
	}
	item := prefix + "/{id:[0-9]+}"
	handle(prefix, a.listRecords, http.MethodGet)
	handle(prefix, a.createRecord, http.MethodPost)
	handle(item, a.getRecord, http.MethodGet)
	handle(item, a.replaceRecord, http.MethodPut)
	handle(item, a.patchRecord, http.MethodPatch)
	handle(item, a.deleteRecord, http.MethodDelete)
}

// Handler returns the fully wrapped handler for the HTTP server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = MaxBodyBytes(h, a.maxUpload+multipartOverhead)
	h = CORS(h, a.origins)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// Hub exposes the change feed, mostly for tests.
func (a *API) Hub() *events.Hub { return a.hub }

// Check pings both stores; it backs /readyz and the gRPC health service.
func (a *API) Check(ctx context.Context) error {
	if err := a.records.Ping(ctx); err != nil {
		return err
	}
	if a.blobs != nil {
		return a.blobs.Ping(ctx)
	}
	return nil
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "wordcheck-mockapi",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "wordcheck-mockapi",
		"time":    a.now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers {"message", "error", "request_id"}. message is the text
// a client shows; error is the status text.
func writeError(w http.ResponseWriter, r *http.Request, code int, message string) {
	writeJSON(w, code, map[string]any{
		"message":    message,
		"error":      http.StatusText(code),
		"request_id": audit.RequestIDFromContext(r.Context()),
	})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, jsonBodyLimit))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

// storeError maps record store failures onto HTTP statuses.
func storeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, records.ErrNotFound), errors.Is(err, records.ErrInvalidCollection):
		writeError(w, r, http.StatusNotFound, notFound)
	case errors.Is(err, records.ErrInvalidRecord):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		obs.Error("record store failure", err, map[string]any{
			"request_id": audit.RequestIDFromContext(r.Context()),
			"path":       r.URL.Path,
		})
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
