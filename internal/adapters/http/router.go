package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/place-archive/internal/config"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

const metricsService = "api"

// SessionTokens issues and verifies the client-held session token.
type SessionTokens interface {
	Issue(userID string) (string, error)
	Verify(raw string) (string, error)
}

// RequestMetrics is the subset of the Prometheus recorder the API reports to.
type RequestMetrics interface {
	Middleware(service string, next http.Handler) http.Handler
	Handler() http.Handler
	RecordExtraction(succeeded, failed, places int, duration time.Duration)
	RecordSaveOutcome(outcome string)
}

type Services struct {
	Auth       ports.Authenticator
	Sessions   SessionTokens
	Categories ports.CategoryService
	Extractor  ports.PlaceExtractor
	Finder     ports.PlaceFinder
	Saver      ports.PlaceSaver
	Library    ports.PlaceLibrary
	Feedback   ports.FeedbackService
	Metrics    RequestMetrics
	// OpenAPI enables request validation when set.
	OpenAPI *openapi3.T
}

type Router struct {
	cfg config.Config
	svc Services
}

func NewRouter(cfg config.Config, svc Services) *Router {
	return &Router{cfg: cfg, svc: svc}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.svc.Metrics != nil {
		mux.Handle("GET /metrics", rt.svc.Metrics.Handler())
	}

	mux.HandleFunc("POST /v1/auth", rt.authenticate)
	mux.HandleFunc("GET /v1/categories", rt.authed(rt.listCategories))
	mux.HandleFunc("POST /v1/extractions", rt.authed(rt.extractPlaces))
	mux.HandleFunc("GET /v1/places/search", rt.authed(rt.searchPlaces))
	mux.HandleFunc("GET /v1/places/export.xlsx", rt.authed(rt.exportPlaces))
	mux.HandleFunc("GET /v1/places", rt.authed(rt.listPlaces))
	mux.HandleFunc("POST /v1/places", rt.authed(rt.savePlace))
	mux.HandleFunc("DELETE /v1/places/{id}", rt.authed(rt.deletePlace))
	mux.HandleFunc("GET /v1/feedback", rt.authed(rt.listFeedback))
	mux.HandleFunc("POST /v1/feedback", rt.authed(rt.submitFeedback))

	var handler http.Handler = mux
	if rt.svc.OpenAPI != nil {
		validator, err := newRequestValidator(rt.svc.OpenAPI)
		if err != nil {
			slog.Error("openapi_validation_disabled", "error", err)
		} else {
			handler = validator.middleware(handler)
		}
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.svc.Metrics != nil {
		handler = rt.svc.Metrics.Middleware(metricsService, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) authed(next http.HandlerFunc) http.HandlerFunc {
	return authMiddleware(rt.svc.Sessions, next)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps err to a status and logs server-side failures.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(dst)
}
