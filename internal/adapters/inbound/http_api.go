package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

// batchRequest is the body of POST /api/batches
type batchRequest struct {
	Emails []*core.Email `json:"emails" validate:"required,min=1,dive,required"`
}

// EmailResult pairs an email with its processing envelope
type EmailResult struct {
	Email    *core.Email             `json:"email"`
	Response core.ProcessingResponse `json:"response"`
}

// ScenarioResult is the body returned when replaying a scenario
type ScenarioResult struct {
	Scenario string        `json:"scenario"`
	Results  []EmailResult `json:"results"`
}

// BreakerReporter exposes a backend's circuit breaker state
type BreakerReporter interface {
	Name() string
	BreakerState() string
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status   string            `json:"status"`
	Threads  *int              `json:"threads,omitempty"`
	Breakers map[string]string `json:"breakers,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// HTTPAPI serves the triage service over HTTP
type HTTPAPI struct {
	handler      EmailHandler
	scenarios    *ScenarioSet
	logger       *zap.Logger
	listenAddr   string
	maxBodyBytes int64
	validate     *validator.Validate
	translator   ut.Translator
	server       *http.Server
	threads      core.ThreadRepository
	breakers     []BreakerReporter
}

// NewHTTPAPI creates a new HTTP API
func NewHTTPAPI(handler EmailHandler, scenarios *ScenarioSet, logger *zap.Logger, listenAddr string, maxBodyBytes int64) *HTTPAPI {
	if scenarios == nil {
		scenarios, _ = NewScenarioSet(nil)
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 10 * 1024 * 1024
	}

	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	trans, _ := uni.GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names in validation messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "-" || tag == "" {
			return fld.Name
		}
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		return tag
	})
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	return &HTTPAPI{
		handler:      handler,
		scenarios:    scenarios,
		logger:       logger,
		listenAddr:   listenAddr,
		maxBodyBytes: maxBodyBytes,
		validate:     v,
		translator:   trans,
	}
}

// WithHealth makes /healthz report the thread store and backend breakers
func (a *HTTPAPI) WithHealth(threads core.ThreadRepository, breakers ...BreakerReporter) *HTTPAPI {
	a.threads = threads
	a.breakers = breakers
	return a
}

// Routes returns the API router
func (a *HTTPAPI) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/emails", a.postEmail)
		r.Post("/batches", a.postBatch)
		r.Get("/scenarios", a.listScenarios)
		r.Get("/scenarios/{id}", a.runScenario)
	})
	return r
}

// Start starts the HTTP server in the background
func (a *HTTPAPI) Start() error {
	a.server = &http.Server{
		Addr:              a.listenAddr,
		Handler:           a.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("HTTP API starting", zap.String("address", a.listenAddr))

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown stops the HTTP server gracefully
func (a *HTTPAPI) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// health answers 503 when the thread store cannot be read and reports
// "degraded" while any backend breaker is open.
func (a *HTTPAPI) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}

	if a.threads != nil {
		keys, err := a.threads.Threads(r.Context())
		if err != nil {
			a.logger.Error("Health check could not list threads", zap.Error(err))
			resp.Status = "unavailable"
			resp.Error = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		n := len(keys)
		resp.Threads = &n
	}

	if len(a.breakers) > 0 {
		resp.Breakers = make(map[string]string, len(a.breakers))
		for _, b := range a.breakers {
			state := b.BreakerState()
			resp.Breakers[b.Name()] = state
			if state == "open" {
				resp.Status = "degraded"
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *HTTPAPI) postEmail(w http.ResponseWriter, r *http.Request) {
	var email core.Email
	if !a.bind(w, r, &email) {
		return
	}
	writeJSON(w, http.StatusOK, a.handle(r.Context(), &email).Response)
}

func (a *HTTPAPI) postBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !a.bind(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, a.handleAll(r.Context(), req.Emails))
}

func (a *HTTPAPI) listScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"scenarios": a.scenarios.IDs()})
}

func (a *HTTPAPI) runScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sc, ok := a.scenarios.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("unknown scenario %q", id)})
		return
	}
	a.logger.Info("Replaying scenario", zap.String("scenario", id), zap.Int("emails", len(sc.Emails)))
	writeJSON(w, http.StatusOK, ScenarioResult{Scenario: id, Results: a.handleAll(r.Context(), sc.Emails)})
}

// handleAll processes emails strictly in order
func (a *HTTPAPI) handleAll(ctx context.Context, emails []*core.Email) []EmailResult {
	results := make([]EmailResult, 0, len(emails))
	for _, email := range emails {
		results = append(results, a.handle(ctx, email))
	}
	return results
}

func (a *HTTPAPI) handle(ctx context.Context, email *core.Email) EmailResult {
	if strings.TrimSpace(email.ID) == "" {
		email.ID = uuid.NewString()
	}
	return EmailResult{Email: email, Response: core.Envelope(a.handler.HandleEmail(ctx, email))}
}

// bind decodes and validates a JSON body, writing a 400 on failure
func (a *HTTPAPI) bind(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, a.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid JSON body: %v", err)})
		return false
	}

	if err := a.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, fe.Translate(a.translator))
			}
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Details: details})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
