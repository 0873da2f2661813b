package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/constituent-twin/internal/chat"
	"github.com/sells-group/constituent-twin/internal/twin"
)

const maxBodyBytes = 2 << 20

// pinger reports backing store health.
type pinger interface {
	Ping(ctx context.Context) error
}

type api struct {
	svc          *twin.Service
	health       pinger // may be nil
	defaultCount int
	validate     *validator.Validate
	log          *zap.Logger
}

type personasRequest struct {
	Count   int  `json:"count" validate:"omitempty,min=1"`
	Refresh bool `json:"refresh"`
}

type summaryRequest struct {
	Text string `json:"text" validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// buildRouter wires the HTTP API. health may be nil.
func buildRouter(svc *twin.Service, health pinger, origins []string, defaultCount int) http.Handler {
	if defaultCount < 1 {
		defaultCount = 5
	}
	a := &api{
		svc:          svc,
		health:       health,
		defaultCount: defaultCount,
		validate:     validator.New(),
		log:          zap.L().With(zap.String("component", "api")),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", a.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/regions/{region}", func(r chi.Router) {
			r.Get("/profile", a.handleProfile)
			r.Post("/personas", a.handlePersonas)
			r.Post("/summary", a.handleSummary)
			r.Delete("/cache", a.handleInvalidate)
		})
		r.Post("/chat", a.handleChat)
	})

	return r
}

func (a *api) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health.Ping(r.Context()); err != nil {
			a.log.Warn("health check: store ping failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": "unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Profile(r.Context(), chi.URLParam(r, "region")))
}

func (a *api) handlePersonas(w http.ResponseWriter, r *http.Request) {
	var req personasRequest
	if !a.decodeOptional(w, r, &req) {
		return
	}
	if req.Count == 0 {
		req.Count = a.defaultCount
	}

	batch, err := a.svc.Personas(r.Context(), chi.URLParam(r, "region"), req.Count, req.Refresh)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (a *api) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if !a.decode(w, r, &req) {
		return
	}

	sum, err := a.svc.Summarize(r.Context(), chi.URLParam(r, "region"), req.Text)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *api) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	region := chi.URLParam(r, "region")
	n, err := a.svc.Invalidate(r.Context(), region)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"region": region, "deleted": n})
}

func (a *api) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if !a.decode(w, r, &req) {
		return
	}

	reply, err := a.svc.Chat(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// decode reads a JSON body into dst and validates its struct tags. It writes
// a 400 response and returns false on failure.
func (a *api) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	return a.decodeBody(w, r, dst, false)
}

// decodeOptional is decode for endpoints where every field has a default.
// A missing or empty body, chunked or not, leaves dst untouched.
func (a *api) decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	return a.decodeBody(w, r, dst, true)
}

func (a *api) decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	if r.Body == nil {
		if allowEmpty {
			return true
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (a *api) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, twin.ErrInvalidCount),
		errors.Is(err, twin.ErrEmptyPolicy),
		errors.Is(err, chat.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		a.log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
